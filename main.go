package main

import "github.com/rget-dev/rget/cmd"

func main() {
	cmd.Execute()
}
