package utils

import (
	"encoding/base64"
	"net/http"
	u "net/url"
	"os"
	"path/filepath"

	"github.com/jdx/go-netrc"
)

// LookupNetrc returns the login and password recorded for host in ~/.netrc.
func LookupNetrc(host string) (string, string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", "", false
	}
	n, err := netrc.Parse(filepath.Join(home, ".netrc"))
	if err != nil {
		return "", "", false
	}
	machine := n.Machine(host)
	if machine == nil {
		return "", "", false
	}
	login := machine.Get("login")
	password := machine.Get("password")
	if login == "" || password == "" {
		return "", "", false
	}
	return login, password, true
}

// AddNetrcAuth adds a Basic auth header for the URL's host from ~/.netrc.
// A user-supplied Authorization header always wins; the netrc value is only
// applied when none is present.
func AddNetrcAuth(headers http.Header, rawURL string) {
	if headers.Get("Authorization") != "" {
		return
	}
	parsed, err := u.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return
	}
	login, password, ok := LookupNetrc(parsed.Hostname())
	if !ok {
		return
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(login + ":" + password))
	headers.Set("Authorization", "Basic "+encoded)
}
