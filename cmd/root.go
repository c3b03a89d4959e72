package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rget-dev/rget/internal"
	"github.com/rget-dev/rget/utils"
)

var (
	output      string
	outputDir   string
	inputFile   string
	urlListFile string
	workers     int
	connections int
	maxRetries  int
	backoffBase time.Duration
	backoffMax  time.Duration
	resume      bool
	timeout     time.Duration
	kaTimeout   time.Duration
	userAgent   string
	proxyURL    string
	headers     []string
	failureLog  string
	quiet       bool
	debug       bool
	cleanOutput bool
)

var RgetVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "rget [URL...]",
	Short:   "rget is a resumable, chunked CLI download client",
	Version: RgetVersion,
	Args:    cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		applyRCConfig(cmd)
		if cleanOutput {
			if output == "" {
				utils.PrintError("--clean requires --output")
				os.Exit(1)
			}
			if err := utils.Clean(output); err != nil {
				utils.PrintError("Error cleaning up temporary files")
				os.Exit(1)
			}
			utils.PrintSuccess("Temporary files cleaned up")
			return
		}

		entries, err := collectEntries(args)
		if err != nil {
			utils.PrintError(err.Error())
			os.Exit(1)
		}
		if len(entries) == 0 {
			utils.PrintError("No URL, --input file, or --urllist provided")
			os.Exit(1)
		}
		if err := internal.ValidateBatch(len(entries), output); err != nil {
			utils.PrintError(err.Error())
			os.Exit(1)
		}
		if len(entries) == 1 && output != "" {
			renewed := renewIfExists(output, resume)
			if renewed != output {
				utils.PrintInfo(fmt.Sprintf("%s exists, saving as %s", output, renewed))
			}
			entries[0].OutputPath = renewed
		}

		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		opts := utils.BatchConfig{
			Workers:     workers,
			Connections: connections,
			MaxRetries:  maxRetries,
			Resume:      resume,
			Quiet:       quiet,
			FailureLog:  failureLog,
			OutputDir:   outputDir,
			UserAgent:   userAgent,
			Headers:     utils.ParseHeaderArgs(headers),
			Timeout:     timeout,
			KATimeout:   kaTimeout,
			ProxyURL:    proxyURL,
			BackoffBase: backoffBase,
			BackoffMax:  backoffMax,
		}
		if err := internal.BatchDownload(entries, opts); err != nil {
			fmt.Println()
			utils.PrintError("Encountered failed operation(s)")
			os.Exit(1)
		}
	},
}

// collectEntries merges positional URLs, a plain text input file, and a
// YAML download list into one batch.
func collectEntries(args []string) ([]utils.DownloadEntry, error) {
	var entries []utils.DownloadEntry
	for _, arg := range args {
		parsed, err := u.Parse(arg)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, fmt.Errorf("invalid URL format: %s", arg)
		}
		entries = append(entries, utils.DownloadEntry{URL: arg})
	}
	if inputFile != "" {
		urls, err := utils.LoadURLFile(inputFile)
		if err != nil {
			return nil, err
		}
		for _, url := range urls {
			entries = append(entries, utils.DownloadEntry{URL: url})
		}
	}
	if urlListFile != "" {
		listEntries, err := utils.ReadDownloadList(urlListFile)
		if err != nil {
			return nil, err
		}
		entries = append(entries, listEntries...)
	}
	return entries, nil
}

// renewIfExists picks a numbered variant of path when the target already
// exists and the transfer is not resuming, so a finished download is never
// clobbered by a rerun.
func renewIfExists(path string, resume bool) string {
	if resume || path == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return utils.RenewOutputPath(path)
	}
	return path
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (rget infers file name if not provided)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Directory for inferred file names")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Path to text file with one URL per line ('#' comments allowed)")
	rootCmd.Flags().StringVarP(&urlListFile, "urllist", "l", "", "Path to YAML file containing URLs and output paths")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of URLs to download in parallel (0 = CPU count)")
	rootCmd.Flags().IntVarP(&connections, "connections", "c", 8, "Number of connections per download")
	rootCmd.Flags().IntVarP(&maxRetries, "max-retries", "r", 3, "Retries per request before a transfer counts as failed")
	rootCmd.Flags().DurationVar(&backoffBase, "backoff-base", 100*time.Millisecond, "Base delay between retries")
	rootCmd.Flags().DurationVar(&backoffMax, "backoff-max", 60*time.Second, "Maximum delay between retries")
	rootCmd.Flags().BoolVar(&resume, "resume", false, "Resume partially downloaded files")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser agent)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.Flags().StringVar(&failureLog, "log", "rget-failures.log", "Failure log path (url<TAB>error per line, appended)")

	// flags without shorthand
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress progress display")
	rootCmd.Flags().BoolVar(&cleanOutput, "clean", false, "Clean up temporary chunk files for provided output path")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
