package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rget-dev/rget/utils"
)

// applyRCConfig merges ~/.rgetrc (TOML) into the flag values, touching only
// flags the user didn't set on the command line.
func applyRCConfig(cmd *cobra.Command) {
	log := utils.GetLogger("config")
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	rcPath := filepath.Join(home, ".rgetrc")
	if _, err := os.Stat(rcPath); err != nil {
		return
	}
	v := viper.New()
	v.SetConfigFile(rcPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Str("path", rcPath).Msg("Ignoring unreadable rc file")
		return
	}
	log.Debug().Str("path", rcPath).Msg("Loaded rc file")

	flags := cmd.Flags()
	if !flags.Changed("max-retries") && v.IsSet("retries") {
		maxRetries = v.GetInt("retries")
	}
	if !flags.Changed("resume") && v.IsSet("resume") {
		resume = v.GetBool("resume")
	}
	if !flags.Changed("quiet") && v.IsSet("quiet") {
		quiet = v.GetBool("quiet")
	}
	if !flags.Changed("workers") && v.IsSet("workers") {
		workers = v.GetInt("workers")
	}
	if !flags.Changed("connections") && v.IsSet("connections") {
		connections = v.GetInt("connections")
	}
	if !flags.Changed("output-dir") && v.IsSet("output_dir") {
		outputDir = v.GetString("output_dir")
	}
	if !flags.Changed("header") && v.IsSet("headers") {
		headers = v.GetStringSlice("headers")
	}
	if !flags.Changed("log") && v.IsSet("log") {
		failureLog = v.GetString("log")
	}
	if !flags.Changed("backoff-base") && v.IsSet("backoff_base_ms") {
		backoffBase = time.Duration(v.GetInt("backoff_base_ms")) * time.Millisecond
	}
	if !flags.Changed("backoff-max") && v.IsSet("backoff_max_ms") {
		backoffMax = time.Duration(v.GetInt("backoff_max_ms")) * time.Millisecond
	}
}
