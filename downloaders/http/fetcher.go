package rgethttp

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rget-dev/rget/utils"
)

// fetchToWriter performs one logical GET of cfg.URL (optionally a byte
// range) and streams the body into dest. Transport failures and any status
// other than 200/206 are retried up to cfg.MaxRetries with backoff between
// attempts; 4xx responses are deliberately retried the same as 5xx. A read
// error mid-stream is not retried and propagates immediately.
func fetchToWriter(client *http.Client, cfg utils.DownloadConfig, rangeHeader string, dest io.Writer, progressCh chan<- int64) error {
	log := utils.GetLogger("fetch")
	policy := BackoffPolicy{
		BaseDelay: cfg.BackoffBase,
		Factor:    2.0,
		MaxDelay:  cfg.BackoffMax,
		Jitter:    true,
	}
	if cfg.BackoffBase <= 0 || cfg.BackoffMax <= 0 {
		policy = DefaultBackoffPolicy()
	}

	attempt := 0
	for {
		req, err := http.NewRequest("GET", cfg.URL, nil)
		if err != nil {
			return fmt.Errorf("error creating GET request: %v", err)
		}
		applyHeaders(req, cfg)
		if rangeHeader != "" {
			req.Header.Set("Range", rangeHeader)
		}
		var lastErr error
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		} else {
			streamErr := streamBody(resp.Body, dest, progressCh)
			resp.Body.Close()
			return streamErr
		}

		attempt++
		if attempt > cfg.MaxRetries {
			return fmt.Errorf("%s: giving up after %d retries: %w", cfg.URL, cfg.MaxRetries, lastErr)
		}
		delay := policy.NextDelay(attempt - 1)
		log.Debug().Err(lastErr).Int("attempt", attempt).Int("maxRetries", cfg.MaxRetries).Dur("delay", delay).Msg("Retrying request")
		time.Sleep(delay)
	}
}

// applyHeaders sets the user agent and custom headers, then fills in netrc
// basic auth only when no Authorization header was supplied by the user.
func applyHeaders(req *http.Request, cfg utils.DownloadConfig) {
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}
	req.Header.Set("Connection", "keep-alive")
	utils.AddNetrcAuth(req.Header, cfg.URL)
}

func streamBody(body io.Reader, dest io.Writer, progressCh chan<- int64) error {
	buffer := make([]byte, utils.DefaultBufferSize)
	for {
		bytesRead, err := body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := dest.Write(buffer[:bytesRead]); writeErr != nil {
				return fmt.Errorf("error writing response data: %v", writeErr)
			}
			if progressCh != nil {
				progressCh <- int64(bytesRead)
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("error reading response body: %v", err)
		}
	}
}
