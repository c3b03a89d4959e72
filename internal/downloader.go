package internal

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	rgethttp "github.com/rget-dev/rget/downloaders/http"
	"github.com/rget-dev/rget/utils"
)

// failureRecord captures a URL whose transfer exhausted its retries, with
// the output path already resolved so the retry pass targets the same file.
type failureRecord struct {
	Entry utils.DownloadEntry
	Err   error
}

// ValidateBatch rejects configurations that cannot be satisfied, before any
// network activity happens.
func ValidateBatch(urlCount int, outputPath string) error {
	if urlCount > 1 && outputPath != "" {
		return errors.New("cannot use a single output path with multiple URLs")
	}
	return nil
}

// BatchDownload runs the whole batch: a first pass over all entries on a
// bounded worker pool, then a second pass retrying only the failures with
// fresh attempt counters. Entries still failing after the second pass are
// appended to the failure log. The returned error is non-nil only when
// every entry in the batch ultimately failed.
func BatchDownload(entries []utils.DownloadEntry, opts utils.BatchConfig) error {
	log := utils.GetLogger("downloader")
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	log.Info().Int("totalFiles", len(entries)).Int("workers", opts.Workers).Int("connections", opts.Connections).Msg("Initiating download")

	client := utils.CreateHTTPClient(opts.Timeout, opts.KATimeout, opts.ProxyURL)
	progress := NewProgressManager(opts.Quiet)
	progress.StartDisplay()

	failures := runFirstPass(entries, opts, client, progress)
	succeeded := len(entries) - len(failures)

	// Second pass: one whole-URL retry for each first-pass failure. This is
	// deliberately a separate mechanism from the per-request retry loop
	// inside the fetcher, and runs with fresh attempt counters.
	var finalFailures []failureRecord
	for _, failure := range failures {
		log.Info().Str("url", failure.Entry.URL).Msg("Retrying failed download")
		if err := downloadOne(failure.Entry, opts, client, progress); err != nil {
			log.Error().Err(err).Str("url", failure.Entry.URL).Msg("Retry failed")
			finalFailures = append(finalFailures, failureRecord{Entry: failure.Entry, Err: err})
		} else {
			log.Info().Str("url", failure.Entry.URL).Msg("Retry succeeded")
			succeeded++
		}
	}

	progress.Stop()
	progress.ShowSummary(succeeded, len(entries))

	if len(finalFailures) > 0 {
		if err := writeFailureLog(opts.FailureLog, finalFailures); err != nil {
			log.Error().Err(err).Str("log", opts.FailureLog).Msg("Failed to write failure log")
		} else {
			log.Warn().Int("count", len(finalFailures)).Str("log", opts.FailureLog).Msg("Downloads permanently failed, see log for details")
		}
		if len(finalFailures) == len(entries) {
			return errors.New("all downloads failed after retries")
		}
	}
	return nil
}

// runFirstPass downloads each entry once, distributing entries over
// opts.Workers goroutines. Failures are collected under a mutex.
func runFirstPass(entries []utils.DownloadEntry, opts utils.BatchConfig, client *http.Client, progress *ProgressManager) []failureRecord {
	log := utils.GetLogger("downloader")
	var failures []failureRecord
	var failuresMu sync.Mutex

	entriesCh := make(chan utils.DownloadEntry, len(entries))
	for _, entry := range entries {
		entriesCh <- entry
	}
	close(entriesCh)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			logger := log.With().Int("workerID", workerID).Logger()
			for entry := range entriesCh {
				logger.Debug().Str("url", entry.URL).Msg("Worker starting download")
				resolved, err := downloadOneResolved(entry, opts, client, progress)
				if err != nil {
					logger.Error().Err(err).Str("url", entry.URL).Msg("Download failed")
					failuresMu.Lock()
					failures = append(failures, failureRecord{Entry: resolved, Err: err})
					failuresMu.Unlock()
				}
			}
		}(i + 1)
	}
	wg.Wait()
	return failures
}

// downloadOne transfers a single entry whose output path is already
// resolved (or resolvable), registering progress and picking the strategy
// from a fresh HEAD probe.
func downloadOne(entry utils.DownloadEntry, opts utils.BatchConfig, client *http.Client, progress *ProgressManager) error {
	_, err := downloadOneResolved(entry, opts, client, progress)
	return err
}

func downloadOneResolved(entry utils.DownloadEntry, opts utils.BatchConfig, client *http.Client, progress *ProgressManager) (utils.DownloadEntry, error) {
	log := utils.GetLogger("downloader")
	info, probeErr := utils.GetFileInfo(entry.URL, client, opts.UserAgent)
	if probeErr != nil {
		log.Debug().Err(probeErr).Str("url", entry.URL).Msg("HEAD probe failed, will use single stream")
	}

	entry.OutputPath = resolveOutputPath(entry, info, opts.OutputDir)
	remoteSize := int64(-1)
	if info != nil {
		remoteSize = info.Size
	}
	progress.Register(entry.OutputPath, remoteSize)

	progressCh := make(chan int64)
	var progressWg sync.WaitGroup
	progressWg.Add(1)
	go func(outputPath string) {
		defer progressWg.Done()
		var totalDownloaded int64
		for bytesDownloaded := range progressCh {
			progress.Update(outputPath, bytesDownloaded)
			totalDownloaded += bytesDownloaded
		}
		progress.Complete(outputPath, totalDownloaded)
	}(entry.OutputPath)

	cfg := utils.DownloadConfig{
		URL:         entry.URL,
		OutputPath:  entry.OutputPath,
		Connections: opts.Connections,
		MaxRetries:  opts.MaxRetries,
		Resume:      opts.Resume,
		UserAgent:   opts.UserAgent,
		Headers:     opts.Headers,
		BackoffBase: opts.BackoffBase,
		BackoffMax:  opts.BackoffMax,
	}

	strategy, fallbackReason := decideStrategy(info, probeErr, opts.Connections)
	if fallbackReason != nil {
		log.Debug().Err(fallbackReason).Str("url", entry.URL).Msg("Falling back to single stream")
	}
	log.Debug().Str("url", entry.URL).Str("strategy", strategy.String()).Msg("Strategy selected")
	var err error
	if strategy == MultiStream {
		err = rgethttp.PerformMultiDownload(cfg, client, info.Size, progressCh)
	} else {
		err = rgethttp.PerformSimpleDownload(cfg, client, remoteSize, progressCh)
	}
	close(progressCh)
	progressWg.Wait()
	if err != nil {
		progress.ReportError(entry.OutputPath, err)
		return entry, err
	}
	return entry, nil
}

func resolveOutputPath(entry utils.DownloadEntry, info *utils.RemoteFileInfo, outputDir string) string {
	if entry.OutputPath != "" {
		return entry.OutputPath
	}
	name := ""
	if info != nil {
		name = info.Filename
	}
	if name == "" {
		name = utils.FallbackFilename(entry.URL)
	}
	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	return name
}

// writeFailureLog appends one url<TAB>error line per permanent failure.
func writeFailureLog(path string, failures []failureRecord) error {
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("error opening failure log: %v", err)
	}
	defer logFile.Close()
	for _, failure := range failures {
		if _, err := fmt.Fprintf(logFile, "%s\t%s\n", failure.Entry.URL, failure.Err.Error()); err != nil {
			return fmt.Errorf("error writing failure log entry: %v", err)
		}
	}
	return nil
}
