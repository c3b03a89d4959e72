package internal

import (
	"errors"

	"github.com/rget-dev/rget/utils"
)

// DownloadStrategy is the transfer mode chosen once per URL from the HEAD
// probe results, never re-evaluated mid-transfer.
type DownloadStrategy int

const (
	SingleStream DownloadStrategy = iota
	MultiStream
)

func (s DownloadStrategy) String() string {
	if s == MultiStream {
		return "multi-stream"
	}
	return "single-stream"
}

var errUnknownLength = errors.New("remote length unknown")

// decideStrategy picks the transfer mode. Anything that rules out ranged
// parallelism (failed probe, unknown length, no range support, a single
// connection, or a small file) falls back to the single stream. A non-nil
// error names the server-side condition that forced the fallback.
func decideStrategy(info *utils.RemoteFileInfo, probeErr error, connections int) (DownloadStrategy, error) {
	switch {
	case probeErr != nil:
		return SingleStream, probeErr
	case info == nil || info.Size < 0:
		return SingleStream, errUnknownLength
	case !info.AcceptsRanges:
		return SingleStream, utils.ErrRangeRequestsNotSupported
	case connections <= 1 || info.Size < utils.MinMultiStreamSize:
		return SingleStream, nil
	}
	return MultiStream, nil
}
