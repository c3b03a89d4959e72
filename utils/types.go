package utils

import (
	"errors"
	"time"
)

// DefaultBufferSize is the unit in which response bodies are streamed to disk.
const DefaultBufferSize = 64 * 1024

// MinMultiStreamSize is the smallest file worth splitting into ranged chunks;
// below this the per-request overhead outweighs the parallelism.
const MinMultiStreamSize = 1024 * 1024

var ErrRangeRequestsNotSupported = errors.New("server doesn't support range requests")

type DownloadConfig struct {
	URL         string
	OutputPath  string
	Connections int
	MaxRetries  int
	Resume      bool
	UserAgent   string
	Headers     map[string]string
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// DownloadChunk is one planned byte range of a transfer; EndByte is
// inclusive.
type DownloadChunk struct {
	ID        int
	StartByte int64
	EndByte   int64
}

type DownloadEntry struct {
	URL        string `yaml:"url"`
	OutputPath string `yaml:"output,omitempty"`
}

// RemoteFileInfo is the result of the HEAD probe. Size is -1 when the server
// didn't report a usable Content-Length.
type RemoteFileInfo struct {
	Size          int64
	Filename      string
	AcceptsRanges bool
}

// BatchConfig carries the already-validated settings for one invocation.
type BatchConfig struct {
	Workers     int
	Connections int
	MaxRetries  int
	Resume      bool
	Quiet       bool
	FailureLog  string
	OutputDir   string
	UserAgent   string
	Headers     map[string]string
	Timeout     time.Duration
	KATimeout   time.Duration
	ProxyURL    string
	BackoffBase time.Duration
	BackoffMax  time.Duration
}
