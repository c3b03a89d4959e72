package internal

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rget-dev/rget/utils"
)

func testBatchConfig(tempDir string) utils.BatchConfig {
	return utils.BatchConfig{
		Workers:     2,
		Connections: 1,
		MaxRetries:  0,
		Quiet:       true,
		FailureLog:  filepath.Join(tempDir, "failures.log"),
		UserAgent:   "rget-test",
		Timeout:     10 * time.Second,
		KATimeout:   10 * time.Second,
		BackoffBase: time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
	}
}

// countingServer serves fixed content per path and counts GETs, optionally
// failing the first N GETs of a path.
func countingServer(content map[string][]byte, failFirst map[string]int) (*httptest.Server, func(path string) int) {
	var mu sync.Mutex
	gets := make(map[string]int)
	fails := make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := content[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.Header().Set("Accept-Ranges", "bytes")
			return
		}
		mu.Lock()
		gets[r.URL.Path]++
		shouldFail := fails[r.URL.Path] < failFirst[r.URL.Path]
		if shouldFail {
			fails[r.URL.Path]++
		}
		mu.Unlock()
		if shouldFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write(data)
	}))
	return server, func(path string) int {
		mu.Lock()
		defer mu.Unlock()
		return gets[path]
	}
}

func TestValidateBatch(t *testing.T) {
	assert.NoError(t, ValidateBatch(1, "out.bin"))
	assert.NoError(t, ValidateBatch(3, ""))
	assert.Error(t, ValidateBatch(2, "out.bin"))
}

func TestBatchSecondPassRetriesOnlyFailures(t *testing.T) {
	tempDir := t.TempDir()
	content := map[string][]byte{
		"/a.bin": []byte("content of a"),
		"/b.bin": []byte("content of b"),
		"/c.bin": []byte("content of c"),
	}
	server, getCount := countingServer(content, map[string]int{"/b.bin": 1})
	defer server.Close()

	entries := []utils.DownloadEntry{
		{URL: server.URL + "/a.bin", OutputPath: filepath.Join(tempDir, "a.bin")},
		{URL: server.URL + "/b.bin", OutputPath: filepath.Join(tempDir, "b.bin")},
		{URL: server.URL + "/c.bin", OutputPath: filepath.Join(tempDir, "c.bin")},
	}
	opts := testBatchConfig(tempDir)
	require.NoError(t, BatchDownload(entries, opts))

	// the second pass must only touch the URL that failed
	assert.Equal(t, 1, getCount("/a.bin"))
	assert.Equal(t, 2, getCount("/b.bin"))
	assert.Equal(t, 1, getCount("/c.bin"))

	for name, data := range content {
		got, err := os.ReadFile(filepath.Join(tempDir, filepath.Base(name)))
		require.NoError(t, err)
		assert.Equal(t, data, got)
	}
	_, err := os.Stat(opts.FailureLog)
	assert.True(t, os.IsNotExist(err), "failure log must stay absent when the retry pass recovers")
}

func TestBatchRetryExhaustionWritesFailureLog(t *testing.T) {
	tempDir := t.TempDir()
	content := map[string][]byte{"/always-fails.bin": []byte("unreachable")}
	server, getCount := countingServer(content, map[string]int{"/always-fails.bin": 1 << 20})
	defer server.Close()

	url := server.URL + "/always-fails.bin"
	entries := []utils.DownloadEntry{{URL: url, OutputPath: filepath.Join(tempDir, "out.bin")}}
	opts := testBatchConfig(tempDir)
	opts.MaxRetries = 2

	err := BatchDownload(entries, opts)
	require.Error(t, err, "a fully failed batch is a hard failure")

	// 1 initial + 2 retries per pass, over two passes
	assert.Equal(t, 6, getCount("/always-fails.bin"))

	logData, readErr := os.ReadFile(opts.FailureLog)
	require.NoError(t, readErr)
	lines := strings.Split(strings.TrimRight(string(logData), "\n"), "\n")
	require.Len(t, lines, 1)
	fields := strings.SplitN(lines[0], "\t", 2)
	require.Len(t, fields, 2)
	assert.Equal(t, url, fields[0])
	assert.NotEmpty(t, fields[1])
}

func TestBatchResumeCompletedFileIssuesNoGET(t *testing.T) {
	tempDir := t.TempDir()
	data := []byte("already on disk, every byte of it")
	content := map[string][]byte{"/file.bin": data}
	server, getCount := countingServer(content, nil)
	defer server.Close()

	outputPath := filepath.Join(tempDir, "file.bin")
	require.NoError(t, os.WriteFile(outputPath, data, 0644))

	entries := []utils.DownloadEntry{{URL: server.URL + "/file.bin", OutputPath: outputPath}}
	opts := testBatchConfig(tempDir)
	opts.Resume = true
	require.NoError(t, BatchDownload(entries, opts))

	assert.Equal(t, 0, getCount("/file.bin"))
	got, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDecideStrategy(t *testing.T) {
	big := &utils.RemoteFileInfo{Size: 8 * 1024 * 1024, AcceptsRanges: true}
	small := &utils.RemoteFileInfo{Size: 1000, AcceptsRanges: true}
	noRanges := &utils.RemoteFileInfo{Size: 8 * 1024 * 1024, AcceptsRanges: false}
	unknown := &utils.RemoteFileInfo{Size: -1, AcceptsRanges: true}

	strategy, reason := decideStrategy(big, nil, 4)
	assert.Equal(t, MultiStream, strategy)
	assert.NoError(t, reason)

	// configuration-side single stream, not a server limitation
	strategy, reason = decideStrategy(big, nil, 1)
	assert.Equal(t, SingleStream, strategy)
	assert.NoError(t, reason)

	strategy, reason = decideStrategy(small, nil, 4)
	assert.Equal(t, SingleStream, strategy)
	assert.NoError(t, reason)

	strategy, reason = decideStrategy(noRanges, nil, 4)
	assert.Equal(t, SingleStream, strategy)
	assert.ErrorIs(t, reason, utils.ErrRangeRequestsNotSupported)

	strategy, reason = decideStrategy(unknown, nil, 4)
	assert.Equal(t, SingleStream, strategy)
	assert.ErrorIs(t, reason, errUnknownLength)

	strategy, reason = decideStrategy(nil, assert.AnError, 4)
	assert.Equal(t, SingleStream, strategy)
	assert.ErrorIs(t, reason, assert.AnError)
}
