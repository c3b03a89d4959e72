package rgethttp

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/rget-dev/rget/utils"
)

// PerformMultiDownload fetches cfg.URL as cfg.Connections ranged chunks in
// parallel and combines them into the final file. If any chunk fails
// permanently the whole transfer fails and nothing is combined; the temp
// files of the surviving chunks are left behind for diagnosis.
func PerformMultiDownload(cfg utils.DownloadConfig, client *http.Client, fileSize int64, progressCh chan<- int64) error {
	log := utils.GetLogger("multi-download")
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPath), 0755); err != nil {
		return fmt.Errorf("error creating output directory: %v", err)
	}

	chunks := PlanChunks(fileSize, cfg.Connections)
	log.Debug().Int64("fileSize", fileSize).Int("chunks", len(chunks)).Msg("Starting multi-stream download")

	var wg sync.WaitGroup
	chunkErrs := make([]error, len(chunks))
	for i := range chunks {
		wg.Add(1)
		go func(chunk utils.DownloadChunk, result *error) {
			defer wg.Done()
			*result = downloadChunk(cfg, client, chunk, progressCh)
		}(chunks[i], &chunkErrs[i])
	}
	wg.Wait()

	var failed []int
	for i, err := range chunkErrs {
		if err != nil {
			log.Debug().Err(err).Int("chunkId", i).Msg("Chunk failed permanently")
			failed = append(failed, i)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("download incomplete: %d of %d chunks failed: %v", len(failed), len(chunks), failed)
	}

	if err := CombineChunks(cfg.OutputPath, len(chunks)); err != nil {
		return fmt.Errorf("error combining chunks: %w", err)
	}
	return nil
}

func downloadChunk(cfg utils.DownloadConfig, client *http.Client, chunk utils.DownloadChunk, progressCh chan<- int64) error {
	log := utils.GetLogger("chunk").With().Int("chunkId", chunk.ID).Logger()
	tempPath := TempChunkPath(cfg.OutputPath, chunk.ID)
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("error creating temp chunk file: %v", err)
	}
	defer tempFile.Close()

	rangeHeader := fmt.Sprintf("bytes=%d-%d", chunk.StartByte, chunk.EndByte)
	log.Debug().Str("range", rangeHeader).Msg("Sending range request")
	return fetchToWriter(client, cfg, rangeHeader, tempFile, progressCh)
}
