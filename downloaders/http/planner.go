package rgethttp

import (
	"fmt"

	"github.com/rget-dev/rget/utils"
)

// PlanChunks partitions contentLength bytes into count contiguous ranges.
// Every chunk spans contentLength/count bytes except the last, which runs to
// the end of the resource and absorbs the integer-division remainder. The
// ranges tile [0, contentLength) exactly.
//
// Callers must route worker counts <= 1 and files under
// utils.MinMultiStreamSize through the single-stream path instead.
func PlanChunks(contentLength int64, count int) []utils.DownloadChunk {
	chunkSize := contentLength / int64(count)
	chunks := make([]utils.DownloadChunk, 0, count)
	for i := 0; i < count; i++ {
		startByte := int64(i) * chunkSize
		endByte := startByte + chunkSize - 1
		if i == count-1 {
			endByte = contentLength - 1
		}
		chunks = append(chunks, utils.DownloadChunk{
			ID:        i,
			StartByte: startByte,
			EndByte:   endByte,
		})
	}
	return chunks
}

// TempChunkPath names the temporary file for one chunk of an output path.
func TempChunkPath(outputPath string, chunkID int) string {
	return fmt.Sprintf("%s.tmp.chunk.%d", outputPath, chunkID)
}
