package rgethttp

import (
	"fmt"
	"io"
	"os"

	"github.com/rget-dev/rget/utils"
)

// CombineChunks concatenates the numbered temp chunk files onto the output
// path in ascending chunk order, deleting each temp file as it is consumed.
// A missing chunk file means a fetch failed without being detected; the
// combine aborts immediately and the remaining temp files are kept.
func CombineChunks(outputPath string, chunkCount int) error {
	log := utils.GetLogger("combine")
	destFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %v", err)
	}
	defer destFile.Close()

	var totalWritten int64
	for chunkID := 0; chunkID < chunkCount; chunkID++ {
		tempPath := TempChunkPath(outputPath, chunkID)
		tempFile, err := os.Open(tempPath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("chunk file %s not found", tempPath)
			}
			return fmt.Errorf("error opening chunk file %s: %v", tempPath, err)
		}
		written, err := io.Copy(destFile, tempFile)
		tempFile.Close()
		if err != nil {
			return fmt.Errorf("error copying chunk %d data: %v", chunkID, err)
		}
		totalWritten += written
		if err := os.Remove(tempPath); err != nil {
			return fmt.Errorf("error removing temp chunk file %s: %v", tempPath, err)
		}
		log.Debug().Int("chunkId", chunkID).Int64("bytes", written).Msg("Combined chunk into final file")
	}
	log.Debug().Int64("totalWritten", totalWritten).Str("output", outputPath).Msg("Assembly complete")
	return nil
}
