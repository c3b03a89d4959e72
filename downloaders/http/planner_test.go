package rgethttp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanChunksExactTiling(t *testing.T) {
	lengths := []int64{1, 2, 100, 1003, 1024 * 1024, 10*1024*1024 + 7}
	for _, contentLength := range lengths {
		for _, count := range []int{2, 3, 4, 8} {
			if int64(count) > contentLength {
				continue
			}
			chunks := PlanChunks(contentLength, count)
			require.Len(t, chunks, count, "length=%d count=%d", contentLength, count)
			var next int64
			for i, chunk := range chunks {
				require.Equal(t, i, chunk.ID)
				require.Equal(t, next, chunk.StartByte, "gap or overlap at chunk %d (length=%d count=%d)", i, contentLength, count)
				require.GreaterOrEqual(t, chunk.EndByte, chunk.StartByte)
				next = chunk.EndByte + 1
			}
			require.Equal(t, contentLength, next, "ranges must cover the full resource")
		}
	}
}

func TestPlanChunksLastAbsorbsRemainder(t *testing.T) {
	chunks := PlanChunks(1003, 4)
	require.Len(t, chunks, 4)
	sizes := make([]int64, 4)
	for i, chunk := range chunks {
		sizes[i] = chunk.EndByte - chunk.StartByte + 1
	}
	assert.Equal(t, []int64{250, 250, 250, 253}, sizes)
	assert.Equal(t, int64(1002), chunks[3].EndByte)
}

func TestTempChunkPath(t *testing.T) {
	assert.Equal(t, "/tmp/out.bin.tmp.chunk.3", TempChunkPath("/tmp/out.bin", 3))
}
