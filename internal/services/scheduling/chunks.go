package scheduling

import (
	"github.com/benvon/smart-schedule/internal/models"
	"github.com/google/uuid"
)

// BuildMultiChunkContext attaches chunk metadata to base without altering it.
// One chunk still counts as multi-chunk scheduling.
func BuildMultiChunkContext(base models.SchedulingContext, chunks []models.Task) models.MultiChunkContext {
	info := models.ChunkInfo{
		TotalChunks:            len(chunks),
		AllChunkIDs:            make([]uuid.UUID, 0, len(chunks)),
		ChunkTitles:            make([]string, 0, len(chunks)),
		ChunkDurations:         make([]int, 0, len(chunks)),
		IsMultiChunkScheduling: true,
	}
	for _, chunk := range chunks {
		info.AllChunkIDs = append(info.AllChunkIDs, chunk.ID)
		info.ChunkTitles = append(info.ChunkTitles, chunk.Title)
		info.ChunkDurations = append(info.ChunkDurations, ExtractTaskDuration(chunk))
	}

	return models.MultiChunkContext{
		SchedulingContext: base,
		ChunkInfo:         info,
	}
}
