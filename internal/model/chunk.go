package model

// TextChunk is a contiguous, word-bounded segment of source text. Chunks are
// produced once per chunking call and are immutable afterwards.
type TextChunk struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	WordCount    int    `json:"wordCount"`
	CharCount    int    `json:"charCount"`
	StartIndex   int    `json:"startIndex"`
	EndIndex     int    `json:"endIndex"`
	ChunkIndex   int    `json:"chunkIndex"`
	OverlapStart bool   `json:"overlapStart"`
	OverlapEnd   bool   `json:"overlapEnd"`
	Hash         string `json:"hash"`
}

// ChunkingRequest carries parameters for the standalone chunking endpoint.
type ChunkingRequest struct {
	Text             string `json:"text" binding:"required,min=1"`
	ChunkSizeWords   int    `json:"chunkSizeWords" binding:"omitempty,min=100,max=2000"`
	OverlapWords     *int   `json:"overlapWords" binding:"omitempty,min=0,max=500"`
	RespectSentences *bool  `json:"respectSentences"`
}

// ChunkingResponse is the result of one chunking call.
type ChunkingResponse struct {
	Chunks            []TextChunk `json:"chunks"`
	TotalChunks       int         `json:"totalChunks"`
	OriginalWordCount int         `json:"originalWordCount"`
	ChunkingTimeMs    int64       `json:"chunkingTimeMs"`
}
