package models

// Document is a fetched page before any processing. It is handed from the
// loader to the normalizer and never persisted.
type Document struct {
	URL     string
	RawHTML string
}

// Chunk is a bounded slice of normalized text, the unit of retrieval.
// Sequence orders chunks within their source document.
type Chunk struct {
	Text      string
	SourceURL string
	Sequence  int
}

// Record is a chunk paired with its embedding, as persisted in the vector
// store. Records are immutable once inserted.
type Record struct {
	Vector    []float32
	Text      string
	SourceURL string
	Sequence  int
}

// SearchResult is a stored record with its similarity score against the
// query vector. Results from a single search are sorted by Score descending.
type SearchResult struct {
	Record Record
	Score  float32
}
