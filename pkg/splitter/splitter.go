package splitter

import "strings"

// separators are tried coarsest-first: paragraph boundary, line boundary,
// word boundary. A piece that exceeds the chunk size but contains none of
// them is indivisible and kept whole.
var separators = []string{"\n\n", "\n", " "}

// Splitter cuts text into chunks of at most chunkSize characters, where each
// chunk after the first starts with the previous chunk's trailing overlap
// characters. Concatenating the chunks while dropping every non-first
// chunk's overlap prefix reproduces the input exactly.
type Splitter struct {
	chunkSize int
	overlap   int
}

func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if len(text) <= s.chunkSize {
		return []string{text}
	}
	return s.merge(split(text, s.chunkSize, separators))
}

// split returns ordered pieces whose concatenation is exactly text.
// Separators stay attached to the piece they terminate. Every piece fits in
// size unless it has no separator left to split on.
func split(text string, size int, seps []string) []string {
	if len(text) <= size || len(seps) == 0 {
		return []string{text}
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return split(text, size, seps[1:])
	}

	var pieces []string
	for _, part := range strings.SplitAfter(text, sep) {
		if part == "" {
			continue
		}
		if len(part) <= size {
			pieces = append(pieces, part)
		} else {
			pieces = append(pieces, split(part, size, seps[1:])...)
		}
	}
	return pieces
}

// merge greedily accumulates pieces up to the chunk size. When a chunk is
// emitted, its trailing overlap characters seed the next chunk. A chunk is
// never flushed while it holds fewer than overlap characters, so every carry
// is exactly overlap long and stripping each non-first chunk's overlap
// prefix reproduces the input; deferring the flush can push a chunk past
// chunkSize by up to the overlap. A piece that cannot fit even directly
// after the carry is emitted with it as a single oversized chunk; cutting
// below separator granularity would corrupt the unit.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	cur := ""
	carryLen := 0

	for _, piece := range pieces {
		if len(cur) > carryLen && len(cur) >= s.overlap && len(cur)+len(piece) > s.chunkSize {
			chunks = append(chunks, cur)
			carry := cur[len(cur)-s.overlap:]
			cur = carry
			carryLen = len(carry)
		}
		cur += piece
	}

	if len(cur) > carryLen {
		chunks = append(chunks, cur)
	}
	return chunks
}
