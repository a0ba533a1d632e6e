// Package chunker splits document text into overlapping passages.
//
// Splitting is recursive: the text is cut on the coarsest separator it
// contains (paragraph, line, sentence, word, character), pieces that are
// still too long are cut again with the next finer separator, and small
// pieces are merged back together up to the chunk size. Separators stay
// attached to the end of the piece they follow, so sentence punctuation
// survives the cut.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// DefaultMinLength drops chunks shorter than this after trimming.
const DefaultMinLength = 50

// DefaultSeparators are tried in order, coarsest first.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits text into chunks. Lengths are measured in runes.
// It implements the driven.TextSplitter interface.
type Splitter struct {
	chunkSize  int
	overlap    int
	minLength  int
	separators []string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithMinLength sets the minimum trimmed chunk length.
func WithMinLength(n int) Option {
	return func(s *Splitter) {
		if n >= 0 {
			s.minLength = n
		}
	}
}

// WithSeparators replaces the separator priority list.
// An empty final separator guarantees every chunk fits the chunk size.
func WithSeparators(seps ...string) Option {
	return func(s *Splitter) {
		if len(seps) > 0 {
			s.separators = seps
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		minLength:  DefaultMinLength,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the chunks of text in document order.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks := s.split(text, s.separators)

	kept := chunks[:0]
	for _, c := range chunks {
		if runeLen(strings.TrimSpace(c)) >= s.minLength {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var finer []string
	for i, candidate := range separators {
		if candidate == "" {
			sep = candidate
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			finer = separators[i+1:]
			break
		}
	}

	var out, small []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if runeLen(piece) < s.chunkSize {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			out = append(out, s.merge(small)...)
			small = nil
		}
		if len(finer) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, finer)...)
		}
	}
	if len(small) > 0 {
		out = append(out, s.merge(small)...)
	}
	return out
}

// merge greedily packs pieces into chunks, carrying up to overlap
// characters of trailing pieces into the next chunk. Pieces already end
// with their separator.
func (s *Splitter) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)

	for _, p := range pieces {
		n := runeLen(p)
		if total+n > s.chunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
				out = append(out, chunk)
			}
			for total > s.overlap || (total+n > s.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}

	if chunk := strings.TrimSpace(strings.Join(current, "")); chunk != "" {
		out = append(out, chunk)
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
