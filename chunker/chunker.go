// Package chunker splits raw text into ordered, overlapping segments suitable
// for embedding. Splitting is a pure function of its input: the same text and
// config always produce the same sequence of chunks.
package chunker

import (
	"iter"
	"strings"
)

const (
	// breakWindowBefore and breakWindowAfter bound the search window around a
	// candidate end position when looking for a natural break point.
	breakWindowBefore = 200
	breakWindowAfter  = 100
)

// Chunk is a single segment produced by splitting.
type Chunk struct {
	Index        int
	Content      string
	ApproxTokens int
}

// Config controls segmentation. Token budgets are converted to character
// budgets with the CharsPerToken approximation; no real tokenizer is invoked.
type Config struct {
	MaxTokens     int
	OverlapTokens int
	CharsPerToken int
}

// DefaultConfig returns the standard segmentation parameters.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     500,
		OverlapTokens: 50,
		CharsPerToken: 4,
	}
}

func (c Config) normalized() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = 500
	}
	if c.OverlapTokens < 0 {
		c.OverlapTokens = 0
	}
	if c.CharsPerToken <= 0 {
		c.CharsPerToken = 4
	}
	return c
}

func (c Config) maxChars() int     { return c.MaxTokens * c.CharsPerToken }
func (c Config) overlapChars() int { return c.OverlapTokens * c.CharsPerToken }

// Normalize collapses all runs of whitespace to single spaces and trims
// leading and trailing whitespace. The normalized text is authoritative:
// original whitespace is not recoverable from the produced chunks.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// approxTokens estimates the token count of a string, rounding up.
func approxTokens(s string, charsPerToken int) int {
	return (len(s) + charsPerToken - 1) / charsPerToken
}

// Break patterns in priority order. The window is searched for the last
// occurrence of the highest-priority group that matches at all.
var breakGroups = [][]string{
	{"\n\n"},             // paragraph break
	{". ", "! ", "? "},   // sentence end
	{", "},               // clause break
	{" ", "\t", "\n"},    // any whitespace
}

// findBreak searches window for the last occurrence of the highest-priority
// break pattern and returns the index immediately after the separator,
// relative to the window start. Returns -1 if no pattern matches.
func findBreak(window string) int {
	for _, group := range breakGroups {
		best := -1
		for _, sep := range group {
			if i := strings.LastIndex(window, sep); i >= 0 && i+len(sep) > best {
				best = i + len(sep)
			}
		}
		if best >= 0 {
			return best
		}
	}
	return -1
}

// Chunks lazily yields the ordered chunks of text. The sequence is finite and
// terminates for every input, including inputs with no whitespace at all.
// Empty or whitespace-only text yields nothing.
func Chunks(text string, cfg Config) iter.Seq[Chunk] {
	cfg = cfg.normalized()
	return func(yield func(Chunk) bool) {
		norm := Normalize(text)
		if norm == "" {
			return
		}

		maxChars := cfg.maxChars()
		if len(norm) <= maxChars {
			yield(Chunk{
				Index:        0,
				Content:      norm,
				ApproxTokens: approxTokens(norm, cfg.CharsPerToken),
			})
			return
		}

		overlap := cfg.overlapChars()
		start := 0
		prevEnd := -1
		index := 0

		for start < len(norm) {
			end := start + maxChars
			if end >= len(norm) {
				end = len(norm)
			} else {
				lo := end - breakWindowBefore
				if lo < start {
					lo = start
				}
				hi := end + breakWindowAfter
				if hi > len(norm) {
					hi = len(norm)
				}
				if at := findBreak(norm[lo:hi]); at >= 0 {
					end = lo + at
				}
			}

			// A repeated end index means no forward progress is possible.
			if end == prevEnd {
				return
			}

			content := strings.TrimSpace(norm[start:end])
			if content != "" {
				if !yield(Chunk{
					Index:        index,
					Content:      content,
					ApproxTokens: approxTokens(content, cfg.CharsPerToken),
				}) {
					return
				}
				index++
			}

			next := end - overlap
			if next <= start {
				next = end // anti-stall guard
			}
			prevEnd = end
			start = next
		}
	}
}

// Count returns the total number of chunks the text would produce without
// retaining the chunk contents. Memory stays bounded for very large inputs.
func Count(text string, cfg Config) int {
	n := 0
	for range Chunks(text, cfg) {
		n++
	}
	return n
}
