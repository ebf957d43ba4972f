// Package generator enumerates candidate labels for a scan mode.
//
// Enumeration is lazy: a Generator is an odometer over alphabet indices and
// only materialises the label it is about to return. The order is fixed for a
// given mode (shorter labels first, then alphabet order position by position),
// which is what makes a run resumable by replaying the same sequence.
package generator

import "strings"

const (
	letters = "abcdefghijklmnopqrstuvwxyz"
	digits  = "0123456789"
	hyphen  = '-'

	// patternLength is the label length that normal mode restricts to
	// repetition patterns.
	patternLength = 4

	// hyphenMaxLength is the longest label that may contain a hyphen.
	hyphenMaxLength = 3
)

// Candidate is a prospective label under the scanned TLD.
type Candidate string

// Domain renders the candidate as a fully qualified name under tld.
func (c Candidate) Domain(tld string) string {
	return string(c) + "." + tld
}

// ScanMode selects which candidates a run enumerates.
type ScanMode struct {
	// FullScan enumerates every label of length 1-4. When false, lengths
	// 1-3 are complete and length 4 is limited to repetition patterns.
	FullScan bool `json:"full_scan"`

	// LettersOnly restricts the alphabet to a-z.
	LettersOnly bool `json:"letters_only"`

	// NoHyphens drops '-' from the alphabet. Otherwise labels of up to three
	// characters may carry '-' at interior positions (never leading, trailing
	// or doubled); 4-character labels never do.
	NoHyphens bool `json:"no_hyphens"`
}

// Alphabet returns the ordered character set for the mode.
func (m ScanMode) Alphabet() string {
	chars := letters
	if !m.LettersOnly {
		chars += digits
	}
	if !m.NoHyphens {
		chars += string(hyphen)
	}
	return chars
}

// Key identifies the mode under a TLD, e.g. "li-normal-letters". Runs with the
// same key enumerate the same sequence.
func (m ScanMode) Key(tld string) string {
	parts := []string{tld}
	if m.FullScan {
		parts = append(parts, "full")
	} else {
		parts = append(parts, "normal")
	}
	if m.LettersOnly {
		parts = append(parts, "letters")
	}
	if m.NoHyphens {
		parts = append(parts, "nohyphens")
	}
	return strings.Join(parts, "-")
}

// String returns a short human readable description.
func (m ScanMode) String() string {
	var b strings.Builder
	if m.FullScan {
		b.WriteString("full scan (1-4 chars)")
	} else {
		b.WriteString("normal (1-3 chars + 4-char repetition patterns)")
	}
	if m.LettersOnly {
		b.WriteString(", letters only")
	} else {
		b.WriteString(", letters and digits")
	}
	if m.NoHyphens {
		b.WriteString(", no hyphens")
	}
	return b.String()
}

// Generator yields candidates for one mode. It is not safe for concurrent
// use; the scheduler drives it from a single feeder goroutine.
type Generator struct {
	alphabet  string
	hyphenIdx int
	maxLen    int
	// hyphenMax is the longest length that admits a hyphen.
	hyphenMax int
	// patternAt is the length restricted to repetition patterns, 0 for none.
	patternAt int

	idx       []int
	exhausted bool
	emitted   int
}

// NewGenerator returns a generator positioned before the first candidate.
func NewGenerator(mode ScanMode) *Generator {
	patternAt := patternLength
	if mode.FullScan {
		patternAt = 0
	}
	return newGenerator(mode.Alphabet(), patternLength, patternAt, hyphenMaxLength)
}

func newGenerator(alphabet string, maxLen, patternAt, hyphenMax int) *Generator {
	return &Generator{
		alphabet:  alphabet,
		hyphenIdx: strings.IndexByte(alphabet, hyphen),
		maxLen:    maxLen,
		hyphenMax: hyphenMax,
		patternAt: patternAt,
	}
}

// Next returns the next candidate, or false once the sequence is exhausted.
func (g *Generator) Next() (Candidate, bool) {
	for g.advance() {
		if g.accept() {
			g.emitted++
			return g.current(), true
		}
	}
	return "", false
}

// Skip advances past n candidates and reports how many were actually skipped.
func (g *Generator) Skip(n int) int {
	skipped := 0
	for skipped < n && g.advance() {
		if g.accept() {
			g.emitted++
			skipped++
		}
	}
	return skipped
}

// Position is the number of candidates returned (or skipped) so far.
func (g *Generator) Position() int {
	return g.emitted
}

// Reset rewinds to the start of the sequence.
func (g *Generator) Reset() {
	g.idx = nil
	g.exhausted = false
	g.emitted = 0
}

// Count returns the number of candidates the mode enumerates.
func Count(mode ScanMode) int {
	g := NewGenerator(mode)
	return g.Skip(int(^uint(0) >> 1))
}

// advance moves the odometer to the next raw index tuple, rolling over to the
// next length when the current one is exhausted.
func (g *Generator) advance() bool {
	if g.exhausted {
		return false
	}
	if g.idx == nil {
		g.idx = make([]int, 1)
		return true
	}

	for pos := len(g.idx) - 1; pos >= 0; pos-- {
		g.idx[pos]++
		if g.idx[pos] < len(g.alphabet) {
			return true
		}
		g.idx[pos] = 0
	}

	if len(g.idx) >= g.maxLen {
		g.exhausted = true
		return false
	}
	g.idx = make([]int, len(g.idx)+1)
	return true
}

// accept applies label validity and, at the pattern length, the repetition
// pattern restriction to the current tuple.
func (g *Generator) accept() bool {
	if g.hyphenIdx >= 0 {
		last := len(g.idx) - 1
		if g.idx[0] == g.hyphenIdx || g.idx[last] == g.hyphenIdx {
			return false
		}
		for i := 1; i < last; i++ {
			if g.idx[i] != g.hyphenIdx {
				continue
			}
			if len(g.idx) > g.hyphenMax || g.idx[i+1] == g.hyphenIdx {
				return false
			}
		}
	}
	if g.patternAt > 0 && len(g.idx) == g.patternAt {
		return g.isRepetition()
	}
	return true
}

// isRepetition reports whether the tuple uses at most two distinct
// characters. For four positions that is exactly AAAA, the three-plus-one
// arrangements and the two-pair arrangements.
func (g *Generator) isRepetition() bool {
	first, second := g.idx[0], -1
	for _, v := range g.idx {
		if v == g.hyphenIdx {
			return false
		}
		switch {
		case v == first:
		case second == -1:
			second = v
		case v != second:
			return false
		}
	}
	return true
}

func (g *Generator) current() Candidate {
	buf := make([]byte, len(g.idx))
	for i, v := range g.idx {
		buf[i] = g.alphabet[v]
	}
	return Candidate(buf)
}
