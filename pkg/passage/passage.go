// Package passage turns raw corpus text bytes into addressable,
// searchable passages with lightweight rule-based fact extraction.
// Anything requiring real natural-language understanding is out of
// scope; task authors must express such steps as explicit operands.
package passage

import (
	"strings"
	"unicode"
)

// Segment is one sentence or line of the passage. Start is the byte
// offset of the segment in the original text; segments are contiguous,
// so each segment ends where the next begins.
type Segment struct {
	Index int
	Start int
	Text  string
}

// Passage is the parsed form of one corpus text file.
type Passage struct {
	Text     string
	Segments []Segment
	FactList []Fact
}

// Load segments text on sentence-terminal punctuation and line breaks
// and extracts facts from every segment. Delimiters and trailing
// whitespace, blank lines included, stay attached to the segment they
// terminate, which keeps offsets contiguous over the original text;
// leading whitespace is carried into the first segment.
func Load(data []byte) *Passage {
	text := string(data)
	p := &Passage{Text: text}

	start := 0
	for i := 0; i < len(text); i++ {
		ch := text[i]
		terminal := false
		switch ch {
		case '\n':
			terminal = true
		case '.', '!', '?':
			// Sentence-terminal only when followed by whitespace or EOF;
			// keeps decimals and abbreviated initials together.
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				terminal = true
			}
		}
		if !terminal {
			continue
		}
		end := i + 1
		// Attach the trailing whitespace run, blank lines included, to
		// the closing segment so no byte range goes unowned.
		for end < len(text) && isSegmentSpace(text[end]) {
			end++
		}
		if p.addSegment(start, text[start:end]) {
			start = end
		}
		i = end - 1
	}
	if start < len(text) {
		p.addSegment(start, text[start:])
	}

	for _, seg := range p.Segments {
		p.FactList = append(p.FactList, extractFacts(seg)...)
	}
	return p
}

func isSegmentSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// addSegment reports whether a segment was emitted. A whitespace-only
// candidate is not a segment; its bytes stay pending and are absorbed
// into the next one.
func (p *Passage) addSegment(start int, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	p.Segments = append(p.Segments, Segment{
		Index: len(p.Segments),
		Start: start,
		Text:  text,
	})
	return true
}

// Facts returns every extracted fact of the given category, in passage
// order. The slice is freshly allocated and safe to re-iterate.
func (p *Passage) Facts(category Category) []Fact {
	var out []Fact
	for _, f := range p.FactList {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// FindSegments returns every segment containing keyword,
// case-insensitively.
func (p *Passage) FindSegments(keyword string) []Segment {
	kw := strings.ToLower(keyword)
	var out []Segment
	for _, seg := range p.Segments {
		if strings.Contains(strings.ToLower(seg.Text), kw) {
			out = append(out, seg)
		}
	}
	return out
}

// trimPunct strips leading and trailing punctuation from a candidate
// fact span.
func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}
