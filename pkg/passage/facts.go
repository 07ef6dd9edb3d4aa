package passage

import (
	"regexp"
	"sort"
)

// Category is the coarse class of an extracted fact.
type Category string

const (
	CategoryDate       Category = "date"
	CategoryNumber     Category = "number"
	CategoryProperNoun Category = "proper-noun"
)

// Fact is a span of passage text with its coarse category and location.
type Fact struct {
	Text     string
	Category Category
	Segment  int
	Offset   int // byte offset within the segment
}

var (
	monthNames = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`

	dateRE = regexp.MustCompile(
		`\b\d{1,2} ` + monthNames + `(?: \d{4})?\b` +
			`|\b` + monthNames + ` \d{1,2}(?:, \d{4})?\b` +
			`|\b\d{4}-\d{2}-\d{2}\b`)

	numberRE = regexp.MustCompile(`[-+]?\b\d[\d,]*(?:\.\d+)?\b`)

	// Two or more adjacent capitalized words; a cheap proper-noun
	// heuristic, deliberately no smarter than that.
	properNounRE = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`)
)

// extractFacts runs the rule-based extractors over one segment. Spans
// already claimed as dates are not re-reported as numbers.
func extractFacts(seg Segment) []Fact {
	var facts []Fact
	var claimed [][2]int

	for _, loc := range dateRE.FindAllStringIndex(seg.Text, -1) {
		facts = append(facts, Fact{
			Text:     trimPunct(seg.Text[loc[0]:loc[1]]),
			Category: CategoryDate,
			Segment:  seg.Index,
			Offset:   loc[0],
		})
		claimed = append(claimed, [2]int{loc[0], loc[1]})
	}

	for _, loc := range numberRE.FindAllStringIndex(seg.Text, -1) {
		if overlaps(claimed, loc[0], loc[1]) {
			continue
		}
		facts = append(facts, Fact{
			Text:     trimPunct(seg.Text[loc[0]:loc[1]]),
			Category: CategoryNumber,
			Segment:  seg.Index,
			Offset:   loc[0],
		})
	}

	for _, loc := range properNounRE.FindAllStringIndex(seg.Text, -1) {
		if overlaps(claimed, loc[0], loc[1]) {
			continue
		}
		facts = append(facts, Fact{
			Text:     trimPunct(seg.Text[loc[0]:loc[1]]),
			Category: CategoryProperNoun,
			Segment:  seg.Index,
			Offset:   loc[0],
		})
	}

	sort.SliceStable(facts, func(i, j int) bool {
		return facts[i].Offset < facts[j].Offset
	})
	return facts
}

func overlaps(claimed [][2]int, start, end int) bool {
	for _, c := range claimed {
		if start < c[1] && end > c[0] {
			return true
		}
	}
	return false
}
