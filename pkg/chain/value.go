// Package chain replays a task's declared reasoning steps as a strict
// sequence of pure data transformations over values loaded from the
// corpus. The dependency graph of a chain is a single line, not a DAG:
// each step may only consume earlier steps, which is what makes a task
// non-parallelizable by construction.
package chain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wikilake/hopcheck/pkg/passage"
	"github.com/wikilake/hopcheck/pkg/tabular"
)

// ValueKind tags the representation held by a Value.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindList
	KindTable
	KindPassage
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	case KindPassage:
		return "passage"
	default:
		return "text"
	}
}

// Value is the tagged union flowing between steps. Values are immutable;
// every operation builds a new one.
type Value struct {
	Kind    ValueKind
	Text    string
	Num     float64
	List    []string
	Table   *tabular.Table
	Passage *passage.Passage
}

func TextValue(s string) Value          { return Value{Kind: KindText, Text: s} }
func NumberValue(n float64) Value       { return Value{Kind: KindNumber, Num: n} }
func ListValue(items []string) Value    { return Value{Kind: KindList, List: items} }
func TableValue(t *tabular.Table) Value { return Value{Kind: KindTable, Table: t} }
func PassageValue(p *passage.Passage) Value {
	return Value{Kind: KindPassage, Passage: p}
}

// String renders the canonical final form of a value. Single-element
// lists collapse to their element; numbers render without trailing
// zeros, so integral results read as integers.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindList:
		if len(v.List) == 1 {
			return v.List[0]
		}
		return strings.Join(v.List, ", ")
	case KindTable:
		return fmt.Sprintf("table(%d rows)", v.Table.Len())
	case KindPassage:
		return fmt.Sprintf("passage(%d segments)", len(v.Passage.Segments))
	default:
		return ""
	}
}
