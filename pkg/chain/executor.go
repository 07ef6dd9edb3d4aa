package chain

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/wikilake/hopcheck/pkg/passage"
	"github.com/wikilake/hopcheck/pkg/tabular"
	"github.com/wikilake/hopcheck/pkg/task"
)

// Operation tags accepted by the executor.
const (
	OpFilter         = "filter"
	OpIntersect      = "intersect"
	OpSortAndPick    = "sortAndPick"
	OpExtractField   = "extractField"
	OpCount          = "count"
	OpAggregate      = "aggregate"
	OpParseComponent = "parseComponent"
)

// Executor deterministically replays a reasoning chain. Every operation
// is pure and never mutates loaded tables or passages, so re-running the
// same chain on the same inputs yields identical results.
type Executor struct {
	log *slog.Logger
}

func NewExecutor(log *slog.Logger) *Executor {
	return &Executor{log: log}
}

// Execute replays the steps in declared order against ec, recording each
// step's output at its position, and returns the final value.
func (e *Executor) Execute(ctx context.Context, steps []task.Step, ec *Context) (Value, error) {
	if len(steps) == 0 {
		return Value{}, fmt.Errorf("empty reasoning chain")
	}
	for i, s := range steps {
		out, err := e.apply(ctx, i, s, ec)
		if err != nil {
			return Value{}, err
		}
		ec.outputs = append(ec.outputs, out)
		e.log.Debug("executed step", "step", i, "op", s.Op, "result", out.String())
	}
	return ec.outputs[len(ec.outputs)-1], nil
}

// resolve turns a step operand into a Value: a prior step's output, a
// loaded file, or a literal.
func (e *Executor) resolve(ctx context.Context, step int, operand string, ec *Context) (Value, error) {
	ref, err := task.ParseRef(operand)
	if err != nil {
		return Value{}, &StepTypeError{Step: step, Op: "", Detail: err.Error()}
	}
	switch ref.Kind {
	case task.RefStep:
		if ref.Step >= step {
			return Value{}, &UnresolvedReferenceError{Step: step, Ref: operand}
		}
		v, ok := ec.Output(ref.Step)
		if !ok {
			return Value{}, &UnresolvedReferenceError{Step: step, Ref: operand}
		}
		return v, nil
	case task.RefFile:
		return ec.loadFile(ctx, ref.Name)
	default:
		return TextValue(ref.Name), nil
	}
}

func (e *Executor) apply(ctx context.Context, i int, s task.Step, ec *Context) (Value, error) {
	if s.Input == "" {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "missing input operand"}
	}
	in, err := e.resolve(ctx, i, s.Input, ec)
	if err != nil {
		return Value{}, err
	}

	switch s.Op {
	case OpFilter:
		return e.filter(i, s, in)
	case OpIntersect:
		if s.With == "" {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "missing with operand"}
		}
		with, err := e.resolve(ctx, i, s.With, ec)
		if err != nil {
			return Value{}, err
		}
		return e.intersect(i, s, in, with)
	case OpSortAndPick:
		return e.sortAndPick(i, s, in)
	case OpExtractField:
		return e.extractField(i, s, in)
	case OpCount:
		return e.count(i, s, in)
	case OpAggregate:
		return e.aggregate(i, s, in)
	case OpParseComponent:
		return e.parseComponent(i, s, in)
	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "unknown operation"}
	}
}

// filter keeps table rows matching a column predicate, or passage facts
// of one category.
func (e *Executor) filter(i int, s task.Step, in Value) (Value, error) {
	switch in.Kind {
	case KindTable:
		if s.Column == "" {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "filter on a table requires a column"}
		}
		if s.Equals == "" && s.Contains == "" {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "filter requires equals or contains"}
		}
		if _, ok := in.Table.ColumnIndex(s.Column); !ok {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: (&tabular.UnknownColumnError{Column: s.Column}).Error()}
		}
		out := in.Table.Filter(func(r tabular.Row) bool {
			c, ok := r.Get(s.Column)
			if !ok {
				return false
			}
			if s.Equals != "" {
				return strings.EqualFold(c.Text(), s.Equals)
			}
			return strings.Contains(strings.ToLower(c.Text()), strings.ToLower(s.Contains))
		})
		return TableValue(out), nil

	case KindPassage:
		if s.Category == "" {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "filter on a passage requires a fact category"}
		}
		facts := in.Passage.Facts(passage.Category(s.Category))
		items := make([]string, 0, len(facts))
		for _, f := range facts {
			items = append(items, f.Text)
		}
		return ListValue(items), nil

	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("cannot filter a %s", in.Kind)}
	}
}

// intersect computes the equality intersection of two collections,
// preserving first-operand order and casing, deduplicated. The with
// operand projects with_column when its column is named differently.
func (e *Executor) intersect(i int, s task.Step, in, with Value) (Value, error) {
	left, err := e.collection(i, s, in)
	if err != nil {
		return Value{}, err
	}
	rs := s
	if s.WithColumn != "" {
		rs.Column = s.WithColumn
	}
	right, err := e.collection(i, rs, with)
	if err != nil {
		return Value{}, err
	}

	inRight := make(map[string]struct{}, len(right))
	for _, v := range right {
		inRight[strings.ToLower(v)] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{})
	for _, v := range left {
		key := strings.ToLower(v)
		if _, ok := inRight[key]; !ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return ListValue(out), nil
}

// collection flattens a value into comparable strings. Tables project
// the step's column; passages project the step's fact category.
func (e *Executor) collection(i int, s task.Step, v Value) ([]string, error) {
	switch v.Kind {
	case KindList:
		return v.List, nil
	case KindText:
		return []string{v.Text}, nil
	case KindNumber:
		return []string{NumberValue(v.Num).String()}, nil
	case KindTable:
		if s.Column == "" {
			return nil, &StepTypeError{Step: i, Op: s.Op, Detail: "table operand requires a column"}
		}
		cells, err := v.Table.Column(s.Column)
		if err != nil {
			return nil, &StepTypeError{Step: i, Op: s.Op, Detail: err.Error()}
		}
		out := make([]string, len(cells))
		for j, c := range cells {
			out[j] = c.Text()
		}
		return out, nil
	case KindPassage:
		if s.Category == "" {
			return nil, &StepTypeError{Step: i, Op: s.Op, Detail: "passage operand requires a fact category"}
		}
		facts := v.Passage.Facts(passage.Category(s.Category))
		out := make([]string, len(facts))
		for j, f := range facts {
			out[j] = f.Text
		}
		return out, nil
	default:
		return nil, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("cannot treat %s as a collection", v.Kind)}
	}
}

// sortAndPick sorts a table by a column and keeps the first or last row.
// The tie-break policy is mandatory: without one the pick would not be
// deterministic across corpora.
func (e *Executor) sortAndPick(i int, s task.Step, in Value) (Value, error) {
	if in.Kind != KindTable {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("sortAndPick requires a table, got %s", in.Kind)}
	}
	if s.Column == "" {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "sortAndPick requires a column"}
	}
	if s.TieBreak == "" {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "sortAndPick requires an explicit tie_break policy"}
	}
	if in.Table.Len() == 0 {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "cannot pick from an empty table"}
	}

	descending := false
	switch strings.ToLower(s.Direction) {
	case "", "asc", "ascending":
	case "desc", "descending":
		descending = true
	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("unknown direction %q", s.Direction)}
	}

	tieBreak := s.TieBreak
	if strings.EqualFold(tieBreak, "row-order") {
		// Original row order is the stable sort's own behavior.
		tieBreak = ""
	}

	sorted, err := in.Table.SortBy(s.Column, descending, tieBreak)
	if err != nil {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: err.Error()}
	}

	pick := 0
	switch strings.ToLower(s.Pick) {
	case "", "first":
	case "last":
		pick = sorted.Len() - 1
	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("unknown pick %q", s.Pick)}
	}

	out := &tabular.Table{Columns: sorted.Columns, Types: sorted.Types, Rows: sorted.Rows[pick : pick+1]}
	return TableValue(out), nil
}

// extractField projects one column out of a table or one fact category
// out of a passage.
func (e *Executor) extractField(i int, s task.Step, in Value) (Value, error) {
	if in.Kind != KindTable && in.Kind != KindPassage {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("cannot extract a field from a %s", in.Kind)}
	}
	items, err := e.collection(i, s, in)
	if err != nil {
		return Value{}, err
	}
	return ListValue(items), nil
}

// count returns the size of a collection.
func (e *Executor) count(i int, s task.Step, in Value) (Value, error) {
	switch in.Kind {
	case KindTable:
		return NumberValue(float64(in.Table.Len())), nil
	case KindList:
		return NumberValue(float64(len(in.List))), nil
	case KindPassage:
		if s.Category == "" {
			return NumberValue(float64(len(in.Passage.Segments))), nil
		}
		return NumberValue(float64(len(in.Passage.Facts(passage.Category(s.Category))))), nil
	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("cannot count a %s", in.Kind)}
	}
}

// aggregate folds a numeric column or list with sum, min, or max.
func (e *Executor) aggregate(i int, s task.Step, in Value) (Value, error) {
	var nums []float64
	switch in.Kind {
	case KindTable:
		if s.Column == "" {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "aggregate on a table requires a column"}
		}
		ci, ok := in.Table.ColumnIndex(s.Column)
		if !ok {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: (&tabular.UnknownColumnError{Column: s.Column}).Error()}
		}
		if t := in.Table.Types[ci]; t != tabular.TypeInt && t != tabular.TypeDecimal {
			return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("column %q is %s, not numeric", s.Column, t)}
		}
		for _, row := range in.Table.Rows {
			if row[ci].Text() == "" {
				continue
			}
			nums = append(nums, row[ci].Dec)
		}
	case KindList:
		for _, item := range in.List {
			n, err := strconv.ParseFloat(strings.ReplaceAll(item, ",", ""), 64)
			if err != nil {
				return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("non-numeric item %q", item)}
			}
			nums = append(nums, n)
		}
	case KindNumber:
		nums = []float64{in.Num}
	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("cannot aggregate a %s", in.Kind)}
	}

	if len(nums) == 0 {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: "nothing to aggregate"}
	}

	switch strings.ToLower(s.Fn) {
	case "sum":
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return NumberValue(total), nil
	case "min":
		m := nums[0]
		for _, n := range nums[1:] {
			if n < m {
				m = n
			}
		}
		return NumberValue(m), nil
	case "max":
		m := nums[0]
		for _, n := range nums[1:] {
			if n > m {
				m = n
			}
		}
		return NumberValue(m), nil
	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("unknown aggregate fn %q", s.Fn)}
	}
}

// parseComponent pulls a calendar component out of a date value. Months
// render as English month names.
func (e *Executor) parseComponent(i int, s task.Step, in Value) (Value, error) {
	component := strings.ToLower(s.Component)
	if component != "year" && component != "month" && component != "day" {
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("unknown date component %q", s.Component)}
	}

	extract := func(raw string) (string, error) {
		d, ok := tabular.ParseDate(raw)
		if !ok {
			return "", &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("not a date: %q", raw)}
		}
		switch component {
		case "year":
			if d.Year == 0 {
				return "", &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("date %q has no year", raw)}
			}
			return strconv.Itoa(d.Year), nil
		case "month":
			return d.Month.String(), nil
		default:
			if d.Day == 0 {
				return "", &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("date %q has no day", raw)}
			}
			return strconv.Itoa(d.Day), nil
		}
	}

	switch in.Kind {
	case KindText:
		out, err := extract(in.Text)
		if err != nil {
			return Value{}, err
		}
		return TextValue(out), nil
	case KindList:
		out := make([]string, len(in.List))
		for j, item := range in.List {
			v, err := extract(item)
			if err != nil {
				return Value{}, err
			}
			out[j] = v
		}
		return ListValue(out), nil
	default:
		return Value{}, &StepTypeError{Step: i, Op: s.Op, Detail: fmt.Sprintf("cannot parse a date component from a %s", in.Kind)}
	}
}
