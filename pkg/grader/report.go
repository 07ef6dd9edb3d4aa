package grader

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Stage names the pipeline stage at which a question was rejected.
type Stage string

const (
	StageConstraints Stage = "constraints"
	StageExecution   Stage = "execution"
	StageComparison  Stage = "comparison"
)

// AnswerMismatchError reports a grounded chain whose final value does
// not match the declared answer.
type AnswerMismatchError struct {
	Declared string
	Computed string
}

func (e *AnswerMismatchError) Error() string {
	return fmt.Sprintf("answer mismatch: declared %q, computed %q", e.Declared, e.Computed)
}

// TimedOutError reports a question whose chain exceeded the execution
// budget. A timeout is a validation failure, not a system fault.
type TimedOutError struct {
	Budget time.Duration
}

func (e *TimedOutError) Error() string {
	return fmt.Sprintf("execution exceeded the %s budget", e.Budget)
}

// Result is the validation outcome of one question.
type Result struct {
	Task     string
	Question int
	Accepted bool
	Stage    Stage
	Err      error
	Declared string
	Computed string
	Warnings []string
}

// Detail renders the failure context a human author needs to fix the
// question.
func (r Result) Detail() string {
	if r.Accepted {
		return fmt.Sprintf("answer %q reproduced", r.Declared)
	}
	return fmt.Sprintf("%s: %v", r.Stage, r.Err)
}

// Report aggregates the results of grading one task document.
type Report struct {
	Task    string
	Results []Result
}

func (r *Report) AcceptedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Accepted {
			n++
		}
	}
	return n
}

func (r *Report) RejectedCount() int {
	return len(r.Results) - r.AcceptedCount()
}

// Render prints the report as a table.
func (r *Report) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Task", "Question", "Status", "Detail", "Warnings"})

	for _, res := range r.Results {
		status := "accepted"
		if !res.Accepted {
			status = "rejected"
		}
		table.Append([]string{
			res.Task,
			fmt.Sprintf("%d", res.Question),
			status,
			res.Detail(),
			strings.Join(res.Warnings, "; "),
		})
	}
	table.Render()
}
