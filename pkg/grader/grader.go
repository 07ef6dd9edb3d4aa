// Package grader is the validation pipeline: structural constraints
// first, then chain execution against the real corpus, then answer
// comparison. Distinct questions are embarrassingly parallel; each gets
// its own execution context and shares only the immutable index.
package grader

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/jonboulle/clockwork"

	"github.com/wikilake/hopcheck/internal/metrics"
	"github.com/wikilake/hopcheck/pkg/answer"
	"github.com/wikilake/hopcheck/pkg/chain"
	"github.com/wikilake/hopcheck/pkg/corpus"
	"github.com/wikilake/hopcheck/pkg/store"
	"github.com/wikilake/hopcheck/pkg/task"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMinFiles = 5
	defaultMinSteps = 5
)

// Config configures a Grader.
type Config struct {
	Logger *slog.Logger
	Index  *corpus.Index
	Store  store.Store
	Clock  clockwork.Clock

	// Timeout is the per-question execution budget.
	Timeout time.Duration
	// MinRequiredFiles and MinReasoningSteps are the authoring-policy
	// floors; the benchmark defaults to 5 of each.
	MinRequiredFiles  int
	MinReasoningSteps int
	// Workers bounds how many questions grade concurrently.
	Workers int
}

func (c *Config) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Index == nil {
		return errors.New("corpus index is required")
	}
	if c.Store == nil {
		return errors.New("store is required")
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.MinRequiredFiles == 0 {
		c.MinRequiredFiles = defaultMinFiles
	}
	if c.MinReasoningSteps == 0 {
		c.MinReasoningSteps = defaultMinSteps
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}

// Grader validates task documents against the corpus.
type Grader struct {
	log  *slog.Logger
	cfg  *Config
	pool pond.ResultPool[Result]
}

func New(cfg *Config) (*Grader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Grader{
		log:  cfg.Logger,
		cfg:  cfg,
		pool: pond.NewResultPool[Result](cfg.Workers),
	}, nil
}

// GradeDocument grades every question of a document concurrently and
// returns the aggregated report, results in question order. One bad
// question never aborts the batch.
func (g *Grader) GradeDocument(ctx context.Context, doc *task.Document) (*Report, error) {
	group := g.pool.NewGroup()
	for i, q := range doc.Questions {
		group.Submit(func() Result {
			return g.GradeQuestion(ctx, doc.Name, i, q)
		})
	}

	results, err := group.Wait()
	if err != nil {
		return nil, err
	}
	return &Report{Task: doc.Name, Results: results}, nil
}

type execOutcome struct {
	value chain.Value
	ec    *chain.Context
	err   error
}

// GradeQuestion runs the full pipeline over one question: cheap
// structural checks, then chain execution under the time budget, then
// normalized answer comparison.
func (g *Grader) GradeQuestion(ctx context.Context, taskName string, index int, q task.Question) Result {
	start := g.cfg.Clock.Now()
	defer func() {
		metrics.GradeDuration.Observe(g.cfg.Clock.Since(start).Seconds())
	}()

	res := Result{Task: taskName, Question: index, Declared: q.Answer}

	if err := CheckConstraints(q, g.cfg.Index, g.cfg.MinRequiredFiles, g.cfg.MinReasoningSteps); err != nil {
		var cv *ConstraintViolationError
		if errors.As(err, &cv) {
			metrics.ConstraintViolationsTotal.WithLabelValues(string(cv.Rule)).Inc()
		}
		return g.reject(res, StageConstraints, err)
	}

	outcome := g.executeWithBudget(ctx, q)
	if outcome.err != nil {
		return g.reject(res, StageExecution, outcome.err)
	}

	res.Computed = outcome.value.String()

	frag, _ := q.AnswerSchema()
	schema := answer.ParseSchema(frag)
	if !answer.Compare(q.Answer, res.Computed, schema) {
		return g.reject(res, StageComparison, &AnswerMismatchError{
			Declared: answer.Normalize(q.Answer, schema),
			Computed: answer.Normalize(res.Computed, schema),
		})
	}

	// Over-inclusion of evidence is discouraged but not disqualifying:
	// unused required files are a minimality warning, never a rejection.
	used := outcome.ec.UsedFiles()
	for _, name := range q.RequiredFiles {
		if _, ok := used[name]; !ok {
			res.Warnings = append(res.Warnings, "required file never used by the chain: "+name)
		}
	}

	res.Accepted = true
	metrics.QuestionsGradedTotal.WithLabelValues("accepted").Inc()
	g.log.Info("question accepted", "task", taskName, "question", index, "answer", res.Computed, "warnings", len(res.Warnings))
	return res
}

func (g *Grader) reject(res Result, stage Stage, err error) Result {
	res.Accepted = false
	res.Stage = stage
	res.Err = err
	metrics.QuestionsGradedTotal.WithLabelValues("rejected").Inc()
	g.log.Info("question rejected", "task", res.Task, "question", res.Question, "stage", stage, "error", err)
	return res
}

// executeWithBudget races the chain execution against the time budget.
// Tasks are short, so there is no mid-task cancellation beyond the
// context handed to file loads.
func (g *Grader) executeWithBudget(ctx context.Context, q task.Question) execOutcome {
	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ec := chain.NewContext(g.log, &corpusLoader{log: g.log, index: g.cfg.Index, store: g.cfg.Store})
	executor := chain.NewExecutor(g.log)

	done := make(chan execOutcome, 1)
	go func() {
		v, err := executor.Execute(execCtx, q.Reasoning, ec)
		done <- execOutcome{value: v, ec: ec, err: err}
	}()

	select {
	case outcome := <-done:
		return outcome
	case <-g.cfg.Clock.After(g.cfg.Timeout):
		cancel()
		return execOutcome{err: &TimedOutError{Budget: g.cfg.Timeout}}
	}
}
