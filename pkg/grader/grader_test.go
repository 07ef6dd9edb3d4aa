package grader

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/wikilake/hopcheck/pkg/chain"
	"github.com/wikilake/hopcheck/pkg/corpus"
	"github.com/wikilake/hopcheck/pkg/store"
	"github.com/wikilake/hopcheck/pkg/task"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore is an in-memory Store for grading fixtures.
type memStore struct {
	objects map[string][]byte
}

func (s *memStore) List(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(s.objects))
	for name := range s.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, ok := s.objects[name]
	if !ok {
		return nil, &store.FileNotFoundError{Name: name}
	}
	return data, nil
}

const (
	fileTableNZ   = "table_wiki_1_New_Zealand_at_the_Games_0.csv"
	fileTableNL   = "table_wiki_2_Netherlands_at_the_Games_0.csv"
	filePassageP1 = "passage_wiki_3_Peter_Burling_0.txt"
	filePassageP2 = "passage_wiki_4_Kiran_Badloe_0.txt"
	filePassageP3 = "passage_wiki_5_Sailing_at_the_Games_0.txt"
)

func fixtureStore() *memStore {
	return &memStore{objects: map[string][]byte{
		fileTableNZ:   []byte("country,sport,medal,date\nNZ,Sailing,Gold,10 August\nNZ,Rowing,Silver,11 August\n"),
		fileTableNL:   []byte("country,sport,medal\nNL,Sailing,Gold\nNL,Cycling,Gold\n"),
		filePassageP1: []byte("Peter Burling won gold on 10 August 2021."),
		filePassageP2: []byte("Kiran Badloe won windsurfing gold."),
		filePassageP3: []byte("Sailing medals were decided in August."),
	}}
}

func fixtureGrader(t *testing.T, clock clockwork.Clock) (*Grader, *memStore) {
	t.Helper()
	st := fixtureStore()
	names, err := st.List(context.Background())
	require.NoError(t, err)
	index := corpus.BuildIndex(testLogger(), names)

	g, err := New(&Config{
		Logger:  testLogger(),
		Index:   index,
		Store:   st,
		Clock:   clock,
		Timeout: time.Second,
	})
	require.NoError(t, err)
	return g, st
}

func fiveStepChain() []task.Step {
	return []task.Step{
		{Op: chain.OpFilter, Input: "file:" + fileTableNZ, Column: "medal", Equals: "Gold"},
		{Op: chain.OpFilter, Input: "file:" + fileTableNL, Column: "medal", Equals: "Gold"},
		{Op: chain.OpIntersect, Input: "step:0", With: "step:1", Column: "sport"},
		{Op: chain.OpExtractField, Input: "step:0", Column: "date"},
		{Op: chain.OpParseComponent, Input: "step:3", Component: "month"},
	}
}

func goodQuestion() task.Question {
	return task.Question{
		Question: "In which month did both countries win sailing gold? Answer as: month name.",
		Answer:   "August",
		RequiredFiles: []string{
			fileTableNZ, fileTableNL, filePassageP1, filePassageP2, filePassageP3,
		},
		Reasoning: fiveStepChain(),
	}
}

func TestGradeQuestion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("accepts_grounded_question_with_minimality_warnings", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		res := g.GradeQuestion(ctx, "olympics", 0, goodQuestion())
		require.True(t, res.Accepted, "detail: %s", res.Detail())
		require.Equal(t, "August", res.Computed)

		// The three passages are declared but never touched: a warning
		// apiece, not a rejection.
		require.Len(t, res.Warnings, 3)
		for _, w := range res.Warnings {
			require.Contains(t, w, "never used")
		}
	})

	t.Run("too_few_files_rejected_regardless_of_answer", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.RequiredFiles = q.RequiredFiles[:4]
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)
		require.Equal(t, StageConstraints, res.Stage)

		var cv *ConstraintViolationError
		require.ErrorAs(t, res.Err, &cv)
		require.Equal(t, RuleMinFiles, cv.Rule)
	})

	t.Run("too_few_steps_rejected", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.Reasoning = q.Reasoning[:3]
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)

		var cv *ConstraintViolationError
		require.ErrorAs(t, res.Err, &cv)
		require.Equal(t, RuleMinSteps, cv.Rule)
	})

	t.Run("forward_reference_rejected_by_constraints", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.Reasoning[2].With = "step:4"
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)

		var cv *ConstraintViolationError
		require.ErrorAs(t, res.Err, &cv)
		require.Equal(t, RuleStepOrder, cv.Rule)
	})

	t.Run("missing_answer_schema_rejected", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.Question = "In which month did both countries win sailing gold?"
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)

		var cv *ConstraintViolationError
		require.ErrorAs(t, res.Err, &cv)
		require.Equal(t, RuleAnswerSchema, cv.Rule)
	})

	t.Run("unindexed_file_rejected", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.RequiredFiles[4] = "passage_wiki_99_Missing_Page_0.txt"
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)

		var cv *ConstraintViolationError
		require.ErrorAs(t, res.Err, &cv)
		require.Equal(t, RuleFileExists, cv.Rule)
	})

	t.Run("illegal_file_kind_rejected", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.RequiredFiles[4] = "image_wiki_9_Some_Page_0.png"
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)

		var cv *ConstraintViolationError
		require.ErrorAs(t, res.Err, &cv)
		require.Equal(t, RuleFileKind, cv.Rule)
	})

	t.Run("wrong_answer_is_a_mismatch", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.Answer = "July"
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)
		require.Equal(t, StageComparison, res.Stage)

		var am *AnswerMismatchError
		require.ErrorAs(t, res.Err, &am)
		require.Equal(t, "july", am.Declared)
		require.Equal(t, "august", am.Computed)
	})

	t.Run("execution_failure_names_the_step", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		q := goodQuestion()
		q.Reasoning[3].Column = "venue"
		res := g.GradeQuestion(ctx, "olympics", 0, q)
		require.False(t, res.Accepted)
		require.Equal(t, StageExecution, res.Stage)

		var te *chain.StepTypeError
		require.ErrorAs(t, res.Err, &te)
		require.Equal(t, 3, te.Step)
	})

	t.Run("grading_is_repeatable", func(t *testing.T) {
		t.Parallel()

		g, _ := fixtureGrader(t, nil)
		first := g.GradeQuestion(ctx, "olympics", 0, goodQuestion())
		second := g.GradeQuestion(ctx, "olympics", 0, goodQuestion())
		require.Equal(t, first.Accepted, second.Accepted)
		require.Equal(t, first.Computed, second.Computed)
		require.Equal(t, first.Warnings, second.Warnings)
	})
}

// blockingStore blocks every Fetch until the context is cancelled.
type blockingStore struct{}

func (s *blockingStore) List(ctx context.Context) ([]string, error) { return nil, nil }

func (s *blockingStore) Fetch(ctx context.Context, name string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestGradeQuestionTimeout(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	st := fixtureStore()
	names, err := st.List(context.Background())
	require.NoError(t, err)
	index := corpus.BuildIndex(testLogger(), names)

	g, err := New(&Config{
		Logger:  testLogger(),
		Index:   index,
		Store:   &blockingStore{},
		Clock:   clock,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	done := make(chan Result, 1)
	go func() {
		done <- g.GradeQuestion(context.Background(), "olympics", 0, goodQuestion())
	}()

	clock.BlockUntil(1)
	clock.Advance(6 * time.Second)

	res := <-done
	require.False(t, res.Accepted)
	require.Equal(t, StageExecution, res.Stage)

	var to *TimedOutError
	require.ErrorAs(t, res.Err, &to)
	require.Equal(t, 5*time.Second, to.Budget)
}

func TestGradeDocument(t *testing.T) {
	t.Parallel()

	g, _ := fixtureGrader(t, nil)

	bad := goodQuestion()
	bad.Answer = "July"

	doc := &task.Document{
		Name:      "olympics",
		Questions: []task.Question{goodQuestion(), bad},
	}

	report, err := g.GradeDocument(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.Equal(t, 1, report.AcceptedCount())
	require.Equal(t, 1, report.RejectedCount())

	// Results keep question order.
	require.Equal(t, 0, report.Results[0].Question)
	require.True(t, report.Results[0].Accepted)
	require.Equal(t, 1, report.Results[1].Question)
	require.False(t, report.Results[1].Accepted)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("requires_logger_index_store", func(t *testing.T) {
		t.Parallel()

		_, err := New(&Config{})
		require.Error(t, err)
	})

	t.Run("fills_defaults", func(t *testing.T) {
		t.Parallel()

		cfg := &Config{
			Logger: testLogger(),
			Index:  corpus.BuildIndex(testLogger(), nil),
			Store:  &memStore{},
		}
		require.NoError(t, cfg.Validate())
		require.Equal(t, defaultTimeout, cfg.Timeout)
		require.Equal(t, 5, cfg.MinRequiredFiles)
		require.Equal(t, 5, cfg.MinReasoningSteps)
		require.NotNil(t, cfg.Clock)
		require.Positive(t, cfg.Workers)
	})
}
