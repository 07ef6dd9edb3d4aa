package grader

import (
	"fmt"

	"github.com/wikilake/hopcheck/pkg/corpus"
	"github.com/wikilake/hopcheck/pkg/task"
)

// Rule names the structural constraint a task broke.
type Rule string

const (
	RuleMinFiles     Rule = "min-required-files"
	RuleFileKind     Rule = "file-kind"
	RuleFileExists   Rule = "file-exists"
	RuleMinSteps     Rule = "min-reasoning-steps"
	RuleStepOrder    Rule = "step-order"
	RuleAnswerSchema Rule = "answer-schema"
)

// ConstraintViolationError reports the first structural rule a question
// failed. There is no partial acceptance; one violation rejects the task.
type ConstraintViolationError struct {
	Rule   Rule
	Detail string
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("constraint %s violated: %s", e.Rule, e.Detail)
}

// CheckConstraints runs the structural/policy gate over one question.
// These checks are independent of data content and run before anything
// is fetched from the corpus.
func CheckConstraints(q task.Question, index *corpus.Index, minFiles, minSteps int) error {
	if len(q.RequiredFiles) < minFiles {
		return &ConstraintViolationError{
			Rule:   RuleMinFiles,
			Detail: fmt.Sprintf("%d required files declared, need at least %d", len(q.RequiredFiles), minFiles),
		}
	}

	for _, name := range q.RequiredFiles {
		f, err := corpus.ParseFilename(name)
		if err != nil {
			return &ConstraintViolationError{
				Rule:   RuleFileKind,
				Detail: fmt.Sprintf("%s is not a legal corpus file: %v", name, err),
			}
		}
		if f.Kind != corpus.KindTable && f.Kind != corpus.KindPassage {
			return &ConstraintViolationError{
				Rule:   RuleFileKind,
				Detail: fmt.Sprintf("%s has illegal kind %q", name, f.Kind),
			}
		}
		if !index.Exists(name) {
			return &ConstraintViolationError{
				Rule:   RuleFileExists,
				Detail: fmt.Sprintf("%s not found in the corpus index", name),
			}
		}
	}

	if len(q.Reasoning) < minSteps {
		return &ConstraintViolationError{
			Rule:   RuleMinSteps,
			Detail: fmt.Sprintf("%d reasoning steps declared, need at least %d", len(q.Reasoning), minSteps),
		}
	}

	for i, s := range q.Reasoning {
		for _, ref := range s.StepRefs() {
			if ref >= i {
				return &ConstraintViolationError{
					Rule:   RuleStepOrder,
					Detail: fmt.Sprintf("step %d references step %d; steps may only reference earlier steps", i, ref),
				}
			}
		}
	}

	if _, ok := q.AnswerSchema(); !ok {
		return &ConstraintViolationError{
			Rule:   RuleAnswerSchema,
			Detail: `question text has no "Answer as: ..." fragment`,
		}
	}

	return nil
}
