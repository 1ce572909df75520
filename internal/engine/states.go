package engine

import (
	"github.com/synapdocs/docqa/internal/model"
)

// State is one node of the turn state machine.
type State string

const (
	StateStart    State = "start"
	StateAgent    State = "agent"
	StateRetrieve State = "retrieve"
	StateGrade    State = "grade"
	StateRewrite  State = "rewrite"
	StateGenerate State = "generate"
	StateDone     State = "done"
)

// rewriteBudget is the maximum number of question reformulations per turn.
// Once spent, grading proceeds to generation regardless of the label.
const rewriteBudget = 1

// turnContext is the in-turn working set. It exists only for the duration
// of one engine run; all cross-turn continuity lives in the persisted state.
type turnContext struct {
	input model.TurnInput
	state model.ConversationState

	// pendingFilter is the retrieval scope for this turn. It never
	// survives past the turn's completion.
	pendingFilter *model.RetrievalFilter

	// retrieveQuery is the question text the next retrieval will use; the
	// rewrite step replaces it.
	retrieveQuery string

	passages   []model.Passage
	gradeLabel string
	answer     string
}

// next is the pure transition function (state, context) -> state. It makes
// no external calls, so the full table is unit-testable without any
// collaborator.
func next(s State, tc *turnContext) State {
	switch s {
	case StateStart:
		return StateAgent
	case StateAgent:
		// A retrieval capability is always bound in this design; the
		// direct-answer path is reachable only when no filter is present.
		if tc.pendingFilter != nil {
			return StateRetrieve
		}
		return StateDone
	case StateRetrieve:
		return StateGrade
	case StateGrade:
		if decide(tc.gradeLabel, tc.state.RewriteCount) {
			return StateGenerate
		}
		return StateRewrite
	case StateRewrite:
		return StateAgent
	case StateGenerate:
		return StateDone
	default:
		return StateDone
	}
}

// decide is the terminal-relevance policy: proceed to generation when the
// grader says yes or the rewrite budget is exhausted. A pure function of
// its inputs, independent of the judgment source.
func decide(label string, rewriteCount int) bool {
	return label == "yes" || rewriteCount >= rewriteBudget
}
