// Package engine implements the retrieve -> grade -> (rewrite -> retrieve)
// -> generate cycle for one conversation turn as an explicit state machine
// with a bounded rewrite budget and all-or-nothing state persistence.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/synapdocs/docqa/internal/llm"
	"github.com/synapdocs/docqa/internal/model"
	"github.com/synapdocs/docqa/internal/state"
	"github.com/synapdocs/docqa/pkg/logger"
	"github.com/synapdocs/docqa/pkg/metrics"
)

// Retriever is the gateway the engine invokes for scoped passage lookup.
type Retriever interface {
	Retrieve(ctx context.Context, question string, filter model.RetrievalFilter) ([]model.Passage, error)
}

// Engine drives the turn state machine. It is stateless between turns;
// every run loads the thread's persisted state, executes the machine, and
// commits the updated state exactly once at the end. Many turns may run
// concurrently; steps within one turn are strictly sequential.
type Engine struct {
	store     state.Store
	retriever Retriever
	llm       llm.Client
	log       *logger.Logger
}

// New creates an engine over its three collaborators.
func New(store state.Store, retriever Retriever, client llm.Client, log *logger.Logger) *Engine {
	return &Engine{
		store:     store,
		retriever: retriever,
		llm:       client,
		log:       log,
	}
}

// RunTurn executes one blocking turn and returns the final answer.
func (e *Engine) RunTurn(ctx context.Context, input model.TurnInput) (string, error) {
	return e.run(ctx, input, nil)
}

// RunTurnStream executes one turn, delivering answer tokens to onToken as
// they arrive. The full answer is also returned.
func (e *Engine) RunTurnStream(ctx context.Context, input model.TurnInput, onToken llm.StreamCallback) (string, error) {
	return e.run(ctx, input, onToken)
}

func (e *Engine) run(ctx context.Context, input model.TurnInput, onToken llm.StreamCallback) (string, error) {
	start := time.Now()

	st, err := e.store.Load(ctx, input.ThreadID)
	if err != nil {
		return "", newError(KindCollaborator, "state_load_error", err)
	}

	filter := model.NewRetrievalFilter(input.OwnerID, input.AllowedDocuments)
	tc := &turnContext{
		input:         input,
		state:         st,
		pendingFilter: &filter,
		retrieveQuery: input.Question,
	}
	tc.appendMessage(model.RoleHuman, input.Question, "")

	// The rewrite budget bounds the only cycle in the machine, so this
	// loop always terminates.
	for s := next(StateStart, tc); s != StateDone; s = next(s, tc) {
		var stepErr error
		switch s {
		case StateAgent:
			stepErr = e.stepAgent(ctx, tc)
		case StateRetrieve:
			stepErr = e.stepRetrieve(ctx, tc)
		case StateGrade:
			stepErr = e.stepGrade(ctx, tc)
		case StateRewrite:
			stepErr = e.stepRewrite(ctx, tc)
		case StateGenerate:
			stepErr = e.stepGenerate(ctx, tc, onToken)
		}
		if stepErr != nil {
			// Abort without committing; the thread keeps its pre-turn state.
			turnErr := AsError(stepErr)
			e.log.Error("turn aborted",
				zap.String("thread_id", input.ThreadID),
				zap.String("state", string(s)),
				zap.String("kind", string(turnErr.Kind)),
				zap.Error(turnErr.Err),
			)
			metrics.TurnsTotal.WithLabelValues("error").Inc()
			return "", turnErr
		}
		metrics.TurnStepsTotal.WithLabelValues(string(s)).Inc()
	}

	// The filter is per-turn only; it must never survive the turn.
	tc.pendingFilter = nil

	if err := e.store.Commit(ctx, input.ThreadID, tc.state); err != nil {
		metrics.TurnsTotal.WithLabelValues("error").Inc()
		return "", newError(KindCollaborator, "state_commit_error", err)
	}

	e.log.Info("turn complete",
		zap.String("thread_id", input.ThreadID),
		zap.String("owner_id", input.OwnerID),
		zap.Int("messages", len(tc.state.Messages)),
		zap.Duration("duration", time.Since(start)),
	)
	metrics.TurnsTotal.WithLabelValues("success").Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())

	return tc.answer, nil
}

func (tc *turnContext) appendMessage(role model.Role, content, source string) {
	tc.state.Messages = append(tc.state.Messages, model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	})
}

// stepAgent decides how the turn proceeds. With a retrieval capability
// bound (always, in this design) it emits a tool-invocation request
// carrying the turn's filter; without one it answers directly from the
// message window.
func (e *Engine) stepAgent(ctx context.Context, tc *turnContext) error {
	if tc.pendingFilter != nil {
		tc.retrieveQuery = model.LastHumanContent(tc.state.Messages)
		return nil
	}

	// Direct-answer path: currently unexercised but kept reachable.
	window := model.Window(tc.state.Messages)
	prompt := agentFromHumanPrompt
	if len(window) > 0 && window[len(window)-1].Role == model.RoleAI {
		prompt = agentFromAIPrompt
	}

	resp, err := e.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: append(
			windowToChatMessages(window[:len(window)-1]),
			llm.ChatMessage{Role: "user", Content: fmt.Sprintf(prompt, window[len(window)-1].Content)},
		),
	})
	if err != nil {
		return newError(KindCollaborator, "agent_error", err)
	}
	tc.answer = resp.Content
	tc.appendMessage(model.RoleAI, resp.Content, "")
	tc.state.RewriteCount = 0
	return nil
}

// stepRetrieve invokes the gateway and records the passages as a tool
// result in the history, with their sources as provenance.
func (e *Engine) stepRetrieve(ctx context.Context, tc *turnContext) error {
	passages, err := e.retriever.Retrieve(ctx, tc.retrieveQuery, *tc.pendingFilter)
	if err != nil {
		return newError(KindCollaborator, "retrieval_error", err)
	}
	tc.passages = passages
	metrics.RetrievedPassages.Observe(float64(len(passages)))

	var b strings.Builder
	sources := make([]string, 0, len(passages))
	seen := make(map[string]bool)
	for i, p := range passages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
		if !seen[p.Source] {
			seen[p.Source] = true
			sources = append(sources, p.Source)
		}
	}
	tc.appendMessage(model.RoleTool, b.String(), strings.Join(sources, ","))
	return nil
}

// stepGrade asks the model for a binary relevance judgment over the
// retrieved text. Only the label comes from the model; the terminal
// decision is the pure decide() policy evaluated by the transition table.
func (e *Engine) stepGrade(ctx context.Context, tc *turnContext) error {
	question := model.LastHumanContent(tc.state.Messages)
	docs := tc.state.Messages[len(tc.state.Messages)-1].Content

	resp, err := e.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(graderPrompt, docs, question)},
		},
		MaxTokens: 64,
		JSONOnly:  true,
	})
	if err != nil {
		return newError(KindCollaborator, "grading_error", err)
	}
	tc.gradeLabel = parseGradeLabel(resp.Content)
	return nil
}

// stepRewrite reformulates the question, appends it as a new human message,
// and spends one unit of the rewrite budget.
func (e *Engine) stepRewrite(ctx context.Context, tc *turnContext) error {
	question := model.LastHumanContent(tc.state.Messages)

	resp, err := e.llm.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(rewritePrompt, question)},
		},
	})
	if err != nil {
		return newError(KindCollaborator, "rewrite_error", err)
	}

	reformulated := strings.TrimSpace(resp.Content)
	tc.appendMessage(model.RoleHuman, reformulated, "")
	tc.state.RewriteCount++
	tc.retrieveQuery = reformulated
	metrics.RewritesTotal.Inc()
	return nil
}

// stepGenerate produces the final answer from the question and retrieved
// context, streaming tokens when a callback is provided. It always resets
// the rewrite budget.
func (e *Engine) stepGenerate(ctx context.Context, tc *turnContext, onToken llm.StreamCallback) error {
	question := model.LastHumanContent(tc.state.Messages)
	docs := tc.state.Messages[len(tc.state.Messages)-1].Content

	req := &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(generatePrompt, question, docs)},
		},
	}

	var resp *llm.CompletionResponse
	var err error
	if onToken != nil {
		resp, err = e.llm.CompleteStream(ctx, req, onToken)
	} else {
		resp, err = e.llm.Complete(ctx, req)
	}
	if err != nil {
		return newError(KindCollaborator, "generation_error", err)
	}

	tc.answer = resp.Content
	tc.appendMessage(model.RoleAI, resp.Content, "")
	tc.state.RewriteCount = 0
	return nil
}

func windowToChatMessages(messages []model.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == model.RoleAI {
			role = "assistant"
		}
		out = append(out, llm.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}
