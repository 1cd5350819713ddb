// Package agent implements the conversational underwriting assistant: a
// deterministic triage router over a tiered tool registry, with model calls
// reserved for answer synthesis, SQL generation and summarization.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lendwise/underwriter/pkg/llm"
	"github.com/lendwise/underwriter/pkg/models"
	"github.com/lendwise/underwriter/pkg/services"
)

// ConversationStore is the slice of the conversation service the
// orchestrator needs.
type ConversationStore interface {
	GetOrCreateConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	SetScenarioState(ctx context.Context, conversationID string, state json.RawMessage) error
}

// MessageStore persists turn messages.
type MessageStore interface {
	AppendMessage(ctx context.Context, req models.AppendMessageRequest) (*models.ChatMessage, error)
}

// TaskScheduler runs work off the request path. Submit returns false when
// the scheduler is shutting down and cannot accept the task.
type TaskScheduler interface {
	Submit(name string, run func(ctx context.Context) error) bool
}

const (
	synthesisSystemPrompt = `You are a mortgage underwriting assistant for loan officers. Answer the
question using only the tool results provided. Be precise about numbers,
cite the program and lender names involved, and say plainly when the data
does not answer the question. Do not invent guidelines.`

	fallbackAnswer = "I ran into a problem answering that. Please try again."

	turnTimeout = 2 * time.Minute
)

// Orchestrator executes conversation turns end to end: triage, parameter
// collection, tool execution, optional enrichment and streamed synthesis.
type Orchestrator struct {
	registry      *Registry
	classifier    *Classifier
	conversations ConversationStore
	messages      MessageStore
	compactor     *Compactor
	tasks         TaskScheduler
	llm           llm.Client
	llmTimeout    time.Duration

	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// NewOrchestrator wires the turn pipeline.
func NewOrchestrator(
	registry *Registry,
	classifier *Classifier,
	conversations ConversationStore,
	messages MessageStore,
	compactor *Compactor,
	tasks TaskScheduler,
	client llm.Client,
	llmTimeout time.Duration,
) *Orchestrator {
	if llmTimeout <= 0 {
		llmTimeout = 60 * time.Second
	}
	return &Orchestrator{
		registry:      registry,
		classifier:    classifier,
		conversations: conversations,
		messages:      messages,
		compactor:     compactor,
		tasks:         tasks,
		llm:           client,
		llmTimeout:    llmTimeout,
	}
}

// HandleTurn records the user message and starts the turn. The returned
// channel emits a metadata frame first, then content or error frames, and is
// closed when the turn finishes. The turn runs on a detached context so a
// dropped client never skips the terminal persistence work.
func (o *Orchestrator) HandleTurn(httpCtx context.Context, conversationID, userText string) (string, <-chan Frame, error) {
	if strings.TrimSpace(userText) == "" {
		return "", nil, services.NewValidationError("message", "required")
	}

	// Claim a turn slot before writing anything: a turn refused during
	// shutdown must not leave a user message with no assistant reply.
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return "", nil, fmt.Errorf("agent is shutting down")
	}
	o.wg.Add(1)
	o.mu.Unlock()

	conv, err := o.conversations.GetOrCreateConversation(httpCtx, conversationID)
	if err != nil {
		o.wg.Done()
		return "", nil, err
	}

	// The user message must be durable before any tool or model call.
	if _, err := o.messages.AppendMessage(httpCtx, models.AppendMessageRequest{
		ConversationID: conv.ID,
		Role:           models.RoleUser,
		Content:        userText,
	}); err != nil {
		o.wg.Done()
		return "", nil, fmt.Errorf("failed to record user message: %w", err)
	}

	frames := make(chan Frame, 16)
	go o.runTurn(conv, userText, frames)
	return conv.ID, frames, nil
}

// Stop rejects new turns and waits for in-flight turns to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Orchestrator) runTurn(conv *models.Conversation, userText string, frames chan<- Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)

	answer := fallbackAnswer
	state := LoadScenarioState(conv)

	defer func() {
		defer o.wg.Done()
		defer close(frames)
		if r := recover(); r != nil {
			slog.Error("Turn panicked", "conversation_id", conv.ID, "panic", r)
			sendFrame(ctx, frames, errorFrame("internal error"))
		}
		cancel()
		o.finishTurn(conv.ID, answer, state)
	}()

	sendFrame(ctx, frames, metadataFrame(conv.ID))
	answer = o.executeTurn(ctx, conv, state, userText, frames)
}

// finishTurn is the turn's terminal action: persist the assistant message
// and the scenario state, then schedule the summary refresh. It runs exactly
// once per turn, error or not, on its own context so an expired turn still
// persists its outcome.
func (o *Orchestrator) finishTurn(conversationID, answer string, state *models.ScenarioState) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if answer == "" {
		answer = fallbackAnswer
	}
	if _, err := o.messages.AppendMessage(ctx, models.AppendMessageRequest{
		ConversationID: conversationID,
		Role:           models.RoleAssistant,
		Content:        answer,
	}); err != nil {
		slog.Error("Failed to persist assistant message", "conversation_id", conversationID, "error", err)
	}

	if encoded, err := state.Encode(); err != nil {
		slog.Error("Failed to encode scenario state", "conversation_id", conversationID, "error", err)
	} else if err := o.conversations.SetScenarioState(ctx, conversationID, encoded); err != nil {
		slog.Error("Failed to persist scenario state", "conversation_id", conversationID, "error", err)
	}

	stateCopy := *state
	accepted := o.tasks.Submit("summary-refresh", func(taskCtx context.Context) error {
		return o.compactor.Refresh(taskCtx, conversationID, &stateCopy)
	})
	if !accepted {
		slog.Warn("Summary refresh not scheduled, queue is shutting down",
			"conversation_id", conversationID)
	}
}

// executeTurn routes the turn and produces the final answer, emitting
// content frames along the way. The scenario state is mutated in place.
func (o *Orchestrator) executeTurn(ctx context.Context, conv *models.Conversation, state *models.ScenarioState, userText string, frames chan<- Frame) string {
	route, deterministic := o.route(ctx, state, userText)
	if deterministic != "" {
		sendFrame(ctx, frames, contentFrame(deterministic))
		return deterministic
	}
	if route == nil {
		sendFrame(ctx, frames, errorFrame("triage failed"))
		return fallbackAnswer
	}

	results, failureText := o.invoke(ctx, route, state)
	if failureText != "" {
		sendFrame(ctx, frames, contentFrame(failureText))
		return failureText
	}

	return o.synthesize(ctx, conv, userText, results, frames)
}

// route applies the decision table. A non-empty second return value is a
// deterministic answer (clarifying question) that needs no tool call.
func (o *Orchestrator) route(ctx context.Context, state *models.ScenarioState, userText string) (*Route, string) {
	// An open parameter collection always wins: the turn is treated as an
	// answer to the pending question, never re-triaged.
	if state.AwaitingParameters() {
		MergeParameters(state, ExtractScenarioParameters(userText))
		if missing := state.Missing(); len(missing) > 0 {
			return nil, clarifyingQuestion(missing)
		}
		return &Route{Tool: ToolMatchLoanPrograms, Args: state.Collected, Intent: models.IntentScenario}, ""
	}

	route, err := o.classifier.Classify(ctx, userText)
	if err != nil {
		slog.Error("Triage failed", "error", err)
		return nil, ""
	}

	if route.Intent == models.IntentScenario && route.Tool == ToolMatchLoanPrograms {
		state.ActiveIntent = models.IntentScenario
		MergeParameters(state, route.Args)
		if missing := state.Missing(); len(missing) > 0 {
			return nil, clarifyingQuestion(missing)
		}
		route.Args = state.Collected
		return route, ""
	}

	state.ActiveIntent = route.Intent
	state.Program = route.Program
	state.Collected = nil
	if route.Intent == models.IntentGeneral {
		state.Topic = truncate(userText, 120)
	}
	return route, ""
}

// toolOutput pairs a tool invocation with its result text for synthesis.
type toolOutput struct {
	Tool string
	Text string
}

// invoke dispatches the routed tool, applies the enrichment rules and maps
// failures to user-facing text. A non-empty second return value short
// circuits synthesis.
func (o *Orchestrator) invoke(ctx context.Context, route *Route, state *models.ScenarioState) ([]toolOutput, string) {
	result, err := o.dispatchWithRetry(ctx, route.Tool, route.Args)
	if err != nil {
		return nil, failureAnswer(route, err)
	}

	// A completed scenario match closes the collection.
	if route.Tool == ToolMatchLoanPrograms {
		state.ActiveIntent = models.IntentNone
		state.Collected = nil
	}

	outputs := []toolOutput{{Tool: route.Tool, Text: result.Text}}

	// At most one enrichment pass, and only after a non-empty primary
	// structured result.
	tool, _ := o.registry.Get(route.Tool)
	if tool != nil && tool.Tier == TierPrimary && !result.Empty {
		if query := enrichmentQuery(route); query != "" {
			enriched, err := o.registry.Dispatch(ctx, ToolSearchDocuments, map[string]string{"query": query})
			if err != nil {
				slog.Warn("Enrichment search failed", "query", query, "error", err)
			} else if !enriched.Empty {
				outputs = append(outputs, toolOutput{Tool: ToolSearchDocuments, Text: enriched.Text})
			}
		}
	}
	return outputs, ""
}

// dispatchWithRetry retries transient failures once for idempotent reads.
// Typed rejections and the dynamic query tool are never retried.
func (o *Orchestrator) dispatchWithRetry(ctx context.Context, name string, args map[string]string) (*ToolResult, error) {
	result, err := o.registry.Dispatch(ctx, name, args)
	if err == nil || !isTransient(err) {
		return result, err
	}
	if tool, ok := o.registry.Get(name); !ok || tool.Tier == TierLastResort {
		return result, err
	}
	slog.Warn("Tool failed, retrying once", "tool", name, "error", err)
	return o.registry.Dispatch(ctx, name, args)
}

func isTransient(err error) bool {
	var resolution *ResolutionError
	if errors.As(err, &resolution) {
		return false
	}
	return !IsSecurityError(err) && !IsInvalidArgument(err) && !services.IsValidationError(err)
}

func failureAnswer(route *Route, err error) string {
	var resolution *ResolutionError
	switch {
	case errors.As(err, &resolution):
		return fmt.Sprintf("I couldn't find a %s matching %q. Could you check the name?",
			resolution.Kind, resolution.Name)
	case IsSecurityError(err):
		return "I couldn't answer that with a safe database query. Try rephrasing the question."
	case IsInvalidArgument(err):
		return fmt.Sprintf("I couldn't run that lookup: %v.", err)
	default:
		slog.Error("Tool execution failed", "tool", route.Tool, "error", err)
		return "I ran into a problem looking that up. Please try again."
	}
}

// synthesize streams the model's answer composed from the tool outputs.
func (o *Orchestrator) synthesize(ctx context.Context, conv *models.Conversation, userText string, outputs []toolOutput, frames chan<- Frame) string {
	var toolContext strings.Builder
	for _, out := range outputs {
		// The tool description gives the model provenance for each result.
		if tool, ok := o.registry.Get(out.Tool); ok {
			fmt.Fprintf(&toolContext, "Result from %s (%s):\n%s\n\n", out.Tool, tool.Description, out.Text)
		} else {
			fmt.Fprintf(&toolContext, "Result from %s:\n%s\n\n", out.Tool, out.Text)
		}
	}

	messages := []llm.Message{}
	if conv.Summary != "" {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "Conversation summary so far:\n" + conv.Summary,
		})
	}
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Question: %s\n\n%s", userText, toolContext.String()),
	})

	llmCtx, cancel := context.WithTimeout(ctx, o.llmTimeout)
	defer cancel()

	chunks, err := o.llm.GenerateStream(llmCtx, &llm.GenerateRequest{
		System:   synthesisSystemPrompt,
		Messages: messages,
	})
	if err != nil {
		slog.Error("Synthesis failed to start", "error", err)
		sendFrame(ctx, frames, errorFrame("answer generation failed"))
		return fallbackAnswer
	}

	var answer strings.Builder
	for chunk := range chunks {
		switch c := chunk.(type) {
		case *llm.TextChunk:
			answer.WriteString(c.Content)
			sendFrame(ctx, frames, contentFrame(c.Content))
		case *llm.ErrorChunk:
			slog.Error("Synthesis stream failed", "error", c.Message)
			sendFrame(ctx, frames, errorFrame("answer generation failed"))
			if answer.Len() == 0 {
				return fallbackAnswer
			}
			return answer.String()
		}
	}
	if answer.Len() == 0 {
		sendFrame(ctx, frames, errorFrame("answer generation returned nothing"))
		return fallbackAnswer
	}
	return answer.String()
}

// enrichmentQuery derives the document search query from the structured
// route, not from model output. Only program-specific lookups enrich.
func enrichmentQuery(route *Route) string {
	switch route.Tool {
	case ToolGetProgramGuidelines, ToolFindEligibilityRules:
		return route.Program + " underwriting guidelines"
	default:
		return ""
	}
}

func clarifyingQuestion(missing []string) string {
	labels := map[string]string{
		models.ParamFicoScore:   "the borrower's FICO score",
		models.ParamLoanAmount:  "the loan amount",
		models.ParamLTV:         "the LTV",
		models.ParamOccupancy:   "the occupancy type (primary, second home or investment)",
		models.ParamLoanPurpose: "the loan purpose (purchase, rate/term or cash-out)",
	}
	parts := make([]string, 0, len(missing))
	for _, m := range missing {
		parts = append(parts, labels[m])
	}
	return "To match programs for this scenario I still need " + joinNatural(parts) + "."
}

func joinNatural(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}

// truncate shortens s to at most max runes, never splitting a multi-byte
// character.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func sendFrame(ctx context.Context, frames chan<- Frame, f Frame) {
	select {
	case frames <- f:
	case <-ctx.Done():
	}
}
