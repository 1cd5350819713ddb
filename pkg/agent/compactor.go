package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lendwise/underwriter/pkg/llm"
	"github.com/lendwise/underwriter/pkg/models"
)

// MessageHistory is the slice of the message service the compactor needs.
type MessageHistory interface {
	GetRecentMessages(ctx context.Context, conversationID string, perRole int) ([]models.ChatMessage, error)
}

// SummaryWriter persists the refreshed summary and structured state.
type SummaryWriter interface {
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	SetSummaryAndState(ctx context.Context, conversationID, summary string, state json.RawMessage) error
}

const summarySystemPrompt = `You maintain a rolling summary of a conversation between a mortgage
underwriting assistant and a loan officer. Rewrite the summary so it stays
short (a few sentences), keeps established facts, and folds in the latest
exchange. Respond with only the summary text.`

// Compactor maintains the conversation's rolling summary. It runs after a
// turn completes, off the request path; a failure here leaves the previous
// summary in place and never affects the finished turn.
type Compactor struct {
	llm     llm.Client
	history MessageHistory
	writer  SummaryWriter
	window  int
}

// NewCompactor creates a compactor that feeds the last window messages per
// role into each refresh.
func NewCompactor(client llm.Client, history MessageHistory, writer SummaryWriter, window int) *Compactor {
	if window < 1 {
		window = 2
	}
	return &Compactor{llm: client, history: history, writer: writer, window: window}
}

// Refresh regenerates the summary from the previous summary plus the recent
// message window and persists it together with the structured state.
func (c *Compactor) Refresh(ctx context.Context, conversationID string, state *models.ScenarioState) error {
	conv, err := c.writer.GetConversation(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	recent, err := c.history.GetRecentMessages(ctx, conversationID, c.window)
	if err != nil {
		return fmt.Errorf("failed to load recent messages: %w", err)
	}

	summary, err := c.llm.GenerateText(ctx, &llm.GenerateRequest{
		System:   summarySystemPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: buildSummaryPrompt(conv.Summary, recent)}},
	})
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if section := describeState(state); section != "" {
		summary += "\n\n" + section
	}

	encoded, err := state.Encode()
	if err != nil {
		return err
	}
	if err := c.writer.SetSummaryAndState(ctx, conversationID, summary, encoded); err != nil {
		return fmt.Errorf("failed to persist summary: %w", err)
	}
	return nil
}

func buildSummaryPrompt(previous string, recent []models.ChatMessage) string {
	var b strings.Builder
	if previous == "" {
		b.WriteString("Current summary: (none)\n")
	} else {
		fmt.Fprintf(&b, "Current summary:\n%s\n", previous)
	}
	b.WriteString("\nLatest exchange:\n")
	for _, m := range recent {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	return b.String()
}

// describeState renders the structured state for model consumption. The
// rendering is informational only; routing always reads the JSONB blob.
func describeState(state *models.ScenarioState) string {
	if state == nil || state.ActiveIntent == models.IntentNone {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Active intent: %s.", state.ActiveIntent)
	if len(state.Collected) > 0 {
		var parts []string
		for _, p := range models.RequiredScenarioParameters {
			if v, ok := state.Collected[p]; ok {
				parts = append(parts, fmt.Sprintf("%s=%s", p, v))
			}
		}
		fmt.Fprintf(&b, " Collected: %s.", strings.Join(parts, ", "))
	}
	if missing := state.Missing(); state.ActiveIntent == models.IntentScenario && len(missing) > 0 {
		fmt.Fprintf(&b, " Missing: %s.", strings.Join(missing, ", "))
	}
	if state.Program != "" {
		fmt.Fprintf(&b, " Program under discussion: %s.", state.Program)
	}
	return b.String()
}
