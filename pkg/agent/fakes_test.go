package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lendwise/underwriter/pkg/llm"
	"github.com/lendwise/underwriter/pkg/models"
	"github.com/lendwise/underwriter/pkg/services"
)

// fakeCatalog is an in-memory Catalog.
type fakeCatalog struct {
	lenders  []string
	programs []models.LoanProgram
	// keyed by program ID
	guidelines map[string][]models.Guideline
	rules      map[string][]models.EligibilityMatrixRule
	matches    []models.ProgramMatch

	listErr error
}

func (f *fakeCatalog) ListLenders(ctx context.Context) ([]string, error) {
	return f.lenders, f.listErr
}

func (f *fakeCatalog) GetProgramsByLender(ctx context.Context, lenderName string) ([]models.LoanProgram, error) {
	return f.programs, nil
}

func (f *fakeCatalog) ListProgramNames(ctx context.Context) ([]models.LoanProgram, error) {
	return f.programs, f.listErr
}

func (f *fakeCatalog) GetProgram(ctx context.Context, programID string) (*models.LoanProgram, error) {
	for i := range f.programs {
		if f.programs[i].ID == programID {
			return &f.programs[i], nil
		}
	}
	return nil, services.ErrNotFound
}

func (f *fakeCatalog) GetGuidelines(ctx context.Context, programID string, category *models.GuidelineCategory) ([]models.Guideline, error) {
	return f.guidelines[programID], nil
}

func (f *fakeCatalog) FindEligibilityRules(ctx context.Context, programID string, filter services.EligibilityFilter) ([]models.EligibilityMatrixRule, error) {
	return f.rules[programID], nil
}

func (f *fakeCatalog) MatchPrograms(ctx context.Context, criteria services.ScenarioCriteria) ([]models.ProgramMatch, error) {
	return f.matches, nil
}

// fakeDocs records searches.
type fakeDocs struct {
	mu      sync.Mutex
	queries []string
	chunks  []models.DocumentChunk
	err     error
}

func (f *fakeDocs) Search(ctx context.Context, query string, k int) ([]models.DocumentChunk, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return f.chunks, f.err
}

func (f *fakeDocs) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// fakeLLM serves canned responses.
type fakeLLM struct {
	text    string
	textErr error
	chunks  []llm.Chunk
}

func (f *fakeLLM) GenerateText(ctx context.Context, req *llm.GenerateRequest) (string, error) {
	return f.text, f.textErr
}

func (f *fakeLLM) GenerateStream(ctx context.Context, req *llm.GenerateRequest) (<-chan llm.Chunk, error) {
	out := make(chan llm.Chunk, len(f.chunks))
	for _, c := range f.chunks {
		out <- c
	}
	close(out)
	return out, nil
}

func (f *fakeLLM) Close() error { return nil }

// fakeStore implements ConversationStore, MessageStore, MessageHistory and
// SummaryWriter over in-memory maps.
type fakeStore struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	messages      []models.ChatMessage
	summaryWrites int
}

func newFakeStore() *fakeStore {
	return &fakeStore{conversations: make(map[string]*models.Conversation)}
}

func (f *fakeStore) GetOrCreateConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conversationID == "" {
		conversationID = fmt.Sprintf("conv-%d", len(f.conversations)+1)
	}
	if conv, ok := f.conversations[conversationID]; ok {
		copied := *conv
		return &copied, nil
	}
	conv := &models.Conversation{ID: conversationID}
	f.conversations[conversationID] = conv
	copied := *conv
	return &copied, nil
}

func (f *fakeStore) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, services.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeStore) SetScenarioState(ctx context.Context, conversationID string, state json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return services.ErrNotFound
	}
	conv.ScenarioState = state
	return nil
}

func (f *fakeStore) SetSummaryAndState(ctx context.Context, conversationID, summary string, state json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return services.ErrNotFound
	}
	conv.Summary = summary
	conv.ScenarioState = state
	f.summaryWrites++
	return nil
}

func (f *fakeStore) AppendMessage(ctx context.Context, req models.AppendMessageRequest) (*models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg := models.ChatMessage{
		ID:             fmt.Sprintf("msg-%d", len(f.messages)+1),
		ConversationID: req.ConversationID,
		Role:           req.Role,
		Content:        req.Content,
	}
	f.messages = append(f.messages, msg)
	return &msg, nil
}

func (f *fakeStore) GetRecentMessages(ctx context.Context, conversationID string, perRole int) ([]models.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) messagesByRole(role models.MessageRole) []models.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChatMessage
	for _, m := range f.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

// syncScheduler runs submitted tasks inline.
type syncScheduler struct {
	mu        sync.Mutex
	submitted []string
	reject    bool
}

func (s *syncScheduler) Submit(name string, run func(ctx context.Context) error) bool {
	s.mu.Lock()
	if s.reject {
		s.mu.Unlock()
		return false
	}
	s.submitted = append(s.submitted, name)
	s.mu.Unlock()
	_ = run(context.Background())
	return true
}

func (s *syncScheduler) submitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.submitted)
}
