package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendwise/underwriter/pkg/models"
	"github.com/lendwise/underwriter/pkg/services"
	testdb "github.com/lendwise/underwriter/test/database"
)

func seedConversation(t *testing.T, svc *services.ConversationService) string {
	t.Helper()
	conv, err := svc.GetOrCreateConversation(context.Background(), "")
	require.NoError(t, err)
	return conv.ID
}

func TestAppendAndReadMessages(t *testing.T) {
	client := testdb.NewTestClient(t)
	conversations := services.NewConversationService(client)
	messages := services.NewMessageService(client)
	ctx := context.Background()

	convID := seedConversation(t, conversations)

	first, err := messages.AppendMessage(ctx, models.AppendMessageRequest{
		ConversationID: convID, Role: models.RoleUser, Content: "hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = messages.AppendMessage(ctx, models.AppendMessageRequest{
		ConversationID: convID, Role: models.RoleAssistant, Content: "hi there",
	})
	require.NoError(t, err)

	transcript, err := messages.GetConversationMessages(ctx, convID)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, models.RoleUser, transcript[0].Role)
	assert.Equal(t, "hello", transcript[0].Content)
	assert.Equal(t, models.RoleAssistant, transcript[1].Role)
}

func TestAppendMessageValidation(t *testing.T) {
	client := testdb.NewTestClient(t)
	messages := services.NewMessageService(client)
	ctx := context.Background()

	_, err := messages.AppendMessage(ctx, models.AppendMessageRequest{
		Role: models.RoleUser, Content: "x",
	})
	assert.True(t, services.IsValidationError(err))

	_, err = messages.AppendMessage(ctx, models.AppendMessageRequest{
		ConversationID: "c", Role: "SYSTEM", Content: "x",
	})
	assert.True(t, services.IsValidationError(err))

	_, err = messages.AppendMessage(ctx, models.AppendMessageRequest{
		ConversationID: "c", Role: models.RoleUser,
	})
	assert.True(t, services.IsValidationError(err))
}

func TestGetRecentMessagesWindow(t *testing.T) {
	client := testdb.NewTestClient(t)
	conversations := services.NewConversationService(client)
	messages := services.NewMessageService(client)
	ctx := context.Background()

	convID := seedConversation(t, conversations)

	// Six alternating turns; created_at must strictly increase for a
	// deterministic window.
	for i := 0; i < 3; i++ {
		_, err := messages.AppendMessage(ctx, models.AppendMessageRequest{
			ConversationID: convID, Role: models.RoleUser, Content: fmt.Sprintf("question %d", i),
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = messages.AppendMessage(ctx, models.AppendMessageRequest{
			ConversationID: convID, Role: models.RoleAssistant, Content: fmt.Sprintf("answer %d", i),
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	recent, err := messages.GetRecentMessages(ctx, convID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 4)

	// The window is the last two turns, in chronological order.
	assert.Equal(t, "question 1", recent[0].Content)
	assert.Equal(t, "answer 1", recent[1].Content)
	assert.Equal(t, "question 2", recent[2].Content)
	assert.Equal(t, "answer 2", recent[3].Content)
}

func TestGetRecentMessagesFewerThanWindow(t *testing.T) {
	client := testdb.NewTestClient(t)
	conversations := services.NewConversationService(client)
	messages := services.NewMessageService(client)
	ctx := context.Background()

	convID := seedConversation(t, conversations)
	_, err := messages.AppendMessage(ctx, models.AppendMessageRequest{
		ConversationID: convID, Role: models.RoleUser, Content: "only one",
	})
	require.NoError(t, err)

	recent, err := messages.GetRecentMessages(ctx, convID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "only one", recent[0].Content)
}
