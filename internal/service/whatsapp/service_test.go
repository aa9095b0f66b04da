package whatsapp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/repository/memory"
	"github.com/mamadbah2/pantry/internal/service/commands"
	"github.com/mamadbah2/pantry/internal/service/inventory"
	"github.com/mamadbah2/pantry/pkg/clients/anthropic"
	client "github.com/mamadbah2/pantry/pkg/clients/whatsapp"
)

type mockClient struct {
	mu   sync.Mutex
	sent []client.SendTextMessageRequest
	err  error
}

func (m *mockClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	if m.err != nil {
		return nil, m.err
	}
	return &client.SendTextMessageResponse{}, nil
}

type mockAI struct {
	command string
	err     error
	known   []string
	calls   int
}

func (m *mockAI) TranslateToCommand(_ context.Context, _ string, known []string) (string, error) {
	m.calls++
	m.known = known
	return m.command, m.err
}

func textPayload(from string, bodies ...string) models.WebhookPayload {
	var msgs []models.InboundMessage
	for i, body := range bodies {
		msgs = append(msgs, models.InboundMessage{
			From: from,
			ID:   "wamid." + string(rune('a'+i)),
			Type: "text",
			Text: &models.TextContent{Body: body},
		})
	}
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{Field: "messages", Value: models.WebhookValue{Messages: msgs}}},
		}},
	}
}

func newTestService(t *testing.T, ai *mockAI) (*MetaWhatsAppService, *mockClient, *inventory.Service) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	inv := inventory.NewService(memory.New(), inventory.Options{Collection: "pantry", AtomicUpdates: true}, logger)
	dispatcher := commands.NewService(inv, nil, nil, logger)
	wa := &mockClient{}

	var translator anthropic.Client
	if ai != nil {
		translator = ai
	}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "secret"}, wa, translator, dispatcher, inv, logger)
	return svc, wa, inv
}

func TestVerifyWebhookToken(t *testing.T) {
	svc, _, _ := newTestService(t, nil)

	challenge, err := svc.VerifyWebhookToken("subscribe", "secret", "1234")
	require.NoError(t, err)
	assert.Equal(t, "1234", challenge)

	_, err = svc.VerifyWebhookToken("subscribe", "wrong", "1234")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("unsubscribe", "secret", "1234")
	assert.Error(t, err)
	_, err = svc.VerifyWebhookToken("", "", "")
	assert.Error(t, err)
}

func TestHandleWebhook_DispatchesCommands(t *testing.T) {
	svc, wa, inv := newTestService(t, nil)

	err := svc.HandleWebhook(context.Background(), textPayload("2246", "/add Rice 2", "/list"))
	require.NoError(t, err)

	require.Len(t, wa.sent, 2)
	assert.Equal(t, "2246", wa.sent[0].To)
	assert.Equal(t, "Item added successfully. Rice: 2.", wa.sent[0].Body)
	assert.Equal(t, "- Rice: 2", wa.sent[1].Body)

	item, ok := inv.Find("Rice")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
}

func TestHandleWebhook_RepliesWithUsageOnBadCommand(t *testing.T) {
	svc, wa, _ := newTestService(t, nil)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("2246", "/set Rice")))
	require.Len(t, wa.sent, 1)
	assert.Contains(t, wa.sent[0].Body, "Usage: /set")

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("2246", "bonjour")))
	require.Len(t, wa.sent, 2)
	assert.Contains(t, wa.sent[1].Body, "Unknown command.")
}

func TestHandleWebhook_TranslatesPlainSentences(t *testing.T) {
	ai := &mockAI{command: "/add Milk 2"}
	svc, wa, inv := newTestService(t, ai)
	require.NoError(t, inv.Add(context.Background(), "Rice", 1))

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("2246", "I bought two milks")))

	assert.Equal(t, 1, ai.calls)
	assert.Equal(t, []string{"Rice"}, ai.known)
	require.Len(t, wa.sent, 1)
	assert.Equal(t, "Item added successfully. Milk: 2.", wa.sent[0].Body)
}

func TestHandleWebhook_SlashCommandsSkipTranslation(t *testing.T) {
	ai := &mockAI{command: "/list"}
	svc, _, _ := newTestService(t, ai)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("2246", "/add Rice", "/frobnicate")))
	assert.Zero(t, ai.calls)
}

func TestHandleWebhook_TranslationFailureFallsBackToHelp(t *testing.T) {
	ai := &mockAI{err: errors.New("overloaded")}
	svc, wa, _ := newTestService(t, ai)

	require.NoError(t, svc.HandleWebhook(context.Background(), textPayload("2246", "what do we have")))
	require.Len(t, wa.sent, 1)
	assert.Contains(t, wa.sent[0].Body, commands.HelpText)
}

func TestHandleWebhook_Errors(t *testing.T) {
	svc, wa, _ := newTestService(t, nil)

	err := svc.HandleWebhook(context.Background(), textPayload("2246", "   "))
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, wa.sent)

	wa.err = errors.New("graph api down")
	err = svc.HandleWebhook(context.Background(), textPayload("2246", "/help", "/help"))
	assert.EqualError(t, err, "graph api down")
	assert.Len(t, wa.sent, 2, "every message is attempted")
}

func TestHandleWebhook_InteractiveReply(t *testing.T) {
	svc, wa, _ := newTestService(t, nil)
	payload := models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{
		Value: models.WebhookValue{Messages: []models.InboundMessage{{
			From:        "2246",
			Type:        "interactive",
			Interactive: &models.InteractiveContent{Type: "button_reply", ButtonReply: &models.ReplyEntry{ID: "/help", Title: "Help"}},
		}}},
	}}}}}

	require.NoError(t, svc.HandleWebhook(context.Background(), payload))
	require.Len(t, wa.sent, 1)
	assert.Equal(t, commands.HelpText, wa.sent[0].Body)
}

func TestSendOutbound(t *testing.T) {
	svc, wa, _ := newTestService(t, nil)

	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "2246", Message: "restock", PreviewURL: true})
	require.NoError(t, err)
	require.Len(t, wa.sent, 1)
	assert.Equal(t, client.SendTextMessageRequest{To: "2246", Body: "restock", PreviewURL: true}, wa.sent[0])
}
