package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/config"
	"github.com/mamadbah2/pantry/internal/domain/models"
	"github.com/mamadbah2/pantry/internal/service/commands"
	"github.com/mamadbah2/pantry/pkg/clients/anthropic"
	client "github.com/mamadbah2/pantry/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// ErrEmptyMessage is returned for inbound messages without a command-bearing body.
var ErrEmptyMessage = errors.New("empty message body")

// MessagingService describes the operations the HTTP layer can perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// ItemNamer lists the loaded item names handed to the translator as context.
type ItemNamer interface {
	Items() []models.Item
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	ai         anthropic.Client
	dispatcher commands.Dispatcher
	items      ItemNamer
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance. ai and items may be nil, which
// disables natural language messages.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, ai anthropic.Client, dispatcher commands.Dispatcher, items ItemNamer, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		ai:         ai,
		dispatcher: dispatcher,
		items:      items,
		logger:     logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook processes inbound webhook payloads. Every message is handled; the first
// error is returned.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, status := range change.Value.Statuses {
				s.logger.Debug("message status",
					zap.String("message_id", status.ID),
					zap.String("status", status.Status))
			}

			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := strings.TrimSpace(msg.Body())
	if text == "" {
		return ErrEmptyMessage
	}

	cmd := s.resolveCommand(ctx, text)

	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	if err != nil {
		s.logger.Warn("command failed", zap.String("command", string(cmd.Type)), zap.Error(err))
		reply = commands.ReplyFor(cmd, err)
	}

	return s.send(ctx, msg.From, reply, false)
}

// resolveCommand parses text, falling back to the translator for plain sentences.
func (s *MetaWhatsAppService) resolveCommand(ctx context.Context, text string) models.Command {
	cmd := models.ParseCommand(text)
	if cmd.Type != models.CommandUnknown || models.IsSlash(text) || s.ai == nil {
		return cmd
	}

	var known []string
	if s.items != nil {
		for _, item := range s.items.Items() {
			known = append(known, item.Name)
		}
	}

	translated, err := s.ai.TranslateToCommand(ctx, text, known)
	if err != nil {
		s.logger.Warn("ai translation failed", zap.Error(err))
		return cmd
	}

	s.logger.Debug("translated message", zap.String("input", text), zap.String("command", translated))
	return models.ParseCommand(translated)
}

// SendOutbound lets internal operators push quick notifications via HTTP.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	return err
}
