package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/berean-labs/berean/internal/domain"
	"github.com/berean-labs/berean/internal/service"
	tg "github.com/berean-labs/berean/internal/telegram"
)

// HandleText processes private text messages as scripture questions.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}

	msg := update.Message
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	chatID := msg.Chat.ID
	manager := h.sessions.ForChat(ctx, chatID)

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	statusMsg, _ := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "📖 Searching the scriptures...",
	})

	onStatus := func(s service.Status) {
		if s != service.StatusFallback || statusMsg == nil {
			return
		}
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: statusMsg.ID,
			Text:      "⏳ Taking longer than usual, asking a backup source...",
		})
	}

	outcome, err := h.orchestratorFor(chatID).Ask(ctx, msg.Text, onStatus)
	if err != nil {
		h.replyAskError(ctx, b, chatID, statusMsg, err)
		return
	}

	slog.Info("question answered",
		"chat_id", chatID,
		"content_type", outcome.ContentType,
		"provider", outcome.Provider,
		"fallback", outcome.UsedFallback,
	)

	manager.AddMessage(ctx, strings.TrimSpace(msg.Text), outcome.Response)

	if statusMsg != nil {
		b.DeleteMessage(ctx, &bot.DeleteMessageParams{
			ChatID:    chatID,
			MessageID: statusMsg.ID,
		})
	}

	tg.SendLongMessage(ctx, b, chatID, tg.FormatAnswer(outcome.Response), nil)
}

func (h *Handler) replyAskError(ctx context.Context, b *bot.Bot, chatID int64, statusMsg *models.Message, err error) {
	var apiErr *domain.APIError

	var text string
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		text = "✍️ Type a question about scripture to get started."
	case errors.Is(err, domain.ErrRequestInFlight):
		text = "⏳ Still working on your previous question."
	case errors.Is(err, domain.ErrBothProvidersFailed):
		text = "❌ Both answer sources are unavailable right now. Please try again in a few minutes."
	case errors.As(err, &apiErr):
		text = "❌ " + apiErr.Message
		if h.cfg.Dev && apiErr.Details != "" {
			text += "\n" + apiErr.Details
		}
	default:
		text = "❌ Something went wrong answering your question."
	}

	slog.Error("ask failed", "error", err, "chat_id", chatID)

	if statusMsg != nil {
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    chatID,
			MessageID: statusMsg.ID,
			Text:      text,
		})
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
}
