package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/berean-labs/berean/internal/domain"
	tg "github.com/berean-labs/berean/internal/telegram"
)

// handleVerse serves /verse <reference>: the passage text plus study notes.
func (h *Handler) handleVerse(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	reference := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/verse"))
	if reference == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: /verse <reference>, e.g. /verse John 3:16",
		})
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	passage, err := h.bible.GetPassage(ctx, reference, h.cfg.DefaultTranslation)
	if err != nil {
		slog.Warn("bible api failed, trying gateway", "error", err, "reference", reference)
		passage, err = h.gateway.FetchPassage(ctx, reference, h.cfg.DefaultTranslation)
	}
	if err != nil {
		slog.Error("fetch passage", "error", err, "reference", reference)
		text := fmt.Sprintf("❌ Could not find %q. Check the reference and try again.", reference)
		if apiErr, ok := err.(*domain.APIError); ok && apiErr.Message != "" {
			text = "❌ " + apiErr.Message
		}
		b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
		return
	}

	tg.SendLongMessage(ctx, b, chatID, tg.FormatPassage(passage), nil)

	if len(passage.Verses) > 0 {
		expl := h.explain.Explain(ctx, passage.Verses[0])
		tg.SendLongMessage(ctx, b, chatID, tg.FormatExplanation(expl), nil)
	}
}

// handleSearch serves /search <phrase>: semantic verse search.
func (h *Handler) handleSearch(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	query := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/search"))
	if query == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: /search <phrase>, e.g. /search comfort in suffering",
		})
		return
	}

	matches, err := h.vector.Query(ctx, query, 5)
	if err != nil {
		slog.Error("vector search", "error", err, "query", query)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Verse search is unavailable right now.",
		})
		return
	}
	if len(matches) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "No verses matched that phrase.",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 *Verses about* _%s_\n", query))
	for _, m := range matches {
		sb.WriteString(fmt.Sprintf("\n_%s_\n%s\n", m.Reference, m.Text))
	}
	tg.SendLongMessage(ctx, b, chatID, sb.String(), nil)
}
