package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// handleStats serves /stats (admin): the analytics summary for the current
// in-memory buffer.
func (h *Handler) handleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.cfg.IsAdmin(update.Message.From.ID) {
		return
	}

	sum := h.analytics.Summary()

	var sb strings.Builder
	sb.WriteString("📊 *AI usage*\n\n")
	sb.WriteString(fmt.Sprintf("Requests: %d (day %d / week %d / month %d)\n",
		sum.TotalRequests, sum.LastDay, sum.LastWeek, sum.LastMonth))
	sb.WriteString(fmt.Sprintf("Cache: %d hits / %d misses (%.0f%% hit ratio)\n",
		sum.CacheHits, sum.CacheMisses, sum.HitRatio*100))
	sb.WriteString(fmt.Sprintf("Estimated cost: $%s\n", sum.TotalCost.StringFixed(4)))
	sb.WriteString(fmt.Sprintf("Estimated cache savings: $%s\n", sum.CacheSavings.StringFixed(4)))

	if len(sum.ByProvider) > 0 {
		sb.WriteString("\nBy provider:\n")
		for provider, stats := range sum.ByProvider {
			sb.WriteString(fmt.Sprintf("  %s — %d requests, $%s\n",
				provider, stats.Requests, stats.Cost.StringFixed(4)))
		}
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdownV1,
	})
}
