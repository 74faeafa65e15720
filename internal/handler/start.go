package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const startText = `📖 *Welcome to Berean*

Ask any question about scripture and I will answer with an explanation, the
verses it rests on, and commentary excerpts.

Commands:
/new — start a new conversation
/sessions — browse, switch, or delete past conversations
/rename <title> — rename the current conversation
/verse <reference> — read a passage with study notes
/search <phrase> — semantic verse search

Just type your question to begin.`

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      startText,
		ParseMode: models.ParseModeMarkdownV1,
	})
}
