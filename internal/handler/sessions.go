package handler

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/service"
	tg "github.com/berean-labs/berean/internal/telegram"
)

func (h *Handler) handleNewChat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	h.sessions.ForChat(ctx, chatID).Create(ctx)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🆕 New conversation started. Ask away.",
	})
}

func (h *Handler) handleRename(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	title := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/rename"))
	if title == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: /rename <new title>",
		})
		return
	}

	manager := h.sessions.ForChat(ctx, chatID)
	activeID := manager.ActiveID()
	if activeID == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "No active conversation to rename. Ask a question first.",
		})
		return
	}
	manager.Rename(ctx, activeID, title)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "✏️ Conversation renamed.",
	})
}

func (h *Handler) handleSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	h.sendSessionsPage(ctx, b, update.Message.Chat.ID, 0, false, 0)
}

func (h *Handler) sendSessionsPage(ctx context.Context, b *bot.Bot, chatID int64, page int, edit bool, messageID int) {
	manager := h.sessions.ForChat(ctx, chatID)
	sessions := manager.List()
	activeID := manager.ActiveID()

	totalPages := int(math.Ceil(float64(len(sessions)) / float64(config.SessionsPerPage)))
	if totalPages == 0 {
		totalPages = 1
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * config.SessionsPerPage
	end := start + config.SessionsPerPage
	if end > len(sessions) {
		end = len(sessions)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📂 *Conversations* (%d)\n\n", len(sessions)))
	if len(sessions) == 0 {
		sb.WriteString("Nothing here yet. Ask a question to start one.")
	}

	var rows [][]models.InlineKeyboardButton
	for _, s := range sessions[start:end] {
		label := s.Title
		if label == "" {
			label = "🕊 " + s.CreatedAt.Format("Jan 2 15:04")
		}
		if s.ID == activeID {
			label += " ✅"
		}
		rows = append(rows, tg.ButtonRow(
			tg.InlineButton(label, "switch_session_"+s.ID),
		))
	}

	rows = append(rows, tg.ButtonRow(
		tg.InlineButton("➕ New", "new_session"),
		tg.InlineButton("🗑 Current", "delete_current"),
		tg.InlineButton("🗑 All", "delete_all"),
	))

	if totalPages > 1 {
		rows = append(rows, tg.PaginationRow(page, totalPages, "sessions_page"))
	}

	keyboard := tg.InlineKeyboard(rows...)
	text := sb.String()

	if edit && messageID != 0 {
		b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:      chatID,
			MessageID:   messageID,
			Text:        text,
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: keyboard,
		})
	} else {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        text,
			ParseMode:   models.ParseModeMarkdownV1,
			ReplyMarkup: keyboard,
		})
	}
}

// callbackChat extracts the chat and message behind a callback query.
func callbackChat(update *models.Update) (int64, int, bool) {
	if update.CallbackQuery == nil {
		return 0, 0, false
	}
	msg := update.CallbackQuery.Message.Message
	if msg == nil {
		return 0, 0, false
	}
	return msg.Chat.ID, msg.ID, true
}

func (h *Handler) answerCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
}

func (h *Handler) handleNewSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(update)
	if !ok {
		return
	}
	h.answerCallback(ctx, b, update)

	h.sessions.ForChat(ctx, chatID).Create(ctx)
	h.sendSessionsPage(ctx, b, chatID, 0, true, messageID)
}

func (h *Handler) handleDeleteCurrentSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(update)
	if !ok {
		return
	}
	h.answerCallback(ctx, b, update)

	manager := h.sessions.ForChat(ctx, chatID)
	if activeID := manager.ActiveID(); activeID != "" {
		manager.Delete(ctx, activeID)
	}
	h.sendSessionsPage(ctx, b, chatID, 0, true, messageID)
}

func (h *Handler) handleDeleteAllSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(update)
	if !ok {
		return
	}
	h.answerCallback(ctx, b, update)

	h.sessions.ForChat(ctx, chatID).ClearAll(ctx)
	h.sendSessionsPage(ctx, b, chatID, 0, true, messageID)
}

func (h *Handler) handleSwitchSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(update)
	if !ok {
		return
	}
	h.answerCallback(ctx, b, update)

	sessionID := strings.TrimPrefix(update.CallbackQuery.Data, "switch_session_")
	manager := h.sessions.ForChat(ctx, chatID)
	manager.Switch(ctx, sessionID)

	h.sendSessionsPage(ctx, b, chatID, 0, true, messageID)
	h.sendSessionPreview(ctx, b, chatID, manager)
}

// sendSessionPreview shows the latest exchange of the now-active session.
func (h *Handler) sendSessionPreview(ctx context.Context, b *bot.Bot, chatID int64, manager *service.SessionManager) {
	active := manager.Active()
	if active == nil || len(active.Messages) == 0 {
		return
	}
	latest := active.Messages[0]
	text := fmt.Sprintf("🔁 *%s*\n\n❓ %s\n\n%s",
		active.Title, latest.Question, latest.Response.AIAnswer)
	tg.SendLongMessage(ctx, b, chatID, text, nil)
}

func (h *Handler) handleSessionsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, ok := callbackChat(update)
	if !ok {
		return
	}
	h.answerCallback(ctx, b, update)

	page, err := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, "sessions_page_"))
	if err != nil || page < 0 {
		page = 0
	}
	h.sendSessionsPage(ctx, b, chatID, page, true, messageID)
}
