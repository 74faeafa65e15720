package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/berean-labs/berean/internal/config"
	"github.com/berean-labs/berean/internal/domain"
	tg "github.com/berean-labs/berean/internal/telegram"
)

// handleReindex serves /reindex <book> (admin): pushes every verse of a book
// into the semantic index, chapter by chapter, in fixed-size batches.
func (h *Handler) handleReindex(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	if !h.cfg.IsAdmin(update.Message.From.ID) {
		return
	}

	book := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/reindex"))
	if book == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Usage: /reindex <book>, e.g. /reindex Romans",
		})
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	stored, chapters, err := h.reindexBook(ctx, book)
	if err != nil {
		slog.Error("reindex book", "error", err, "book", book)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("❌ Reindex of %s failed after %d chapters: %v", book, chapters, err),
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ Indexed %d verses from %s (%d chapters).", stored, book, chapters),
	})
}

// reindexBook walks chapters until the Bible backend reports the book is
// exhausted, batching verses into the vector store.
func (h *Handler) reindexBook(ctx context.Context, book string) (stored, chapters int, err error) {
	var batch []domain.VectorDocument

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		ids, err := h.vector.StoreBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("store batch: %w", err)
		}
		stored += len(ids)
		batch = batch[:0]
		return nil
	}

	for chapter := 1; chapter <= config.MaxChaptersPerBook; chapter++ {
		passage, err := h.bible.GetChapter(ctx, book, chapter, h.cfg.DefaultTranslation)
		if err != nil {
			var apiErr *domain.APIError
			// A 404 past chapter 1 just means the book ended.
			if errors.As(err, &apiErr) && apiErr.StatusCode == 404 && chapter > 1 {
				break
			}
			return stored, chapter - 1, err
		}

		for _, v := range passage.Verses {
			batch = append(batch, domain.VectorDocument{
				ID:          fmt.Sprintf("%s-%d-%s", strings.ToLower(book), chapter, slugRef(v.Reference)),
				Reference:   v.Reference,
				Text:        v.Text,
				Translation: passage.Translation,
			})
			if len(batch) >= config.IndexBatchSize {
				if err := flush(); err != nil {
					return stored, chapter, err
				}
			}
		}
		chapters = chapter
	}

	if err := flush(); err != nil {
		return stored, chapters, err
	}
	return stored, chapters, nil
}

func slugRef(reference string) string {
	s := strings.ToLower(reference)
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ReplaceAll(s, ":", "-")
}
