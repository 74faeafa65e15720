package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/berean-labs/berean/internal/service"
)

// Limiter counts messages per chat over a sliding one-minute window.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	now     func() time.Time
	windows map[int64]*window
}

type window struct {
	start time.Time
	count int
}

func NewLimiter(limit int) *Limiter {
	return &Limiter{
		limit:   limit,
		now:     time.Now,
		windows: make(map[int64]*window),
	}
}

// Allow increments the chat's counter and reports whether it is within the
// limit for the current minute.
func (l *Limiter) Allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.windows[chatID]
	if w == nil || now.Sub(w.start) >= time.Minute {
		l.windows[chatID] = &window{start: now, count: 1}
		return true
	}
	w.count++
	return w.count <= l.limit
}

// RateLimit returns middleware that enforces per-minute limits per chat.
// Exceeding the limit records an analytics event; it never blocks callbacks.
func RateLimit(limiter *Limiter, analytics *service.Analytics) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			if !limiter.Allow(chatID) {
				slog.Debug("rate limited", "chat_id", chatID)
				if analytics != nil {
					analytics.RecordRateLimit(ctx, chatID, limiter.limit)
				}
				b.SendMessage(ctx, &bot.SendMessageParams{
					ChatID: chatID,
					Text:   "⏳ Too many questions at once. Give it a minute.",
				})
				return
			}

			next(ctx, b, update)
		}
	}
}
