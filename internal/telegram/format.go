package telegram

import (
	"fmt"
	"strings"

	"github.com/berean-labs/berean/internal/domain"
)

// FormatAnswer renders a chat response: the AI answer followed by its
// referenced verses and commentary excerpts.
func FormatAnswer(resp domain.ChatResponse) string {
	var sb strings.Builder
	sb.WriteString(resp.AIAnswer)

	if len(resp.ReferencedVerses) > 0 {
		sb.WriteString("\n\n📖 *Referenced verses*\n")
		for _, v := range resp.ReferencedVerses {
			sb.WriteString(fmt.Sprintf("\n_%s_", v.Reference))
			if v.Translation != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", strings.ToUpper(v.Translation)))
			}
			sb.WriteString("\n")
			sb.WriteString(v.Text)
			sb.WriteString("\n")
		}
	}

	if len(resp.CommentaryExcerpts) > 0 {
		sb.WriteString("\n💬 *Commentary*\n")
		for _, c := range resp.CommentaryExcerpts {
			sb.WriteString(fmt.Sprintf("\n_%s_: %s\n", c.Source, c.Text))
		}
	}

	return sb.String()
}

// FormatPassage renders a retrieved passage verse by verse.
func FormatPassage(p *domain.BiblePassage) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📖 *%s*", p.Reference))
	if p.Translation != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", strings.ToUpper(p.Translation)))
	}
	sb.WriteString("\n")
	for _, v := range p.Verses {
		sb.WriteString("\n")
		sb.WriteString(v.Text)
	}
	return sb.String()
}

// FormatExplanation renders the three study sections.
func FormatExplanation(e *domain.Explanation) string {
	return fmt.Sprintf(
		"✝️ *Theological*\n%s\n\n🏺 *Historical*\n%s\n\n🌱 *Application*\n%s",
		e.Theological, e.Historical, e.Application,
	)
}
