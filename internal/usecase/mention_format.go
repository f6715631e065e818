package usecase

import (
	"fmt"
	"html"
	"strings"

	"everyone-bot/internal/domain/model"
)

// MentionSeparator joins mentions inside one message.
const MentionSeparator = " | "

// RenderMention renders a Telegram HTML mention that links to the user.
func RenderMention(m model.Member) string {
	return fmt.Sprintf(`<a href="tg://user?id=%d">%s</a>`, m.UserID, html.EscapeString(m.DisplayName))
}

// RenderChunk builds the HTML body for one chunk. The header goes in a code
// entity; Telegram does not allow links inside code, so mentions stay outside.
func RenderChunk(header string, chunk model.ReplyChunk) string {
	var b strings.Builder
	b.WriteString("<code>")
	b.WriteString(html.EscapeString(header))
	b.WriteString("</code>\n")
	b.WriteString(strings.Join(chunk.Mentions, MentionSeparator))
	return b.String()
}
