// ABOUTME: Markdown rendering for outbound Matrix messages using goldmark
// ABOUTME: Builds m.text content with a plain body and an HTML formatted_body

package matrix

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
	"maunium.net/go/mautrix/event"
)

// Line breaks in bot prompts are significant, so soft breaks render as <br>.
// Raw HTML in customer-supplied text is not passed through.
var markdown = goldmark.New(
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// renderHTML converts markdown text to an HTML fragment.
func renderHTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// plainBody strips the markdown emphasis markers the bot uses.
func plainBody(text string) string {
	return strings.ReplaceAll(text, "**", "")
}

// textContent builds the event content for text. If rendering fails the
// message is sent as plain text only.
func textContent(text string) *event.MessageEventContent {
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    plainBody(text),
	}
	if formatted, err := renderHTML(text); err == nil && formatted != "" {
		content.Format = event.FormatHTML
		content.FormattedBody = formatted
	}
	return content
}
