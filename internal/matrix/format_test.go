// ABOUTME: Tests for markdown rendering of outbound messages
// ABOUTME: Checks emphasis, hard line breaks and raw HTML suppression

package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/event"
)

func TestRenderHTML(t *testing.T) {
	html, err := renderHTML("**Menu:**\n\n1 - X-Burger  R$18.90\n2 - Soda  R$6.00")
	require.NoError(t, err)
	assert.Contains(t, html, "<strong>Menu:</strong>")
	assert.Contains(t, html, "<br")
	assert.Contains(t, html, "R$18.90")
}

func TestRenderHTML_DropsRawHTML(t *testing.T) {
	html, err := renderHTML("Note: <script>alert(1)</script>")
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestTextContent(t *testing.T) {
	c := textContent("You chose **pickup**.")
	assert.Equal(t, event.MsgText, c.MsgType)
	assert.Equal(t, "You chose pickup.", c.Body)
	assert.Equal(t, event.FormatHTML, c.Format)
	assert.Contains(t, c.FormattedBody, "<strong>pickup</strong>")
}
