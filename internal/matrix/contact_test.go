// ABOUTME: Tests for contact derivation and the contact to room index
// ABOUTME: Covers puppet prefixes, malformed IDs and admin address resolution

package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"maunium.net/go/mautrix/id"
)

func TestContactFromUserID(t *testing.T) {
	tests := []struct {
		userID id.UserID
		prefix string
		want   string
	}{
		{"@whatsapp_5511988887777:example.org", "whatsapp_", "5511988887777"},
		{"@whatsapp_5511988887777:example.org", "", "whatsapp_5511988887777"},
		{"@maria:example.org", "whatsapp_", "maria"},
		{"not-a-user-id", "whatsapp_", "not-a-user-id"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContactFromUserID(tt.userID, tt.prefix), string(tt.userID))
	}
}

func TestContacts_Resolve(t *testing.T) {
	c := NewContacts()
	c.Remember("5511988887777", "!orders:example.org")
	c.Remember("", "!ignored:example.org")

	room, ok := c.Resolve("5511988887777")
	assert.True(t, ok)
	assert.Equal(t, id.RoomID("!orders:example.org"), room)

	room, ok = c.Resolve(" !direct:example.org ")
	assert.True(t, ok)
	assert.Equal(t, id.RoomID("!direct:example.org"), room)

	_, ok = c.Resolve("5500000000000")
	assert.False(t, ok)

	// Latest room wins
	c.Remember("5511988887777", "!new:example.org")
	room, _ = c.Resolve("5511988887777")
	assert.Equal(t, id.RoomID("!new:example.org"), room)
}
