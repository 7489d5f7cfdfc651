// ABOUTME: Mapping between Matrix senders, customer phone contacts and rooms
// ABOUTME: Remembers which room each contact last wrote from so the admin API can address them by phone

package matrix

import (
	"strings"
	"sync"

	"maunium.net/go/mautrix/id"
)

// ContactFromUserID derives a customer contact from a Matrix user ID.
// Bridged puppets look like @whatsapp_5511988887777:server; with prefix
// "whatsapp_" that yields "5511988887777". A user ID that does not parse
// is returned unchanged.
func ContactFromUserID(userID id.UserID, puppetPrefix string) string {
	localpart, _, err := userID.Parse()
	if err != nil || localpart == "" {
		return string(userID)
	}
	if puppetPrefix != "" {
		localpart = strings.TrimPrefix(localpart, puppetPrefix)
	}
	return localpart
}

// Contacts is a concurrency-safe contact to room index.
type Contacts struct {
	mu    sync.RWMutex
	rooms map[string]id.RoomID
}

// NewContacts creates an empty index.
func NewContacts() *Contacts {
	return &Contacts{rooms: make(map[string]id.RoomID)}
}

// Remember records that contact last wrote from room.
func (c *Contacts) Remember(contact string, room id.RoomID) {
	if contact == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[contact] = room
}

// Room returns the room for contact.
func (c *Contacts) Room(contact string) (id.RoomID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	room, ok := c.rooms[contact]
	return room, ok
}

// Resolve turns an outbound address into a room. Room IDs ("!...") pass
// through; anything else is looked up as a contact.
func (c *Contacts) Resolve(to string) (id.RoomID, bool) {
	to = strings.TrimSpace(to)
	if strings.HasPrefix(to, "!") {
		return id.RoomID(to), true
	}
	return c.Room(to)
}
