// ABOUTME: Matrix transport for the ordering bot using mautrix
// ABOUTME: Syncs inbound customer texts into the engine and sends replies as an outbound.Sender

package matrix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/Luk-bit/Facil-assim-food/internal/bot"
	"github.com/Luk-bit/Facil-assim-food/internal/dedupe"
	"github.com/Luk-bit/Facil-assim-food/internal/outbound"
)

// networkTimeout is the timeout for Matrix API calls made outside a request context.
const networkTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	Homeserver   string
	UserID       string
	AccessToken  string
	Username     string
	Password     string
	AllowedRooms []string
	PuppetPrefix string
}

// Dispatcher receives inbound customer messages.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg bot.Message)
}

// Client connects the bot to a Matrix homeserver.
type Client struct {
	opts     Options
	matrix   *mautrix.Client
	contacts *Contacts
	seen     *dedupe.Window
	logger   *slog.Logger
}

// NewClient creates a Client. No network calls are made until Login.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mautrix.NewClient(opts.Homeserver, id.UserID(opts.UserID), opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}

	return &Client{
		opts:     opts,
		matrix:   client,
		contacts: NewContacts(),
		seen:     dedupe.NewWindow(dedupe.DefaultTTL, dedupe.DefaultMaxEntries),
		logger:   logger.With("component", "matrix"),
	}, nil
}

// UserID returns the bot's Matrix user ID.
func (c *Client) UserID() id.UserID {
	return c.matrix.UserID
}

// Identity returns the bot's contact identity, used to find its establishment.
func (c *Client) Identity() string {
	return ContactFromUserID(c.matrix.UserID, c.opts.PuppetPrefix)
}

// Mautrix exposes the underlying client for crypto setup.
func (c *Client) Mautrix() *mautrix.Client {
	return c.matrix
}

// Login authenticates with a password when no access token was configured,
// and resolves the device ID either way.
func (c *Client) Login(ctx context.Context) error {
	if c.opts.AccessToken != "" {
		resp, err := c.matrix.Whoami(ctx)
		if err != nil {
			return fmt.Errorf("checking access token: %w", err)
		}
		c.matrix.DeviceID = resp.DeviceID
		c.logger.Info("using access token", "user_id", resp.UserID.String(), "device_id", resp.DeviceID.String())
		return nil
	}

	resp, err := c.matrix.Login(ctx, &mautrix.ReqLogin{
		Type: mautrix.AuthTypePassword,
		Identifier: mautrix.UserIdentifier{
			Type: mautrix.IdentifierTypeUser,
			User: c.opts.Username,
		},
		Password:                 c.opts.Password,
		InitialDeviceDisplayName: "facil-bot",
		StoreCredentials:         true,
	})
	if err != nil {
		return fmt.Errorf("password login: %w", err)
	}
	c.logger.Info("logged in", "user_id", resp.UserID.String(), "device_id", resp.DeviceID.String())
	return nil
}

// Run registers handlers and syncs until ctx is cancelled.
func (c *Client) Run(ctx context.Context, d Dispatcher) error {
	syncer, ok := c.matrix.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", c.matrix.Syncer)
	}

	// Skip the backlog from before startup; sessions do not survive restarts
	syncer.OnSync(c.matrix.DontProcessOldEvents)
	syncer.OnEventType(event.StateMember, c.handleMembership)
	syncer.OnEventType(event.EventMessage, func(ctx context.Context, evt *event.Event) {
		if msg, ok := c.inbound(evt); ok {
			d.Dispatch(ctx, msg)
		}
	})

	c.logger.Info("connecting to matrix homeserver", "homeserver", c.opts.Homeserver)

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- c.matrix.SyncWithContext(ctx)
	}()

	select {
	case <-ctx.Done():
		c.logger.Info("stopping matrix sync")
		c.matrix.StopSync()
		return nil
	case err := <-syncErr:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// inbound converts a message event into a bot message, filtering out
// everything the bot should not answer.
func (c *Client) inbound(evt *event.Event) (bot.Message, bool) {
	if evt.Sender == c.matrix.UserID {
		return bot.Message{}, false
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok || content.MsgType != event.MsgText {
		return bot.Message{}, false
	}

	roomID := evt.RoomID.String()
	if !c.isRoomAllowed(roomID) {
		c.logger.Debug("ignoring message from non-allowed room", "room", roomID)
		return bot.Message{}, false
	}

	if evt.ID != "" && c.seen.Seen(evt.ID.String()) {
		c.logger.Debug("dropping redelivered event", "event_id", evt.ID.String())
		return bot.Message{}, false
	}

	text := strings.TrimSpace(content.Body)
	if text == "" {
		return bot.Message{}, false
	}

	contact := ContactFromUserID(evt.Sender, c.opts.PuppetPrefix)
	c.contacts.Remember(contact, evt.RoomID)

	c.logger.Debug("received message",
		"conversation_id", roomID,
		"sender", evt.Sender.String(),
	)

	return bot.Message{
		ConversationID: roomID,
		Contact:        contact,
		Text:           text,
	}, true
}

// handleMembership joins rooms the bot is invited to.
func (c *Client) handleMembership(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != c.matrix.UserID.String() {
		return
	}
	member := evt.Content.AsMember()
	if member.Membership != event.MembershipInvite {
		return
	}
	if !c.isRoomAllowed(evt.RoomID.String()) {
		c.logger.Info("declining invite to non-allowed room", "room", evt.RoomID.String())
		return
	}

	joinCtx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	if _, err := c.matrix.JoinRoomByID(joinCtx, evt.RoomID); err != nil {
		c.logger.Warn("failed to join room", "room", evt.RoomID.String(), "error", err)
		return
	}
	c.logger.Info("joined room", "room", evt.RoomID.String(), "inviter", evt.Sender.String())
}

// isRoomAllowed checks if the room is in the allowed list.
func (c *Client) isRoomAllowed(roomID string) bool {
	if len(c.opts.AllowedRooms) == 0 {
		return true
	}
	return slices.Contains(c.opts.AllowedRooms, roomID)
}

// Send delivers text to a room ID or to the room a contact last wrote from.
func (c *Client) Send(ctx context.Context, to, text string) (outbound.Result, error) {
	roomID, ok := c.contacts.Resolve(to)
	if !ok {
		return outbound.RecipientUnreachable, fmt.Errorf("no room known for contact %q", to)
	}

	_, err := c.matrix.SendMessageEvent(ctx, roomID, event.EventMessage, textContent(text))
	if err != nil {
		return classify(err), fmt.Errorf("sending to %s: %w", roomID, err)
	}
	return outbound.Delivered, nil
}

// classify maps a mautrix error to a delivery result. Rooms the bot cannot
// post to, or that no longer exist, mean the recipient is unreachable.
func classify(err error) outbound.Result {
	switch {
	case err == nil:
		return outbound.Delivered
	case errors.Is(err, mautrix.MForbidden), errors.Is(err, mautrix.MNotFound):
		return outbound.RecipientUnreachable
	default:
		return outbound.TransportError
	}
}

// Close releases the dedupe sweeper.
func (c *Client) Close() {
	c.seen.Close()
}
