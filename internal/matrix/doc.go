// Package matrix connects the ordering bot to a Matrix homeserver.
//
// # Overview
//
// Customers reach the bot through Matrix rooms, typically bridged WhatsApp
// chats. Each room is one conversation. Inbound m.text events are filtered
// (own messages, other message types, rooms outside the allow list,
// redelivered event IDs) and handed to a [Dispatcher].
//
// # Contacts
//
// The sender's localpart, minus the configured puppet prefix, is the
// customer's contact. The client remembers the last room each contact wrote
// from so outbound messages can be addressed either by room ID or by
// contact.
//
// # Delivery Results
//
// [Client.Send] classifies failures: M_FORBIDDEN and M_NOT_FOUND mean the
// recipient is unreachable, anything else is a transport error.
//
// # Encryption
//
// [EnableCrypto] attaches the mautrix crypto helper, with an optional
// recovery key for cross-signing.
package matrix
