// Package bot implements the ordering conversation.
//
// # Overview
//
// A Machine moves one session through the ordering states: name, pickup or
// delivery, address, items, note, payment and cash amount. A Finalizer
// confirms the finished order to the customer and writes it to the store.
// The Engine ties these to the session repository and idle timers.
//
// # Concurrency
//
// Engine.Dispatch queues messages per conversation and drains each queue on
// its own goroutine, so one slow customer never blocks another while
// messages from the same customer are applied strictly in arrival order.
// The session lock is held for the whole step, including outbound sends.
//
// # Failure Handling
//
// Invalid input re-prompts without changing the session. Storage reads
// happen before any session mutation, so a failed read leaves the
// conversation where it was and the customer can retry. Send failures are
// logged by the outbound gateway. A failed order insert is logged and
// dropped; the customer has already seen the confirmation by then.
//
// # Idle Expiry
//
// Every message restarts the conversation's idle timer. When it fires, a
// session that has not completed receives one inactivity notice, and the
// session is deleted either way.
package bot
