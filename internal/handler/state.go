// Package handler provides Telegram bot command handlers.
package handler

import "sync"

// awaitKind marks what kind of reply the bot expects next from a user.
type awaitKind int

const (
	awaitNone awaitKind = iota
	awaitTopupAmount
	awaitTopupProof
	awaitEmail
	awaitPhone
	awaitPaymentProof
)

type await struct {
	kind    awaitKind
	amount  int64 // topup amount, once typed
	orderID int64 // order awaiting a payment proof
}

// Awaiter tracks which users the bot is waiting on for a typed reply or a
// photo outside of the checkout conversation.
type Awaiter struct {
	mu      sync.Mutex
	pending map[int64]await
}

// NewAwaiter creates an empty registry.
func NewAwaiter() *Awaiter {
	return &Awaiter{pending: make(map[int64]await)}
}

func (a *Awaiter) set(telegramID int64, w await) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[telegramID] = w
}

func (a *Awaiter) get(telegramID int64) (await, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	w, ok := a.pending[telegramID]
	return w, ok
}

// Clear drops any pending expectation for a user.
func (a *Awaiter) Clear(telegramID int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, telegramID)
}

// AwaitsText reports whether the user owes the bot a typed reply.
func (a *Awaiter) AwaitsText(telegramID int64) bool {
	w, ok := a.get(telegramID)
	if !ok {
		return false
	}
	switch w.kind {
	case awaitTopupAmount, awaitEmail, awaitPhone:
		return true
	}
	return false
}

// AwaitsPhoto reports whether the user owes the bot a photo.
func (a *Awaiter) AwaitsPhoto(telegramID int64) bool {
	w, ok := a.get(telegramID)
	if !ok {
		return false
	}
	return w.kind == awaitTopupProof || w.kind == awaitPaymentProof
}
