// Package conversation drives the per-session dialog: correction commands,
// confirmation gating, ambiguity questions and the turn-by-turn accumulation
// of the invoice.
package conversation

import "github.com/bfindeiss/handwerker-app/internal/models"

// Status is the conversational state of a session.
type Status string

const (
	// StatusCollecting means the invoice is still being assembled.
	StatusCollecting Status = "collecting"

	// StatusAwaitingConfirmation means a complete invoice was summarized and
	// the session waits for the user's yes/no.
	StatusAwaitingConfirmation Status = "awaiting_confirmation"

	// StatusConfirmed is terminal: the invoice was dispatched and persisted.
	StatusConfirmed Status = "confirmed"

	// StatusClarificationNeeded means the turn produced targeted questions;
	// the session returns to collecting once they are answered.
	StatusClarificationNeeded Status = "clarification_needed"
)

// Session is the mutable per-session state. It is owned exclusively by the
// engine; access goes through the session store's critical section.
type Session struct {
	ID         string
	Transcript string
	Invoice    *models.InvoiceContext
	Status     Status

	// Pending is the deep-copied snapshot summarized for confirmation. It is
	// invalidated by any correction and is the only state that can be
	// finalized.
	Pending        *models.InvoiceContext
	PendingSummary string

	// AskedQuestions prevents repeating the identical clarification question
	// within one session.
	AskedQuestions map[string]bool
}

// NewSession creates an empty session in collecting state.
func NewSession(id string) *Session {
	return &Session{
		ID:             id,
		Invoice:        models.NewInvoiceContext(),
		Status:         StatusCollecting,
		AskedQuestions: make(map[string]bool),
	}
}
