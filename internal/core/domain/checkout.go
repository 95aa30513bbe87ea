package domain

import "time"

// State is a step of the checkout flow.
type State string

const (
	StateEmpty            State = "empty"
	StatePopulated        State = "populated"
	StatePaymentPending   State = "payment_pending"
	StatePaymentConfirmed State = "payment_confirmed"
	StateDispatched       State = "dispatched"
	StateCleared          State = "cleared"
)

const (
	ConfirmationPath  = "/success"
	ConfirmationDelay = 1200 * time.Millisecond
)

// Dispatch is what the client needs after an order leaves the store.
type Dispatch struct {
	Order         Order         `json:"order"`
	ChatURL       string        `json:"chatUrl"`
	RedirectTo    string        `json:"redirectTo"`
	RedirectAfter time.Duration `json:"redirectAfter"`
}
