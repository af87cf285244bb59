// Package notifier delivers account emails. The rest of the application only
// sees the Notifier interface, so the SMTP transport can be swapped for the
// no-op implementation in tests or when mail is not configured.
package notifier

// Notifier sends account-related mail.
type Notifier interface {
	// Configured reports whether the notifier can actually deliver mail.
	Configured() bool

	// SendPasswordReset sends a reset link to the given address.
	SendPasswordReset(to, firstName, resetLink string) error
}

// Noop discards all mail. Used in tests and when SMTP is not configured.
type Noop struct{}

func (Noop) Configured() bool { return false }

func (Noop) SendPasswordReset(to, firstName, resetLink string) error { return nil }
