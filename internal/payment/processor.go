package payment

import (
	"context"
)

// Intent is the processor-side handle for a payment in flight. The
// client secret goes back to the customer so they can complete the
// payment with the processor directly.
type Intent struct {
	ProviderRef  string
	ClientSecret string
}

// Outcome is an asynchronous processor signal about an intent.
type Outcome struct {
	ProviderRef string
	// EventRef is the processor's delivery id, used to deduplicate
	// at-least-once webhook deliveries.
	EventRef  string
	Succeeded bool
	Reason    string
}

// Processor abstracts the external payment provider. The booking core
// never touches payment instruments; it only opens intents and reacts
// to confirmation signals.
type Processor interface {
	OpenIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	CancelIntent(ctx context.Context, providerRef string) error
}
