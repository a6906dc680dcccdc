package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/trimtime/booking-api/internal/payment"
)

type Config struct {
	APIKey           string
	WebhookSecret    string
	WebhookTolerance time.Duration
	RequestTimeout   time.Duration
}

// Client implements payment.Processor against Stripe PaymentIntents.
type Client struct {
	sc     *client.API
	config Config
}

func NewClient(config Config) *Client {
	sc := &client.API{}
	sc.Init(config.APIKey, nil)
	return &Client{sc: sc, config: config}
}

func (c *Client) OpenIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*payment.Intent, error) {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to open payment intent: %w", err)
	}

	return &payment.Intent{
		ProviderRef:  pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (c *Client) CancelIntent(ctx context.Context, providerRef string) error {
	if c.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
		defer cancel()
	}

	params := &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	}
	if _, err := c.sc.PaymentIntents.Cancel(providerRef, params); err != nil {
		return fmt.Errorf("failed to cancel payment intent: %w", err)
	}
	return nil
}

// VerifyWebhook checks the signature on a webhook delivery and maps the
// event to a payment outcome. Non-payment events return (nil, nil).
func (c *Client) VerifyWebhook(body []byte, sigHeader string) (*payment.Outcome, error) {
	tolerance := c.config.WebhookTolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, c.config.WebhookSecret, tolerance)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook signature: %w", err)
	}

	switch evt.Type {
	case "payment_intent.succeeded":
		pi, err := parseIntent(evt)
		if err != nil {
			return nil, err
		}
		return &payment.Outcome{ProviderRef: pi.ID, EventRef: evt.ID, Succeeded: true}, nil
	case "payment_intent.payment_failed", "payment_intent.canceled":
		pi, err := parseIntent(evt)
		if err != nil {
			return nil, err
		}
		reason := string(evt.Type)
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = pi.LastPaymentError.Msg
		}
		return &payment.Outcome{ProviderRef: pi.ID, EventRef: evt.ID, Succeeded: false, Reason: reason}, nil
	default:
		return nil, nil
	}
}

func parseIntent(evt stripe.Event) (*stripe.PaymentIntent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("invalid payment intent payload: %w", err)
	}
	return &pi, nil
}
