package stripe

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/balancetransaction"
	"github.com/stripe/stripe-go/v84/charge"
	"github.com/stripe/stripe-go/v84/paymentintent"
)

// CreateIntentInput carries everything needed to open a PaymentIntent.
// Metadata stashes the estimate figures on the intent for later audit.
type CreateIntentInput struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// PaymentIntentClient exposes the subset of Stripe operations required to
// start a tip.
type PaymentIntentClient interface {
	CreatePaymentIntent(ctx context.Context, input CreateIntentInput) (*stripe.PaymentIntent, error)
}

// FeeLookupClient exposes the nested charge -> balance transaction lookup
// used to obtain the authoritative processor fee after settlement.
type FeeLookupClient interface {
	GetCharge(ctx context.Context, id string) (*stripe.Charge, error)
	GetBalanceTransaction(ctx context.Context, id string) (*stripe.BalanceTransaction, error)
}

// CreatePaymentIntent opens an automatic-payment-methods intent for the
// given amount.
func (c *Client) CreatePaymentIntent(ctx context.Context, input CreateIntentInput) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(input.AmountCents),
		Currency: stripe.String(input.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}
	return paymentintent.New(params)
}

// GetCharge retrieves a charge by id.
func (c *Client) GetCharge(ctx context.Context, id string) (*stripe.Charge, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx
	return charge.Get(id, params)
}

// GetBalanceTransaction retrieves the ledger entry holding the actual fee.
func (c *Client) GetBalanceTransaction(ctx context.Context, id string) (*stripe.BalanceTransaction, error) {
	params := &stripe.BalanceTransactionParams{}
	params.Context = ctx
	return balancetransaction.Get(id, params)
}
