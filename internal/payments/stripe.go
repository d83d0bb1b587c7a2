// Package payments wraps the hosted-checkout collaborator.
package payments

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/roamtrails/tours-api/internal/domain"
)

type CheckoutParams struct {
	Name          string
	Description   string
	ImageURL      string
	AmountMinor   int64 // integer minor-currency units
	CustomerEmail string
	// ClientReferenceID correlates the checkout back to the tour being booked.
	ClientReferenceID string
	SuccessURL        string
	CancelURL         string
}

type Provider interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*domain.CheckoutSession, error)
}

type StripeProvider struct {
	currency string
}

func NewStripe(secretKey, currency string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{currency: currency}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*domain.CheckoutSession, error) {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name:        stripe.String(params.Name),
		Description: stripe.String(params.Description),
	}
	if params.ImageURL != "" {
		product.Images = stripe.StringSlice([]string{params.ImageURL})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Params:            stripe.Params{Context: ctx},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		CustomerEmail:     stripe.String(params.CustomerEmail),
		ClientReferenceID: stripe.String(params.ClientReferenceID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(p.currency),
					ProductData: product,
					UnitAmount:  stripe.Int64(params.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}

	created, err := session.New(sessionParams)
	if err != nil {
		return nil, &domain.UpstreamError{Op: "checkout session", Err: err}
	}

	return &domain.CheckoutSession{ID: created.ID, URL: created.URL}, nil
}
