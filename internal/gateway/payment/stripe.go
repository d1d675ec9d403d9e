package payment

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"medconsult-api/config"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var stripeTracer = otel.Tracer("medconsult.internal.gateway.payment.stripe")

// StripeGateway creates Stripe Checkout Sessions in payment mode.
type StripeGateway struct {
	api        *client.API
	successURL string
	cancelURL  string
	log        *logrus.Logger
}

func NewStripeGateway(cfg config.PaymentConfig, log *logrus.Logger) *StripeGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     log,
	}
	if cfg.BaseURL != "" {
		backendConfig.URL = stripe.String(strings.TrimRight(cfg.BaseURL, "/"))
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)

	return &StripeGateway{
		api: client.New(cfg.SecretKey, &stripe.Backends{
			API:     backend,
			Connect: backend,
			Uploads: backend,
		}),
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		log:        log,
	}
}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_checkout_session")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("medconsult.amount_minor", req.Amount),
		attribute.String("medconsult.reference", req.Reference),
	)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
		ClientReferenceID: stripe.String(req.Reference),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(strings.ToLower(req.Currency)),
					UnitAmount: stripe.Int64(req.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
				},
			},
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, g.mapError(err)
	}
	if session.URL == "" {
		return nil, rejected(g.Name(), "session %s missing url", session.ID)
	}

	g.log.Debugf("Stripe checkout session %s created for %s", session.ID, req.Reference)
	return &Checkout{URL: session.URL, Reference: session.ID}, nil
}

func (g *StripeGateway) CheckoutStatus(ctx context.Context, reference string) (CheckoutState, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.get_checkout_session")
	defer span.End()
	span.SetAttributes(attribute.String("medconsult.checkout_reference", reference))

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.api.CheckoutSessions.Get(reference, params)
	if err != nil {
		return "", g.mapError(err)
	}
	if session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		return CheckoutPaid, nil
	}
	return CheckoutUnpaid, nil
}

func (g *StripeGateway) mapError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError || stripeErr.HTTPStatusCode == 0 {
			return unavailable(g.Name(), err)
		}
		return rejected(g.Name(), "status %d: %s", stripeErr.HTTPStatusCode, stripeErr.Msg)
	}
	return unavailable(g.Name(), err)
}
