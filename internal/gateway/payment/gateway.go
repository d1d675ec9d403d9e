package payment

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrGatewayUnavailable covers transport failures, timeouts and provider 5xx.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected covers provider validation errors and malformed responses.
	ErrGatewayRejected = errors.New("payment gateway rejected the request")
)

// CheckoutState is the provider-side payment state of a checkout link.
type CheckoutState string

const (
	CheckoutUnpaid CheckoutState = "unpaid"
	CheckoutPaid   CheckoutState = "paid"
)

// CheckoutRequest describes a single hosted-checkout link. Amount is in minor units.
type CheckoutRequest struct {
	Amount      int64
	Currency    string
	Description string
	Reference   string
	Metadata    map[string]string
}

// Checkout is the link handed back to the client. Reference is the provider's id.
type Checkout struct {
	URL       string
	Reference string
}

// Gateway creates hosted checkout links. Implementations never retry.
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	CheckoutStatus(ctx context.Context, reference string) (CheckoutState, error)
}

func unavailable(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrGatewayUnavailable, provider, err)
}

func rejected(provider string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrGatewayRejected, provider, fmt.Sprintf(format, args...))
}
