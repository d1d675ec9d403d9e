package payment

import (
	"fmt"

	"medconsult-api/config"

	"github.com/sirupsen/logrus"
)

// New returns the gateway selected by cfg.Provider.
func New(cfg config.PaymentConfig, log *logrus.Logger) (Gateway, error) {
	switch cfg.Provider {
	case "paymongo":
		return NewPayMongoGateway(cfg, log), nil
	case "stripe":
		return NewStripeGateway(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
