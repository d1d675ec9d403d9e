package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medconsult-api/config"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const payMongoDefaultBaseURL = "https://api.paymongo.com"

var payMongoTracer = otel.Tracer("medconsult.internal.gateway.payment.paymongo")

// PayMongoGateway creates PayMongo payment links.
type PayMongoGateway struct {
	secretKey  string
	baseURL    string
	remarks    string
	httpClient *http.Client
	log        *logrus.Logger
}

func NewPayMongoGateway(cfg config.PaymentConfig, log *logrus.Logger) *PayMongoGateway {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = payMongoDefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PayMongoGateway{
		secretKey:  cfg.SecretKey,
		baseURL:    baseURL,
		remarks:    cfg.Remarks,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

func (g *PayMongoGateway) Name() string {
	return "paymongo"
}

type payMongoLinkAttributes struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	Description string `json:"description"`
	Remarks     string `json:"remarks,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
	ReferenceNo string `json:"reference_number,omitempty"`
	Status      string `json:"status,omitempty"`
}

type payMongoLinkEnvelope struct {
	Data struct {
		ID         string                 `json:"id,omitempty"`
		Attributes payMongoLinkAttributes `json:"attributes"`
	} `json:"data"`
}

type payMongoErrorEnvelope struct {
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (g *PayMongoGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	ctx, span := payMongoTracer.Start(ctx, "paymongo.create_link")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("medconsult.amount_minor", req.Amount),
		attribute.String("medconsult.reference", req.Reference),
	)

	var payload payMongoLinkEnvelope
	payload.Data.Attributes = payMongoLinkAttributes{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Remarks:     g.remarks,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("paymongo payload: %w", err)
	}

	var parsed payMongoLinkEnvelope
	if err := g.do(ctx, http.MethodPost, "/v1/links", body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Data.Attributes.CheckoutURL == "" {
		return nil, rejected(g.Name(), "response missing checkout_url")
	}

	g.log.Debugf("PayMongo link %s created for %s", parsed.Data.ID, req.Reference)
	return &Checkout{
		URL:       parsed.Data.Attributes.CheckoutURL,
		Reference: parsed.Data.ID,
	}, nil
}

func (g *PayMongoGateway) CheckoutStatus(ctx context.Context, reference string) (CheckoutState, error) {
	ctx, span := payMongoTracer.Start(ctx, "paymongo.get_link")
	defer span.End()
	span.SetAttributes(attribute.String("medconsult.checkout_reference", reference))

	var parsed payMongoLinkEnvelope
	if err := g.do(ctx, http.MethodGet, "/v1/links/"+url.PathEscape(reference), nil, &parsed); err != nil {
		return "", err
	}
	if parsed.Data.Attributes.Status == string(CheckoutPaid) {
		return CheckoutPaid, nil
	}
	return CheckoutUnpaid, nil
}

func (g *PayMongoGateway) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("paymongo request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(g.secretKey+":")))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return unavailable(g.Name(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return unavailable(g.Name(), err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return unavailable(g.Name(), fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr payMongoErrorEnvelope
		if json.Unmarshal(raw, &apiErr) == nil && len(apiErr.Errors) > 0 {
			return rejected(g.Name(), "status %d: %s: %s", resp.StatusCode, apiErr.Errors[0].Code, apiErr.Errors[0].Detail)
		}
		return rejected(g.Name(), "status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return rejected(g.Name(), "decode response: %v", err)
	}
	return nil
}
