package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strconv"
	"time"

	"medconsult-api/pkg/response"

	"github.com/sirupsen/logrus"
)

const (
	SignatureHeader          = "X-Signature"
	SignatureTimestampHeader = "X-Signature-Timestamp"
	maxSignedBodyBytes       = 1 << 20
)

// InternalAuthMiddleware guards operator and payment confirmation routes.
//
// Callers sign the method, the request URI, a unix timestamp and the raw body:
//
//	X-Signature = hex(HMAC-SHA256(secret, METHOD "\n" URI "\n" TIMESTAMP "\n" BODY))
//
// Timestamps further than tolerance from the server clock are rejected.
type InternalAuthMiddleware struct {
	secret    []byte
	tolerance time.Duration
	log       *logrus.Logger
	now       func() time.Time
}

func NewInternalAuthMiddleware(secret string, tolerance time.Duration, log *logrus.Logger) *InternalAuthMiddleware {
	return &InternalAuthMiddleware{
		secret:    []byte(secret),
		tolerance: tolerance,
		log:       log,
		now:       time.Now,
	}
}

func (m *InternalAuthMiddleware) Verify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.secret) == 0 {
			response.Forbidden(w, "Internal endpoints are disabled")
			return
		}

		signature, err := hex.DecodeString(r.Header.Get(SignatureHeader))
		if err != nil || len(signature) == 0 {
			response.Unauthorized(w, "Missing or malformed signature")
			return
		}

		timestamp := r.Header.Get(SignatureTimestampHeader)
		signedAt, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			response.Unauthorized(w, "Missing or malformed signature timestamp")
			return
		}
		if skew := m.now().Sub(time.Unix(signedAt, 0)); skew > m.tolerance || skew < -m.tolerance {
			m.log.Warnf("Rejected internal request outside signature window: %s %s", r.Method, r.URL.Path)
			response.Unauthorized(w, "Signature timestamp outside allowed window")
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBodyBytes))
		if err != nil {
			response.BadRequest(w, "Failed to read request body")
			return
		}
		r.Body.Close()

		if !hmac.Equal(signature, Sign(m.secret, r.Method, r.URL.RequestURI(), timestamp, body)) {
			m.log.Warnf("Rejected internal request with bad signature: %s %s", r.Method, r.URL.Path)
			response.Unauthorized(w, "Invalid signature")
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

// Sign returns the HMAC-SHA256 of the canonical request under secret.
func Sign(secret []byte, method, requestURI, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(method + "\n" + requestURI + "\n" + timestamp + "\n"))
	mac.Write(body)
	return mac.Sum(nil)
}
