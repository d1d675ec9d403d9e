package jwt

import (
	"errors"
	"fmt"
	"time"

	"medconsult-api/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultIssuer = "medconsult-api"

var (
	// ErrInvalidToken covers every token that cannot be trusted: bad signature,
	// expired, wrong issuer or audience, or the wrong kind of token.
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims identify an account session. The account id travels as the subject
// and the allow-list key as the token id (jti).
type Claims struct {
	Email     string    `json:"email"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// AccountID parses the subject back into the account identifier.
func (c *Claims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// IssuedToken is a signed token plus the values the session store keys on.
type IssuedToken struct {
	Value     string
	ID        string
	ExpiresIn time.Duration
}

type JWTService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      map[TokenType]time.Duration
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = defaultIssuer
	}
	audience := cfg.Audience
	if audience == "" {
		audience = issuer
	}

	return &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   issuer,
		audience: audience,
		ttl: map[TokenType]time.Duration{
			AccessToken:  cfg.AccessExpiry,
			RefreshToken: cfg.RefreshExpiry,
		},
	}
}

// Issue signs a token of the given kind for accountID.
func (s *JWTService) Issue(kind TokenType, accountID uuid.UUID, email string) (*IssuedToken, error) {
	ttl, ok := s.ttl[kind]
	if !ok {
		return nil, fmt.Errorf("unknown token type %q", kind)
	}

	now := time.Now()
	tokenID := uuid.NewString()
	claims := Claims{
		Email:     email,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   accountID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &IssuedToken{Value: signed, ID: tokenID, ExpiresIn: ttl}, nil
}

// Parse verifies tokenString and requires it to be of the given kind.
func (s *JWTService) Parse(tokenString string, kind TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.TokenType != kind || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	if _, err := claims.AccountID(); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
