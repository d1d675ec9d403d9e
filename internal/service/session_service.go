package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"medconsult-api/internal/domain/entity"
	"medconsult-api/pkg/jwt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidToken = jwt.ErrInvalidToken
	ErrTokenRevoked = errors.New("token has been revoked")
)

const (
	accessTokenKeyPrefix  = "access_token"
	refreshTokenKeyPrefix = "refresh_token"
	resetTokenKeyPrefix   = "password_reset"
	revokeScanCount       = 100
)

// SessionEventType tells listeners what happened to a session.
type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionSignedOut SessionEventType = "signed_out"
)

type SessionEvent struct {
	Type    SessionEventType
	UserID  uuid.UUID
	Email   string
	TokenID string
	At      time.Time
}

// SessionListener must not block; it runs on the caller's goroutine.
type SessionListener func(SessionEvent)

// Session is an established sign-in: the principal plus its token pair.
type Session struct {
	Principal    entity.Principal
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// SessionService owns the Redis allow-list of issued tokens.
//
// Keys:
//
//	access_token:{uid}:{access id}   -> refresh id
//	refresh_token:{uid}:{refresh id} -> access id
//	password_reset:{token}           -> uid
type SessionService struct {
	redisClient *redis.Client
	jwtService  *jwt.JWTService
	log         *logrus.Logger

	mu        sync.RWMutex
	listeners map[int]SessionListener
	nextID    int
}

func NewSessionService(redisClient *redis.Client, jwtService *jwt.JWTService, log *logrus.Logger) *SessionService {
	return &SessionService{
		redisClient: redisClient,
		jwtService:  jwtService,
		log:         log,
		listeners:   make(map[int]SessionListener),
	}
}

// Start issues a token pair for account and emits SignedIn.
func (s *SessionService) Start(ctx context.Context, account *entity.Account) (*Session, error) {
	session, err := s.issue(ctx, account.ID, account.Email)
	if err != nil {
		return nil, err
	}
	s.emit(SessionEvent{
		Type:    SessionSignedIn,
		UserID:  account.ID,
		Email:   account.Email,
		TokenID: session.Principal.TokenID,
		At:      time.Now(),
	})
	return session, nil
}

// Validate resolves an access token into the principal it was issued for.
func (s *SessionService) Validate(ctx context.Context, accessToken string) (*entity.Principal, error) {
	claims, err := s.jwtService.Parse(accessToken, jwt.AccessToken)
	if err != nil {
		return nil, err
	}
	userID, _ := claims.AccountID()

	exists, err := s.redisClient.Exists(ctx, accessKey(userID, claims.ID)).Result()
	if err != nil {
		return nil, fmt.Errorf("check access token: %w", err)
	}
	if exists == 0 {
		return nil, ErrTokenRevoked
	}

	return &entity.Principal{
		ID:      userID,
		Email:   claims.Email,
		TokenID: claims.ID,
	}, nil
}

// Rotate exchanges a refresh token for a new pair. The old pair is revoked
// and the refresh token cannot be used twice.
func (s *SessionService) Rotate(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.jwtService.Parse(refreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, err
	}
	userID, _ := claims.AccountID()

	accessID, err := s.redisClient.GetDel(ctx, refreshKey(userID, claims.ID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTokenRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("consume refresh token: %w", err)
	}

	if err := s.redisClient.Del(ctx, accessKey(userID, accessID)).Err(); err != nil {
		s.log.Warnf("Failed to delete rotated access token: %+v", err)
	}

	return s.issue(ctx, userID, claims.Email)
}

// End revokes the principal's session and emits SignedOut. Stored records
// are untouched.
func (s *SessionService) End(ctx context.Context, principal *entity.Principal) error {
	refreshID, err := s.redisClient.GetDel(ctx, accessKey(principal.ID, principal.TokenID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if refreshID != "" {
		if err := s.redisClient.Del(ctx, refreshKey(principal.ID, refreshID)).Err(); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
	}

	s.emit(SessionEvent{
		Type:    SessionSignedOut,
		UserID:  principal.ID,
		Email:   principal.Email,
		TokenID: principal.TokenID,
		At:      time.Now(),
	})
	return nil
}

// EndAll revokes every token issued to userID.
func (s *SessionService) EndAll(ctx context.Context, userID uuid.UUID) error {
	for _, prefix := range []string{accessTokenKeyPrefix, refreshTokenKeyPrefix} {
		pattern := fmt.Sprintf("%s:%s:*", prefix, userID)
		iter := s.redisClient.Scan(ctx, 0, pattern, revokeScanCount).Iterator()

		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", prefix, err)
		}
		if len(keys) == 0 {
			continue
		}
		if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete %s: %w", prefix, err)
		}
	}
	return nil
}

// IssueResetToken stores a one-time password reset token for userID.
func (s *SessionService) IssueResetToken(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.redisClient.Set(ctx, resetKey(token), userID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}
	return token, nil
}

// ConsumeResetToken returns the user a reset token was issued for and deletes it.
func (s *SessionService) ConsumeResetToken(ctx context.Context, token string) (uuid.UUID, error) {
	value, err := s.redisClient.GetDel(ctx, resetKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidToken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consume reset token: %w", err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// Subscribe registers listener for session events. The returned func removes it.
func (s *SessionService) Subscribe(listener SessionListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *SessionService) issue(ctx context.Context, userID uuid.UUID, email string) (*Session, error) {
	access, err := s.jwtService.Issue(jwt.AccessToken, userID, email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := s.jwtService.Issue(jwt.RefreshToken, userID, email)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, accessKey(userID, access.ID), refresh.ID, access.ExpiresIn)
	pipe.Set(ctx, refreshKey(userID, refresh.ID), access.ID, refresh.ExpiresIn)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("store tokens: %w", err)
	}

	return &Session{
		Principal:    entity.Principal{ID: userID, Email: email, TokenID: access.ID},
		AccessToken:  access.Value,
		RefreshToken: refresh.Value,
		ExpiresIn:    int64(access.ExpiresIn.Seconds()),
	}, nil
}

func (s *SessionService) emit(event SessionEvent) {
	s.mu.RLock()
	listeners := make([]SessionListener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}

func accessKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s:%s:%s", accessTokenKeyPrefix, userID, tokenID)
}

func refreshKey(userID uuid.UUID, tokenID string) string {
	return fmt.Sprintf("%s:%s:%s", refreshTokenKeyPrefix, userID, tokenID)
}

func resetKey(token string) string {
	return fmt.Sprintf("%s:%s", resetTokenKeyPrefix, token)
}
