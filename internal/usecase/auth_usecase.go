package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medconsult-api/internal/converter"
	"medconsult-api/internal/delivery/dto"
	"medconsult-api/internal/domain/entity"
	"medconsult-api/internal/domain/repository"
	"medconsult-api/internal/service"
	"medconsult-api/pkg/validator"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const accountEntityName = "accounts"

type AuthConfig struct {
	StoreTimeout  time.Duration
	ResetURL      string
	ResetTokenTTL time.Duration
}

type AuthUsecase interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error)
	SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.AuthResponse, error)
	SignOut(ctx context.Context, principal *entity.Principal) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	CurrentAccount(ctx context.Context, principal *entity.Principal) (*dto.AccountResponse, error)
	RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest) error
	ResetPassword(ctx context.Context, req *dto.PasswordResetConfirmRequest) error
}

type authUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	accountRepo  repository.AccountRepository
	profileRepo  repository.UserProfileRepository
	sessions     *service.SessionService
	mailer       service.Mailer
	auditService service.AuditService
	validator    *validator.CustomValidator
	cfg          AuthConfig
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	accountRepo repository.AccountRepository,
	profileRepo repository.UserProfileRepository,
	sessions *service.SessionService,
	mailer service.Mailer,
	auditService service.AuditService,
	validator *validator.CustomValidator,
	cfg AuthConfig,
) AuthUsecase {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = 30 * time.Minute
	}
	return &authUsecase{
		db:           db,
		log:          log,
		accountRepo:  accountRepo,
		profileRepo:  profileRepo,
		sessions:     sessions,
		mailer:       mailer,
		auditService: auditService,
		validator:    validator,
		cfg:          cfg,
	}
}

// SignUp creates the account with an empty profile and establishes a session.
func (u *authUsecase) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	existing, err := u.accountRepo.FindByEmail(storeCtx, u.db, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find account by email: %+v", err)
		return nil, storeFailure(err)
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	tx := u.db.WithContext(storeCtx).Begin()
	if tx.Error != nil {
		u.log.Warnf("Failed to begin transaction: %+v", tx.Error)
		return nil, storeFailure(tx.Error)
	}
	defer tx.Rollback()

	account := &entity.Account{
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := u.accountRepo.Create(storeCtx, tx, account); err != nil {
		if isDuplicateKeyError(err, "email") {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create account: %+v", err)
		return nil, storeFailure(err)
	}

	if err := u.profileRepo.Save(storeCtx, tx, entity.NewEmptyProfile(account.ID)); err != nil {
		u.log.Warnf("Failed to create profile: %+v", err)
		return nil, storeFailure(err)
	}

	if err := u.auditService.LogCreate(storeCtx, tx, &account.ID, entity.AuditActionUserRegister, accountEntityName, account.ID.String(),
		converter.AccountToResponse(account)); err != nil {
		return nil, storeFailure(err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, storeFailure(err)
	}

	return u.startSession(ctx, account)
}

// SignIn verifies credentials. No session is created on failure.
func (u *authUsecase) SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.AuthResponse, error) {
	storeCtx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	account, err := u.accountRepo.FindByEmail(storeCtx, u.db, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find account by email: %+v", err)
		return nil, storeFailure(err)
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u.startSession(ctx, account)
}

// SignOut revokes the caller's session. Stored records are untouched.
func (u *authUsecase) SignOut(ctx context.Context, principal *entity.Principal) error {
	if principal == nil {
		return ErrUnauthenticated
	}

	if err := u.sessions.End(ctx, principal); err != nil {
		u.log.Warnf("Failed to end session: %+v", err)
		return storeFailure(err)
	}
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	session, err := u.sessions.Rotate(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrTokenRevoked) {
			return nil, err
		}
		u.log.Warnf("Failed to rotate session: %+v", err)
		return nil, storeFailure(err)
	}

	return converter.SessionToTokenResponse(session), nil
}

func (u *authUsecase) CurrentAccount(ctx context.Context, principal *entity.Principal) (*dto.AccountResponse, error) {
	if principal == nil {
		return nil, ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	account, err := u.accountRepo.FindByID(ctx, u.db, principal.ID)
	if err != nil {
		u.log.Warnf("Failed to find account by ID: %+v", err)
		return nil, storeFailure(err)
	}
	if account == nil {
		return nil, ErrUnauthenticated
	}

	return converter.AccountToResponse(account), nil
}

// RequestPasswordReset emails a one-time reset token. It reports success for
// unknown addresses too, so callers cannot probe for accounts.
func (u *authUsecase) RequestPasswordReset(ctx context.Context, req *dto.PasswordResetRequest) error {
	storeCtx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	account, err := u.accountRepo.FindByEmail(storeCtx, u.db, req.Email)
	if err != nil {
		u.log.Warnf("Failed to find account by email: %+v", err)
		return storeFailure(err)
	}
	if account == nil {
		u.log.Debugf("Password reset requested for unknown email")
		return nil
	}

	token, err := u.sessions.IssueResetToken(storeCtx, account.ID, u.cfg.ResetTokenTTL)
	if err != nil {
		u.log.Warnf("Failed to issue reset token: %+v", err)
		return storeFailure(err)
	}

	if err := u.mailer.Send(ctx, service.MailMessage{
		To:      account.Email,
		Subject: "Reset your password",
		Body:    u.resetMessage(token),
	}); err != nil {
		u.log.Warnf("Failed to send password reset email: %+v", err)
	}

	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs the
// account out everywhere.
func (u *authUsecase) ResetPassword(ctx context.Context, req *dto.PasswordResetConfirmRequest) error {
	if err := u.validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	storeCtx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()

	userID, err := u.sessions.ConsumeResetToken(storeCtx, req.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return err
		}
		u.log.Warnf("Failed to consume reset token: %+v", err)
		return storeFailure(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return err
	}

	if err := u.accountRepo.UpdatePassword(storeCtx, u.db, userID, string(hashedPassword)); err != nil {
		u.log.Warnf("Failed to update password: %+v", err)
		return storeFailure(err)
	}

	if err := u.sessions.EndAll(storeCtx, userID); err != nil {
		u.log.Warnf("Failed to revoke sessions after password reset: %+v", err)
		return storeFailure(err)
	}

	_ = u.auditService.LogUpdate(storeCtx, u.db, &userID, entity.AuditActionPasswordReset, accountEntityName, userID.String(), nil, nil)
	return nil
}

func (u *authUsecase) startSession(ctx context.Context, account *entity.Account) (*dto.AuthResponse, error) {
	session, err := u.sessions.Start(ctx, account)
	if err != nil {
		u.log.Warnf("Failed to start session: %+v", err)
		return nil, storeFailure(err)
	}

	return &dto.AuthResponse{
		Account: *converter.AccountToResponse(account),
		Tokens:  *converter.SessionToTokenResponse(session),
	}, nil
}

func (u *authUsecase) resetMessage(token string) string {
	if u.cfg.ResetURL == "" {
		return fmt.Sprintf("Use this code to reset your password: %s\nIt expires in %s.", token, u.cfg.ResetTokenTTL)
	}
	separator := "?"
	if strings.Contains(u.cfg.ResetURL, "?") {
		separator = "&"
	}
	return fmt.Sprintf("Reset your password here: %s%stoken=%s\nThe link expires in %s.", u.cfg.ResetURL, separator, token, u.cfg.ResetTokenTTL)
}
