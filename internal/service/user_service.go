package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yohanndulong/alter-sub001/internal/domain"
	"github.com/yohanndulong/alter-sub001/internal/email"
	"github.com/yohanndulong/alter-sub001/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrOTPNotRequested    = errors.New("otp not requested")
	ErrOTPExpired         = errors.New("otp expired")
	ErrOTPInvalid         = errors.New("otp invalid")
	ErrEmailSendFailure   = errors.New("email send failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("invalid email")
)

const otpTTL = 10 * time.Minute

// ProfileProvisioner crea el perfil vacio que acompana a toda cuenta nueva.
// Lo implementa ProfileService; el registro no termina hasta que el perfil
// existe, porque onboarding y discovery lo asumen presente.
type ProfileProvisioner interface {
	CreateProfile(ctx context.Context, userID string) (domain.Profile, error)
}

// UserService gestiona el ciclo de cuenta: registro con perfil, login por
// password y login por OTP de email.
type UserService struct {
	logger      *zap.Logger
	users       repository.UserRepository
	profiles    ProfileProvisioner
	emailSender email.Sender
	otpLimiter  OTPRateLimiter
}

func NewUserService(
	logger *zap.Logger,
	users repository.UserRepository,
	profiles ProfileProvisioner,
	emailSender email.Sender,
	otpLimiter OTPRateLimiter,
) *UserService {
	if otpLimiter == nil {
		otpLimiter = NewOTPRateLimiter(otpTTL, 3)
	}
	return &UserService{
		logger:      logger,
		users:       users,
		profiles:    profiles,
		emailSender: emailSender,
		otpLimiter:  otpLimiter,
	}
}

type RegisterInput struct {
	Email       string
	DisplayName string
	Password    string
}

// Register crea la cuenta y su perfil vacio en el mismo flujo. Si el perfil
// no puede crearse el registro falla: una cuenta sin perfil no puede entrar a
// onboarding ni a discovery.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (domain.User, domain.Profile, error) {
	if s.users == nil || s.profiles == nil {
		return domain.User{}, domain.Profile{}, errors.New("user service not configured")
	}

	emailAddr := normalizeEmail(input.Email)
	if emailAddr == "" {
		return domain.User{}, domain.Profile{}, ErrInvalidEmail
	}

	var passwordHash string
	if password := strings.TrimSpace(input.Password); password != "" {
		hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return domain.User{}, domain.Profile{}, err
		}
		passwordHash = string(hashBytes)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        emailAddr,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, domain.Profile{}, fmt.Errorf("create user: %w", err)
	}

	profile, err := s.profiles.CreateProfile(ctx, user.ID)
	if err != nil {
		s.logger.Error("provision profile failed", zap.Error(err), zap.String("user_id", user.ID))
		return domain.User{}, domain.Profile{}, fmt.Errorf("provision profile: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, profile, nil
}

// Authenticate valida email y password contra el hash bcrypt guardado.
func (s *UserService) Authenticate(ctx context.Context, emailAddr, password string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	password = strings.TrimSpace(password)
	if emailAddr == "" || password == "" {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if user.PasswordHash == "" {
		return domain.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// RequestOTP genera y envia un codigo de login por email. Si el email no
// tiene cuenta todavia, la crea junto con su perfil (login sin password).
func (s *UserService) RequestOTP(ctx context.Context, emailAddr, displayName string) (domain.User, error) {
	if s.users == nil || s.profiles == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if s.otpLimiter != nil && !s.otpLimiter.Allow(emailAddr) {
		return domain.User{}, ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if errors.Is(err, pgx.ErrNoRows) {
		user = domain.User{
			ID:          uuid.NewString(),
			Email:       emailAddr,
			DisplayName: strings.TrimSpace(displayName),
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.users.Create(ctx, user); err != nil {
			return domain.User{}, fmt.Errorf("create user: %w", err)
		}
		if _, err := s.profiles.CreateProfile(ctx, user.ID); err != nil {
			s.logger.Error("provision profile failed", zap.Error(err), zap.String("user_id", user.ID))
			return domain.User{}, fmt.Errorf("provision profile: %w", err)
		}
	} else if err != nil {
		return domain.User{}, err
	}

	code, hash, expiresAt, err := issueOTPCode()
	if err != nil {
		return domain.User{}, err
	}
	if err := s.users.UpdateOTP(ctx, user.ID, hash, expiresAt); err != nil {
		return domain.User{}, err
	}

	if s.emailSender == nil {
		return domain.User{}, ErrEmailSendFailure
	}
	if err := s.emailSender.SendVerificationOTP(ctx, emailAddr, code, expiresAt); err != nil {
		s.logger.Warn("send verification otp failed", zap.Error(err), zap.String("email", emailAddr))
		return domain.User{}, ErrEmailSendFailure
	}

	user.OtpExpiresAt = &expiresAt
	return user, nil
}

// VerifyOTP confirma el codigo recibido por email y marca la cuenta como
// verificada.
func (s *UserService) VerifyOTP(ctx context.Context, emailAddr, code string) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}
	if !isValidOTPCode(code) {
		return domain.User{}, ErrOTPInvalid
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}

	switch {
	case user.OtpCodeHash == "" || user.OtpExpiresAt == nil:
		return domain.User{}, ErrOTPNotRequested
	case time.Now().UTC().After(*user.OtpExpiresAt):
		return domain.User{}, ErrOTPExpired
	case !otpCodeMatches(code, user.OtpCodeHash):
		return domain.User{}, ErrOTPInvalid
	}

	verifiedAt := time.Now().UTC()
	if err := s.users.VerifyEmail(ctx, user.ID, verifiedAt); err != nil {
		return domain.User{}, err
	}

	user.EmailVerifiedAt = &verifiedAt
	user.OtpCodeHash = ""
	user.OtpExpiresAt = nil
	return user, nil
}

// issueOTPCode genera un codigo de 6 digitos y su hash salteado. El codigo en
// claro solo viaja en el email; la DB guarda "salt:sha256(salt:code)" en hex.
func issueOTPCode() (code, storedHash string, expiresAt time.Time, err error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", time.Time{}, err
	}
	code = fmt.Sprintf("%06d", n.Int64())

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", "", time.Time{}, err
	}
	saltHex := hex.EncodeToString(salt)
	digest := sha256.Sum256([]byte(saltHex + ":" + code))

	expiresAt = time.Now().UTC().Add(otpTTL)
	return code, saltHex + ":" + hex.EncodeToString(digest[:]), expiresAt, nil
}

func otpCodeMatches(code, stored string) bool {
	saltHex, expected, ok := strings.Cut(stored, ":")
	if !ok {
		return false
	}
	digest := sha256.Sum256([]byte(saltHex + ":" + code))
	actual := hex.EncodeToString(digest[:])
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
