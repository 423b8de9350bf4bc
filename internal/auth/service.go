package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"thinkwise/internal/errors"
	"thinkwise/models"
	"thinkwise/ports"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Credential failures always surface this message so responses never
// reveal whether the email exists.
const invalidCredentialsMessage = "invalid email or password"

// Service implements registration, login, and the password reset flow.
// Reset emails go out asynchronously; the forgot-password endpoint
// answers identically whether or not the account exists.
type Service struct {
	users           ports.UserRepository
	resets          ports.PasswordResetRepository
	mailer          ports.Mailer
	signer          *TokenSigner
	resetExpiry     time.Duration
	frontendBaseURL string
	now             func() time.Time
}

// NewService creates an auth service
func NewService(
	users ports.UserRepository,
	resets ports.PasswordResetRepository,
	mailer ports.Mailer,
	signer *TokenSigner,
	resetExpiry time.Duration,
	frontendBaseURL string,
) *Service {
	return &Service{
		users:           users,
		resets:          resets,
		mailer:          mailer,
		signer:          signer,
		resetExpiry:     resetExpiry,
		frontendBaseURL: strings.TrimRight(frontendBaseURL, "/"),
		now:             time.Now,
	}
}

// Register creates an account and returns the user with a signed access
// token. Duplicate emails surface as ALREADY_EXISTS.
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", errors.InvalidInput("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, "", errors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to hash password")
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		IsActive:     true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.signer.Sign(user, s.now())
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] ✅ Registered user %s", user.ID)
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed access
// token. Unknown emails and wrong passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		// Equalize work between unknown email and wrong password
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
		return nil, "", errors.Unauthorized(invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", errors.Unauthorized(invalidCredentialsMessage)
	}
	if !user.IsActive {
		return nil, "", errors.Unauthorized("account is disabled")
	}

	token, err := s.signer.Sign(user, s.now())
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] ✅ Login for user %s", user.ID)
	return user, token, nil
}

// VerifyToken validates an access token and returns the user ID with
// the parsed claims
func (s *Service) VerifyToken(tokenString string) (uuid.UUID, *Claims, error) {
	return s.signer.Verify(tokenString)
}

// ForgotPassword starts the reset flow. It always succeeds from the
// caller's perspective; whether a mail was actually sent stays private.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		log.Printf("[AuthService] Password reset requested for unknown email")
		return nil
	}

	raw, hash, err := NewResetToken()
	if err != nil {
		log.Printf("[AuthService] ERROR: could not generate reset token: %v", err)
		return nil
	}

	reset := &models.PasswordReset{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: s.now().Add(s.resetExpiry),
	}
	if err := s.resets.CreateReset(ctx, reset); err != nil {
		log.Printf("[AuthService] ERROR: could not store reset grant: %v", err)
		return nil
	}

	if err := s.mailer.Send(ctx, user.Email, "Reset your Thinkwise password", s.resetEmailBody(user, raw)); err != nil {
		log.Printf("[AuthService] ERROR: could not send reset email: %v", err)
	}
	return nil
}

// ResetPassword redeems a reset token and sets the new password. The
// grant is single-use and expires after the configured window.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	reset, err := s.resets.GetByTokenHash(ctx, HashResetToken(token))
	if err != nil || !reset.Usable(s.now()) {
		return errors.Unauthorized("invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	if err := s.users.UpdatePassword(ctx, reset.UserID, string(hash)); err != nil {
		return err
	}
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		log.Printf("[AuthService] ERROR: could not consume reset grant %s: %v", reset.ID, err)
	}

	log.Printf("[AuthService] ✅ Password reset for user %s", reset.UserID)
	return nil
}

func (s *Service) resetEmailBody(user *models.User, rawToken string) string {
	name := user.FullName()
	if name == "" {
		name = "there"
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendBaseURL, rawToken)

	return fmt.Sprintf(`# Password reset

Hi %s,

Someone requested a password reset for your Thinkwise account. If that
was you, use the link below within %d minutes:

[Reset your password](%s)

If you did not request this, ignore this email; your password is unchanged.
`, name, int(s.resetExpiry.Minutes()), link)
}
