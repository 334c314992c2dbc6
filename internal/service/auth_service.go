package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartmed/smartmed-api/internal/domain"
	"github.com/smartmed/smartmed-api/internal/domain/doctor"
	"github.com/smartmed/smartmed-api/internal/domain/patient"
	"github.com/smartmed/smartmed-api/internal/mailer"
	"github.com/smartmed/smartmed-api/pkg/auth"
)

var (
	ErrInvalidCredentials       = errors.New("invalid email or password")
	ErrAccountInactive          = errors.New("account is inactive")
	ErrVerificationTokenInvalid = errors.New("verification link is invalid or has expired")
)

const verificationTokenTTL = 24 * time.Hour

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	SetDoctorID(ctx context.Context, id, doctorID uuid.UUID) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkVerified(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type AuthService struct {
	userRepo    UserRepository
	doctorRepo  doctor.Repository
	patientRepo patient.Repository
	followUps   FollowUpCanceller
	jwtManager  *auth.JWTManager
	mailer      mailer.Sender
	baseURL     string
	log         *zap.Logger
}

func NewAuthService(userRepo UserRepository, doctorRepo doctor.Repository, patientRepo patient.Repository, followUps FollowUpCanceller, jwtManager *auth.JWTManager, sender mailer.Sender, baseURL string, log *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		followUps:   followUps,
		jwtManager:  jwtManager,
		mailer:      sender,
		baseURL:     baseURL,
		log:         log,
	}
}

type RegisterCommand struct {
	Email    string
	Password string
	Name     string

	Gender            doctor.Gender
	PracticeStartYear int
	Degree            string
	Speciality        string
}

// Register creates the auth account and the linked doctor profile, then
// mails a verification link. The raw token is never stored; only its
// SHA-256 hash is.
func (s *AuthService) Register(ctx context.Context, cmd *RegisterCommand) (*domain.TokenPair, error) {
	if err := validateRegisterCommand(cmd); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	token, tokenHash, err := newVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("generating verification token: %w", err)
	}
	expiresAt := time.Now().Add(verificationTokenTTL)

	user := &domain.User{
		Email:                 strings.ToLower(strings.TrimSpace(cmd.Email)),
		PasswordHash:          string(hash),
		DisplayName:           strings.TrimSpace(cmd.Name),
		Role:                  domain.RoleDoctor,
		IsActive:              true,
		VerificationTokenHash: tokenHash,
		VerificationExpiresAt: &expiresAt,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.log.Error("failed to create user", zap.Error(err))
		return nil, fmt.Errorf("creating account: %w", err)
	}

	d := &doctor.Doctor{
		UserID:            user.ID,
		Name:              strings.TrimSpace(cmd.Name),
		Gender:            cmd.Gender,
		PracticeStartYear: cmd.PracticeStartYear,
		Degree:            strings.TrimSpace(cmd.Degree),
		Speciality:        strings.TrimSpace(cmd.Speciality),
		Email:             user.Email,
	}
	if err := s.doctorRepo.Create(ctx, d); err != nil {
		s.log.Error("failed to create doctor profile", zap.Error(err))
		return nil, fmt.Errorf("creating doctor profile: %w", err)
	}
	if err := s.userRepo.SetDoctorID(ctx, user.ID, d.ID); err != nil {
		return nil, fmt.Errorf("linking doctor profile: %w", err)
	}

	s.sendVerificationEmail(user.Email, d.Name, token)

	s.log.Info("doctor registered",
		zap.String("user_id", user.ID.String()),
		zap.String("doctor_id", d.ID.String()),
	)

	return s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		DoctorID: &d.ID,
	})
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Use bcrypt dummy hash to prevent timing-based user enumeration.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, ErrInvalidCredentials
	}

	_ = s.userRepo.RecordLogin(ctx, user.ID, time.Now())

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("ip", ip),
	)

	return s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		DoctorID: user.DoctorID,
	})
}

// RefreshToken issues a new token pair given a valid refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Re-validate user is still active
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		DoctorID: user.DoctorID,
	})
}

// VerifyEmail exchanges the callback token for a verified account. The
// token arrives raw; it is hashed and matched against the stored hash.
func (s *AuthService) VerifyEmail(ctx context.Context, token, tokenType string) error {
	if tokenType != "email-verification" {
		return ErrVerificationTokenInvalid
	}

	sum := sha256.Sum256([]byte(token))
	user, err := s.userRepo.MarkVerified(ctx, hex.EncodeToString(sum[:]), time.Now())
	if err != nil {
		return ErrVerificationTokenInvalid
	}

	s.log.Info("email verified", zap.String("user_id", user.ID.String()))
	return nil
}

// DeleteAccount removes the auth account and its doctor profile, first
// cancelling follow-up reminders for every patient the doctor owns so
// the jobs do not keep firing against a removed account.
func (s *AuthService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if user.DoctorID != nil {
		patients, err := s.patientRepo.ListByDoctor(ctx, *user.DoctorID)
		if err != nil {
			return fmt.Errorf("listing patients: %w", err)
		}
		for _, p := range patients {
			if err := s.followUps.CancelFollowUpsForPatient(ctx, p.ID); err != nil {
				s.log.Error("failed to cancel follow-ups",
					zap.String("patient_id", p.ID.String()),
					zap.Error(err),
				)
			}
		}

		if err := s.doctorRepo.SoftDelete(ctx, *user.DoctorID); err != nil && !errors.Is(err, doctor.ErrDoctorNotFound) {
			return fmt.Errorf("deleting doctor profile: %w", err)
		}
	}

	if err := s.userRepo.SoftDelete(ctx, userID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}

	s.log.Info("account deleted", zap.String("user_id", userID.String()))
	return nil
}

// sendVerificationEmail mails the raw token off the request path.
// Failures are logged and swallowed; the account stays usable and a
// new token can be issued later.
func (s *AuthService) sendVerificationEmail(email, name, token string) {
	link := fmt.Sprintf("%s/v1/auth/verify?token=%s&type=email-verification", s.baseURL, token)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		msg := &mailer.Message{
			ToName:    name,
			ToAddress: email,
			Subject:   "Verify your SmartMed account",
			PlainText: "Welcome to SmartMed. Verify your account: " + link,
			HTMLBody:  fmt.Sprintf(`<p>Welcome to SmartMed, %s.</p><p><a href="%s">Verify your account</a>. The link expires in 24 hours.</p>`, html.EscapeString(name), link),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.Warn("failed to send verification email",
				zap.String("email", email),
				zap.Error(err),
			)
		}
	}()
}

func newVerificationToken() (token, tokenHash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(sum[:]), nil
}

func validateRegisterCommand(cmd *RegisterCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.Email) == "" {
		errs = append(errs, "email is required")
	}
	if len(cmd.Password) < 12 {
		errs = append(errs, "password must be at least 12 characters")
	}
	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if cmd.PracticeStartYear > time.Now().Year() {
		errs = append(errs, "practice_start_year cannot be in the future")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
