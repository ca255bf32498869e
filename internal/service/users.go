package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/renorris/cs496-todo-app/internal/config"
	"github.com/renorris/cs496-todo-app/internal/logging"
	"github.com/renorris/cs496-todo-app/internal/model"
	"github.com/renorris/cs496-todo-app/internal/repository"
	"github.com/renorris/cs496-todo-app/internal/utils"
)

// ConfirmationMailer delivers the link carrying a registration token.
type ConfirmationMailer interface {
	SendConfirmation(ctx context.Context, to, firstName, token string) error
}

// Registration is a pending account as submitted to /user/create.
type Registration struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// TokenPair is what a confirmed or logged-in user receives.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService runs registration, confirmation, login and refresh.
type UserService struct {
	cfg           config.Config
	users         *repository.UserRepo
	sessions      *utils.SessionCodec
	registrations *utils.RegistrationCodec
	mailer        ConfirmationMailer
	log           logging.Logger
}

func NewUserService(cfg config.Config, db *sql.DB, sessions *utils.SessionCodec, registrations *utils.RegistrationCodec, mailer ConfirmationMailer, log logging.Logger) *UserService {
	return &UserService{
		cfg:           cfg,
		users:         repository.NewUserRepo(db),
		sessions:      sessions,
		registrations: registrations,
		mailer:        mailer,
		log:           log,
	}
}

// Register seals the registration into a token and mails the confirmation
// link. Nothing is persisted until the link is followed.
func (s *UserService) Register(ctx context.Context, r Registration) error {
	r.Email = repository.NormalizeEmail(r.Email)

	_, err := s.users.GetByEmail(ctx, r.Email)
	switch {
	case err == nil:
		return ErrConflict
	case !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("lookup email: %w", err)
	}

	token, err := s.registrations.Encode(utils.RegistrationClaims{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	})
	if err != nil {
		return fmt.Errorf("seal registration: %w", err)
	}
	if err := s.mailer.SendConfirmation(ctx, r.Email, r.FirstName, token); err != nil {
		return fmt.Errorf("confirmation email: %w", err)
	}
	return nil
}

// Confirm opens a registration token, creates the user and signs them in.
// A replayed token fails with ErrConflict because the email now exists.
func (s *UserService) Confirm(ctx context.Context, token string) (TokenPair, error) {
	claims, err := s.registrations.Decode(token)
	if err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	hash, err := utils.HashPassword(claims.Password, s.cfg.BcryptCost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		Email:        claims.Email,
		PasswordHash: hash,
		FirstName:    claims.FirstName,
		LastName:     claims.LastName,
	}
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return TokenPair{}, ErrConflict
		}
		return TokenPair{}, fmt.Errorf("create user: %w", err)
	}
	s.log.Info(ctx, "user confirmed", "user", u.UUID)
	return s.issuePair(u)
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable, in response and in bcrypt work.
func (s *UserService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.BurnPasswordCheck(password)
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return TokenPair{}, ErrUnauthorized
	}
	return s.issuePair(u)
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token itself is not rotated.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.sessions.Verify(refreshToken)
	if err != nil {
		return "", ErrUnauthorized
	}
	if claims.TokenType != utils.TokenRefresh {
		return "", ErrBadRequest
	}
	id, err := claims.UserID()
	if err != nil {
		return "", ErrUnauthorized
	}

	u, err := s.users.GetByUUID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}
	access, _, err := s.sessions.Issue(identityOf(u), s.cfg.AccessTTL, utils.TokenAccess)
	if err != nil {
		return "", err
	}
	return access, nil
}

func (s *UserService) issuePair(u model.User) (TokenPair, error) {
	id := identityOf(u)
	access, _, err := s.sessions.Issue(id, s.cfg.AccessTTL, utils.TokenAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := s.sessions.Issue(id, s.cfg.RefreshTTL, utils.TokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func identityOf(u model.User) utils.Identity {
	return utils.Identity{UUID: u.UUID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}
