// Package auth implements account signup, signin, email verification,
// bearer tokens and role resolution for password and OAuth logins.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/swarnim921/Smart-Resume/internal/logger"
	"github.com/swarnim921/Smart-Resume/internal/mail"
	"github.com/swarnim921/Smart-Resume/internal/model"
	"github.com/swarnim921/Smart-Resume/internal/queue"
	"github.com/swarnim921/Smart-Resume/internal/repository"
	"github.com/swarnim921/Smart-Resume/internal/utils"
)

// Credentials is the input of the password flows. The role comes from the
// signup path, never from here.
type Credentials struct {
	Name     string
	Email    string
	Password string
}

// Session is an account together with a freshly issued bearer token.
type Session struct {
	User  model.User
	Token string
}

// Deps lists the collaborators of Service. Publisher may be nil.
type Deps struct {
	Users     repository.UserStore
	Hasher    utils.PasswordHasher
	Codes     *CodeManager
	Tokens    *TokenService
	Mailer    mail.Sender
	Publisher queue.Publisher
	Log       *slog.Logger
}

// Service holds the password flows and the administrative account
// operations.
type Service struct {
	users  repository.UserStore
	hasher utils.PasswordHasher
	codes  *CodeManager
	tokens *TokenService
	mailer mail.Sender
	audit  auditor
	log    *slog.Logger
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("auth"))
	return &Service{
		users:  d.Users,
		hasher: d.Hasher,
		codes:  d.Codes,
		tokens: d.Tokens,
		mailer: d.Mailer,
		audit:  auditor{pub: d.Publisher, log: log, now: time.Now},
		log:    log,
	}
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func (c Credentials) trimmed() Credentials {
	return Credentials{Name: strings.TrimSpace(c.Name), Email: strings.TrimSpace(c.Email), Password: c.Password}
}

func (c Credentials) validate(withName bool) error {
	if withName && c.Name == "" {
		return required("name")
	}
	if c.Email == "" {
		return required("email")
	}
	if strings.TrimSpace(c.Password) == "" {
		return required("password")
	}
	if len(c.Password) > maxPasswordBytes {
		return &ValidationError{Field: "password", Msg: fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)}
	}
	return nil
}

// Signup creates an unverified account with the role fixed by path and
// mails a verification code. If the mail cannot be sent the account is
// removed again and ErrEmailDelivery is returned.
func (s *Service) Signup(ctx context.Context, path string, in Credentials) (Session, error) {
	role, err := SignupRole(path)
	if err != nil {
		return Session{}, err
	}
	in = in.trimmed()
	if err := in.validate(true); err != nil {
		return Session{}, err
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return Session{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	code, expiresAt, err := s.codes.Issue(s.codes.Now())
	if err != nil {
		return Session{}, fmt.Errorf("issue code: %w", err)
	}
	u := model.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: role}
	u.SetPendingCode(code, expiresAt)
	if err := s.users.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return Session{}, ErrEmailTaken
		}
		return Session{}, err
	}

	if err := s.mailer.SendVerificationCode(ctx, u.Email, code); err != nil {
		s.log.Error("verification email failed, removing account", logger.Error(err), logger.Email(u.Email))
		if derr := s.users.DeletePending(context.WithoutCancel(ctx), u.ID); derr != nil && !errors.Is(derr, repository.ErrNotFound) {
			s.log.Error("cleanup after email failure failed", logger.Error(derr), logger.Email(u.Email))
		}
		return Session{}, fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}

	s.log.Info("account created", logger.UserID(u.ID), logger.Email(u.Email), logger.Role(role.String()))
	s.audit.roleChanged(ctx, u, "", queue.SourceSignup, "")

	token, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}

// Signin checks the password. Unknown accounts, OAuth-only accounts and
// wrong passwords all yield ErrInvalidCredentials.
func (s *Service) Signin(ctx context.Context, email, password string) (Session, error) {
	in := Credentials{Email: email, Password: password}.trimmed()
	if err := in.validate(false); err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	if !u.Verified {
		return Session{}, &UnverifiedError{Email: u.Email}
	}
	token, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}

// Verify consumes a verification code and signs the user in.
func (s *Service) Verify(ctx context.Context, email, code string) (Session, error) {
	email, code = strings.TrimSpace(email), strings.TrimSpace(code)
	if email == "" {
		return Session{}, required("email")
	}
	if code == "" {
		return Session{}, required("code")
	}
	u, ok, err := s.codes.Check(ctx, email, code)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrInvalidCode
	}
	s.log.Info("email verified", logger.UserID(u.ID), logger.Email(u.Email))
	token, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token}, nil
}

// Resend issues a new code for an unverified account and mails it.
func (s *Service) Resend(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return required("email")
	}
	u, code, ok, err := s.codes.Resend(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyVerified
	}
	if err := s.mailer.SendVerificationCode(ctx, u.Email, code); err != nil {
		s.log.Error("resend verification email failed", logger.Error(err), logger.Email(u.Email))
		return fmt.Errorf("%w: %v", ErrEmailDelivery, err)
	}
	return nil
}

// Me returns the account behind a bearer subject.
func (s *Service) Me(ctx context.Context, email string) (model.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// UpdateRole sets the role of email. It is the only path that can grant
// ROLE_ADMIN after bootstrap.
func (s *Service) UpdateRole(ctx context.Context, actor, email, rawRole string) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.User{}, required("email")
	}
	if strings.TrimSpace(rawRole) == "" {
		return model.User{}, required("role")
	}
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return model.User{}, &ValidationError{Field: "role", Msg: fmt.Sprintf("%q is not a known role", rawRole)}
	}

	var from model.Role
	u, err := s.users.Update(ctx, email, func(u *model.User) error {
		from = u.Role
		if u.Role == role {
			return repository.ErrNoChange
		}
		u.Role = role
		return nil
	})
	switch {
	case errors.Is(err, repository.ErrNoChange):
		return u, nil
	case errors.Is(err, repository.ErrNotFound):
		return model.User{}, ErrUserNotFound
	case err != nil:
		return model.User{}, err
	}
	s.log.Info("role updated", logger.Email(email), slog.String("from", from.String()), logger.Role(role.String()), slog.String("actor", actor))
	s.audit.roleChanged(ctx, u, from, queue.SourceAdmin, actor)
	return u, nil
}

// BootstrapAdmin creates the first admin. It fails with ErrAdminExists
// once any admin account exists.
func (s *Service) BootstrapAdmin(ctx context.Context, in Credentials) (model.User, error) {
	in = in.trimmed()
	if err := in.validate(true); err != nil {
		return model.User{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{Name: in.Name, Email: in.Email, PasswordHash: hash, Role: model.RoleAdmin}
	u.MarkVerified()
	switch err := s.users.CreateFirstAdmin(ctx, &u); {
	case errors.Is(err, repository.ErrAdminExists):
		return model.User{}, ErrAdminExists
	case errors.Is(err, repository.ErrEmailExists):
		return model.User{}, ErrEmailTaken
	case err != nil:
		return model.User{}, err
	}
	s.log.Warn("initial admin created", logger.Email(u.Email))
	s.audit.roleChanged(ctx, u, "", queue.SourceBootstrap, "")
	return u, nil
}

// DeleteUser removes the account of email. actor is the bearer subject.
func (s *Service) DeleteUser(ctx context.Context, actor, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return required("email")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.log.Info("account deleted", logger.Email(email), slog.String("actor", actor))
	s.audit.removed(ctx, u, actor)
	return nil
}
