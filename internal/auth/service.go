package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kdblegal/kdbweb/internal/telemetry/tracing"
	"github.com/kdblegal/kdbweb/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultSessionTTL = 8 * time.Hour
	// 32 random bytes, 256 bits of entropy per token
	tokenBytes = 32
)

type adminRepo interface {
	CountAdmins(ctx context.Context) (int, error)
	BootstrapAdmin(ctx context.Context, admin *Admin) (*Admin, error)
	CreateAdmin(ctx context.Context, admin *Admin) (*Admin, error)
	AdminByUsername(ctx context.Context, username string) (*Admin, error)
	AdminByID(ctx context.Context, id int) (*Admin, error)
	ListAdmins(ctx context.Context) ([]*Admin, error)
	UpdateAdmin(ctx context.Context, admin *Admin) (*Admin, error)
	DeleteAdmin(ctx context.Context, id int) error
	CreateSession(ctx context.Context, session *Session) error
	SessionWithAdmin(ctx context.Context, token string) (*Session, *Admin, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Service struct {
	repo adminRepo
	ttl  time.Duration

	// injectable for unit and dev testing
	Now            func() time.Time
	RandStringFunc func(s int) (string, error)
	HashFunc       func(password string) (string, error)
}

func NewService(repo adminRepo, ttl time.Duration) *Service {
	if ttl < 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		repo:           repo,
		ttl:            ttl,
		Now:            time.Now,
		RandStringFunc: pkg.GenerateRandomString,
		HashFunc:       pkg.HashPassword,
	}
}

func (s *Service) SessionTTL() time.Duration {
	return s.ttl
}

// Bootstrap creates the first, super admin. It fails with ErrBootstrapDone
// as soon as any admin exists.
func (s *Service) Bootstrap(ctx context.Context, creds Credentials) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.bootstrap")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	creds, err = creds.normalized()
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil, ErrBootstrapDone
	}

	hash, err := s.HashFunc(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// the repo re-checks the count under a lock, a concurrent bootstrap
	// loses with ErrBootstrapDone
	admin, err := s.repo.BootstrapAdmin(ctx, &Admin{
		Username:     creds.Username,
		PasswordHash: hash,
		Role:         RoleSuper,
		Active:       true,
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapDone) {
			return nil, err
		}
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	log.Infof("auth service: bootstrap admin [%s] created", admin.Username)
	return admin, nil
}

// EnsureBootstrapAdmin seeds a super admin from deployment settings when
// no admin exists yet. Empty credentials are a no-op.
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	_, err := s.Bootstrap(ctx, Credentials{Username: username, Password: password})
	if errors.Is(err, ErrBootstrapDone) {
		return nil
	}
	return err
}

// Login checks the credentials and opens a new session. Unknown user,
// inactive user and wrong password are all reported as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, creds Credentials) (_ *LoginResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.login")
	defer func() {
		if err != nil && !errors.Is(err, ErrInvalidCredentials) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	creds, err = creds.normalized()
	if err != nil {
		return nil, err
	}

	admin, err := s.repo.AdminByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if !admin.Active || !pkg.CheckPasswordHash(creds.Password, admin.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.RandStringFunc(tokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.Now()
	session := &Session{
		AdminID:   admin.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	span.SetAttributes(attribute.Int("admin.id", admin.ID))
	return &LoginResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Admin:     admin.Profile(),
	}, nil
}

// Authenticate resolves a bearer token to its admin. The token must exist,
// must not be expired and its admin must be active.
func (s *Service) Authenticate(ctx context.Context, token string) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.authenticate")
	defer func() {
		if err != nil && !errors.Is(err, ErrUnauthorized) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if token == "" {
		return nil, ErrUnauthorized
	}

	session, admin, err := s.repo.SessionWithAdmin(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !session.Valid(s.Now()) || !admin.Active {
		return nil, ErrUnauthorized
	}

	return admin, nil
}

// Logout revokes exactly the given token. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.logout")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if token == "" {
		return ErrUnauthorized
	}
	if err := s.repo.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *Service) PruneExpiredSessions(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.Now())
}

func (s *Service) ListAdmins(ctx context.Context) (_ []*Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.admins.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	return s.repo.ListAdmins(ctx)
}

func (s *Service) CreateAdmin(ctx context.Context, params CreateAdminParams) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.admins.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	creds, err := Credentials{Username: params.Username, Password: params.Password}.normalized()
	if err != nil {
		return nil, err
	}

	role := RoleEditor
	if strings.TrimSpace(params.Role) != "" {
		if role, err = ParseRole(params.Role); err != nil {
			return nil, err
		}
	}

	active := true
	if params.Active != nil {
		active = bool(*params.Active)
	}

	hash, err := s.HashFunc(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin, err := s.repo.CreateAdmin(ctx, &Admin{
		Username:     creds.Username,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}

func (s *Service) UpdateAdmin(ctx context.Context, id int, params UpdateAdminParams) (_ *Admin, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.admins.update")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("id", id))

	admin, err := s.repo.AdminByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Username != nil {
		username := strings.TrimSpace(*params.Username)
		if username == "" {
			return nil, pkg.NewValidationError("username is required")
		}
		admin.Username = username
	}
	if params.Role != nil {
		if admin.Role, err = ParseRole(*params.Role); err != nil {
			return nil, err
		}
	}
	if params.Active != nil {
		admin.Active = bool(*params.Active)
	}
	// an empty password means "keep the current one"
	if params.Password != nil && strings.TrimSpace(*params.Password) != "" {
		if admin.PasswordHash, err = s.HashFunc(strings.TrimSpace(*params.Password)); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	updated, err := s.repo.UpdateAdmin(ctx, admin)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrAdminNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update admin: %w", err)
	}
	return updated, nil
}

// DeleteAdmin removes the admin and revokes all of its sessions.
func (s *Service) DeleteAdmin(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.auth.admins.delete")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.Int("id", id))

	return s.repo.DeleteAdmin(ctx, id)
}
