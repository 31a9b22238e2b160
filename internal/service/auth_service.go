package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"scriptvault/api/internal/apperr"
	"scriptvault/api/internal/audit"
	"scriptvault/api/internal/config"
	"scriptvault/api/internal/models"
	"scriptvault/api/internal/repository"
	"scriptvault/api/internal/security"
	"scriptvault/api/internal/session"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

// BootstrapState reports what EnsureAdmin did.
type BootstrapState string

const (
	BootstrapCreated BootstrapState = "created"
	BootstrapExists  BootstrapState = "exists"
	BootstrapFailed  BootstrapState = "failed"
)

type AuthService struct {
	users    *repository.UserRepository
	codes    *AccessCodeService
	sessions *session.Manager
	trail    *audit.Trail
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users *repository.UserRepository,
	codes *AccessCodeService,
	sessions *session.Manager,
	trail *audit.Trail,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		codes:    codes,
		sessions: sessions,
		trail:    trail,
		cfg:      cfg,
		log:      log,
	}
}

// EnsureAdmin makes sure the default admin credential record exists,
// sourcing it from the bootstrap seed record. The common path is a single
// existence check. The seed password is hashed at the point of first
// persistence; plaintext never lands in the store.
//
// Concurrent cold-start invocations can each observe "admin absent" and
// issue overlapping writes. Both derive from the same seed values, so the
// duplicate write is benign; the store has no conditional put to prevent
// it.
func (s *AuthService) EnsureAdmin(ctx context.Context) (BootstrapState, error) {
	username := s.cfg.Admin.Username

	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return BootstrapFailed, err
	}
	if exists {
		return BootstrapExists, nil
	}

	seedExists, err := s.users.SeedExists(ctx)
	if err != nil {
		return BootstrapFailed, err
	}
	if !seedExists {
		hash, err := security.HashPassword(s.cfg.Admin.Password)
		if err != nil {
			return BootstrapFailed, apperr.Wrap(apperr.KindInternal, "bootstrap failed", err)
		}
		seed := models.AdminSeed{
			Username:     username,
			PasswordHash: hash,
			Role:         models.UserRoleAdmin,
			CreatedAt:    time.Now().UTC(),
		}
		if err := s.users.WriteSeed(ctx, seed); err != nil {
			return BootstrapFailed, err
		}
	}

	seed, err := s.users.ReadSeed(ctx)
	if err != nil {
		return BootstrapFailed, err
	}

	admin := models.User{
		Username:              seed.Username,
		PasswordHash:          seed.PasswordHash,
		Role:                  models.UserRoleAdmin,
		CreatedAt:             time.Now().UTC(),
		InitializedFromConfig: true,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return BootstrapFailed, err
	}

	s.log.Info().Str("username", username).Msg("admin account bootstrapped")
	return BootstrapCreated, nil
}

// Login verifies credentials and issues a session. Unknown usernames and
// wrong passwords are indistinguishable on the wire.
func (s *AuthService) Login(ctx context.Context, username, password string) (session.Session, models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return session.Session{}, models.User{}, apperr.New(apperr.KindUnauthorized, "invalid username or password")
		}
		return session.Session{}, models.User{}, err
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		return session.Session{}, models.User{}, apperr.New(apperr.KindUnauthorized, "invalid username or password")
	}

	sess, err := s.sessions.Create(user.Username, user.Role)
	if err != nil {
		return session.Session{}, models.User{}, err
	}

	s.trail.Record("login", user.Username, nil)
	return sess, user, nil
}

// Register self-registers a user gated by a single-use access code. The
// code is checked before the user record is written and marked used
// after, so a failed registration never burns a code; the cost is a
// window in which a crash leaves a registered user with an unconsumed
// code. Both the duplicate-username pre-check and the code write-back
// are check-then-write sequences with no store-level atomicity.
func (s *AuthService) Register(ctx context.Context, username, password, code string) (models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return models.User{}, err
	}

	codeRec, err := s.codes.Validate(ctx, code)
	if err != nil {
		return models.User{}, err
	}

	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, apperr.New(apperr.KindConflict, "username already taken")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindInternal, "registration failed", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         models.UserRoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	if err := s.codes.MarkUsed(ctx, codeRec, username); err != nil {
		// The user exists; an unconsumed code is the tolerated failure
		// mode, same class as the double-redemption race.
		s.log.Error().Err(err).Str("code", code).Msg("access code write-back failed")
	}

	s.trail.Record("register_user", username, map[string]string{"access_code": code})
	return user, nil
}

// CreateUser is the admin path for provisioning accounts directly.
func (s *AuthService) CreateUser(ctx context.Context, actor session.Session, username, password string, role models.UserRole) (models.User, error) {
	if role == "" {
		role = models.UserRoleUser
	}
	if role != models.UserRoleUser && role != models.UserRoleAdmin {
		return models.User{}, apperr.New(apperr.KindValidation, "role must be admin or user")
	}
	if err := validateCredentials(username, password); err != nil {
		return models.User{}, err
	}

	// Existence pre-check; a concurrent creator can still win the race
	// to the same key, in which case the last write overwrites silently.
	exists, err := s.users.Exists(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, apperr.New(apperr.KindConflict, "username already taken")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, apperr.Wrap(apperr.KindInternal, "user creation failed", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
		CreatedBy:    actor.Username,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	s.trail.Record("create_user", actor.Username, map[string]string{
		"username": username,
		"role":     string(role),
	})
	return user, nil
}

// ListUsers returns every credential record. Callers must strip password
// hashes before anything reaches the wire.
func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func validateCredentials(username, password string) error {
	if len(username) < minUsernameLen {
		return apperr.New(apperr.KindValidation, "username must be at least 3 characters")
	}
	if len(password) < minPasswordLen {
		return apperr.New(apperr.KindValidation, "password must be at least 6 characters")
	}
	return nil
}
