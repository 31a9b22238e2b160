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

type AccessCodeService struct {
	codes *repository.AccessCodeRepository
	trail *audit.Trail
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewAccessCodeService(
	codes *repository.AccessCodeRepository,
	trail *audit.Trail,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AccessCodeService {
	return &AccessCodeService{codes: codes, trail: trail, cfg: cfg, log: log}
}

// Generate issues a fresh single-use code. Only admins may issue codes;
// the transport gate is re-checked here.
func (s *AccessCodeService) Generate(ctx context.Context, issuer session.Session, validDays int) (models.AccessCode, error) {
	if issuer.Role != models.UserRoleAdmin {
		return models.AccessCode{}, apperr.New(apperr.KindForbidden, "admin access required")
	}

	if validDays <= 0 {
		validDays = s.cfg.Security.AccessCodeDays
	}

	code, err := security.GenerateAccessCode()
	if err != nil {
		return models.AccessCode{}, apperr.Wrap(apperr.KindInternal, "code generation failed", err)
	}

	now := time.Now().UTC()
	rec := models.AccessCode{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.AddDate(0, 0, validDays),
		ValidDays: validDays,
		CreatedBy: issuer.Username,
	}
	if err := s.codes.Save(ctx, rec); err != nil {
		return models.AccessCode{}, err
	}

	s.trail.Record("generate_access_code", issuer.Username, map[string]string{"code": code})
	return rec, nil
}

// Validate reads a code and checks it is redeemable: present, unused and
// unexpired, in that order.
func (s *AccessCodeService) Validate(ctx context.Context, code string) (models.AccessCode, error) {
	rec, err := s.codes.Get(ctx, code)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return models.AccessCode{}, apperr.New(apperr.KindNotFound, "unknown access code")
		}
		return models.AccessCode{}, err
	}
	if rec.Used {
		return models.AccessCode{}, apperr.New(apperr.KindConflict, "access code already used")
	}
	if rec.Expired(time.Now().UTC()) {
		return models.AccessCode{}, apperr.New(apperr.KindUnauthorized, "access code expired")
	}
	return rec, nil
}

// MarkUsed flips the used flag and writes the record back. The store has
// no compare-and-swap, so two simultaneous redeemers can both have
// observed used=false; the rare double registration is tolerated over
// adding external locking.
func (s *AccessCodeService) MarkUsed(ctx context.Context, rec models.AccessCode, username string) error {
	now := time.Now().UTC()
	rec.Used = true
	rec.UsedBy = username
	rec.UsedByAt = &now
	return s.codes.Save(ctx, rec)
}

// Redeem is the full single-use consumption: read, check, write back.
func (s *AccessCodeService) Redeem(ctx context.Context, code, username string) error {
	rec, err := s.Validate(ctx, code)
	if err != nil {
		return err
	}
	return s.MarkUsed(ctx, rec, username)
}

// List returns every issued code, newest first.
func (s *AccessCodeService) List(ctx context.Context) ([]models.AccessCode, error) {
	return s.codes.List(ctx)
}
