package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/davidmns/finsync/internal/adapter"
	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/catalog"
	"github.com/davidmns/finsync/internal/config"
	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/repository"
)

// LoginService runs the login-only slice of the fetch lifecycle: connecting
// an entity for the first time and disconnecting it again.
type LoginService struct {
	uow      *repository.UnitOfWork
	repos    Repositories
	catalog  *catalog.Catalog
	adapters *adapter.Registry
	locks    *LockRegistry
	scrape   func() config.ScrapeConfig

	now func() time.Time
}

// NewLoginService creates a LoginService.
func NewLoginService(
	uow *repository.UnitOfWork,
	repos Repositories,
	cat *catalog.Catalog,
	adapters *adapter.Registry,
	locks *LockRegistry,
	scrape func() config.ScrapeConfig,
) *LoginService {
	return &LoginService{
		uow:      uow,
		repos:    repos,
		catalog:  cat,
		adapters: adapters,
		locks:    locks,
		scrape:   scrape,
		now:      time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *LoginService) WithClock(now func() time.Time) *LoginService {
	s.now = now
	return s
}

// AddEntityCredentials validates the provided credential map against the
// entity's template, runs the adapter login, and persists credentials and
// session when the login created a fresh session. Deferred and terminal
// codes persist nothing.
func (s *LoginService) AddEntityCredentials(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	entity, err := s.repos.Entities.GetByID(ctx, req.EntityID)
	if err != nil {
		return LoginResponse{}, err
	}
	s.catalog.Enrich(entity)

	if err := catalog.ValidateCredentials(*entity, req.Credentials); err != nil {
		return LoginResponse{}, err
	}

	release, ok := s.locks.TryAcquire(entityLockName(entity.ID))
	if !ok {
		return LoginResponse{}, apperrors.ErrExecutionConflict
	}
	defer release()

	a, err := s.adapters.Get(entity.ID)
	if err != nil {
		return LoginResponse{}, err
	}

	if err := s.adapters.Wait(ctx, entity.ID); err != nil {
		return LoginResponse{}, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.scrape().AdapterTimeout)
	defer cancel()

	options := req.Options
	options.ForceNewSession = true

	result, err := a.Login(callCtx, adapter.LoginParams{
		Credentials: req.Credentials,
		TwoFactor:   req.TwoFactor,
		Options:     options,
	})
	if err != nil {
		if ctx.Err() != nil {
			return LoginResponse{}, ctx.Err()
		}
		log.Printf("Adapter login for entity %s failed: %v", entity.ID, err)
		return LoginResponse{Code: adapter.LoginUnexpectedError}, nil
	}

	if result.Code == adapter.LoginCreated {
		if err := s.persistLogin(ctx, *entity, req.Credentials, result); err != nil {
			return LoginResponse{}, err
		}
	}

	return LoginResponse{
		Code:      result.Code,
		ProcessID: result.ProcessID,
		Details:   result.Details,
	}, nil
}

// persistLogin mirrors the orchestrator's Created handling: replace the
// credential map minus InternalTemp fields and swap the session, atomically.
func (s *LoginService) persistLogin(ctx context.Context, entity model.Entity, credentials map[string]string, result adapter.LoginResult) error {
	now := s.now()
	stored := catalog.StripTemporary(entity, credentials)

	return s.uow.Tx(ctx, func(tx *sql.Tx) error {
		credRepo := s.repos.Credentials.WithTx(tx)
		sessRepo := s.repos.Sessions.WithTx(tx)

		if err := credRepo.Delete(ctx, entity.ID); err != nil {
			return err
		}
		if err := credRepo.Save(ctx, entity.ID, stored, now); err != nil {
			return err
		}

		if err := sessRepo.Delete(ctx, entity.ID); err != nil {
			return err
		}
		if result.Session != nil {
			session := *result.Session
			session.EntityID = entity.ID
			if session.CreatedAt.IsZero() {
				session.CreatedAt = now
			}
			return sessRepo.Save(ctx, &session)
		}
		return nil
	})
}

// Disconnect removes the entity's credentials and session in one
// transaction. Positions and transactions are kept.
func (s *LoginService) Disconnect(ctx context.Context, entityID string) error {
	if _, err := s.repos.Entities.GetByID(ctx, entityID); err != nil {
		return err
	}

	return s.uow.Tx(ctx, func(tx *sql.Tx) error {
		if err := s.repos.Credentials.WithTx(tx).Delete(ctx, entityID); err != nil {
			return err
		}
		return s.repos.Sessions.WithTx(tx).Delete(ctx, entityID)
	})
}
