package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/davidmns/finsync/internal/adapter"
	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/catalog"
	"github.com/davidmns/finsync/internal/config"
	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/repository"
)

// fetchAllConcurrency bounds how many entities a fetch-all run drives at once.
const fetchAllConcurrency = 4

// Repositories bundles the storage-layer dependencies of the services.
type Repositories struct {
	Entities      *repository.EntityRepository
	Credentials   *repository.CredentialsRepository
	Sessions      *repository.SessionRepository
	FetchRecords  *repository.FetchRecordRepository
	Positions     *repository.PositionRepository
	Transactions  *repository.TransactionRepository
	Contributions *repository.ContributionRepository
	Historic      *repository.HistoricRepository
	VirtualData   *repository.VirtualImportRepository
}

// FetchService drives one entity adapter through the uniform fetch
// lifecycle: login, session reuse, feature dispatch, persistence, cooldown
// and per-entity mutual exclusion.
type FetchService struct {
	uow      *repository.UnitOfWork
	repos    Repositories
	catalog  *catalog.Catalog
	adapters *adapter.Registry
	locks    *LockRegistry

	// scrape is re-read on every request so configuration changes are
	// picked up without a restart.
	scrape func() config.ScrapeConfig

	now func() time.Time
}

// NewFetchService creates a FetchService.
func NewFetchService(
	uow *repository.UnitOfWork,
	repos Repositories,
	cat *catalog.Catalog,
	adapters *adapter.Registry,
	locks *LockRegistry,
	scrape func() config.ScrapeConfig,
) *FetchService {
	return &FetchService{
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
func (s *FetchService) WithClock(now func() time.Time) *FetchService {
	s.now = now
	return s
}

// Execute runs one fetch request end to end. Known outcomes surface as
// FetchResult codes; unknown failures return an error after the in-flight
// transaction has rolled back and the per-entity lock is released.
func (s *FetchService) Execute(ctx context.Context, req FetchRequest) (FetchResult, error) {
	entity, err := s.repos.Entities.GetByID(ctx, req.EntityID)
	if err != nil {
		return FetchResult{}, err
	}
	s.catalog.Enrich(entity)

	scrape := s.scrape()
	if !scrape.EntityEnabled(entity.ID) {
		return FetchResult{Code: FetchDisabled}, nil
	}

	release, ok := s.locks.TryAcquire(entityLockName(entity.ID))
	if !ok {
		return FetchResult{Code: FetchExecutionConflict}, nil
	}
	defer release()

	features := model.NormalizeFeatures(req.Features)

	// Cooldown check before any adapter traffic.
	if !req.SkipCooldown {
		for _, feature := range features {
			cooldown := s.cooldownFor(feature, scrape)
			if cooldown <= 0 {
				continue
			}

			record, err := s.repos.FetchRecords.Get(ctx, entity.ID, feature)
			if err != nil {
				return FetchResult{}, err
			}
			if record == nil {
				continue
			}

			elapsed := s.now().Sub(record.Date)
			if elapsed < cooldown {
				return FetchResult{
					Code: FetchCooldown,
					Details: &FetchDetails{Cooldown: &CooldownDetails{
						LastUpdate: record.Date,
						Wait:       cooldown - elapsed,
					}},
				}, nil
			}
		}
	}

	credentials, err := s.repos.Credentials.Get(ctx, entity.ID)
	if errors.Is(err, apperrors.ErrCredentialsNotFound) {
		return FetchResult{Code: FetchNoCredentialsAvailable}, nil
	}
	if err != nil {
		return FetchResult{}, err
	}

	a, err := s.adapters.Get(entity.ID)
	if err != nil {
		return FetchResult{}, err
	}

	loginResult, session, err := s.login(ctx, scrape, entity.ID, a, credentials.Values, req.TwoFactor, req.LoginOptions)
	if err != nil {
		return FetchResult{}, err
	}

	switch loginResult.Code {
	case adapter.LoginCreated:
		if err := s.persistLogin(ctx, *entity, credentials.Values, loginResult); err != nil {
			return FetchResult{}, err
		}
		session = loginResult.Session
	case adapter.LoginResumed:
		if err := s.repos.Credentials.UpdateLastUsage(ctx, entity.ID, s.now()); err != nil {
			return FetchResult{}, err
		}
	default:
		// Deferred and terminal codes persist nothing.
		return FetchResult{
			Code: fetchCodeForLogin(loginResult.Code),
			Details: &FetchDetails{
				ProcessID: loginResult.ProcessID,
				Message:   loginResult.Details,
			},
		}, nil
	}

	data := &FetchedData{}
	for _, feature := range features {
		if err := s.fetchFeature(ctx, scrape, entity, a, session, feature, req.FetchOptions, data); err != nil {
			// Fatal for the remaining features; committed ones stay committed.
			return FetchResult{}, err
		}
	}

	return FetchResult{Code: FetchCompleted, Data: data}, nil
}

// FetchAll fetches every entity with a registered adapter, bounded by
// fetchAllConcurrency. Per-entity failures are logged and do not abort the
// run; scheduled fetches avoid triggering manual logins.
func (s *FetchService) FetchAll(ctx context.Context) (map[string]FetchResult, error) {
	entities, err := s.repos.Entities.List(ctx)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	results := make(map[string]FetchResult)

	g := &errgroup.Group{}
	g.SetLimit(fetchAllConcurrency)

	for _, e := range entities {
		e := e
		if _, err := s.adapters.Get(e.ID); err != nil {
			continue
		}
		s.catalog.Enrich(&e)

		g.Go(func() error {
			result, err := s.Execute(ctx, FetchRequest{
				EntityID:     e.ID,
				Features:     e.Features,
				LoginOptions: adapter.LoginOptions{AvoidNewLogin: true},
			})
			if err != nil {
				log.Printf("Fetch of %s failed: %v", e.Name, err)
				result = FetchResult{Code: FetchUnexpectedLoginError}
			}

			mu.Lock()
			results[e.ID] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// cooldownFor returns the configured cooldown window of one feature. Only
// Position has one; the code reads a single configured value.
func (s *FetchService) cooldownFor(feature model.Feature, scrape config.ScrapeConfig) time.Duration {
	if feature == model.FeaturePosition {
		return scrape.UpdateCooldown
	}
	return 0
}

// login loads the stored session and runs the adapter's login step under the
// per-entity rate limit and the configured deadline. Adapter errors are
// logged and folded into the UnexpectedError code; they never bubble raw.
func (s *FetchService) login(
	ctx context.Context,
	scrape config.ScrapeConfig,
	entityID string,
	a adapter.Adapter,
	credentials map[string]string,
	twoFactor *adapter.TwoFactor,
	options adapter.LoginOptions,
) (adapter.LoginResult, *model.Session, error) {
	stored, err := s.repos.Sessions.Get(ctx, entityID)
	if err != nil && !errors.Is(err, apperrors.ErrSessionNotFound) {
		return adapter.LoginResult{}, nil, err
	}

	params := adapter.LoginParams{
		Credentials: credentials,
		TwoFactor:   twoFactor,
		Options:     options,
		Session:     stored,
	}
	if stored == nil || stored.Expired(s.now()) {
		params.Session = nil
		params.Options.ForceNewSession = true
	}

	if err := s.adapters.Wait(ctx, entityID); err != nil {
		return adapter.LoginResult{}, nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, scrape.AdapterTimeout)
	defer cancel()

	result, err := a.Login(callCtx, params)
	if err != nil {
		if ctx.Err() != nil {
			return adapter.LoginResult{}, nil, ctx.Err()
		}
		log.Printf("Adapter login for entity %s failed: %v", entityID, err)
		return adapter.LoginResult{Code: adapter.LoginUnexpectedError}, nil, nil
	}

	return result, params.Session, nil
}

// persistLogin stores the outcome of a Created login in one transaction:
// credentials are replaced wholesale minus InternalTemp fields, and the
// prior session is swapped for the new one when the adapter returned it.
func (s *FetchService) persistLogin(ctx context.Context, entity model.Entity, credentials map[string]string, result adapter.LoginResult) error {
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
			if err := sessRepo.Save(ctx, &session); err != nil {
				return err
			}
		}
		return nil
	})
}

// fetchFeature runs one feature end to end: capability check, rate-limited
// adapter call under the configured deadline, then persistence and the
// fetch-record upsert inside a single transaction.
func (s *FetchService) fetchFeature(
	ctx context.Context,
	scrape config.ScrapeConfig,
	entity *model.Entity,
	a adapter.Adapter,
	session *model.Session,
	feature model.Feature,
	opts adapter.FetchOptions,
	data *FetchedData,
) error {
	if !adapter.Supports(a, feature) {
		return fmt.Errorf("%w: %s", apperrors.ErrFeatureNotSupported, feature)
	}

	if err := s.adapters.Wait(ctx, entity.ID); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, scrape.AdapterTimeout)
	defer cancel()

	now := s.now()

	switch feature {
	case model.FeaturePosition:
		position, err := a.(adapter.PositionFetcher).FetchGlobalPosition(callCtx, session)
		if err != nil {
			return fmt.Errorf("position fetch failed: %w", err)
		}
		stampPosition(&position, entity.ID, now)

		err = s.uow.Tx(ctx, func(tx *sql.Tx) error {
			posRepo := s.repos.Positions.WithTx(tx)
			if err := posRepo.DeleteForDay(ctx, entity.ID, position.Date, model.SourceReal); err != nil {
				return err
			}
			if err := posRepo.Insert(ctx, &position); err != nil {
				return err
			}
			return s.repos.FetchRecords.WithTx(tx).Upsert(ctx, entity.ID, feature, now)
		})
		if err != nil {
			return err
		}
		data.Position = &position

	case model.FeatureAutoContributions:
		contributions, err := a.(adapter.ContributionsFetcher).FetchAutoContributions(callCtx, session)
		if err != nil {
			return fmt.Errorf("contributions fetch failed: %w", err)
		}
		for i := range contributions.Periodic {
			c := &contributions.Periodic[i]
			if c.ID == "" {
				c.ID = uuid.New().String()
			}
			c.EntityID = entity.ID
		}

		err = s.uow.Tx(ctx, func(tx *sql.Tx) error {
			if err := s.repos.Contributions.WithTx(tx).ReplaceForEntity(ctx, entity.ID, contributions.Periodic); err != nil {
				return err
			}
			return s.repos.FetchRecords.WithTx(tx).Upsert(ctx, entity.ID, feature, now)
		})
		if err != nil {
			return err
		}
		data.Contributions = &contributions

	case model.FeatureTransactions:
		refs, err := s.repos.Transactions.Refs(ctx, entity.ID)
		if err != nil {
			return err
		}

		txs, err := a.(adapter.TransactionsFetcher).FetchTransactions(callCtx, session, refs, opts)
		if err != nil {
			return fmt.Errorf("transactions fetch failed: %w", err)
		}
		stampTransactions(&txs, entity.ID)

		err = s.uow.Tx(ctx, func(tx *sql.Tx) error {
			txRepo := s.repos.Transactions.WithTx(tx)
			if err := txRepo.InsertAccountTransactions(ctx, txs.Account); err != nil {
				return err
			}
			if err := txRepo.InsertInvestmentTransactions(ctx, txs.Investment); err != nil {
				return err
			}
			return s.repos.FetchRecords.WithTx(tx).Upsert(ctx, entity.ID, feature, now)
		})
		if err != nil {
			return err
		}
		data.Transactions = &txs

	case model.FeatureHistoric:
		historic, err := a.(adapter.HistoricFetcher).FetchHistoricPosition(callCtx, session)
		if err != nil {
			return fmt.Errorf("historic fetch failed: %w", err)
		}
		for i := range historic.Entries {
			e := &historic.Entries[i]
			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			e.EntityID = entity.ID
		}

		err = s.uow.Tx(ctx, func(tx *sql.Tx) error {
			if err := s.repos.Historic.WithTx(tx).ReplaceForEntity(ctx, entity.ID, historic.Entries); err != nil {
				return err
			}
			return s.repos.FetchRecords.WithTx(tx).Upsert(ctx, entity.ID, feature, now)
		})
		if err != nil {
			return err
		}
		data.Historic = &historic
	}

	return nil
}

// stampPosition fills in the snapshot identity the adapter leaves blank.
func stampPosition(p *model.GlobalPosition, entityID string, now time.Time) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.EntityID = entityID
	p.Source = model.SourceReal
	if p.Date.IsZero() {
		p.Date = now
	}

	for i := range p.Accounts {
		if p.Accounts[i].ID == "" {
			p.Accounts[i].ID = uuid.New().String()
		}
	}
	for i := range p.Investments {
		if p.Investments[i].ID == "" {
			p.Investments[i].ID = uuid.New().String()
		}
	}
	for i := range p.Loans {
		if p.Loans[i].ID == "" {
			p.Loans[i].ID = uuid.New().String()
		}
	}
}

// stampTransactions fills in identity and provenance on adapter output.
func stampTransactions(txs *model.Transactions, entityID string) {
	for i := range txs.Account {
		tx := &txs.Account[i]
		if tx.ID == "" {
			tx.ID = uuid.New().String()
		}
		tx.EntityID = entityID
		tx.IsReal = true
		tx.Source = model.SourceReal
	}
	for i := range txs.Investment {
		tx := &txs.Investment[i]
		if tx.ID == "" {
			tx.ID = uuid.New().String()
		}
		tx.EntityID = entityID
		tx.IsReal = true
		tx.Source = model.SourceReal
	}
}

// entityLockName namespaces the per-entity lock.
func entityLockName(entityID string) string {
	return "entity:" + entityID
}
