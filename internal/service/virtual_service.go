package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/davidmns/finsync/internal/apperrors"
	"github.com/davidmns/finsync/internal/config"
	"github.com/davidmns/finsync/internal/model"
	"github.com/davidmns/finsync/internal/repository"
)

// virtualLockName serializes virtual imports process-wide.
const virtualLockName = "virtual:import"

// SheetMapping describes one sheet file inside the import directory.
type SheetMapping struct {
	File   string `json:"file"`
	Kind   string `json:"kind"` // "position" or "transactions"
	Source string `json:"source"`
}

// VirtualService ingests previously exported tabular data as if it came
// from adapters. Entities named in the sheets are auto-created with manual
// origin; produced records carry the Sheets source and are never real.
type VirtualService struct {
	uow     *repository.UnitOfWork
	repos   Repositories
	locks   *LockRegistry
	virtual func() config.VirtualConfig

	now func() time.Time
}

// NewVirtualService creates a VirtualService.
func NewVirtualService(
	uow *repository.UnitOfWork,
	repos Repositories,
	locks *LockRegistry,
	virtual func() config.VirtualConfig,
) *VirtualService {
	return &VirtualService{
		uow:     uow,
		repos:   repos,
		locks:   locks,
		virtual: virtual,
		now:     time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *VirtualService) WithClock(now func() time.Time) *VirtualService {
	s.now = now
	return s
}

// Import runs one spreadsheet import batch. Concurrent runs are rejected
// with an ExecutionConflict result; a single import_id groups everything
// the batch produced.
func (s *VirtualService) Import(ctx context.Context) (VirtualFetchResult, error) {
	cfg := s.virtual()
	if cfg.ImportDir == "" {
		return VirtualFetchResult{Code: FetchCompleted}, nil
	}

	release, ok := s.locks.TryAcquire(virtualLockName)
	if !ok {
		return VirtualFetchResult{Code: FetchExecutionConflict}, nil
	}
	defer release()

	mappings, err := s.loadMappings(cfg.ImportDir)
	if err != nil {
		return VirtualFetchResult{}, err
	}

	result := VirtualFetchResult{
		Code:     FetchCompleted,
		ImportID: uuid.New().String(),
	}

	for _, mapping := range mappings {
		rows, err := readSheet(filepath.Join(cfg.ImportDir, mapping.File))
		if err != nil {
			return VirtualFetchResult{}, err
		}

		switch mapping.Kind {
		case "position":
			count, err := s.importPositions(ctx, result.ImportID, mapping, rows)
			if err != nil {
				return VirtualFetchResult{}, err
			}
			result.Positions += count
		case "transactions":
			count, err := s.importTransactions(ctx, result.ImportID, mapping, rows)
			if err != nil {
				return VirtualFetchResult{}, err
			}
			result.Txs += count
		default:
			return VirtualFetchResult{}, fmt.Errorf("%w: unknown sheet kind %q", apperrors.ErrFailedToImportVirtualData, mapping.Kind)
		}
	}

	return result, nil
}

// loadMappings reads the per-sheet mapping descriptor from the import directory.
func (s *VirtualService) loadMappings(dir string) ([]SheetMapping, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "mappings.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet mappings: %w", err)
	}

	var mappings []SheetMapping
	if err := json.Unmarshal(raw, &mappings); err != nil {
		return nil, fmt.Errorf("failed to parse sheet mappings: %w", err)
	}
	return mappings, nil
}

// readSheet parses a CSV file into header-keyed row maps.
func readSheet(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse sheet: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// importPositions groups position rows by (entity, date) and persists one
// Sheets-sourced snapshot per group, replacing any prior snapshot for the
// same day. Every snapshot registers one bookkeeping row under the batch.
func (s *VirtualService) importPositions(ctx context.Context, importID string, mapping SheetMapping, rows []map[string]string) (int, error) {
	type groupKey struct {
		entityID string
		day      string
	}

	groups := make(map[groupKey]*model.GlobalPosition)
	order := []groupKey{}

	for _, row := range rows {
		entity, err := s.resolveEntity(ctx, row["entity"])
		if err != nil {
			return 0, err
		}

		date, err := repository.ParseTime(row["date"])
		if err != nil {
			return 0, err
		}

		key := groupKey{entityID: entity.ID, day: date.Format("2006-01-02")}
		position, ok := groups[key]
		if !ok {
			position = &model.GlobalPosition{
				ID:       uuid.New().String(),
				EntityID: entity.ID,
				Date:     date,
				Source:   model.SourceSheets,
			}
			groups[key] = position
			order = append(order, key)
		}

		if err := appendProduct(position, row); err != nil {
			return 0, err
		}
	}

	for _, key := range order {
		position := groups[key]

		err := s.uow.Tx(ctx, func(tx *sql.Tx) error {
			posRepo := s.repos.Positions.WithTx(tx)
			if err := posRepo.DeleteForDay(ctx, position.EntityID, position.Date, model.SourceSheets); err != nil {
				return err
			}
			if err := posRepo.Insert(ctx, position); err != nil {
				return err
			}
			return s.repos.VirtualData.WithTx(tx).Insert(ctx, model.VirtualDataImport{
				ImportID:         importID,
				GlobalPositionID: position.ID,
				Source:           mapping.Source,
				Date:             s.now(),
				Feature:          model.FeaturePosition,
				EntityID:         position.EntityID,
			})
		})
		if err != nil {
			return 0, err
		}
	}

	return len(order), nil
}

// appendProduct maps one sheet row onto the snapshot's product lists.
func appendProduct(position *model.GlobalPosition, row map[string]string) error {
	value, err := strconv.ParseFloat(row["value"], 64)
	if err != nil {
		return fmt.Errorf("%w: bad value %q", apperrors.ErrFailedToImportVirtualData, row["value"])
	}

	switch row["product"] {
	case "account":
		position.Accounts = append(position.Accounts, model.Account{
			ID:       uuid.New().String(),
			Name:     row["name"],
			Total:    value,
			Currency: row["currency"],
		})
	case "fund", "stock", "crypto", "deposit", "crowdlending":
		position.Investments = append(position.Investments, model.Investment{
			ID:          uuid.New().String(),
			Type:        investmentTypeFor(row["product"]),
			Name:        row["name"],
			MarketValue: value,
			Currency:    row["currency"],
		})
	case "loan":
		position.Loans = append(position.Loans, model.Loan{
			ID:            uuid.New().String(),
			Name:          row["name"],
			CurrentAmount: value,
			Currency:      row["currency"],
		})
	default:
		return fmt.Errorf("%w: unknown product %q", apperrors.ErrFailedToImportVirtualData, row["product"])
	}
	return nil
}

func investmentTypeFor(product string) model.InvestmentType {
	switch product {
	case "fund":
		return model.InvestmentTypeFund
	case "stock":
		return model.InvestmentTypeStock
	case "crypto":
		return model.InvestmentTypeCrypto
	case "deposit":
		return model.InvestmentTypeDeposit
	case "crowdlending":
		return model.InvestmentTypeCrowdlending
	}
	return model.InvestmentTypeFund
}

// importTransactions inserts sheet transactions deduplicated against the
// registry of non-real refs, registering one bookkeeping row per entity.
func (s *VirtualService) importTransactions(ctx context.Context, importID string, mapping SheetMapping, rows []map[string]string) (int, error) {
	known, err := s.repos.Transactions.VirtualRefs(ctx)
	if err != nil {
		return 0, err
	}

	byEntity := make(map[string][]model.AccountTransaction)
	entityOrder := []string{}

	for _, row := range rows {
		if known[row["ref"]] {
			continue
		}

		entity, err := s.resolveEntity(ctx, row["entity"])
		if err != nil {
			return 0, err
		}

		date, err := repository.ParseTime(row["date"])
		if err != nil {
			return 0, err
		}

		amount, err := strconv.ParseFloat(row["amount"], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad amount %q", apperrors.ErrFailedToImportVirtualData, row["amount"])
		}

		if _, ok := byEntity[entity.ID]; !ok {
			entityOrder = append(entityOrder, entity.ID)
		}
		byEntity[entity.ID] = append(byEntity[entity.ID], model.AccountTransaction{
			ID:       uuid.New().String(),
			Ref:      row["ref"],
			EntityID: entity.ID,
			Name:     row["name"],
			Date:     date,
			Amount:   amount,
			Currency: row["currency"],
			Type:     row["type"],
			IsReal:   false,
			Source:   model.SourceSheets,
		})
		known[row["ref"]] = true
	}

	inserted := 0
	for _, entityID := range entityOrder {
		txs := byEntity[entityID]

		err := s.uow.Tx(ctx, func(tx *sql.Tx) error {
			if err := s.repos.Transactions.WithTx(tx).InsertAccountTransactions(ctx, txs); err != nil {
				return err
			}
			return s.repos.VirtualData.WithTx(tx).Insert(ctx, model.VirtualDataImport{
				ImportID: importID,
				Source:   mapping.Source,
				Date:     s.now(),
				Feature:  model.FeatureTransactions,
				EntityID: entityID,
			})
		})
		if err != nil {
			return 0, err
		}
		inserted += len(txs)
	}

	return inserted, nil
}

// resolveEntity finds the entity named in a sheet row, creating it with
// manual origin when it is new.
func (s *VirtualService) resolveEntity(ctx context.Context, name string) (*model.Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: row without entity", apperrors.ErrFailedToImportVirtualData)
	}

	entity, err := s.repos.Entities.GetByName(ctx, name)
	if err == nil {
		return entity, nil
	}
	if !errors.Is(err, apperrors.ErrEntityNotFound) {
		return nil, err
	}

	created := model.Entity{
		ID:     uuid.New().String(),
		Name:   name,
		Type:   model.EntityTypeFinancialInstitution,
		Origin: model.OriginManual,
	}
	if err := s.repos.Entities.Create(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}
