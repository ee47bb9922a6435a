package service

import (
	"context"

	"github.com/davidmns/finsync/internal/catalog"
	"github.com/davidmns/finsync/internal/model"
)

// DataService is the read side: it serves what past fetches and imports
// persisted, without touching any adapter.
type DataService struct {
	repos   Repositories
	catalog *catalog.Catalog
}

// NewDataService creates a DataService.
func NewDataService(repos Repositories, cat *catalog.Catalog) *DataService {
	return &DataService{repos: repos, catalog: cat}
}

// ListEntities returns every known entity enriched with its catalog
// template and feature set.
func (s *DataService) ListEntities(ctx context.Context) ([]model.Entity, error) {
	entities, err := s.repos.Entities.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entities {
		s.catalog.Enrich(&entities[i])
	}
	return entities, nil
}

// LatestPosition returns the most recent snapshot of the entity for the
// given source, children included.
func (s *DataService) LatestPosition(ctx context.Context, entityID string, source model.ProductSource) (*model.GlobalPosition, error) {
	if _, err := s.repos.Entities.GetByID(ctx, entityID); err != nil {
		return nil, err
	}
	return s.repos.Positions.GetLatest(ctx, entityID, source)
}

// EntityTransactions returns every stored transaction of the entity.
func (s *DataService) EntityTransactions(ctx context.Context, entityID string) (model.Transactions, error) {
	if _, err := s.repos.Entities.GetByID(ctx, entityID); err != nil {
		return model.Transactions{}, err
	}

	account, err := s.repos.Transactions.ListAccountTransactions(ctx, entityID)
	if err != nil {
		return model.Transactions{}, err
	}
	investment, err := s.repos.Transactions.ListInvestmentTransactions(ctx, entityID)
	if err != nil {
		return model.Transactions{}, err
	}

	return model.Transactions{Account: account, Investment: investment}, nil
}

// EntityContributions returns the last fetched contribution set of the entity.
func (s *DataService) EntityContributions(ctx context.Context, entityID string) ([]model.AutoContribution, error) {
	if _, err := s.repos.Entities.GetByID(ctx, entityID); err != nil {
		return nil, err
	}
	return s.repos.Contributions.ListByEntity(ctx, entityID)
}

// EntityHistoric returns the last fetched historic set of the entity.
func (s *DataService) EntityHistoric(ctx context.Context, entityID string) ([]model.HistoricEntry, error) {
	if _, err := s.repos.Entities.GetByID(ctx, entityID); err != nil {
		return nil, err
	}
	return s.repos.Historic.ListByEntity(ctx, entityID)
}

// EntityFetchRecords returns the per-feature fetch timestamps of the entity.
func (s *DataService) EntityFetchRecords(ctx context.Context, entityID string) ([]model.FetchRecord, error) {
	if _, err := s.repos.Entities.GetByID(ctx, entityID); err != nil {
		return nil, err
	}
	return s.repos.FetchRecords.ListByEntity(ctx, entityID)
}
