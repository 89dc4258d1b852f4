package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/riplabs/annotdb-backend/internal/data/repos"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/cache"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

// BatchSummary is one row of a batch listing. Timestamps on the wire are
// seconds since the Unix epoch, UTC.
type BatchSummary struct {
	BatchNumber uint   `json:"batch_number"`
	Timestamp   int64  `json:"timestamp"`
	UserID      string `json:"user_id"`
}

type BatchPage struct {
	NumPages int            `json:"num_pages"`
	Batches  []BatchSummary `json:"batches"`
}

// AnnotationRecord is one annotation within a batch, including its hidden
// state. HiddenAt/HiddenBy are only present for hidden rows.
type AnnotationRecord struct {
	Account  string  `json:"account"`
	Key      string  `json:"key"`
	Value    string  `json:"value"`
	Hidden   bool    `json:"hidden"`
	HiddenAt *int64  `json:"hidden_at,omitempty"`
	HiddenBy *string `json:"hidden_by,omitempty"`
}

type BatchDetail struct {
	BatchNumber uint               `json:"batch_number"`
	Timestamp   int64              `json:"timestamp"`
	UserID      string             `json:"user_id"`
	Annotations []AnnotationRecord `json:"annotations"`
}

type AccountPage struct {
	NumPages int      `json:"num_pages"`
	Accounts []string `json:"accounts"`
}

// HistoryEntry is one change to an annotation key over time.
type HistoryEntry struct {
	BatchNumber uint    `json:"batch_number"`
	Value       string  `json:"value"`
	Timestamp   int64   `json:"timestamp"`
	UserID      string  `json:"user_id"`
	Hidden      bool    `json:"hidden"`
	HiddenAt    *int64  `json:"hidden_at,omitempty"`
	HiddenBy    *string `json:"hidden_by,omitempty"`
}

// KeyHistory groups an account's history rows for one annotation key, most
// recent change first.
type KeyHistory struct {
	Key     string         `json:"key"`
	History []HistoryEntry `json:"history"`
}

type QueryService interface {
	ListBatches(ctx context.Context, page, rpp int) (*BatchPage, error)
	GetBatch(ctx context.Context, batchNum uint) (*BatchDetail, error)
	ListAccounts(ctx context.Context, page, rpp int) (*AccountPage, error)
	// CurrentAnnotations returns the currently visible annotations for an
	// account, sorted by key case-insensitively.
	CurrentAnnotations(ctx context.Context, address string) ([]KeyValue, error)
	// AccountHistory returns every annotation ever applied to an account,
	// hidden rows included, grouped by key.
	AccountHistory(ctx context.Context, address string) ([]KeyHistory, error)
}

type queryService struct {
	db    *gorm.DB
	log   *logger.Logger
	cache *cache.Cache

	accounts    repos.AccountRepo
	batches     repos.AnnotationBatchRepo
	annotations repos.AnnotationRepo
	current     repos.CurrentAnnotationRepo
}

func NewQueryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cch *cache.Cache,
	accounts repos.AccountRepo,
	batches repos.AnnotationBatchRepo,
	annotations repos.AnnotationRepo,
	current repos.CurrentAnnotationRepo,
) QueryService {
	return &queryService{
		db:          db,
		log:         baseLog.With("service", "QueryService"),
		cache:       cch,
		accounts:    accounts,
		batches:     batches,
		annotations: annotations,
		current:     current,
	}
}

func (s *queryService) ListBatches(ctx context.Context, page, rpp int) (*BatchPage, error) {
	total, err := s.batches.Count(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	offset, limit, numPages := pageBounds(page, rpp, total)

	rows, err := s.batches.List(ctx, nil, limit, offset)
	if err != nil {
		return nil, storageErr(err)
	}

	batches := make([]BatchSummary, 0, len(rows))
	for _, batch := range rows {
		batches = append(batches, BatchSummary{
			BatchNumber: batch.ID,
			Timestamp:   batch.Timestamp.Unix(),
			UserID:      batch.UserID,
		})
	}
	return &BatchPage{NumPages: numPages, Batches: batches}, nil
}

func (s *queryService) GetBatch(ctx context.Context, batchNum uint) (*BatchDetail, error) {
	batch, err := s.batches.GetByID(ctx, nil, batchNum)
	if err != nil {
		return nil, storageErr(err)
	}
	if batch == nil {
		return nil, apierr.NotFound("no such batch")
	}

	rows, err := s.annotations.ListByBatch(ctx, nil, batch.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	annotations := make([]AnnotationRecord, 0, len(rows))
	for _, row := range rows {
		record := AnnotationRecord{
			Account: row.Account.Address,
			Key:     row.Key.Key,
			Value:   row.Value.Value,
			Hidden:  row.Hidden,
		}
		if row.Hidden && row.HiddenAt != nil {
			hiddenAt := row.HiddenAt.Unix()
			record.HiddenAt = &hiddenAt
			record.HiddenBy = row.HiddenBy
		}
		annotations = append(annotations, record)
	}

	return &BatchDetail{
		BatchNumber: batch.ID,
		Timestamp:   batch.Timestamp.Unix(),
		UserID:      batch.UserID,
		Annotations: annotations,
	}, nil
}

func (s *queryService) ListAccounts(ctx context.Context, page, rpp int) (*AccountPage, error) {
	total, err := s.accounts.Count(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	offset, limit, numPages := pageBounds(page, rpp, total)

	rows, err := s.accounts.List(ctx, nil, limit, offset)
	if err != nil {
		return nil, storageErr(err)
	}

	accounts := make([]string, 0, len(rows))
	for _, account := range rows {
		accounts = append(accounts, account.Address)
	}
	return &AccountPage{NumPages: numPages, Accounts: accounts}, nil
}

func (s *queryService) CurrentAnnotations(ctx context.Context, address string) ([]KeyValue, error) {
	if cached, ok := s.cache.GetAccountAnnotations(ctx, address); ok {
		annotations := make([]KeyValue, 0, len(cached))
		for _, kv := range cached {
			annotations = append(annotations, KeyValue{Key: kv.Key, Value: kv.Value})
		}
		return annotations, nil
	}

	account, err := s.accounts.GetByAddress(ctx, nil, address)
	if err != nil {
		return nil, storageErr(err)
	}
	if account == nil {
		return nil, apierr.NotFound("no such account")
	}

	rows, err := s.current.ListByAccount(ctx, nil, account.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	annotations := make([]KeyValue, 0, len(rows))
	cached := make([]cache.KeyValue, 0, len(rows))
	for _, row := range rows {
		annotations = append(annotations, KeyValue{Key: row.Key.Key, Value: row.Value.Value})
		cached = append(cached, cache.KeyValue{Key: row.Key.Key, Value: row.Value.Value})
	}
	s.cache.SetAccountAnnotations(ctx, address, cached)
	return annotations, nil
}

func (s *queryService) AccountHistory(ctx context.Context, address string) ([]KeyHistory, error) {
	account, err := s.accounts.GetByAddress(ctx, nil, address)
	if err != nil {
		return nil, storageErr(err)
	}
	if account == nil {
		return nil, apierr.NotFound("no such account")
	}

	rows, err := s.annotations.ListByAccount(ctx, nil, account.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	// Group by key, case-insensitively, keeping the order in which each key
	// first appears when walking the history newest-first.
	var groups []KeyHistory
	index := make(map[string]int)
	for _, row := range rows {
		norm := strings.ToLower(row.Key.Key)
		i, ok := index[norm]
		if !ok {
			groups = append(groups, KeyHistory{Key: row.Key.Key})
			i = len(groups) - 1
			index[norm] = i
		}

		entry := HistoryEntry{
			BatchNumber: row.BatchID,
			Value:       row.Value.Value,
			Timestamp:   row.Batch.Timestamp.Unix(),
			UserID:      row.Batch.UserID,
			Hidden:      row.Hidden,
		}
		if row.Hidden && row.HiddenAt != nil {
			hiddenAt := row.HiddenAt.Unix()
			entry.HiddenAt = &hiddenAt
			entry.HiddenBy = row.HiddenBy
		}
		groups[i].History = append(groups[i].History, entry)
	}
	return groups, nil
}
