package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/riplabs/annotdb-backend/internal/data/repos"
	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/cache"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

// BatchEntry is one annotation write within an uploaded batch.
type BatchEntry struct {
	Account string `json:"account"`
	Key     string `json:"key"`
	Value   string `json:"value"`
}

type AnnotationService interface {
	// AddBatch stores a batch of annotation writes atomically and returns the
	// new batch number. Entries are applied in array order; when two entries
	// in the batch target the same (account,key), the later one wins.
	AddBatch(ctx context.Context, userID string, annotations []BatchEntry) (uint, error)
	// Hide soft-deletes the non-hidden annotations of a batch, optionally
	// narrowed to one account and/or one annotation key, then recomputes the
	// current-value projection for every touched (account,key) pair.
	Hide(ctx context.Context, userID string, batchNum uint, account, annotationKey *string) error
	// RecalcCurrent rebuilds the entire current-annotation projection from
	// history. Maintenance operation for a projection that got out of step.
	RecalcCurrent(ctx context.Context) error
}

type annotationService struct {
	db    *gorm.DB
	log   *logger.Logger
	cache *cache.Cache

	accounts    repos.AccountRepo
	keys        repos.AnnotationKeyRepo
	values      repos.AnnotationValueRepo
	batches     repos.AnnotationBatchRepo
	annotations repos.AnnotationRepo
	current     repos.CurrentAnnotationRepo
}

func NewAnnotationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cch *cache.Cache,
	accounts repos.AccountRepo,
	keys repos.AnnotationKeyRepo,
	values repos.AnnotationValueRepo,
	batches repos.AnnotationBatchRepo,
	annotations repos.AnnotationRepo,
	current repos.CurrentAnnotationRepo,
) AnnotationService {
	return &annotationService{
		db:          db,
		log:         baseLog.With("service", "AnnotationService"),
		cache:       cch,
		accounts:    accounts,
		keys:        keys,
		values:      values,
		batches:     batches,
		annotations: annotations,
		current:     current,
	}
}

func (s *annotationService) AddBatch(ctx context.Context, userID string, annotations []BatchEntry) (uint, error) {
	if userID == "" {
		return 0, apierr.Validation("batch must include a 'user_id' entry")
	}
	if annotations == nil {
		return 0, apierr.Validation("batch must include an 'annotations' entry")
	}

	var batchNum uint
	touched := make(map[string]struct{})

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batch := &types.AnnotationBatch{
			Timestamp: time.Now().UTC(),
			UserID:    userID,
		}
		if err := s.batches.Create(ctx, tx, batch); err != nil {
			return err
		}

		for _, entry := range annotations {
			if entry.Account == "" {
				return apierr.Validation("annotation must include an 'account' entry")
			}
			if entry.Key == "" {
				return apierr.Validation("annotation must include a 'key' entry")
			}
			if entry.Value == "" {
				return apierr.Validation("annotation must include a 'value' entry")
			}

			account, err := s.accounts.GetOrCreate(ctx, tx, entry.Account)
			if err != nil {
				return err
			}
			key, err := s.keys.GetOrCreate(ctx, tx, entry.Key)
			if err != nil {
				return err
			}
			value, err := s.values.GetOrCreate(ctx, tx, entry.Value)
			if err != nil {
				return err
			}

			if err := s.annotations.Create(ctx, tx, &types.Annotation{
				BatchID:   batch.ID,
				AccountID: account.ID,
				KeyID:     key.ID,
				ValueID:   value.ID,
				Hidden:    false,
			}); err != nil {
				return err
			}

			// The newest batch always wins for this pair; within the batch,
			// array order decides.
			if err := s.current.Upsert(ctx, tx, account.ID, key.ID, value.ID); err != nil {
				return err
			}
			touched[account.Address] = struct{}{}
		}

		batchNum = batch.ID
		return nil
	})
	if err != nil {
		return 0, storageErr(err)
	}

	s.invalidate(ctx, touched)
	s.log.Info("batch added", "batch_num", batchNum, "user_id", userID, "annotations", len(annotations))
	return batchNum, nil
}

func (s *annotationService) Hide(ctx context.Context, userID string, batchNum uint, account, annotationKey *string) error {
	if userID == "" {
		return apierr.Validation("missing required 'user_id' parameter")
	}

	touched := make(map[string]struct{})

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batch, err := s.batches.GetByID(ctx, tx, batchNum)
		if err != nil {
			return err
		}
		if batch == nil {
			return apierr.NotFound("no such batch")
		}

		var accountID, keyID *uint
		if account != nil {
			acct, err := s.accounts.GetByAddress(ctx, tx, *account)
			if err != nil {
				return err
			}
			if acct == nil {
				return apierr.NotFound("no such account")
			}
			accountID = &acct.ID
		}
		if annotationKey != nil {
			key, err := s.keys.GetByKey(ctx, tx, *annotationKey)
			if err != nil {
				return err
			}
			if key == nil {
				return apierr.NotFound("no such annotation")
			}
			keyID = &key.ID
		}

		rows, err := s.annotations.ListVisibleForHide(ctx, tx, batch.ID, accountID, keyID)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(rows))
		pairs := make(map[repos.AccountKeyPair]struct{})
		for _, row := range rows {
			ids = append(ids, row.ID)
			pairs[repos.AccountKeyPair{AccountID: row.AccountID, KeyID: row.KeyID}] = struct{}{}
			touched[row.Account.Address] = struct{}{}
		}

		if err := s.annotations.MarkHidden(ctx, tx, ids, userID, time.Now().UTC()); err != nil {
			return err
		}

		for pair := range pairs {
			if err := s.recomputePair(ctx, tx, pair.AccountID, pair.KeyID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr(err)
	}

	s.invalidate(ctx, touched)
	s.log.Info("annotations hidden", "batch_num", batchNum, "user_id", userID)
	return nil
}

// recomputePair rebuilds the projection row for one (account,key) pair from
// the non-hidden history: the row from the batch with the latest timestamp
// wins, with the higher batch number breaking a timestamp tie. When nothing
// visible remains, the row points at the interned empty-string value; the
// projection row itself is never deleted.
func (s *annotationService) recomputePair(ctx context.Context, tx *gorm.DB, accountID, keyID uint) error {
	rows, err := s.annotations.ListVisibleByAccountKey(ctx, tx, accountID, keyID)
	if err != nil {
		return err
	}

	var latest *types.Annotation
	for _, row := range rows {
		if latest == nil {
			latest = row
			continue
		}
		if row.Batch.Timestamp.After(latest.Batch.Timestamp) ||
			(row.Batch.Timestamp.Equal(latest.Batch.Timestamp) && row.BatchID > latest.BatchID) {
			latest = row
		}
	}

	if latest != nil {
		return s.current.Upsert(ctx, tx, accountID, keyID, latest.ValueID)
	}

	empty, err := s.values.GetOrCreate(ctx, tx, "")
	if err != nil {
		return err
	}
	return s.current.Upsert(ctx, tx, accountID, keyID, empty.ID)
}

func (s *annotationService) RecalcCurrent(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.current.DeleteAll(ctx, tx); err != nil {
			return err
		}
		pairs, err := s.annotations.DistinctAccountKeyPairs(ctx, tx)
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			if err := s.recomputePair(ctx, tx, pair.AccountID, pair.KeyID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr(err)
	}

	// The whole projection changed; drop every cached account.
	accounts, err := s.accounts.List(ctx, nil, -1, 0)
	if err == nil {
		touched := make(map[string]struct{}, len(accounts))
		for _, account := range accounts {
			touched[account.Address] = struct{}{}
		}
		s.invalidate(ctx, touched)
	}

	s.log.Info("current annotations recalculated")
	return nil
}

func (s *annotationService) invalidate(ctx context.Context, addresses map[string]struct{}) {
	if s.cache == nil || len(addresses) == 0 {
		return
	}
	list := make([]string, 0, len(addresses))
	for address := range addresses {
		list = append(list, address)
	}
	s.cache.InvalidateAccounts(ctx, list)
}
