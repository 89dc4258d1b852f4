package repos

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type AnnotationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Annotation) error
	// ListByBatch returns every history row in a batch, hidden or not, with
	// account, key and value preloaded, in insertion order.
	ListByBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*types.Annotation, error)
	// ListVisibleForHide returns the non-hidden rows of a batch matching the
	// optional account/key filters.
	ListVisibleForHide(ctx context.Context, tx *gorm.DB, batchID uint, accountID, keyID *uint) ([]*types.Annotation, error)
	// MarkHidden flags the given rows hidden. This is the only mutation ever
	// applied to annotation history.
	MarkHidden(ctx context.Context, tx *gorm.DB, ids []uint, hiddenBy string, hiddenAt time.Time) error
	// ListByAccount returns the full history for an account, most recent row
	// first, with batch, key and value preloaded.
	ListByAccount(ctx context.Context, tx *gorm.DB, accountID uint) ([]*types.Annotation, error)
	// ListVisibleByAccountKey returns the non-hidden rows for one
	// (account,key) pair with batch and value preloaded.
	ListVisibleByAccountKey(ctx context.Context, tx *gorm.DB, accountID, keyID uint) ([]*types.Annotation, error)
	// AccountIDsEverWithKeyValue returns the distinct accounts that have ever
	// carried the given key/value pair anywhere in history, hidden rows
	// included. Matching is case-insensitive.
	AccountIDsEverWithKeyValue(ctx context.Context, tx *gorm.DB, key, value string) ([]uint, error)
	// DistinctAccountKeyPairs returns every (account,key) pair present in
	// history.
	DistinctAccountKeyPairs(ctx context.Context, tx *gorm.DB) ([]AccountKeyPair, error)
}

type AccountKeyPair struct {
	AccountID uint
	KeyID     uint
}

type annotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationRepo {
	return &annotationRepo{db: db, log: baseLog.With("repo", "AnnotationRepo")}
}

func (r *annotationRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Annotation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *annotationRepo) ListByBatch(ctx context.Context, tx *gorm.DB, batchID uint) ([]*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Annotation
	if err := transaction.WithContext(ctx).
		Preload("Account").
		Preload("Key").
		Preload("Value").
		Where("batch_id = ?", batchID).
		Order("id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *annotationRepo) ListVisibleForHide(ctx context.Context, tx *gorm.DB, batchID uint, accountID, keyID *uint) ([]*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Preload("Account").
		Where("batch_id = ? AND hidden = ?", batchID, false)
	if accountID != nil {
		query = query.Where("account_id = ?", *accountID)
	}
	if keyID != nil {
		query = query.Where("key_id = ?", *keyID)
	}

	var results []*types.Annotation
	if err := query.Order("id asc").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *annotationRepo) MarkHidden(ctx context.Context, tx *gorm.DB, ids []uint, hiddenBy string, hiddenAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Annotation{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"hidden":    true,
			"hidden_at": hiddenAt,
			"hidden_by": hiddenBy,
		}).Error
}

func (r *annotationRepo) ListByAccount(ctx context.Context, tx *gorm.DB, accountID uint) ([]*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Annotation
	if err := transaction.WithContext(ctx).
		Preload("Batch").
		Preload("Key").
		Preload("Value").
		Where("account_id = ?", accountID).
		Order("id desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *annotationRepo) ListVisibleByAccountKey(ctx context.Context, tx *gorm.DB, accountID, keyID uint) ([]*types.Annotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Annotation
	if err := transaction.WithContext(ctx).
		Preload("Batch").
		Preload("Value").
		Where("account_id = ? AND key_id = ? AND hidden = ?", accountID, keyID, false).
		Order("id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *annotationRepo) AccountIDsEverWithKeyValue(ctx context.Context, tx *gorm.DB, key, value string) ([]uint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uint
	if err := transaction.WithContext(ctx).
		Model(&types.Annotation{}).
		Joins("JOIN annotation_key ON annotation_key.id = annotation.key_id").
		Joins("JOIN annotation_value ON annotation_value.id = annotation.value_id").
		Where("annotation_key.norm_key = ?", strings.ToLower(key)).
		Where("annotation_value.norm_value = ?", strings.ToLower(value)).
		Distinct().
		Pluck("annotation.account_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *annotationRepo) DistinctAccountKeyPairs(ctx context.Context, tx *gorm.DB) ([]AccountKeyPair, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var pairs []AccountKeyPair
	if err := transaction.WithContext(ctx).
		Model(&types.Annotation{}).
		Distinct().
		Select("account_id", "key_id").
		Scan(&pairs).Error; err != nil {
		return nil, err
	}
	return pairs, nil
}
