package repos

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type CurrentAnnotationRepo interface {
	// Upsert points the (account,key) projection row at the given value,
	// creating the row if the pair has never been seen. The unique index on
	// (account_id,key_id) keeps the projection at one row per pair.
	Upsert(ctx context.Context, tx *gorm.DB, accountID, keyID, valueID uint) error
	// ListByAccount returns the projection rows for an account ordered by key,
	// case-insensitively, with key and value preloaded.
	ListByAccount(ctx context.Context, tx *gorm.DB, accountID uint) ([]*types.CurrentAnnotation, error)
	GetByAccountKey(ctx context.Context, tx *gorm.DB, accountID, keyID uint) (*types.CurrentAnnotation, error)
	// AccountIDsMatching resolves one search comparison against the
	// projection: accounts whose current value for the given key satisfies
	// the operator. Equality operators compare case-insensitively; ordering
	// operators compare the raw strings lexicographically.
	AccountIDsMatching(ctx context.Context, tx *gorm.DB, key, operator, value string) ([]uint, error)
	// AllAccountIDs returns every account holding at least one projection
	// row; it is the universe a negated search term complements against.
	AllAccountIDs(ctx context.Context, tx *gorm.DB) ([]uint, error)
	DeleteAll(ctx context.Context, tx *gorm.DB) error
}

type currentAnnotationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCurrentAnnotationRepo(db *gorm.DB, baseLog *logger.Logger) CurrentAnnotationRepo {
	return &currentAnnotationRepo{db: db, log: baseLog.With("repo", "CurrentAnnotationRepo")}
}

func (r *currentAnnotationRepo) Upsert(ctx context.Context, tx *gorm.DB, accountID, keyID, valueID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := &types.CurrentAnnotation{AccountID: accountID, KeyID: keyID, ValueID: valueID}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "key_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value_id": valueID}),
		}).
		Create(row).Error
}

func (r *currentAnnotationRepo) ListByAccount(ctx context.Context, tx *gorm.DB, accountID uint) ([]*types.CurrentAnnotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CurrentAnnotation
	if err := transaction.WithContext(ctx).
		Preload("Key").
		Preload("Value").
		Joins("JOIN annotation_key ON annotation_key.id = current_annotation.key_id").
		Where("current_annotation.account_id = ?", accountID).
		Order("annotation_key.norm_key asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *currentAnnotationRepo) GetByAccountKey(ctx context.Context, tx *gorm.DB, accountID, keyID uint) (*types.CurrentAnnotation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CurrentAnnotation
	if err := transaction.WithContext(ctx).
		Preload("Value").
		Where("account_id = ? AND key_id = ?", accountID, keyID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *currentAnnotationRepo) AccountIDsMatching(ctx context.Context, tx *gorm.DB, key, operator, value string) ([]uint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.CurrentAnnotation{}).
		Joins("JOIN annotation_key ON annotation_key.id = current_annotation.key_id").
		Joins("JOIN annotation_value ON annotation_value.id = current_annotation.value_id").
		Where("annotation_key.norm_key = ?", strings.ToLower(key))

	switch operator {
	case "=":
		query = query.Where("annotation_value.norm_value = ?", strings.ToLower(value))
	case "!=":
		query = query.Where("annotation_value.norm_value <> ?", strings.ToLower(value))
	case "<":
		query = query.Where("annotation_value.value < ?", value)
	case ">":
		query = query.Where("annotation_value.value > ?", value)
	case "<=":
		query = query.Where("annotation_value.value <= ?", value)
	case ">=":
		query = query.Where("annotation_value.value >= ?", value)
	default:
		return nil, fmt.Errorf("unsupported comparison operator %q", operator)
	}

	var ids []uint
	if err := query.Distinct().
		Pluck("current_annotation.account_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *currentAnnotationRepo) AllAccountIDs(ctx context.Context, tx *gorm.DB) ([]uint, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uint
	if err := transaction.WithContext(ctx).
		Model(&types.CurrentAnnotation{}).
		Distinct().
		Pluck("account_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *currentAnnotationRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("1 = 1").
		Delete(&types.CurrentAnnotation{}).Error
}
