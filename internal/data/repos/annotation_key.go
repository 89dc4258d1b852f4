package repos

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type AnnotationKeyRepo interface {
	GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.AnnotationKey, error)
	GetOrCreate(ctx context.Context, tx *gorm.DB, key string) (*types.AnnotationKey, error)
}

type annotationKeyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationKeyRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationKeyRepo {
	return &annotationKeyRepo{db: db, log: baseLog.With("repo", "AnnotationKeyRepo")}
}

// GetByKey looks a key up case-insensitively.
func (r *annotationKeyRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.AnnotationKey, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.AnnotationKey
	err := transaction.WithContext(ctx).
		Where("norm_key = ?", strings.ToLower(key)).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrCreate interns a key case-insensitively. The first-inserted casing
// wins; later writes that differ only in case reuse the existing row.
func (r *annotationKeyRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, key string) (*types.AnnotationKey, error) {
	existing, err := r.GetByKey(ctx, tx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	row := &types.AnnotationKey{Key: key, NormKey: strings.ToLower(key)}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "norm_key"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return r.GetByKey(ctx, tx, key)
	}
	return row, nil
}
