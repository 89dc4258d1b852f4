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

type AnnotationValueRepo interface {
	GetByValue(ctx context.Context, tx *gorm.DB, value string) (*types.AnnotationValue, error)
	GetOrCreate(ctx context.Context, tx *gorm.DB, value string) (*types.AnnotationValue, error)
}

type annotationValueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationValueRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationValueRepo {
	return &annotationValueRepo{db: db, log: baseLog.With("repo", "AnnotationValueRepo")}
}

func (r *annotationValueRepo) GetByValue(ctx context.Context, tx *gorm.DB, value string) (*types.AnnotationValue, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.AnnotationValue
	err := transaction.WithContext(ctx).
		Where("norm_value = ?", strings.ToLower(value)).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *annotationValueRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, value string) (*types.AnnotationValue, error) {
	existing, err := r.GetByValue(ctx, tx, value)
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

	row := &types.AnnotationValue{Value: value, NormValue: strings.ToLower(value)}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "norm_value"}}, DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return r.GetByValue(ctx, tx, value)
	}
	return row, nil
}
