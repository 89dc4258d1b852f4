package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type AnnotationBatchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, batch *types.AnnotationBatch) error
	GetByID(ctx context.Context, tx *gorm.DB, batchID uint) (*types.AnnotationBatch, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.AnnotationBatch, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type annotationBatchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationBatchRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationBatchRepo {
	return &annotationBatchRepo{db: db, log: baseLog.With("repo", "AnnotationBatchRepo")}
}

func (r *annotationBatchRepo) Create(ctx context.Context, tx *gorm.DB, batch *types.AnnotationBatch) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(batch).Error
}

func (r *annotationBatchRepo) GetByID(ctx context.Context, tx *gorm.DB, batchID uint) (*types.AnnotationBatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var batch types.AnnotationBatch
	err := transaction.WithContext(ctx).
		Where("id = ?", batchID).
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// List returns batches newest-first (descending batch number).
func (r *annotationBatchRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.AnnotationBatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AnnotationBatch
	if err := transaction.WithContext(ctx).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *annotationBatchRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AnnotationBatch{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
