package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type ClientRepo interface {
	Create(ctx context.Context, tx *gorm.DB, client *types.Client) error
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Client, error)
	TokenExists(ctx context.Context, tx *gorm.DB, authToken string) (bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Client, error)
	DeleteByName(ctx context.Context, tx *gorm.DB, name string) (int64, error)
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return &clientRepo{db: db, log: baseLog.With("repo", "ClientRepo")}
}

func (r *clientRepo) Create(ctx context.Context, tx *gorm.DB, client *types.Client) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Create(client).Error
}

func (r *clientRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Client, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var client types.Client
	err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) TokenExists(ctx context.Context, tx *gorm.DB, authToken string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Client{}).
		Where("auth_token = ?", authToken).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *clientRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Client, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Client
	if err := transaction.WithContext(ctx).
		Order("name asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *clientRepo) DeleteByName(ctx context.Context, tx *gorm.DB, name string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Where("name = ?", name).
		Delete(&types.Client{})
	return result.RowsAffected, result.Error
}
