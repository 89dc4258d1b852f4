package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type AccountRepo interface {
	GetByAddress(ctx context.Context, tx *gorm.DB, address string) (*types.Account, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*types.Account, error)
	GetOrCreate(ctx context.Context, tx *gorm.DB, address string) (*types.Account, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Account, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return &accountRepo{db: db, log: baseLog.With("repo", "AccountRepo")}
}

func (r *accountRepo) GetByAddress(ctx context.Context, tx *gorm.DB, address string) (*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var account types.Account
	err := transaction.WithContext(ctx).
		Where("address = ?", address).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Account
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetOrCreate interns an account address: insert on miss under the unique
// constraint, then re-read if a concurrent writer beat us to the insert.
func (r *accountRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, address string) (*types.Account, error) {
	account, err := r.GetByAddress(ctx, tx, address)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	account = &types.Account{Address: address}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "address"}}, DoNothing: true}).
		Create(account).Error; err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return r.GetByAddress(ctx, tx, address)
	}
	return account, nil
}

func (r *accountRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Account
	if err := transaction.WithContext(ctx).
		Order("address asc").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *accountRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Account{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
