package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

type AnnotationTemplateRepo interface {
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.AnnotationTemplate, error)
	// ListEntries returns a template's entries in definition order with the
	// annotation key preloaded.
	ListEntries(ctx context.Context, tx *gorm.DB, templateID uint) ([]*types.AnnotationTemplateEntry, error)
	// Replace swaps the template wholesale: any existing template with the
	// same name is deleted together with its entries, then the new template
	// and entries are created.
	Replace(ctx context.Context, tx *gorm.DB, name string, entries []*types.AnnotationTemplateEntry) (*types.AnnotationTemplate, error)
	List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.AnnotationTemplate, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type annotationTemplateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnnotationTemplateRepo(db *gorm.DB, baseLog *logger.Logger) AnnotationTemplateRepo {
	return &annotationTemplateRepo{db: db, log: baseLog.With("repo", "AnnotationTemplateRepo")}
}

func (r *annotationTemplateRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.AnnotationTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var template types.AnnotationTemplate
	err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *annotationTemplateRepo) ListEntries(ctx context.Context, tx *gorm.DB, templateID uint) ([]*types.AnnotationTemplateEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var entries []*types.AnnotationTemplateEntry
	if err := transaction.WithContext(ctx).
		Preload("Key").
		Where("template_id = ?", templateID).
		Order("id asc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *annotationTemplateRepo) Replace(ctx context.Context, tx *gorm.DB, name string, entries []*types.AnnotationTemplateEntry) (*types.AnnotationTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	existing, err := r.GetByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if err := transaction.WithContext(ctx).
			Where("template_id = ?", existing.ID).
			Delete(&types.AnnotationTemplateEntry{}).Error; err != nil {
			return nil, err
		}
		if err := transaction.WithContext(ctx).
			Delete(existing).Error; err != nil {
			return nil, err
		}
	}

	template := &types.AnnotationTemplate{Name: name}
	if err := transaction.WithContext(ctx).Create(template).Error; err != nil {
		return nil, err
	}

	for _, entry := range entries {
		entry.TemplateID = template.ID
		if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
			return nil, err
		}
	}
	return template, nil
}

func (r *annotationTemplateRepo) List(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*types.AnnotationTemplate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.AnnotationTemplate
	if err := transaction.WithContext(ctx).
		Order("name asc").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *annotationTemplateRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.AnnotationTemplate{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
