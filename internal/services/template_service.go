package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/riplabs/annotdb-backend/internal/data/repos"
	types "github.com/riplabs/annotdb-backend/internal/domain"
	"github.com/riplabs/annotdb-backend/internal/platform/apierr"
	"github.com/riplabs/annotdb-backend/internal/platform/logger"
)

// TemplateEntrySpec is the wire shape of one template entry. Choices holds
// the available [value, label] pairs for "choice" entries and is carried
// opaquely.
type TemplateEntrySpec struct {
	Annotation     string          `json:"annotation"`
	Label          string          `json:"label"`
	Type           string          `json:"type"`
	Default        *string         `json:"default,omitempty"`
	Choices        json.RawMessage `json:"choices,omitempty"`
	FieldSize      *int            `json:"field_size,omitempty"`
	FieldRequired  *bool           `json:"field_required,omitempty"`
	FieldMinLength *int            `json:"field_min_length,omitempty"`
	FieldMaxLength *int            `json:"field_max_length,omitempty"`
}

type TemplateInfo struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type TemplatePage struct {
	NumPages  int            `json:"num_pages"`
	Templates []TemplateInfo `json:"templates"`
}

type TemplateService interface {
	// SetTemplate creates the named template, replacing any existing template
	// with the same name wholesale.
	SetTemplate(ctx context.Context, name string, entries []TemplateEntrySpec) error
	GetTemplate(ctx context.Context, name string) ([]TemplateEntrySpec, error)
	ListTemplates(ctx context.Context, page, rpp int) (*TemplatePage, error)
}

type templateService struct {
	db  *gorm.DB
	log *logger.Logger

	templates repos.AnnotationTemplateRepo
	keys      repos.AnnotationKeyRepo
}

func NewTemplateService(
	db *gorm.DB,
	baseLog *logger.Logger,
	templates repos.AnnotationTemplateRepo,
	keys repos.AnnotationKeyRepo,
) TemplateService {
	return &templateService{
		db:        db,
		log:       baseLog.With("service", "TemplateService"),
		templates: templates,
		keys:      keys,
	}
}

func (s *templateService) SetTemplate(ctx context.Context, name string, entries []TemplateEntrySpec) error {
	if name == "" {
		return apierr.Validation("missing required 'template_name' parameter")
	}
	if entries == nil {
		return apierr.Validation("'template' entry must be an array")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := make([]*types.AnnotationTemplateEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.Annotation == "" {
				return apierr.Validation("template entry missing required 'annotation' field")
			}
			if entry.Label == "" {
				return apierr.Validation("template entry missing required 'label' field")
			}
			if entry.Type == "" {
				return apierr.Validation("template entry missing required 'type' field")
			}
			if entry.Type != types.TemplateEntryTypeChoice && entry.Type != types.TemplateEntryTypeField {
				return apierr.Validation("template entry type must be 'choice' or 'field'")
			}
			if entry.Type == types.TemplateEntryTypeChoice && len(entry.Choices) == 0 {
				return apierr.Validation("choice template entry type must have a 'choices' field")
			}

			key, err := s.keys.GetOrCreate(ctx, tx, entry.Annotation)
			if err != nil {
				return err
			}

			row := &types.AnnotationTemplateEntry{
				KeyID:   key.ID,
				Label:   entry.Label,
				Type:    entry.Type,
				Default: entry.Default,
			}
			if entry.Type == types.TemplateEntryTypeChoice {
				row.Choices = datatypes.JSON(entry.Choices)
			} else {
				row.FieldSize = entry.FieldSize
				row.FieldRequired = entry.FieldRequired
				row.FieldMinLength = entry.FieldMinLength
				row.FieldMaxLength = entry.FieldMaxLength
			}
			rows = append(rows, row)
		}

		_, err := s.templates.Replace(ctx, tx, name, rows)
		return err
	})
	if err != nil {
		return storageErr(err)
	}

	s.log.Info("template stored", "name", name, "entries", len(entries))
	return nil
}

func (s *templateService) GetTemplate(ctx context.Context, name string) ([]TemplateEntrySpec, error) {
	template, err := s.templates.GetByName(ctx, nil, name)
	if err != nil {
		return nil, storageErr(err)
	}
	if template == nil {
		return nil, apierr.NotFound("no such template")
	}

	rows, err := s.templates.ListEntries(ctx, nil, template.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	entries := make([]TemplateEntrySpec, 0, len(rows))
	for _, row := range rows {
		entry := TemplateEntrySpec{
			Annotation:     row.Key.Key,
			Label:          row.Label,
			Type:           row.Type,
			Default:        row.Default,
			FieldSize:      row.FieldSize,
			FieldRequired:  row.FieldRequired,
			FieldMinLength: row.FieldMinLength,
			FieldMaxLength: row.FieldMaxLength,
		}
		if len(row.Choices) > 0 {
			entry.Choices = json.RawMessage(row.Choices)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *templateService) ListTemplates(ctx context.Context, page, rpp int) (*TemplatePage, error) {
	total, err := s.templates.Count(ctx, nil)
	if err != nil {
		return nil, storageErr(err)
	}
	offset, limit, numPages := pageBounds(page, rpp, total)

	rows, err := s.templates.List(ctx, nil, limit, offset)
	if err != nil {
		return nil, storageErr(err)
	}

	templates := make([]TemplateInfo, 0, len(rows))
	for _, template := range rows {
		templates = append(templates, TemplateInfo{ID: template.ID, Name: template.Name})
	}
	return &TemplatePage{NumPages: numPages, Templates: templates}, nil
}
