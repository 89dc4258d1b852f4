package domain

import (
	"gorm.io/datatypes"
)

const (
	TemplateEntryTypeChoice = "choice"
	TemplateEntryTypeField  = "field"
)

// AnnotationTemplate describes the shape of a form used to collect
// annotations. The core treats it as opaque metadata stored by name.
type AnnotationTemplate struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;column:name" json:"name"`
}

func (AnnotationTemplate) TableName() string { return "annotation_template" }

// AnnotationTemplateEntry is a single annotation within a template. Choices
// holds the available choice pairs as a JSON array for "choice" entries.
type AnnotationTemplateEntry struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	TemplateID     uint           `gorm:"not null;index;column:template_id" json:"template_id"`
	KeyID          uint           `gorm:"not null;column:key_id" json:"key_id"`
	Label          string         `gorm:"not null;column:label" json:"label"`
	Type           string         `gorm:"not null;default:field;column:type" json:"type"`
	Default        *string        `gorm:"column:default_value" json:"default,omitempty"`
	Choices        datatypes.JSON `gorm:"column:choices" json:"choices,omitempty"`
	FieldSize      *int           `gorm:"column:field_size" json:"field_size,omitempty"`
	FieldRequired  *bool          `gorm:"column:field_required" json:"field_required,omitempty"`
	FieldMinLength *int           `gorm:"column:field_min_length" json:"field_min_length,omitempty"`
	FieldMaxLength *int           `gorm:"column:field_max_length" json:"field_max_length,omitempty"`

	Key AnnotationKey `gorm:"foreignKey:KeyID" json:"-"`
}

func (AnnotationTemplateEntry) TableName() string { return "annotation_template_entry" }
