package domain

import (
	"time"
)

// AnnotationKey is an interned annotation name. Interning is case-insensitive:
// NormKey holds the lowercased form and carries the unique constraint, while
// Key keeps the casing of the first writer.
type AnnotationKey struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Key     string `gorm:"not null;column:key" json:"key"`
	NormKey string `gorm:"uniqueIndex;not null;column:norm_key" json:"-"`
}

func (AnnotationKey) TableName() string { return "annotation_key" }

// AnnotationValue is an interned annotation value, deduplicated the same way
// as AnnotationKey. The empty string is a legitimate interned value; it marks
// a (account,key) pair whose every history row has been hidden.
type AnnotationValue struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Value     string `gorm:"not null;column:value" json:"value"`
	NormValue string `gorm:"uniqueIndex;not null;column:norm_value" json:"-"`
}

func (AnnotationValue) TableName() string { return "annotation_value" }

// AnnotationBatch is one atomic upload of annotations. The auto-assigned ID is
// the batch number exposed through the API; it increases monotonically and is
// never reused.
type AnnotationBatch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Timestamp time.Time `gorm:"not null;column:timestamp" json:"timestamp"`
	UserID    string    `gorm:"not null;column:user_id" json:"user_id"`
}

func (AnnotationBatch) TableName() string { return "annotation_batch" }

// Annotation is one historical (batch, account, key) -> value assignment.
// Rows are append-only: the only permitted mutation is the hide operation,
// which sets Hidden/HiddenAt/HiddenBy and never clears them again.
type Annotation struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	BatchID   uint       `gorm:"not null;index;column:batch_id" json:"batch_id"`
	AccountID uint       `gorm:"not null;index:idx_annotation_account_key,priority:1;column:account_id" json:"account_id"`
	KeyID     uint       `gorm:"not null;index:idx_annotation_account_key,priority:2;column:key_id" json:"key_id"`
	ValueID   uint       `gorm:"not null;column:value_id" json:"value_id"`
	Hidden    bool       `gorm:"not null;default:false;column:hidden" json:"hidden"`
	HiddenAt  *time.Time `gorm:"column:hidden_at" json:"hidden_at,omitempty"`
	HiddenBy  *string    `gorm:"column:hidden_by" json:"hidden_by,omitempty"`

	Batch   AnnotationBatch `gorm:"foreignKey:BatchID" json:"-"`
	Account Account         `gorm:"foreignKey:AccountID" json:"-"`
	Key     AnnotationKey   `gorm:"foreignKey:KeyID" json:"-"`
	Value   AnnotationValue `gorm:"foreignKey:ValueID" json:"-"`
}

func (Annotation) TableName() string { return "annotation" }

// CurrentAnnotation is the live projection: the currently visible value for an
// (account,key) pair. At most one row per pair exists; the unique index
// enforces it. Rows are upserted by ingest and hide, never deleted.
type CurrentAnnotation struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	AccountID uint `gorm:"not null;uniqueIndex:idx_current_account_key,priority:1;column:account_id" json:"account_id"`
	KeyID     uint `gorm:"not null;uniqueIndex:idx_current_account_key,priority:2;column:key_id" json:"key_id"`
	ValueID   uint `gorm:"not null;column:value_id" json:"value_id"`

	Account Account         `gorm:"foreignKey:AccountID" json:"-"`
	Key     AnnotationKey   `gorm:"foreignKey:KeyID" json:"-"`
	Value   AnnotationValue `gorm:"foreignKey:ValueID" json:"-"`
}

func (CurrentAnnotation) TableName() string { return "current_annotation" }
