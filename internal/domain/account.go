package domain

// Account is a reference to an external account, identified by its opaque
// address string. Accounts are created on first use by an annotation upload.
type Account struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Address string `gorm:"uniqueIndex;not null;column:address" json:"address"`
}

func (Account) TableName() string { return "account" }
