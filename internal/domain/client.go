package domain

// Client is an external system authorized to call the API, identified by a
// unique name and bearer token.
type Client struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"uniqueIndex;not null;column:name" json:"name"`
	AuthToken string `gorm:"uniqueIndex;not null;column:auth_token" json:"-"`
}

func (Client) TableName() string { return "client" }
