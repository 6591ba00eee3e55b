package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Distribution modes of a recipient list.
const (
	ListTypeFixed      = "fixed"      // same amount for every recipient
	ListTypePercentage = "percentage" // proportional shares of one total
	ListTypeVariable   = "variable"   // each recipient carries its own amount
)

func ValidListType(t string) bool {
	switch t {
	case ListTypeFixed, ListTypePercentage, ListTypeVariable:
		return true
	}
	return false
}

// 收款人列表（recipient_lists）
type RecipientList struct {
	ID              uint64              `gorm:"primaryKey" json:"id"`
	Owner           string              `gorm:"size:64;index;not null" json:"owner"`
	Name            string              `gorm:"size:128;not null" json:"name"`
	Description     string              `gorm:"size:512" json:"description"`
	ListType        string              `gorm:"size:16;not null;default:'fixed'" json:"listType"`
	TotalRecipients int                 `gorm:"not null;default:0" json:"totalRecipients"`
	TotalAmount     decimal.NullDecimal `gorm:"type:decimal(32,6)" json:"totalAmount"` // set only for variable lists
	CreatedAt       time.Time           `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime" json:"updatedAt"`
}

// 已保存的收款人（saved_recipients）
// Percentage is populated only when the owning list is percentage-typed,
// Amount only when it is variable-typed. The store clears the field not
// owned by the list's current type on every write.
type SavedRecipient struct {
	ID         uint64              `gorm:"primaryKey" json:"id"`
	ListID     uint64              `gorm:"index;not null" json:"listId"`
	Name       string              `gorm:"size:128" json:"name"`
	Address    string              `gorm:"size:64;not null" json:"address"`
	Position   int                 `gorm:"not null;default:0" json:"order"` // display/CSV order ("order" is reserved in SQL)
	Percentage decimal.NullDecimal `gorm:"type:decimal(9,4)" json:"percentage"`
	Amount     decimal.NullDecimal `gorm:"type:decimal(32,6)" json:"amount"`
	CreatedAt  time.Time           `gorm:"autoCreateTime" json:"createdAt"`
}

// NormalizeShare drops the per-type value not owned by listType.
func (r *SavedRecipient) NormalizeShare(listType string) {
	if listType != ListTypePercentage {
		r.Percentage = decimal.NullDecimal{}
	}
	if listType != ListTypeVariable {
		r.Amount = decimal.NullDecimal{}
	}
}

// helper: create tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RecipientList{}, &SavedRecipient{}, &Batch{}, &Transaction{})
}
