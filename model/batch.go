package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger statuses. A row is written pending and only ever transitions to
// confirmed or failed; ledger rows are never deleted.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusFailed    = "failed"
)

// 批量转账记录（batches）：一次多输出转账的账本头
type Batch struct {
	ID              uint64          `gorm:"primaryKey" json:"id"`
	Sender          string          `gorm:"size:64;index;not null" json:"sender"`
	TxHash          string          `gorm:"size:128;uniqueIndex;not null" json:"txHash"`
	IdempotencyKey  string          `gorm:"size:64;uniqueIndex;not null" json:"idempotencyKey"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(32,6);not null" json:"totalAmount"`
	TotalRecipients int             `gorm:"not null" json:"totalRecipients"`
	Status          string          `gorm:"size:16;not null;default:'pending'" json:"status"`
	BlockHeight     *uint64         `json:"blockHeight"`
	Memo            string          `gorm:"size:255" json:"memo"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	ConfirmedAt     *time.Time      `json:"confirmedAt"`
}

// 单笔转账记录（transactions）：BatchID 为空表示早期的单笔直转记录
type Transaction struct {
	ID            uint64          `gorm:"primaryKey" json:"id"`
	BatchID       *uint64         `gorm:"index" json:"batchId"`
	Sender        string          `gorm:"size:64;index;not null" json:"sender"`
	RecipientName string          `gorm:"size:128" json:"recipientName"`
	Recipient     string          `gorm:"size:64;not null" json:"recipient"`
	Amount        decimal.Decimal `gorm:"type:decimal(32,6);not null" json:"amount"`
	TxHash        string          `gorm:"size:128;index" json:"txHash"`
	Status        string          `gorm:"size:16;not null;default:'pending'" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}
