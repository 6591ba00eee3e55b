package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/usdc_batchpay/model"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// RecordBatch writes the batch header and its per-recipient transaction rows
// in one transaction.
func (r *LedgerRepository) RecordBatch(ctx context.Context, batch *model.Batch, txs []model.Transaction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		if len(txs) == 0 {
			return nil
		}
		for i := range txs {
			id := batch.ID
			txs[i].BatchID = &id
		}
		return tx.Create(&txs).Error
	})
}

// FindByIdempotencyKey returns the sender's batch for the given key, or nil
// when the key has not been used yet.
func (r *LedgerRepository) FindByIdempotencyKey(ctx context.Context, sender, key string) (*model.Batch, error) {
	var batch model.Batch
	err := r.db.WithContext(ctx).
		Where("sender = ? AND idempotency_key = ?", sender, key).
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// MarkConfirmed transitions a pending batch and its transactions to confirmed.
func (r *LedgerRepository) MarkConfirmed(ctx context.Context, batchID uint64, height uint64) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Batch{}).
			Where("id = ? AND status = ?", batchID, model.StatusPending).
			Updates(map[string]interface{}{
				"status":       model.StatusConfirmed,
				"block_height": height,
				"confirmed_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Transaction{}).
			Where("batch_id = ?", batchID).
			Update("status", model.StatusConfirmed).Error
	})
}

// MarkFailed transitions a pending batch and its transactions to failed.
func (r *LedgerRepository) MarkFailed(ctx context.Context, batchID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Batch{}).
			Where("id = ? AND status = ?", batchID, model.StatusPending).
			Update("status", model.StatusFailed).Error; err != nil {
			return err
		}
		return tx.Model(&model.Transaction{}).
			Where("batch_id = ?", batchID).
			Update("status", model.StatusFailed).Error
	})
}

// History filter values.
const (
	WindowDay   = "24h"
	WindowWeek  = "7d"
	WindowMonth = "30d"

	KindSingle = "single"
	KindBatch  = "batch"
)

type HistoryFilter struct {
	Status string // pending / confirmed / failed
	Window string // 24h / 7d / 30d
	Kind   string // single / batch
	Search string // free text over recipient name, address, tx hash, amount
}

// HistoryEntry is a transaction row outer-joined to its batch header.
// Batch columns are null for legacy single-send rows.
type HistoryEntry struct {
	ID            uint64              `gorm:"column:id" json:"id"`
	BatchID       *uint64             `gorm:"column:batch_id" json:"batchId"`
	Sender        string              `gorm:"column:sender" json:"sender"`
	RecipientName string              `gorm:"column:recipient_name" json:"recipientName"`
	Recipient     string              `gorm:"column:recipient" json:"recipient"`
	Amount        decimal.Decimal     `gorm:"column:amount" json:"amount"`
	TxHash        string              `gorm:"column:tx_hash" json:"txHash"`
	Status        string              `gorm:"column:status" json:"status"`
	CreatedAt     time.Time           `gorm:"column:created_at" json:"createdAt"`
	BatchTotal    decimal.NullDecimal `gorm:"column:batch_total" json:"batchTotal"`
	BatchSize     *int                `gorm:"column:batch_size" json:"batchSize"`
	BatchMemo     *string             `gorm:"column:batch_memo" json:"batchMemo"`
	BlockHeight   *uint64             `gorm:"column:block_height" json:"blockHeight"`
}

// History lists the sender's transactions newest first, outer-joined to their
// batch so legacy non-batched rows still surface.
func (r *LedgerRepository) History(ctx context.Context, sender string, f HistoryFilter) ([]HistoryEntry, error) {
	q := r.db.WithContext(ctx).
		Table("transactions").
		Select("transactions.id, transactions.batch_id, transactions.sender, transactions.recipient_name, " +
			"transactions.recipient, transactions.amount, transactions.tx_hash, transactions.status, " +
			"transactions.created_at, batches.total_amount AS batch_total, " +
			"batches.total_recipients AS batch_size, batches.memo AS batch_memo, " +
			"batches.block_height AS block_height").
		Joins("LEFT JOIN batches ON batches.id = transactions.batch_id").
		Where("transactions.sender = ?", sender).
		Order("transactions.created_at DESC, transactions.id DESC")

	if f.Status != "" {
		q = q.Where("transactions.status = ?", f.Status)
	}
	if since, ok := windowStart(f.Window); ok {
		q = q.Where("transactions.created_at >= ?", since)
	}
	switch f.Kind {
	case KindSingle:
		q = q.Where("transactions.batch_id IS NULL")
	case KindBatch:
		q = q.Where("transactions.batch_id IS NOT NULL")
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(transactions.recipient_name) LIKE ? OR LOWER(transactions.recipient) LIKE ? "+
				"OR LOWER(transactions.tx_hash) LIKE ? OR CAST(transactions.amount AS TEXT) LIKE ?",
			like, like, like, like)
	}

	var entries []HistoryEntry
	err := q.Scan(&entries).Error
	return entries, err
}

func windowStart(window string) (time.Time, bool) {
	now := time.Now()
	switch window {
	case WindowDay:
		return now.Add(-24 * time.Hour), true
	case WindowWeek:
		return now.AddDate(0, 0, -7), true
	case WindowMonth:
		return now.AddDate(0, 0, -30), true
	}
	return time.Time{}, false
}
