package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/usdc_batchpay/model"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create inserts the list and its initial recipient set in one transaction.
func (r *ListRepository) Create(ctx context.Context, list *model.RecipientList, recipients []model.SavedRecipient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(list).Error; err != nil {
			return err
		}
		if len(recipients) == 0 {
			return nil
		}
		for i := range recipients {
			recipients[i].ListID = list.ID
		}
		return tx.Create(&recipients).Error
	})
}

// FindByOwner returns the owner's list headers, most recently updated first.
func (r *ListRepository) FindByOwner(ctx context.Context, owner string) ([]model.RecipientList, error) {
	var lists []model.RecipientList
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("updated_at DESC").
		Find(&lists).Error
	return lists, err
}

// Load returns the list and its recipients in display order.
func (r *ListRepository) Load(ctx context.Context, owner string, id uint64) (*model.RecipientList, []model.SavedRecipient, error) {
	var list model.RecipientList
	if err := r.db.WithContext(ctx).Where("id = ? AND owner = ?", id, owner).First(&list).Error; err != nil {
		return nil, nil, err
	}
	var recipients []model.SavedRecipient
	if err := r.db.WithContext(ctx).
		Where("list_id = ?", id).
		Order("position ASC").
		Find(&recipients).Error; err != nil {
		return nil, nil, err
	}
	return &list, recipients, nil
}

// Update saves the list header and replaces its recipient set atomically:
// the old set is deleted and the new one inserted inside one transaction,
// so a partial replacement is never observable.
func (r *ListRepository) Update(ctx context.Context, list *model.RecipientList, recipients []model.SavedRecipient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("list_id = ?", list.ID).Delete(&model.SavedRecipient{}).Error; err != nil {
			return err
		}
		if len(recipients) > 0 {
			for i := range recipients {
				recipients[i].ID = 0
				recipients[i].ListID = list.ID
			}
			if err := tx.Create(&recipients).Error; err != nil {
				return err
			}
		}
		return tx.Save(list).Error
	})
}

// Delete removes the recipients first, then the list, in one transaction.
// Ordering matters: a failure between the two steps must not leave orphans.
func (r *ListRepository) Delete(ctx context.Context, owner string, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list model.RecipientList
		if err := tx.Where("id = ? AND owner = ?", id, owner).First(&list).Error; err != nil {
			return err
		}
		if err := tx.Where("list_id = ?", id).Delete(&model.SavedRecipient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&list).Error
	})
}
