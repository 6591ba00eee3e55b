package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/usdc_batchpay/model"
	"github.com/usdc_batchpay/repository"
)

var (
	ErrListNotFound = errors.New("recipient list not found")
	ErrEmptyName    = errors.New("list name must not be empty")
)

// RecipientInput is a recipient as supplied by the caller (manual entry,
// CSV import candidate, or contact directory pick — all treated the same).
type RecipientInput struct {
	Name       string              `json:"name"`
	Address    string              `json:"address"`
	Percentage decimal.NullDecimal `json:"percentage"`
	Amount     decimal.NullDecimal `json:"amount"`
}

type ListService struct {
	lists *repository.ListRepository
}

func NewListService(lists *repository.ListRepository) *ListService {
	return &ListService{lists: lists}
}

// Create stores a new list for the owner. listType defaults to fixed.
func (s *ListService) Create(ctx context.Context, owner, name, description, listType string, inputs []RecipientInput) (*model.RecipientList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if listType == "" {
		listType = model.ListTypeFixed
	}
	if !model.ValidListType(listType) {
		return nil, ErrInvalidListType
	}

	recipients := buildRecipients(listType, inputs)
	list := &model.RecipientList{
		Owner:           owner,
		Name:            name,
		Description:     description,
		ListType:        listType,
		TotalRecipients: len(recipients),
		TotalAmount:     sumVariableAmounts(listType, recipients),
	}
	if err := s.lists.Create(ctx, list, recipients); err != nil {
		return nil, err
	}
	return list, nil
}

// Overview returns the owner's list headers.
func (s *ListService) Overview(ctx context.Context, owner string) ([]model.RecipientList, error) {
	return s.lists.FindByOwner(ctx, owner)
}

// Get loads a list and its recipients in display order.
func (s *ListService) Get(ctx context.Context, owner string, id uint64) (*model.RecipientList, []model.SavedRecipient, error) {
	list, recipients, err := s.lists.Load(ctx, owner, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrListNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	return list, recipients, nil
}

// Update replaces the list's recipient set and header fields. Switching the
// list type is allowed at any time; values in the share field not owned by
// the new type are discarded rather than left stale. TotalAmount is the sum
// of recipient amounts for variable lists and unset otherwise.
func (s *ListService) Update(ctx context.Context, owner string, id uint64, name, description, listType string, inputs []RecipientInput) (*model.RecipientList, error) {
	list, _, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if listType == "" {
		listType = list.ListType
	}
	if !model.ValidListType(listType) {
		return nil, ErrInvalidListType
	}

	recipients := buildRecipients(listType, inputs)
	list.Name = name
	list.Description = description
	list.ListType = listType
	list.TotalRecipients = len(recipients)
	list.TotalAmount = sumVariableAmounts(listType, recipients)

	if err := s.lists.Update(ctx, list, recipients); err != nil {
		return nil, err
	}
	return list, nil
}

// Delete removes the list and all its recipients.
func (s *ListService) Delete(ctx context.Context, owner string, id uint64) error {
	err := s.lists.Delete(ctx, owner, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrListNotFound
	}
	return err
}

// buildRecipients assigns display order and normalizes share fields to the
// list type. Address validity is not enforced here: invalid rows stay
// visible and editable, the calculator excludes them at send time.
func buildRecipients(listType string, inputs []RecipientInput) []model.SavedRecipient {
	recipients := make([]model.SavedRecipient, 0, len(inputs))
	for i, in := range inputs {
		r := model.SavedRecipient{
			Name:       strings.TrimSpace(in.Name),
			Address:    strings.TrimSpace(in.Address),
			Position:   i,
			Percentage: in.Percentage,
			Amount:     in.Amount,
		}
		r.NormalizeShare(listType)
		recipients = append(recipients, r)
	}
	return recipients
}

func sumVariableAmounts(listType string, recipients []model.SavedRecipient) decimal.NullDecimal {
	if listType != model.ListTypeVariable {
		return decimal.NullDecimal{}
	}
	sum := decimal.Zero
	for _, r := range recipients {
		if r.Amount.Valid {
			sum = sum.Add(r.Amount.Decimal)
		}
	}
	return decimal.NullDecimal{Decimal: sum, Valid: true}
}
