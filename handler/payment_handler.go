package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/usdc_batchpay/model"
	"github.com/usdc_batchpay/repository"
	"github.com/usdc_batchpay/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
	lists    *service.ListService
}

func NewPaymentHandler(payments *service.PaymentService, lists *service.ListService) *PaymentHandler {
	return &PaymentHandler{payments: payments, lists: lists}
}

type sendRequest struct {
	Sender         string `json:"sender" binding:"required"`
	ListID         uint64 `json:"listId" binding:"required"`
	Amount         string `json:"amount"`
	Memo           string `json:"memo"`
	IdempotencyKey string `json:"idempotencyKey"`
}

// POST /api/payments/preview
// Runs the distribution calculator against the list's current recipients
// without submitting anything.
func (h *PaymentHandler) Preview(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, recipients, amount, err := h.resolve(c, req)
	if err != nil {
		return
	}
	dist, fee, err := h.payments.Preview(list.ListType, recipients, amount)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entries":        dist.Entries,
		"realizedAmount": dist.RealizedAmount(),
		"nominalUnits":   dist.NominalUnits,
		"realizedUnits":  dist.RealizedUnits,
		"fee":            fee,
	})
}

// POST /api/payments/send
func (h *PaymentHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, recipients, amount, err := h.resolve(c, req)
	if err != nil {
		return
	}
	result, err := h.payments.Send(c.Request.Context(), service.SendRequest{
		Sender:         req.Sender,
		ListType:       list.ListType,
		Recipients:     recipients,
		Amount:         amount,
		Memo:           req.Memo,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// GET /api/payments/history?sender=&status=&window=&type=&search=
func (h *PaymentHandler) History(c *gin.Context) {
	sender := c.Query("sender")
	if sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sender is required"})
		return
	}
	entries, err := h.payments.History(c.Request.Context(), sender, repository.HistoryFilter{
		Status: c.Query("status"),
		Window: c.Query("window"),
		Kind:   c.Query("type"),
		Search: c.Query("search"),
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(entries), "transactions": entries})
}

// resolve loads the sender's list and parses the amount input. The sender
// address is the owner identity: lists are only ever spent by their owner.
// Responds on error, so callers just return.
func (h *PaymentHandler) resolve(c *gin.Context, req sendRequest) (*model.RecipientList, []model.SavedRecipient, decimal.Decimal, error) {
	list, recipients, err := h.lists.Get(c.Request.Context(), req.Sender, req.ListID)
	if err != nil {
		respondErr(c, err)
		return nil, nil, decimal.Zero, err
	}
	amount := decimal.Zero
	if req.Amount != "" {
		amount, err = decimal.NewFromString(req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + req.Amount})
			return nil, nil, decimal.Zero, err
		}
	}
	return list, recipients, amount, nil
}
