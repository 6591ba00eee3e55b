package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/usdc_batchpay/model"
	"github.com/usdc_batchpay/repository"
)

// confirmTimeout caps how long a batch is polled before it is left pending
// for manual reconciliation.
const confirmTimeout = 10 * time.Minute

// PaymentService drives the send flow: validate, compute the distribution,
// build one multi-output instruction, submit it through the broadcaster and
// record the result in the ledger. Confirmation is resolved asynchronously
// by a per-batch poller.
type PaymentService struct {
	ledger       *repository.LedgerRepository
	caster       Broadcaster
	pollInterval time.Duration

	// rootCtx bounds the confirmation pollers; cancelling it stops them
	// without touching in-flight submissions.
	rootCtx context.Context
}

func NewPaymentService(rootCtx context.Context, ledger *repository.LedgerRepository, caster Broadcaster, pollInterval time.Duration) *PaymentService {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &PaymentService{
		ledger:       ledger,
		caster:       caster,
		pollInterval: pollInterval,
		rootCtx:      rootCtx,
	}
}

type SendRequest struct {
	Sender         string
	ListType       string
	Recipients     []model.SavedRecipient
	Amount         decimal.Decimal
	Memo           string
	IdempotencyKey string
}

type SendResult struct {
	Batch        *model.Batch  `json:"batch"`
	Distribution *Distribution `json:"distribution"`
	Fee          FeeConfig     `json:"fee"`
	// Duplicate is set when the idempotency key matched an earlier batch
	// and no new transfer was submitted.
	Duplicate bool `json:"duplicate"`
}

// Preview runs the calculator and fee computation without touching the
// broadcaster or the ledger.
func (s *PaymentService) Preview(listType string, recipients []model.SavedRecipient, amount decimal.Decimal) (*Distribution, FeeConfig, error) {
	dist, err := CalculateDistribution(listType, recipients, amount)
	if err != nil {
		return nil, FeeConfig{}, err
	}
	return dist, FeeFor(len(dist.Entries)), nil
}

// FeeFor returns the gas/fee budget for a transfer with the given number of
// outputs. Gas scales linearly; batches pay the higher flat fee tier.
func FeeFor(outputs int) FeeConfig {
	fee := FeeConfig{
		GasLimit: uint64(model.GasPerOutput) * uint64(outputs),
		FeeUnits: model.FeeSingleUnits,
	}
	if outputs > 1 {
		fee.FeeUnits = model.FeeBatchUnits
	}
	return fee
}

// BuildInstruction assembles the single atomic multi-output transfer for a
// computed distribution: one input covering the realized aggregate, one
// output per recipient.
func BuildInstruction(sender string, dist *Distribution, memo string) MultiSendInstruction {
	outputs := make([]TransferOutput, len(dist.Entries))
	for i, e := range dist.Entries {
		outputs[i] = TransferOutput{Address: e.Address, Units: e.Units}
	}
	return MultiSendInstruction{
		Input:   TransferInput{Address: sender, Units: dist.RealizedUnits},
		Outputs: outputs,
		Memo:    memo,
	}
}

// Send executes one complete send flow. Validation errors block the flow
// before any side effect; a submission error is terminal for this attempt
// and must be re-driven by the caller from current state. A ledger write
// failure after a successful broadcast is logged and surfaced but the
// transfer is never reversed or resubmitted.
func (s *PaymentService) Send(ctx context.Context, req SendRequest) (*SendResult, error) {
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	if existing, err := s.ledger.FindByIdempotencyKey(ctx, req.Sender, key); err != nil {
		return nil, err
	} else if existing != nil {
		return &SendResult{Batch: existing, Duplicate: true}, nil
	}

	if !model.ValidAddress(req.Sender) {
		return nil, fmt.Errorf("sender %s: %w", req.Sender, ErrInvalidAddressFormat)
	}
	dist, err := CalculateDistribution(req.ListType, req.Recipients, req.Amount)
	if err != nil {
		return nil, err
	}

	instr := BuildInstruction(req.Sender, dist, req.Memo)
	fee := FeeFor(len(instr.Outputs))

	if err := s.caster.Ready(ctx); err != nil {
		return nil, err
	}
	txHash, err := s.caster.SignAndSubmit(ctx, instr, fee)
	if err != nil {
		return nil, err
	}

	batch := &model.Batch{
		Sender:          req.Sender,
		TxHash:          txHash,
		IdempotencyKey:  key,
		TotalAmount:     dist.RealizedAmount(),
		TotalRecipients: len(dist.Entries),
		Status:          model.StatusPending,
		Memo:            req.Memo,
	}
	txs := make([]model.Transaction, len(dist.Entries))
	for i, e := range dist.Entries {
		txs[i] = model.Transaction{
			Sender:        req.Sender,
			RecipientName: e.Name,
			Recipient:     e.Address,
			Amount:        FromSmallestUnit(e.Units),
			TxHash:        txHash,
			Status:        model.StatusPending,
		}
	}
	if err := s.ledger.RecordBatch(ctx, batch, txs); err != nil {
		// Money has moved; never reverse or resubmit. Accept the window of
		// inconsistency between chain and ledger.
		slog.Error("ledger write failed after broadcast",
			"txHash", txHash, "sender", req.Sender, "err", err)
		return nil, fmt.Errorf("transfer %s broadcast but not recorded: %w", txHash, err)
	}

	go s.confirm(batch.ID, txHash)

	return &SendResult{Batch: batch, Distribution: dist, Fee: fee}, nil
}

// History serves the sender's filtered ledger history.
func (s *PaymentService) History(ctx context.Context, sender string, f repository.HistoryFilter) ([]repository.HistoryEntry, error) {
	return s.ledger.History(ctx, sender, f)
}

// confirm polls the broadcaster until the transfer is included or rejected,
// then settles the ledger rows. On timeout the batch stays pending.
func (s *PaymentService) confirm(batchID uint64, txHash string) {
	ctx, cancel := context.WithTimeout(s.rootCtx, confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Warn("confirmation polling stopped, batch left pending",
				"batchId", batchID, "txHash", txHash, "reason", ctx.Err())
			return
		case <-ticker.C:
			st, err := s.caster.TxStatus(ctx, txHash)
			if err != nil {
				slog.Debug("tx status query failed", "txHash", txHash, "err", err)
				continue
			}
			switch st.Status {
			case model.StatusConfirmed:
				if err := s.ledger.MarkConfirmed(context.WithoutCancel(ctx), batchID, st.BlockHeight); err != nil {
					slog.Error("failed to mark batch confirmed", "batchId", batchID, "err", err)
				}
				return
			case model.StatusFailed:
				if err := s.ledger.MarkFailed(context.WithoutCancel(ctx), batchID); err != nil {
					slog.Error("failed to mark batch failed", "batchId", batchID, "err", err)
				}
				return
			}
		}
	}
}
