package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/usdc_batchpay/model"
	"github.com/usdc_batchpay/repository"
)

type fakeBroadcaster struct {
	mu        sync.Mutex
	readyErr  error
	submitErr error
	txHash    string
	status    BroadcastStatus
	submitted []MultiSendInstruction
	fees      []FeeConfig
}

func (f *fakeBroadcaster) Ready(ctx context.Context) error {
	return f.readyErr
}

func (f *fakeBroadcaster) SignAndSubmit(ctx context.Context, instr MultiSendInstruction, fee FeeConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submitted = append(f.submitted, instr)
	f.fees = append(f.fees, fee)
	return f.txHash, nil
}

func (f *fakeBroadcaster) TxStatus(ctx context.Context, txHash string) (*BroadcastStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.status
	return &st, nil
}

func (f *fakeBroadcaster) submissions() []MultiSendInstruction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]MultiSendInstruction(nil), f.submitted...)
}

func newPaymentHarness(t *testing.T, fake *fakeBroadcaster) (*PaymentService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewPaymentService(context.Background(), repository.NewLedgerRepository(db), fake, 5*time.Millisecond)
	return svc, db
}

func fixedRecipients(names ...string) []model.SavedRecipient {
	recipients := make([]model.SavedRecipient, len(names))
	for i, name := range names {
		recipients[i] = model.SavedRecipient{Name: name, Address: testAddr(byte('a' + i)), Position: i}
	}
	return recipients
}

// Fixed list, 4 recipients at 12.50 each: one batch of 50.00 with 4 ledger
// rows, then confirmed by the poller.
func TestSendFixedBatch(t *testing.T) {
	fake := &fakeBroadcaster{
		txHash: "HASH-1",
		status: BroadcastStatus{Status: model.StatusConfirmed, BlockHeight: 42},
	}
	svc, db := newPaymentHarness(t, fake)

	result, err := svc.Send(context.Background(), SendRequest{
		Sender:     sender(),
		ListType:   model.ListTypeFixed,
		Recipients: fixedRecipients("a", "b", "c", "d"),
		Amount:     decimal.RequireFromString("12.50"),
		Memo:       "payroll",
	})
	require.NoError(t, err)
	require.False(t, result.Duplicate)

	assert.Equal(t, 4, result.Batch.TotalRecipients)
	assert.True(t, result.Batch.TotalAmount.Equal(decimal.RequireFromString("50")))
	assert.Equal(t, model.FeeBatchUnits, int(result.Fee.FeeUnits))
	assert.EqualValues(t, 4*model.GasPerOutput, result.Fee.GasLimit)

	// One atomic multi-output instruction, not four transfers.
	submitted := fake.submissions()
	require.Len(t, submitted, 1)
	instr := submitted[0]
	assert.Equal(t, sender(), instr.Input.Address)
	assert.EqualValues(t, 50_000_000, instr.Input.Units)
	require.Len(t, instr.Outputs, 4)
	for _, out := range instr.Outputs {
		assert.EqualValues(t, 12_500_000, out.Units)
	}

	var txs []model.Transaction
	require.NoError(t, db.Where("batch_id = ?", result.Batch.ID).Find(&txs).Error)
	require.Len(t, txs, 4)
	for _, tx := range txs {
		assert.True(t, tx.Amount.Equal(decimal.RequireFromString("12.5")))
		assert.Equal(t, "HASH-1", tx.TxHash)
	}

	// The poller settles the batch and its rows.
	require.Eventually(t, func() bool {
		var batch model.Batch
		if err := db.First(&batch, result.Batch.ID).Error; err != nil {
			return false
		}
		return batch.Status == model.StatusConfirmed
	}, 2*time.Second, 10*time.Millisecond)

	var batch model.Batch
	require.NoError(t, db.First(&batch, result.Batch.ID).Error)
	require.NotNil(t, batch.BlockHeight)
	assert.EqualValues(t, 42, *batch.BlockHeight)
}

func TestSendMarksFailedOnRejection(t *testing.T) {
	fake := &fakeBroadcaster{
		txHash: "HASH-2",
		status: BroadcastStatus{Status: model.StatusFailed},
	}
	svc, db := newPaymentHarness(t, fake)

	result, err := svc.Send(context.Background(), SendRequest{
		Sender:     sender(),
		ListType:   model.ListTypeFixed,
		Recipients: fixedRecipients("a"),
		Amount:     decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		var batch model.Batch
		if err := db.First(&batch, result.Batch.ID).Error; err != nil {
			return false
		}
		return batch.Status == model.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSendIdempotency(t *testing.T) {
	fake := &fakeBroadcaster{
		txHash: "HASH-3",
		status: BroadcastStatus{Status: model.StatusConfirmed, BlockHeight: 7},
	}
	svc, db := newPaymentHarness(t, fake)

	req := SendRequest{
		Sender:         sender(),
		ListType:       model.ListTypeFixed,
		Recipients:     fixedRecipients("a", "b"),
		Amount:         decimal.NewFromInt(5),
		IdempotencyKey: "intent-123",
	}
	first, err := svc.Send(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// A replayed intent returns the recorded batch without a second submit.
	second, err := svc.Send(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.Batch.ID, second.Batch.ID)
	assert.Len(t, fake.submissions(), 1)

	var batches int64
	require.NoError(t, db.Model(&model.Batch{}).Count(&batches).Error)
	assert.EqualValues(t, 1, batches)
}

func TestSendValidationBlocksAllSideEffects(t *testing.T) {
	fake := &fakeBroadcaster{txHash: "HASH-4"}
	svc, db := newPaymentHarness(t, fake)

	recipients := []model.SavedRecipient{
		pctRecipient(testAddr('a'), "50"),
		pctRecipient(testAddr('b'), "40"), // sums to 90
	}
	_, err := svc.Send(context.Background(), SendRequest{
		Sender:     sender(),
		ListType:   model.ListTypePercentage,
		Recipients: recipients,
		Amount:     decimal.NewFromInt(100),
	})

	var mismatch *PercentageMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Sum.Equal(decimal.NewFromInt(90)))

	assert.Empty(t, fake.submissions())
	var batches int64
	require.NoError(t, db.Model(&model.Batch{}).Count(&batches).Error)
	assert.Zero(t, batches)
}

func TestSendSignerUnavailable(t *testing.T) {
	fake := &fakeBroadcaster{readyErr: ErrSignerUnavailable}
	svc, db := newPaymentHarness(t, fake)

	_, err := svc.Send(context.Background(), SendRequest{
		Sender:     sender(),
		ListType:   model.ListTypeFixed,
		Recipients: fixedRecipients("a"),
		Amount:     decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrSignerUnavailable)

	var batches int64
	require.NoError(t, db.Model(&model.Batch{}).Count(&batches).Error)
	assert.Zero(t, batches)
}

func TestSendBroadcastFailureLeavesNoLedgerRows(t *testing.T) {
	fake := &fakeBroadcaster{submitErr: errors.New("mempool rejected")}
	svc, db := newPaymentHarness(t, fake)

	_, err := svc.Send(context.Background(), SendRequest{
		Sender:     sender(),
		ListType:   model.ListTypeFixed,
		Recipients: fixedRecipients("a", "b"),
		Amount:     decimal.NewFromInt(2),
	})
	require.Error(t, err)

	var txs int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&txs).Error)
	assert.Zero(t, txs)
}

func TestSendRejectsMalformedSender(t *testing.T) {
	fake := &fakeBroadcaster{txHash: "HASH-5"}
	svc, db := newPaymentHarness(t, fake)

	_, err := svc.Send(context.Background(), SendRequest{
		Sender:     "cosmos1notthisnetworkxxxxxxxxxxxxxxxxxxxxx",
		ListType:   model.ListTypeFixed,
		Recipients: fixedRecipients("a"),
		Amount:     decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, ErrInvalidAddressFormat)

	assert.Empty(t, fake.submissions())
	var batches int64
	require.NoError(t, db.Model(&model.Batch{}).Count(&batches).Error)
	assert.Zero(t, batches)
}

func TestFeeTiers(t *testing.T) {
	single := FeeFor(1)
	assert.EqualValues(t, model.GasPerOutput, single.GasLimit)
	assert.EqualValues(t, model.FeeSingleUnits, single.FeeUnits)

	batch := FeeFor(10)
	assert.EqualValues(t, 10*model.GasPerOutput, batch.GasLimit)
	assert.EqualValues(t, model.FeeBatchUnits, batch.FeeUnits)
}

func sender() string {
	return model.AddressPrefix + "senderxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
}
