package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	ErrSignerUnavailable = errors.New("wallet signer unavailable")
	ErrBroadcastFailed   = errors.New("broadcast failed")
)

// TransferInput is the single funding side of a multi-output transfer.
type TransferInput struct {
	Address string `json:"address"`
	Units   int64  `json:"units"`
}

// TransferOutput is one recipient entry of a multi-output transfer.
type TransferOutput struct {
	Address string `json:"address"`
	Units   int64  `json:"units"`
}

// MultiSendInstruction is one atomic multi-output transfer: a single input
// funding one output per recipient. Not N separate transfers.
type MultiSendInstruction struct {
	Input   TransferInput    `json:"input"`
	Outputs []TransferOutput `json:"outputs"`
	Memo    string           `json:"memo,omitempty"`
}

// FeeConfig is the gas/fee budget attached to a submission.
type FeeConfig struct {
	GasLimit uint64 `json:"gasLimit"`
	FeeUnits int64  `json:"feeUnits"`
}

// BroadcastStatus is the chain-side view of a submitted transfer.
type BroadcastStatus struct {
	Status      string `json:"status"` // pending / confirmed / failed
	BlockHeight uint64 `json:"blockHeight"`
}

// Broadcaster is the external signing/broadcast collaborator. The engine
// never holds key material; it hands a ready instruction to the wallet
// daemon and reads back the transaction status.
type Broadcaster interface {
	// Ready fails when no connected wallet can sign for the sender.
	Ready(ctx context.Context) error
	// SignAndSubmit signs the instruction and broadcasts it, returning the
	// transaction hash once the network has accepted it for inclusion.
	SignAndSubmit(ctx context.Context, instr MultiSendInstruction, fee FeeConfig) (string, error)
	// TxStatus reports whether a submitted transfer has been included.
	TxStatus(ctx context.Context, txHash string) (*BroadcastStatus, error)
}

// HTTPBroadcaster talks to a wallet daemon over HTTP.
type HTTPBroadcaster struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBroadcaster(baseURL string) *HTTPBroadcaster {
	return &HTTPBroadcaster{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *HTTPBroadcaster) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/ready", nil)
	if err != nil {
		return err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: daemon returned %d", ErrSignerUnavailable, resp.StatusCode)
	}
	return nil
}

func (b *HTTPBroadcaster) SignAndSubmit(ctx context.Context, instr MultiSendInstruction, fee FeeConfig) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"instruction": instr,
		"fee":         fee,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/submit", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: daemon returned %d", ErrBroadcastFailed, resp.StatusCode)
	}

	var out struct {
		TxHash string `json:"tx_hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBroadcastFailed, err)
	}
	if out.TxHash == "" {
		return "", fmt.Errorf("%w: daemon returned no tx hash", ErrBroadcastFailed)
	}
	return out.TxHash, nil
}

func (b *HTTPBroadcaster) TxStatus(ctx context.Context, txHash string) (*BroadcastStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/tx/"+txHash, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status query returned %d", resp.StatusCode)
	}
	var st BroadcastStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}
