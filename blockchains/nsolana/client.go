package nsolana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"surfpool-replay/core"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const (
	defaultConfirmTimeout = 30 * time.Second
	defaultPollInterval   = 500 * time.Millisecond
)

// The RPC channel to the validator. It submits signed transactions and
// polls their status until the awaited commitment is reached.
type Channel struct {
	logger       core.Logger
	client       *rpc.Client
	commitment   rpc.CommitmentType
	timeout      time.Duration
	pollInterval time.Duration
}

func newChannel(logger core.Logger, client *rpc.Client, commitment rpc.CommitmentType) *Channel {
	return &Channel{
		logger:       logger,
		client:       client,
		commitment:   commitment,
		timeout:      defaultConfirmTimeout,
		pollInterval: defaultPollInterval,
	}
}

func (this *Channel) BlockHeight(ctx context.Context) (uint64, error) {
	return this.client.GetBlockHeight(ctx, this.commitment)
}

func (this *Channel) SendTransaction(ctx context.Context, raw []byte) (string, error) {
	start := time.Now()

	signature, err := this.client.SendRawTransactionWithOpts(
		ctx,
		raw,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: this.commitment,
		})

	this.logger.Debugf("transaction sent in %.3fs",
		time.Since(start).Seconds())

	if err != nil {
		return "", err
	}

	if signature.IsZero() {
		return "", nil
	}

	return signature.String(), nil
}

func (this *Channel) AwaitConfirmation(ctx context.Context, receipt string) (*core.Confirmation, error) {
	var status *rpc.SignatureStatusesResult
	var lastErr error

	signature, err := solana.SignatureFromBase58(receipt)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", receipt, err)
	}

	wctx, cancel := context.WithTimeout(ctx, this.timeout)
	defer cancel()

	ticker := time.NewTicker(this.pollInterval)
	defer ticker.Stop()

	for {
		status, err = this.getStatus(wctx, signature)

		if err != nil {
			this.logger.Tracef("poll %s: %s", prefix(receipt, 16),
				err.Error())
			lastErr = err
		} else if status != nil {
			if status.Err != nil {
				return this.confirmation(status), nil
			}

			if reached(status.ConfirmationStatus, this.commitment) {
				return this.confirmation(status), nil
			}

			this.logger.Tracef("poll %s: %s", prefix(receipt, 16),
				status.ConfirmationStatus)
		}

		select {
		case <-wctx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if (lastErr == nil) || errors.Is(lastErr, rpc.ErrNotFound) ||
				errors.Is(lastErr, context.DeadlineExceeded) {
				return nil, nil
			}
			return nil, lastErr
		case <-ticker.C:
		}
	}
}

func (this *Channel) getStatus(ctx context.Context, signature solana.Signature) (*rpc.SignatureStatusesResult, error) {
	out, err := this.client.GetSignatureStatuses(ctx, true, signature)
	if err != nil {
		return nil, err
	}

	if len(out.Value) == 0 {
		return nil, nil
	}

	return out.Value[0], nil
}

func (this *Channel) confirmation(status *rpc.SignatureStatusesResult) *core.Confirmation {
	return &core.Confirmation{
		Slot:   status.Slot,
		Status: string(status.ConfirmationStatus),
		Err:    executionError(status.Err),
	}
}

func executionError(value interface{}) string {
	if value == nil {
		return ""
	}

	if text, ok := value.(string); ok {
		return text
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}

	return string(encoded)
}

func commitmentRank(status string) int {
	switch status {
	case string(rpc.ConfirmationStatusProcessed):
		return 1
	case string(rpc.ConfirmationStatusConfirmed):
		return 2
	case string(rpc.ConfirmationStatusFinalized):
		return 3
	default:
		return 0
	}
}

// Whether a transaction in the given status satisfies the commitment.
func reached(status rpc.ConfirmationStatusType, commitment rpc.CommitmentType) bool {
	rank := commitmentRank(string(status))
	return (rank > 0) && (rank >= commitmentRank(string(commitment)))
}
