package nsolana

import (
	"context"
	"fmt"

	"surfpool-replay/core"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type parameters struct {
	blockhash            *solana.Hash
	lastValidBlockHeight uint64
}

// Fetches a fresh blockhash from the network every time it is asked for one.
// It keeps no state between two calls.
type BlockhashProvider struct {
	logger     core.Logger
	client     *rpc.Client
	commitment rpc.CommitmentType
}

func newBlockhashProvider(logger core.Logger, client *rpc.Client, commitment rpc.CommitmentType) *BlockhashProvider {
	return &BlockhashProvider{
		logger:     logger,
		client:     client,
		commitment: commitment,
	}
}

func (this *BlockhashProvider) getParams(ctx context.Context) (*parameters, error) {
	var params parameters

	latest, err := this.client.GetLatestBlockhash(ctx, this.commitment)
	if err != nil {
		return nil, err
	}

	if latest == nil || latest.Value == nil {
		return nil, fmt.Errorf("empty response")
	}

	if latest.Value.Blockhash.IsZero() {
		return nil, fmt.Errorf("zero blockhash")
	}

	params.blockhash = &latest.Value.Blockhash
	params.lastValidBlockHeight = latest.Value.LastValidBlockHeight

	return &params, nil
}

func (this *BlockhashProvider) Fetch(ctx context.Context) (string, error) {
	params, err := this.getParams(ctx)
	if err != nil {
		return "", &core.FreshnessFetchError{Err: err}
	}

	blockhash := params.blockhash.String()

	this.logger.Debugf("got blockhash %s... (valid until height %d)",
		prefix(blockhash, 16), params.lastValidBlockHeight)

	return blockhash, nil
}

func prefix(value string, n int) string {
	if len(value) <= n {
		return value
	}
	return value[:n]
}
