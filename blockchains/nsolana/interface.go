package nsolana

import (
	"fmt"
	"os"
	"time"

	"surfpool-replay/core"
	"surfpool-replay/util"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

const DefaultKeypairPath = "~/.config/solana/id.json"

// A connection to one validator endpoint, shared by the blockhash provider
// and the submission channel.
type Connection struct {
	logger   core.Logger
	endpoint string
	client   *rpc.Client
	provider *BlockhashProvider
	channel  *Channel
}

func Connect(logger core.Logger, endpoint, commitment string, confirmTimeout, pollInterval time.Duration) *Connection {
	logger.Debugf("use endpoint '%s'", endpoint)

	client := rpc.New(endpoint)

	return newConnection(logger, endpoint, client, commitment, confirmTimeout, pollInterval)
}

func newConnection(logger core.Logger, endpoint string, client *rpc.Client, commitment string, confirmTimeout, pollInterval time.Duration) *Connection {
	level := rpc.CommitmentType(commitment)
	if level == "" {
		level = rpc.CommitmentConfirmed
	}

	channel := newChannel(logger, client, level)
	if confirmTimeout > 0 {
		channel.timeout = confirmTimeout
	}
	if pollInterval > 0 {
		channel.pollInterval = pollInterval
	}

	return &Connection{
		logger:   logger,
		endpoint: endpoint,
		client:   client,
		provider: newBlockhashProvider(logger, client, level),
		channel:  channel,
	}
}

func (this *Connection) Endpoint() string {
	return this.endpoint
}

func (this *Connection) Provider() *BlockhashProvider {
	return this.provider
}

func (this *Connection) Channel() *Channel {
	return this.channel
}

func (this *Connection) Close() error {
	return this.client.Close()
}

// Load a keypair file as written by the Solana CLI.
func LoadKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		path = DefaultKeypairPath
	}

	expanded, err := util.ExpandHome(path)
	if err != nil {
		return nil, err
	}

	if _, err = os.Stat(expanded); err != nil {
		return nil, fmt.Errorf("keypair not found at %s", expanded)
	}

	private, err := solana.PrivateKeyFromSolanaKeygenFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("cannot load keypair %s: %w", expanded, err)
	}

	return private, nil
}
