package core


import (
	"context"
)


// A transaction to replay, as found on disk.
// Descriptors are immutable once discovered.
//
type TransactionDescriptor struct {
	Name    string
	Path    string
	Source  []byte
}

// The unsigned transaction produced by the compiler, base64 encoded.
//
type CompiledTransaction struct {
	Name     string
	Encoded  string
}

// A transaction ready for submission: `Raw` holds the wire bytes and
// `Signature` the fee payer signature in base58.
//
type SignedTransaction struct {
	Name       string
	Raw        []byte
	Signature  string
}

// What the network reports once a sent transaction is included.
// An empty `Err` means the transaction executed without error.
//
type Confirmation struct {
	Slot    uint64
	Status  string
	Err     string
}


type BlockReferenceProvider interface {
	// Return a fresh blockhash.
	// Must be called right before the compilation of each transaction
	// because blockhashes expire.
	//
	Fetch(ctx context.Context) (string, error)
}

type TransactionCompiler interface {
	// Turn the given `desc` into an unsigned transaction referencing the
	// given `blockhash`.
	// Failures are reported as `*CompileError`, `*CompileTimeoutError`
	// or `*SetupError`.
	//
	Compile(ctx context.Context, desc *TransactionDescriptor, blockhash string) (*CompiledTransaction, error)
}

type TransactionSigner interface {
	// Base58 public key of the signing identity.
	//
	PublicKey() string

	// Sign the message of the given compiled transaction and place the
	// signature in the fee payer slot.
	//
	SignTransaction(compiled *CompiledTransaction) (*SignedTransaction, error)
}

type Channel interface {
	// Submit the given wire bytes and return the transaction signature
	// used as a receipt.
	//
	SendTransaction(ctx context.Context, raw []byte) (string, error)

	// Wait until the network reports the outcome of the transaction
	// identified by `receipt`.
	// Return `nil, nil` if the wait elapsed without any data.
	//
	AwaitConfirmation(ctx context.Context, receipt string) (*Confirmation, error)
}

type BlockHeightSource interface {
	BlockHeight(ctx context.Context) (uint64, error)
}


// Query the validator once before replaying anything.
//
func CheckConnectivity(ctx context.Context, source BlockHeightSource, endpoint string, logger Logger) (uint64, error) {
	var height uint64
	var err error

	height, err = source.BlockHeight(ctx)
	if err != nil {
		return 0, &ConnectivityError{ Endpoint: endpoint, Err: err }
	}

	logger.Infof("connected to %s (block height: %d)", endpoint, height)

	return height, nil
}
