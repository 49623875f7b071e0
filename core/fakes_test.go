package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"surfpool-replay/core/results"
)

type fakeProvider struct {
	calls  int
	failAt map[int]bool // 1-based call numbers that fail
}

func (this *fakeProvider) Fetch(ctx context.Context) (string, error) {
	this.calls += 1
	if this.failAt[this.calls] {
		return "", errors.New("node is behind")
	}
	return fmt.Sprintf("hash-%d", this.calls), nil
}

type fakeCompiler struct {
	calls       []string
	blockhashes []string
	fail        map[string]error
}

func (this *fakeCompiler) Compile(ctx context.Context, desc *TransactionDescriptor, blockhash string) (*CompiledTransaction, error) {
	this.calls = append(this.calls, desc.Name)
	this.blockhashes = append(this.blockhashes, blockhash)
	if err, found := this.fail[desc.Name]; found {
		return nil, err
	}
	return &CompiledTransaction{ Name: desc.Name, Encoded: "tx:" + desc.Name }, nil
}

type fakeSigner struct {
	fail map[string]bool
}

func (this *fakeSigner) PublicKey() string {
	return "payer"
}

func (this *fakeSigner) SignTransaction(compiled *CompiledTransaction) (*SignedTransaction, error) {
	if this.fail[compiled.Name] {
		return nil, &InvalidMessageError{ Reason: "fee payer mismatch" }
	}
	return &SignedTransaction{
		Name: compiled.Name,
		Raw: []byte(compiled.Encoded),
		Signature: "sig-" + compiled.Name,
	}, nil
}

// Outcome of one transaction on the fake network, keyed by wire bytes.
type fakeOutcome struct {
	sendErr      error
	noReceipt    bool
	awaitErr     error
	noData       bool
	executionErr string
}

type fakeChannel struct {
	lock     sync.Mutex
	sent     []string
	awaited  []string
	outcomes map[string]fakeOutcome
}

func (this *fakeChannel) SendTransaction(ctx context.Context, raw []byte) (string, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	this.sent = append(this.sent, string(raw))

	outcome := this.outcomes[string(raw)]
	if outcome.sendErr != nil {
		return "", outcome.sendErr
	} else if outcome.noReceipt {
		return "", nil
	}

	return "receipt-" + string(raw), nil
}

func (this *fakeChannel) AwaitConfirmation(ctx context.Context, receipt string) (*Confirmation, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	this.awaited = append(this.awaited, receipt)

	outcome := this.outcomes[receipt[len("receipt-"):]]
	if outcome.awaitErr != nil {
		return nil, outcome.awaitErr
	} else if outcome.noData {
		return nil, nil
	}

	return &Confirmation{ Slot: 42, Status: "confirmed", Err: outcome.executionErr }, nil
}

type fakeSleeper struct {
	delays []time.Duration
	err    error
}

func (this *fakeSleeper) sleep(ctx context.Context, d time.Duration) error {
	this.delays = append(this.delays, d)
	return this.err
}

type recordingObserver struct {
	started  []int
	finished []int
}

func (this *recordingObserver) TransactionStarted(index, total int, desc *TransactionDescriptor) {
	this.started = append(this.started, index)
}

func (this *recordingObserver) TransactionFinished(index, total int, result results.ReplayResult) {
	this.finished = append(this.finished, index)
}

type cancellingObserver struct {
	cancel context.CancelFunc
}

func (this *cancellingObserver) TransactionStarted(int, int, *TransactionDescriptor) {
	this.cancel()
}

func (this *cancellingObserver) TransactionFinished(int, int, results.ReplayResult) {
}

func descriptors(n int) []*TransactionDescriptor {
	var descs []*TransactionDescriptor
	var i int

	for i = 1; i <= n; i++ {
		name := fmt.Sprintf("tx_%02d.ts", i)
		descs = append(descs, &TransactionDescriptor{
			Name: name,
			Path: "transactions/" + name,
			Source: []byte("// " + name),
		})
	}

	return descs
}
