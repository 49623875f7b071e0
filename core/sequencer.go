package core


import (
	"context"
	"errors"
	"time"

	"surfpool-replay/core/results"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)


const (
	DEFAULT_DELAY time.Duration = 2 * time.Second

	tracerName = "surfpool-replay/core"
)


// Suspend the caller for `d` or until `ctx` is done.
//
type Sleeper func(ctx context.Context, d time.Duration) error

// Receive progress notifications from a running sequencer.
// Indexes start at 0.
//
type Observer interface {
	TransactionStarted(index, total int, desc *TransactionDescriptor)

	TransactionFinished(index, total int, result results.ReplayResult)
}


type Sequencer struct {
	logger    Logger
	provider  BlockReferenceProvider
	compiler  TransactionCompiler
	signer    TransactionSigner
	channel   Channel
	delay     time.Duration
	sleep     Sleeper
	observer  Observer
	tracer    trace.Tracer
	now       func() time.Time
	ids       *runIDGenerator
}

type SequencerOption func(*Sequencer)


func WithLogger(logger Logger) SequencerOption {
	return func(s *Sequencer) { s.logger = logger }
}

// Pause between two consecutive transactions.
//
func WithDelay(delay time.Duration) SequencerOption {
	return func(s *Sequencer) { s.delay = delay }
}

func WithSleeper(sleep Sleeper) SequencerOption {
	return func(s *Sequencer) { s.sleep = sleep }
}

func WithObserver(observer Observer) SequencerOption {
	return func(s *Sequencer) { s.observer = observer }
}

func WithTracer(tracer trace.Tracer) SequencerOption {
	return func(s *Sequencer) { s.tracer = tracer }
}

func WithClock(now func() time.Time) SequencerOption {
	return func(s *Sequencer) { s.now = now }
}


func NewSequencer(provider BlockReferenceProvider, compiler TransactionCompiler, signer TransactionSigner, channel Channel, opts ...SequencerOption) *Sequencer {
	var this Sequencer = Sequencer{
		logger:    ExtendLogger("replay"),
		provider:  provider,
		compiler:  compiler,
		signer:    signer,
		channel:   channel,
		delay:     DEFAULT_DELAY,
		sleep:     sleepContext,
		observer:  nil,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		ids:       newRunIDGenerator(),
	}
	var opt SequencerOption

	for _, opt = range opts {
		opt(&this)
	}

	return &this
}

// Replay the given descriptors in order.
// Every descriptor is attempted and yields exactly one result, whatever
// happened to the previous ones.
// The returned error is non nil only if the run had to stop early, either
// because the compiler environment cannot be set up or because `ctx` is
// done. The summary then holds the results gathered so far.
//
func (this *Sequencer) Run(ctx context.Context, descriptors []*TransactionDescriptor) (results.RunSummary, error) {
	var acc []results.ReplayResult
	var result results.ReplayResult
	var events *results.EventLog
	var started time.Time
	var span trace.Span
	var runID string
	var err error
	var i int

	started = this.now()

	runID, err = this.ids.next(started)
	if err != nil {
		return results.RunSummary{}, err
	}

	ctx, span = this.tracer.Start(ctx, "replay.run",
		trace.WithAttributes(
			attribute.String("replay.run_id", runID),
			attribute.Int("replay.transactions", len(descriptors))))
	defer span.End()

	this.logger.Infof("found %d transactions to replay (run %s)",
		len(descriptors), runID)

	acc = make([]results.ReplayResult, 0, len(descriptors))
	events = results.NewEventLog(started)

	for i = range descriptors {
		this.logger.Infof("transaction %d/%d: %s", i + 1,
			len(descriptors), descriptors[i].Name)

		if this.observer != nil {
			this.observer.TransactionStarted(i, len(descriptors),
				descriptors[i])
		}

		result, err = this.replayOne(ctx, i, descriptors[i], events)
		if (err == nil) && (ctx.Err() != nil) {
			err = ctx.Err()
		}

		acc = append(acc, result)

		if this.observer != nil {
			this.observer.TransactionFinished(i, len(descriptors),
				result)
		}

		if err != nil {
			break
		}

		if i + 1 < len(descriptors) {
			this.logger.Infof("waiting %s before next transaction",
				this.delay)

			err = this.sleep(ctx, this.delay)
			if err != nil {
				break
			}
		}
	}

	summary := results.Summarize(runID, started, this.now(), acc)
	summary.Latency = events.Format()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		this.logger.Errorf("run stopped after %d/%d transactions: %s",
			len(acc), len(descriptors), err.Error())
	}

	span.SetAttributes(
		attribute.Int("replay.successful", summary.Successful),
		attribute.Int("replay.failed", summary.Failed))

	this.logSummary(&summary)

	return summary, err
}

// Attempt one transaction. The returned error is only set for conditions
// that must stop the whole run.
//
func (this *Sequencer) replayOne(ctx context.Context, index int, desc *TransactionDescriptor, events *results.EventLog) (results.ReplayResult, error) {
	var compiled *CompiledTransaction
	var signed *SignedTransaction
	var result results.ReplayResult
	var setupErr *SetupError
	var blockhash string
	var span trace.Span
	var err error

	ctx, span = this.tracer.Start(ctx, "replay.transaction",
		trace.WithAttributes(
			attribute.String("tx.name", desc.Name),
			attribute.Int("tx.index", index)))
	defer span.End()

	blockhash, err = this.fetch(ctx, desc)
	if err != nil {
		return this.fail(span, desc.Name, err), nil
	}

	compiled, err = this.compile(ctx, desc, blockhash)
	if err != nil {
		result = this.fail(span, desc.Name, err)
		if errors.As(err, &setupErr) {
			return result, err
		}
		return result, nil
	}

	signed, err = this.signer.SignTransaction(compiled)
	if err != nil {
		return this.fail(span, desc.Name, err), nil
	}

	span.SetAttributes(attribute.String("tx.signature", signed.Signature))

	sentAt := this.now()

	submission, result := this.submit(ctx, signed)

	switch submission.State() {
	case STATE_CONFIRMED:
		events.AddSubmit(index, sentAt)
		events.AddCommit(index, this.now())
	case STATE_UNCONFIRMED:
		events.AddSubmit(index, sentAt)
	case STATE_REJECTED:
		// refused at send time, never reached the network
		if submission.Receipt() != "" {
			events.AddSubmit(index, sentAt)
			events.AddAbort(index, this.now())
		}
	}

	if !result.Success {
		span.SetStatus(codes.Error, result.ErrorText())
	}

	return result, nil
}

func (this *Sequencer) fetch(ctx context.Context, desc *TransactionDescriptor) (string, error) {
	var fetchErr *FreshnessFetchError
	var blockhash string
	var span trace.Span
	var err error

	ctx, span = this.tracer.Start(ctx, "replay.blockhash")
	defer span.End()

	blockhash, err = this.provider.Fetch(ctx)
	if (err == nil) && (blockhash == "") {
		err = errors.New("empty blockhash")
	}

	if err != nil {
		if !errors.As(err, &fetchErr) {
			err = &FreshnessFetchError{ Name: desc.Name, Err: err }
		}
		span.RecordError(err)
		return "", err
	}

	span.SetAttributes(attribute.String("tx.blockhash", blockhash))

	return blockhash, nil
}

func (this *Sequencer) compile(ctx context.Context, desc *TransactionDescriptor, blockhash string) (*CompiledTransaction, error) {
	var compiled *CompiledTransaction
	var compileErr *CompileError
	var span trace.Span
	var err error

	ctx, span = this.tracer.Start(ctx, "replay.compile")
	defer span.End()

	compiled, err = this.compiler.Compile(ctx, desc, blockhash)
	if err != nil {
		if errors.As(err, &compileErr) && (compileErr.Details != "") {
			this.logger.Errorf("%s: details: %s", desc.Name,
				compileErr.Details)
		}
		span.RecordError(err)
		return nil, err
	}

	return compiled, nil
}

func (this *Sequencer) submit(ctx context.Context, signed *SignedTransaction) (*Submission, results.ReplayResult) {
	var submission *Submission
	var span trace.Span

	ctx, span = this.tracer.Start(ctx, "replay.submit")
	defer span.End()

	submission = NewSubmission(this.logger, this.channel, signed)

	result := submission.Run(ctx)

	span.SetAttributes(attribute.String("tx.state",
		submission.State().String()))

	return submission, result
}

func (this *Sequencer) fail(span trace.Span, name string, err error) results.ReplayResult {
	this.logger.Errorf("%s: %s", name, err.Error())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return results.Failed(name, "", err.Error())
}

func (this *Sequencer) logSummary(summary *results.RunSummary) {
	var failed []results.ReplayResult
	var res results.ReplayResult

	this.logger.Infof("replay summary: total: %d, successful: %d, " +
		"failed: %d", summary.Total, summary.Successful,
		summary.Failed)

	if summary.Latency.Confirmed > 0 {
		this.logger.Debugf("confirmation latency: mean %.0f ms, " +
			"median %.0f ms, max %.0f ms", summary.Latency.Mean,
			summary.Latency.Median, summary.Latency.Max)
	}

	failed = summary.FailedResults()
	if len(failed) == 0 {
		return
	}

	this.logger.Infof("failed transactions:")
	for _, res = range failed {
		this.logger.Infof("  - %s: %s", res.Name, res.ErrorText())
	}
}


func sleepContext(ctx context.Context, d time.Duration) error {
	var timer *time.Timer

	if d <= 0 {
		return ctx.Err()
	}

	timer = time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
