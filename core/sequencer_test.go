package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"surfpool-replay/core/results"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sequencerFixture struct {
	provider *fakeProvider
	compiler *fakeCompiler
	signer   *fakeSigner
	channel  *fakeChannel
	sleeper  *fakeSleeper
	observer *recordingObserver
}

func newSequencerFixture() *sequencerFixture {
	return &sequencerFixture{
		provider: &fakeProvider{ failAt: map[int]bool{} },
		compiler: &fakeCompiler{ fail: map[string]error{} },
		signer:   &fakeSigner{ fail: map[string]bool{} },
		channel:  &fakeChannel{ outcomes: map[string]fakeOutcome{} },
		sleeper:  &fakeSleeper{},
		observer: &recordingObserver{},
	}
}

func (this *sequencerFixture) run(t *testing.T, n int, opts ...SequencerOption) (results.RunSummary, error) {
	opts = append([]SequencerOption{
		WithLogger(NewNoLogger()),
		WithSleeper(this.sleeper.sleep),
		WithObserver(this.observer),
	}, opts...)

	sequencer := NewSequencer(this.provider, this.compiler, this.signer,
		this.channel, opts...)

	return sequencer.Run(context.Background(), descriptors(n))
}

func assertWellFormed(t *testing.T, summary results.RunSummary) {
	for _, res := range summary.Results {
		if res.Success {
			assert.Nil(t, res.Error, res.Name)
		} else {
			require.NotNil(t, res.Error, res.Name)
			assert.NotEmpty(t, *res.Error, res.Name)
		}
	}
	assert.Equal(t, summary.Total, summary.Successful + summary.Failed)
	assert.Equal(t, len(summary.Results), summary.Total)
}

func names(rs []results.ReplayResult) []string {
	var ret []string
	for _, r := range rs {
		ret = append(ret, r.Name)
	}
	return ret
}

func TestSequencerRun(t *testing.T) {
	t.Run("all confirmed", func(t *testing.T) {
		f := newSequencerFixture()

		summary, err := f.run(t, 3, WithDelay(5 * time.Second))
		require.NoError(t, err)
		assertWellFormed(t, summary)

		assert.Equal(t, []string{"tx_01.ts", "tx_02.ts", "tx_03.ts"}, names(summary.Results))
		assert.Equal(t, 3, summary.Successful)
		assert.Equal(t, 0, summary.Failed)
		require.NotNil(t, summary.Results[1].Signature)
		assert.Equal(t, "receipt-tx:tx_02.ts", *summary.Results[1].Signature)
		assert.NotEmpty(t, summary.RunID)

		assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, f.sleeper.delays)
	})

	t.Run("compile failures do not stop the run", func(t *testing.T) {
		f := newSequencerFixture()
		f.compiler.fail["tx_03.ts"] = &CompileError{ Name: "tx_03.ts", Message: "pool not found" }
		f.compiler.fail["tx_05.ts"] = &CompileTimeoutError{ Name: "tx_05.ts", Timeout: 35 * time.Second }

		summary, err := f.run(t, 5)
		require.NoError(t, err)
		assertWellFormed(t, summary)

		assert.Equal(t, 5, summary.Total)
		assert.Equal(t, 3, summary.Successful)
		assert.Equal(t, 2, summary.Failed)

		failed := summary.FailedResults()
		assert.Equal(t, []string{"tx_03.ts", "tx_05.ts"}, names(failed))
		assert.Equal(t, "build failed: pool not found", failed[0].ErrorText())
		assert.Equal(t, "build timed out after 35s", failed[1].ErrorText())
		assert.Nil(t, failed[0].Signature)

		assert.Len(t, f.sleeper.delays, 4)
		assert.Len(t, f.channel.sent, 3)
	})

	t.Run("blockhash failure skips only one transaction", func(t *testing.T) {
		f := newSequencerFixture()
		f.provider.failAt[1] = true

		summary, err := f.run(t, 3)
		require.NoError(t, err)
		assertWellFormed(t, summary)

		assert.False(t, summary.Results[0].Success)
		assert.Equal(t, "no blockhash: node is behind", summary.Results[0].ErrorText())
		assert.True(t, summary.Results[1].Success)
		assert.True(t, summary.Results[2].Success)

		assert.Equal(t, []string{"tx_02.ts", "tx_03.ts"}, f.compiler.calls)
		assert.Equal(t, []string{"hash-2", "hash-3"}, f.compiler.blockhashes)
		assert.Equal(t, 3, f.provider.calls)
		assert.Len(t, f.sleeper.delays, 2)
	})

	t.Run("distinguishable submission outcomes", func(t *testing.T) {
		f := newSequencerFixture()
		f.channel.outcomes["tx:tx_01.ts"] = fakeOutcome{ noData: true }
		f.channel.outcomes["tx:tx_02.ts"] = fakeOutcome{ executionErr: `{"InstructionError":[0,{"Custom":6001}]}` }
		f.channel.outcomes["tx:tx_03.ts"] = fakeOutcome{ sendErr: errors.New("blockhash not found") }
		f.channel.outcomes["tx:tx_04.ts"] = fakeOutcome{ noReceipt: true }
		f.signer.fail["tx_05.ts"] = true

		summary, err := f.run(t, 6)
		require.NoError(t, err)
		assertWellFormed(t, summary)

		r := summary.Results
		assert.Equal(t, "no confirmation received", r[0].ErrorText())
		require.NotNil(t, r[0].Signature)
		assert.Equal(t, "receipt-tx:tx_01.ts", *r[0].Signature)

		assert.Equal(t, `failed: {"InstructionError":[0,{"Custom":6001}]}`, r[1].ErrorText())
		require.NotNil(t, r[1].Signature)

		assert.Equal(t, "no signature returned: blockhash not found", r[2].ErrorText())
		assert.Nil(t, r[2].Signature)

		assert.Equal(t, "no signature returned", r[3].ErrorText())
		assert.Nil(t, r[3].Signature)

		assert.Equal(t, "invalid message: fee payer mismatch", r[4].ErrorText())

		assert.True(t, r[5].Success)
		assert.Equal(t, 1, summary.Successful)

		// One submission per transaction that got signed
		assert.Len(t, f.channel.sent, 5)
		assert.Len(t, f.channel.awaited, 3)
	})

	t.Run("empty input", func(t *testing.T) {
		f := newSequencerFixture()

		summary, err := f.run(t, 0)
		require.NoError(t, err)

		assert.Empty(t, summary.Results)
		assert.Equal(t, 0, summary.Total)
		assert.Empty(t, f.sleeper.delays)
		assert.Equal(t, 0, f.provider.calls)
	})

	t.Run("single transaction never waits", func(t *testing.T) {
		f := newSequencerFixture()

		_, err := f.run(t, 1)
		require.NoError(t, err)
		assert.Empty(t, f.sleeper.delays)
	})

	t.Run("setup failure aborts", func(t *testing.T) {
		var setupErr *SetupError
		f := newSequencerFixture()
		f.compiler.fail["tx_02.ts"] = &SetupError{
			Artifact: "dex_env.ts",
			Err: &DiscoveryError{ Reason: "timed out after 2m0s" },
		}

		summary, err := f.run(t, 4)
		require.Error(t, err)
		assert.True(t, errors.As(err, &setupErr))
		assertWellFormed(t, summary)

		assert.Equal(t, []string{"tx_01.ts", "tx_02.ts"}, names(summary.Results))
		assert.True(t, summary.Results[0].Success)
		assert.Equal(t, "cannot generate dex_env.ts: timed out after 2m0s", summary.Results[1].ErrorText())
		assert.Len(t, f.sleeper.delays, 1)
		assert.Len(t, f.compiler.calls, 2)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		f := newSequencerFixture()
		f.sleeper.err = context.Canceled

		summary, err := f.run(t, 3)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, summary.Results, 1)
		assert.Equal(t, 1, summary.Successful)
	})

	t.Run("cancelled during the last transaction", func(t *testing.T) {
		f := newSequencerFixture()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		seq := NewSequencer(f.provider, f.compiler, f.signer, f.channel,
			WithLogger(NewNoLogger()), WithSleeper(f.sleeper.sleep),
			WithObserver(&cancellingObserver{ cancel: cancel }))

		summary, err := seq.Run(ctx, descriptors(1))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, summary.Results, 1)
	})

	t.Run("observer sees every transaction", func(t *testing.T) {
		f := newSequencerFixture()
		f.compiler.fail["tx_02.ts"] = &CompileError{ Message: "x" }

		_, err := f.run(t, 3)
		require.NoError(t, err)

		assert.Equal(t, []int{0, 1, 2}, f.observer.started)
		assert.Equal(t, []int{0, 1, 2}, f.observer.finished)
	})

	t.Run("failure kinds kept apart in latency stats", func(t *testing.T) {
		f := newSequencerFixture()
		f.channel.outcomes["tx:tx_01.ts"] = fakeOutcome{ sendErr: errors.New("blockhash not found") }
		f.channel.outcomes["tx:tx_02.ts"] = fakeOutcome{ executionErr: "InstructionError" }
		f.channel.outcomes["tx:tx_03.ts"] = fakeOutcome{ noData: true }

		summary, err := f.run(t, 4)
		require.NoError(t, err)

		assert.Equal(t, 1, summary.Successful)
		assert.Equal(t, 3, summary.Failed)
		assert.Equal(t, 1, summary.Latency.Confirmed)
		assert.Equal(t, 1, summary.Latency.Rejected)
		assert.Equal(t, 1, summary.Latency.Pending)
	})

	t.Run("timestamps from clock", func(t *testing.T) {
		f := newSequencerFixture()
		f.channel.outcomes["tx:tx_02.ts"] = fakeOutcome{ noData: true }
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		tick := 0
		clock := func() time.Time {
			tick += 1
			return base.Add(time.Duration(tick) * time.Second)
		}

		// start, submit 1, commit 1, submit 2, finish
		summary, err := f.run(t, 2, WithClock(clock))
		require.NoError(t, err)

		assert.Equal(t, base.Add(time.Second), summary.StartedAt)
		assert.Equal(t, base.Add(5 * time.Second), summary.FinishedAt)
		assert.Equal(t, 4 * time.Second, summary.Duration())

		assert.Equal(t, 1, summary.Latency.Confirmed)
		assert.Equal(t, 1, summary.Latency.Pending)
		assert.Equal(t, float64(1000), summary.Latency.Max)
	})
}

func TestSleepContext(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		start := time.Now()
		err := sleepContext(ctx, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(start), time.Second)
	})
}
