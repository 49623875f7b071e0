package core


import (
	"context"
	"errors"

	"surfpool-replay/core/results"
)


type SubmissionState int


const (
	STATE_BUILT       SubmissionState = 0
	STATE_SENT        SubmissionState = 1
	STATE_CONFIRMED   SubmissionState = 2
	STATE_REJECTED    SubmissionState = 3
	STATE_UNCONFIRMED SubmissionState = 4
)


func (this SubmissionState) String() string {
	switch this {
	case STATE_BUILT:
		return "built"
	case STATE_SENT:
		return "sent"
	case STATE_CONFIRMED:
		return "confirmed"
	case STATE_REJECTED:
		return "rejected"
	case STATE_UNCONFIRMED:
		return "unconfirmed"
	default:
		return "unknown"
	}
}

func (this SubmissionState) Terminal() bool {
	return (this == STATE_CONFIRMED) || (this == STATE_REJECTED) ||
		(this == STATE_UNCONFIRMED)
}


// The life of one signed transaction on the network.
// A submission is driven once: it sends the transaction exactly one time and
// waits for its outcome, then stays in a terminal state.
//
type Submission struct {
	logger   Logger
	channel  Channel
	tx       *SignedTransaction
	state    SubmissionState
	receipt  string
	err      error
}

func NewSubmission(logger Logger, channel Channel, tx *SignedTransaction) *Submission {
	return &Submission{
		logger:   logger,
		channel:  channel,
		tx:       tx,
		state:    STATE_BUILT,
		receipt:  "",
		err:      nil,
	}
}

func (this *Submission) State() SubmissionState {
	return this.state
}

// Return the network receipt, empty if the transaction was never accepted.
//
func (this *Submission) Receipt() string {
	return this.receipt
}

// Return the error that led to a failed terminal state, nil otherwise.
//
func (this *Submission) Err() error {
	return this.err
}

func (this *Submission) transition(state SubmissionState, err error) {
	this.logger.Tracef("%s: %s -> %s", this.tx.Name, this.state, state)
	this.state = state
	this.err = err
}

// Drive the submission to a terminal state and return the corresponding
// result.
//
func (this *Submission) Run(ctx context.Context) results.ReplayResult {
	var confirmation *Confirmation
	var receipt string
	var err error

	if this.state.Terminal() {
		return this.result()
	}

	receipt, err = this.channel.SendTransaction(ctx, this.tx.Raw)
	if (err != nil) || (receipt == "") {
		this.transition(STATE_REJECTED, &SubmissionError{
			Name: this.tx.Name,
			Err:  err,
		})
		this.logger.Errorf("%s: %s", this.tx.Name, this.err.Error())
		return this.result()
	}

	this.receipt = receipt
	this.transition(STATE_SENT, nil)
	this.logger.Infof("%s: sent %s", this.tx.Name, shorten(receipt))

	confirmation, err = this.channel.AwaitConfirmation(ctx, receipt)
	if (err != nil) || (confirmation == nil) {
		if errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}

		this.transition(STATE_UNCONFIRMED, &ConfirmationTimeoutError{
			Name:      this.tx.Name,
			Signature: receipt,
			Err:       err,
		})
		this.logger.Errorf("%s: %s", this.tx.Name, this.err.Error())
		this.logger.Warnf("%s: outcome unknown, the transaction may " +
			"still have landed (signature %s)", this.tx.Name,
			receipt)
		return this.result()
	}

	if confirmation.Err != "" {
		this.transition(STATE_REJECTED, &ExecutionError{
			Name:      this.tx.Name,
			Signature: receipt,
			Detail:    confirmation.Err,
		})
		this.logger.Errorf("%s: %s", this.tx.Name, this.err.Error())
		return this.result()
	}

	this.transition(STATE_CONFIRMED, nil)
	this.logger.Infof("%s: confirmed in slot %d (%s)", this.tx.Name,
		confirmation.Slot, confirmation.Status)

	return this.result()
}

func (this *Submission) result() results.ReplayResult {
	if this.state == STATE_CONFIRMED {
		return results.Succeeded(this.tx.Name, this.receipt)
	}

	if this.err == nil {
		return results.Failed(this.tx.Name, this.receipt,
			"submission not finished")
	}

	return results.Failed(this.tx.Name, this.receipt, this.err.Error())
}

func shorten(value string) string {
	if len(value) <= 16 {
		return value
	}
	return value[:16] + "..."
}
