package main


import (
	"io"
	"os"
	"sync"

	"surfpool-replay/core"
	"surfpool-replay/core/results"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)


// A progress bar following the replay, one step per transaction.
// The logs go through the observer so the bar is cleared before a log line
// is written and redrawn on the next step.
//
type progressObserver struct {
	lock  sync.Mutex
	out   io.Writer
	bar   *progressbar.ProgressBar
}


func isTerminal(file *os.File) bool {
	return isatty.IsTerminal(file.Fd()) ||
		isatty.IsCygwinTerminal(file.Fd())
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{ out: out }
}


func (this *progressObserver) Write(p []byte) (int, error) {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.bar != nil {
		this.bar.Clear()
	}

	return this.out.Write(p)
}

func (this *progressObserver) TransactionStarted(index, total int, desc *core.TransactionDescriptor) {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.bar == nil {
		this.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(this.out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionClearOnFinish())
	}

	this.bar.Describe(desc.Name)
}

func (this *progressObserver) TransactionFinished(index, total int, result results.ReplayResult) {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.bar == nil {
		return
	}

	this.bar.Add(1)

	if (index + 1) == total {
		this.bar.Finish()
		this.bar = nil
	}
}

// Remove the bar of an interrupted run.
//
func (this *progressObserver) Close() {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.bar != nil {
		this.bar.Exit()
		this.bar = nil
	}
}
