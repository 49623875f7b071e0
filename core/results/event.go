package results


import (
	"sort"
	"time"
)


type transactionStat struct {
	submit  int64                                   // -1 if never happened
	commit  int64                                   // -1 if never happened
	abort   int64                                   // -1 if never happened
}


// Confirmation latencies of a run, in milliseconds.
//
type LatencyStats struct {
	Confirmed  int      `json:"confirmed"`
	Rejected   int      `json:"rejected"`             // landed with an execution error
	Pending    int      `json:"pending"`              // sent, outcome unknown
	Mean       float64  `json:"mean_ms"`
	Median     float64  `json:"median_ms"`
	Max        float64  `json:"max_ms"`
}


type EventLog struct {
	start  time.Time
	stats  map[int]*transactionStat             // index -> transactionStat
}


func NewEventLog(start time.Time) *EventLog {
	return &EventLog{
		start:  start,
		stats:  make(map[int]*transactionStat, 0),
	}
}


func (this *EventLog) getStat(index int) *transactionStat {
	var stat *transactionStat
	var present bool

	stat, present = this.stats[index]

	if present == false {
		stat = &transactionStat{
			submit:  -1,
			commit:  -1,
			abort:   -1,
		}

		this.stats[index] = stat
	}

	return stat
}

func (this *EventLog) elapsed(when time.Time) int64 {
	return when.Sub(this.start).Milliseconds()
}


// Log that a transaction has been submitted to the validator.
//
// index: index of the transaction within the run
// when:  submission time
//
func (this *EventLog) AddSubmit(index int, when time.Time) {
	this.getStat(index).submit = this.elapsed(when)
}

// Log that a transaction has been confirmed without execution error.
//
// index: index of the transaction within the run
// when:  confirmation time
//
func (this *EventLog) AddCommit(index int, when time.Time) {
	this.getStat(index).commit = this.elapsed(when)
}

// Log that a sent transaction landed with an execution error.
//
// index: index of the transaction within the run
// when:  time the execution error was reported
//
func (this *EventLog) AddAbort(index int, when time.Time) {
	this.getStat(index).abort = this.elapsed(when)
}


func (this *EventLog) Format() LatencyStats {
	var latencies []float64
	var s *transactionStat
	var ret LatencyStats
	var sum, lat float64
	var mid int

	latencies = make([]float64, 0, len(this.stats))

	for _, s = range this.stats {
		if s.submit < 0 {
			continue
		}

		if s.abort >= 0 {
			ret.Rejected += 1
		} else if s.commit >= 0 {
			lat = float64(s.commit - s.submit)
			latencies = append(latencies, lat)
			sum += lat
			if lat > ret.Max {
				ret.Max = lat
			}
		} else {
			ret.Pending += 1
		}
	}

	ret.Confirmed = len(latencies)
	if ret.Confirmed == 0 {
		return ret
	}

	sort.Float64s(latencies)

	ret.Mean = sum / float64(ret.Confirmed)

	mid = ret.Confirmed / 2
	if (ret.Confirmed % 2) == 0 {
		ret.Median = (latencies[mid - 1] + latencies[mid]) / 2
	} else {
		ret.Median = latencies[mid]
	}

	return ret
}
