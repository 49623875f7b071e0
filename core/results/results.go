// Package results contains the per-transaction outcome records of a replay
// run and the summary computed from them. The summary is the only durable
// output of a run.
package results

import "time"

// ReplayResult is the terminal outcome of one replayed transaction.
// Exactly one of (Success, Error == nil) or (!Success, Error != nil) holds.
type ReplayResult struct {
	Name      string  `json:"tx_name"`
	Success   bool    `json:"success"`
	Signature *string `json:"signature"` // Set once the network returned a receipt
	Error     *string `json:"error"`
}

// RunSummary is the ordered list of results of a run with derived counts
type RunSummary struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []ReplayResult `json:"results"`
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Latency    LatencyStats   `json:"latency"`
}

// Succeeded builds the result of a confirmed transaction
func Succeeded(name, signature string) ReplayResult {
	return ReplayResult{
		Name:      name,
		Success:   true,
		Signature: optional(signature),
	}
}

// Failed builds the result of a transaction that did not succeed. The
// signature is empty when the transaction never reached the network.
func Failed(name, signature, reason string) ReplayResult {
	if reason == "" {
		reason = "unknown error"
	}

	return ReplayResult{
		Name:      name,
		Success:   false,
		Signature: optional(signature),
		Error:     &reason,
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// ErrorText returns the error message, or an empty string on success
func (r ReplayResult) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Summarize computes the counts for the given results, keeping their order
func Summarize(runID string, started, finished time.Time, results []ReplayResult) RunSummary {
	summary := RunSummary{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Results:    make([]ReplayResult, len(results)),
		Total:      len(results),
	}

	copy(summary.Results, results)

	for _, res := range results {
		if res.Success {
			summary.Successful++
		}
	}

	summary.Failed = summary.Total - summary.Successful

	return summary
}

// FailedResults returns the failed results in run order
func (s *RunSummary) FailedResults() []ReplayResult {
	failed := make([]ReplayResult, 0, s.Failed)

	for _, res := range s.Results {
		if !res.Success {
			failed = append(failed, res)
		}
	}

	return failed
}

// Duration is the wall-clock time of the run
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
