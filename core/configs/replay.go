package configs

import (
	"time"
)

// Commitment levels understood by the confirmation channel.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// ReplayConfig contains everything a replay run needs to know about its
// environment. Durations are written in YAML as Go duration strings ("2s").
type ReplayConfig struct {
	Endpoint     string             `yaml:"endpoint"`      // Validator RPC endpoint
	Keypair      string             `yaml:"keypair"`       // Path of the Solana CLI keypair file
	Commitment   string             `yaml:"commitment"`    // Commitment awaited for confirmation
	Delay        time.Duration      `yaml:"delay"`         // Pause between transactions
	Output       string             `yaml:"output"`        // Result file
	OtelEndpoint string             `yaml:"otel_endpoint"` // OTLP/HTTP collector, tracing disabled if empty
	Runner       RunnerConfig       `yaml:"runner"`
	Transactions TransactionsConfig `yaml:"transactions"`
	Confirmation ConfirmationConfig `yaml:"confirmation"`
}

// RunnerConfig describes the external compiler and the environment it needs.
type RunnerConfig struct {
	Dir              string        `yaml:"dir"`               // Working directory of the compiler
	Executable       string        `yaml:"executable"`        // Empty means lookup of "bun"
	Script           string        `yaml:"script"`            // Compiler entry point
	CodeFile         string        `yaml:"code_file"`         // Where the transaction source is staged
	DiscoveryScript  string        `yaml:"discovery_script"`  // Pool discovery entry point
	Artifact         string        `yaml:"artifact"`          // Generated environment module
	CompileTimeout   time.Duration `yaml:"compile_timeout"`   // Timeout given to the compiler itself
	CompileMargin    time.Duration `yaml:"compile_margin"`    // Added on top for the process deadline
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout"` // Process deadline of the discovery
}

type TransactionsConfig struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
}

type ConfirmationConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *ReplayConfig {
	return &ReplayConfig{
		Endpoint:   "http://localhost:8899",
		Keypair:    "~/.config/solana/id.json",
		Commitment: CommitmentConfirmed,
		Delay:      2 * time.Second,
		Output:     "replay_results.json",
		Runner: RunnerConfig{
			Dir:              "runner",
			Script:           "runTransaction.ts",
			CodeFile:         "code.ts",
			DiscoveryScript:  "build_dex_env.ts",
			Artifact:         "dex_env.ts",
			CompileTimeout:   30000 * time.Millisecond,
			CompileMargin:    5 * time.Second,
			DiscoveryTimeout: 120 * time.Second,
		},
		Transactions: TransactionsConfig{
			Dir:     "transactions",
			Pattern: "tx_*.ts",
		},
		Confirmation: ConfirmationConfig{
			Timeout:      30 * time.Second,
			PollInterval: 500 * time.Millisecond,
		},
	}
}

// ProcessTimeout is the hard deadline of one compiler invocation.
func (r *RunnerConfig) ProcessTimeout() time.Duration {
	return r.CompileTimeout + r.CompileMargin
}
