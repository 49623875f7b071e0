package main


import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"surfpool-replay/core/configs"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)


type replayOptions struct {
	configPath    string
	dotenvPath    string
	endpoint      string
	keypair       string
	commitment    string
	runnerDir     string
	bun           string
	txDir         string
	pattern       string
	output        string
	summaryPath   string
	otelEndpoint  string
	verbosity     string

	delay             time.Duration
	compileTimeout    time.Duration
	compileMargin     time.Duration
	discoveryTimeout  time.Duration
	confirmTimeout    time.Duration
	pollInterval      time.Duration

	stat        bool
	noProgress  bool
	version     bool
}


func newRootCmd() *cobra.Command {
	var opts *replayOptions = &replayOptions{
		configPath:  envDefault("REPLAY_CONFIG", ""),
		dotenvPath:  ".env",
		verbosity:   envDefault("REPLAY_VERBOSITY", "info"),
	}
	var cmd *cobra.Command

	cmd = &cobra.Command{
		Use:           "surfpool-replay [flags] [transactions-dir]",
		Short:         "Replay recorded transactions against a local " +
			"validator",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				handleVersion(cmd.OutOrStdout())
				return nil
			}

			if len(args) > 0 {
				opts.txDir = args[0]
			}

			return runReplay(cmd, opts)
		},
	}

	bindFlags(cmd.PersistentFlags(), opts)

	return cmd
}


func bindFlags(flags *pflag.FlagSet, opts *replayOptions) {
	flags.StringVarP(&opts.configPath, "config", "c", opts.configPath,
		"YAML configuration file")
	flags.StringVar(&opts.dotenvPath, "env-file", opts.dotenvPath,
		"dotenv file loaded before reading the environment")
	flags.StringVarP(&opts.endpoint, "rpc", "u", "",
		"validator RPC endpoint")
	flags.StringVarP(&opts.keypair, "keypair", "k", "",
		"Solana CLI keypair file")
	flags.StringVar(&opts.commitment, "commitment", "",
		"awaited commitment (processed, confirmed, finalized)")
	flags.StringVar(&opts.runnerDir, "runner", "",
		"working directory of the compiler")
	flags.StringVar(&opts.bun, "bun", "",
		"executable running the compiler and the discovery")
	flags.StringVarP(&opts.txDir, "transactions", "t", "",
		"directory of the transaction sources")
	flags.StringVar(&opts.pattern, "pattern", "",
		"glob selecting the transaction sources")
	flags.StringVarP(&opts.output, "output", "o", "",
		"file receiving the replay results")
	flags.StringVar(&opts.summaryPath, "summary", "",
		"file receiving the complete run summary")
	flags.StringVar(&opts.otelEndpoint, "otel-endpoint", "",
		"OTLP/HTTP collector receiving the traces")
	flags.DurationVar(&opts.delay, "delay", 0,
		"pause between two transactions (e.g. 2s, REPLAY_DELAY)")
	flags.DurationVar(&opts.compileTimeout, "compile-timeout", 0,
		"timeout given to the compiler (e.g. 30s, REPLAY_COMPILE_TIMEOUT)")
	flags.DurationVar(&opts.compileMargin, "compile-margin", 0,
		"extra time before the compiler process is killed, must be " +
		"positive (e.g. 5s)")
	flags.DurationVar(&opts.discoveryTimeout, "discovery-timeout", 0,
		"timeout of the pool discovery")
	flags.DurationVar(&opts.confirmTimeout, "confirm-timeout", 0,
		"how long to wait for a confirmation")
	flags.DurationVar(&opts.pollInterval, "poll-interval", 0,
		"delay between two status polls")
	flags.StringVarP(&opts.verbosity, "verbose", "v", opts.verbosity,
		"verbosity level (name or number)")
	flags.Lookup("verbose").NoOptDefVal = "debug"
	flags.BoolVar(&opts.stat, "stat", false,
		"print the run statistics on stdout")
	flags.BoolVar(&opts.noProgress, "no-progress", false,
		"never display the progress bar")
	flags.BoolVarP(&opts.version, "version", "V", false,
		"print the version and exit")
}


// Override the configuration with the flags the user explicitly set.
//
func applyFlags(flags *pflag.FlagSet, opts *replayOptions, c *configs.ReplayConfig) {
	var changed func(string) bool = flags.Changed

	if changed("rpc") {
		c.Endpoint = opts.endpoint
	}
	if changed("keypair") {
		c.Keypair = opts.keypair
	}
	if changed("commitment") {
		c.Commitment = opts.commitment
	}
	if changed("runner") {
		c.Runner.Dir = opts.runnerDir
	}
	if changed("bun") {
		c.Runner.Executable = opts.bun
	}
	if changed("transactions") || (opts.txDir != "") {
		c.Transactions.Dir = opts.txDir
	}
	if changed("pattern") {
		c.Transactions.Pattern = opts.pattern
	}
	if changed("output") {
		c.Output = opts.output
	}
	if changed("otel-endpoint") {
		c.OtelEndpoint = opts.otelEndpoint
	}
	if changed("delay") {
		c.Delay = opts.delay
	}
	if changed("compile-timeout") {
		c.Runner.CompileTimeout = opts.compileTimeout
	}
	if changed("compile-margin") {
		c.Runner.CompileMargin = opts.compileMargin
	}
	if changed("discovery-timeout") {
		c.Runner.DiscoveryTimeout = opts.discoveryTimeout
	}
	if changed("confirm-timeout") {
		c.Confirmation.Timeout = opts.confirmTimeout
	}
	if changed("poll-interval") {
		c.Confirmation.PollInterval = opts.pollInterval
	}
}


func parseVerbosity(level string) (int, error) {
	var levels = map[string]int{ "silent": VERBOSITY_SILENT,
		"fatal": VERBOSITY_FATAL, "error": VERBOSITY_ERROR,
		"warning": VERBOSITY_WARNING, "information": VERBOSITY_INFO,
		"debug": VERBOSITY_DEBUG, "trace": VERBOSITY_TRACE }
	var lowLevel, key string
	var intLevel int
	var err error

	if len(level) == 0 {
		return 0, fmt.Errorf("invalid verbosity name '%s'", level)
	}

	intLevel, err = strconv.Atoi(level)
	if err == nil {
		if intLevel < 0 {
			return 0, fmt.Errorf("invalid verbosity level %d",
				intLevel)
		}

		return intLevel, nil
	}

	lowLevel = strings.ToLower(level)

	for key = range levels {
		if strings.HasPrefix(key, lowLevel) {
			return levels[key], nil
		}
	}

	return 0, fmt.Errorf("invalid verbosity name '%s'", level)
}


func envDefault(key, fallback string) string {
	var value string = strings.TrimSpace(os.Getenv(key))

	if value != "" {
		return value
	}

	return fallback
}
