package main


import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"surfpool-replay/blockchains/nsolana"
	"surfpool-replay/core"
	"surfpool-replay/core/configs"
	"surfpool-replay/core/configs/parsers"
	"surfpool-replay/core/results"
	"surfpool-replay/core/telemetry"
	"surfpool-replay/core/workload"
	"surfpool-replay/util"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)


const (
	VERBOSITY_SILENT   int = 0
	VERBOSITY_FATAL    int = 1
	VERBOSITY_ERROR    int = 2
	VERBOSITY_WARNING  int = 3
	VERBOSITY_INFO     int = 4
	VERBOSITY_DEBUG    int = 5
	VERBOSITY_TRACE    int = 6

	PROGRAM_NAME       string = "surfpool-replay"
	PROGRAM_VERSION    string = "0.1.0"

	SHUTDOWN_TIMEOUT   time.Duration = 5 * time.Second
)


func logLevel(verbosity int) core.LogLevel {
	if verbosity == VERBOSITY_SILENT {
		return core.LOG_SILENT
	} else if verbosity == VERBOSITY_FATAL {
		return core.LOG_FATAL
	} else if verbosity == VERBOSITY_ERROR {
		return core.LOG_ERROR
	} else if verbosity == VERBOSITY_WARNING {
		return core.LOG_WARN
	} else if verbosity == VERBOSITY_INFO {
		return core.LOG_INFO
	} else if verbosity == VERBOSITY_DEBUG {
		return core.LOG_DEBUG
	} else {
		return core.LOG_TRACE
	}
}

func setVerbosity(verbosity int, stream io.Writer) {
	var level core.LogLevel = logLevel(verbosity)
	var logger *zap.Logger

	logger = core.NewConsoleZap(stream, level)

	zap.ReplaceGlobals(logger)
	core.SetLogger(core.NewZapLogger(logger, level))
}

func printStat(dest io.Writer, summary *results.RunSummary) {
	var result results.ReplayResult

	fmt.Fprintf(dest, "run: %s\n", summary.RunID)
	fmt.Fprintf(dest, "total: %d\n", summary.Total)
	fmt.Fprintf(dest, "successful: %d\n", summary.Successful)
	fmt.Fprintf(dest, "failed: %d\n", summary.Failed)
	fmt.Fprintf(dest, "duration: %.3f s\n",
		summary.Duration().Seconds())

	if summary.Latency.Confirmed == 0 {
		fmt.Fprintf(dest, "average latency: -\n")
		fmt.Fprintf(dest, "median latency: -\n")
		fmt.Fprintf(dest, "max latency: -\n")
	} else {
		fmt.Fprintf(dest, "average latency: %.1f ms\n",
			summary.Latency.Mean)
		fmt.Fprintf(dest, "median latency: %.1f ms\n",
			summary.Latency.Median)
		fmt.Fprintf(dest, "max latency: %.1f ms\n",
			summary.Latency.Max)
	}

	if summary.Latency.Rejected > 0 {
		fmt.Fprintf(dest, "execution errors: %d\n",
			summary.Latency.Rejected)
	}

	if summary.Latency.Pending > 0 {
		fmt.Fprintf(dest, "unconfirmed: %d\n", summary.Latency.Pending)
	}

	for _, result = range summary.FailedResults() {
		fmt.Fprintf(dest, "  %s: %s\n", result.Name,
			result.ErrorText())
	}
}

func handleVersion(dest io.Writer) {
	fmt.Fprintf(dest, "%s %s\n", PROGRAM_NAME, PROGRAM_VERSION)
}


// Build the configuration from, in increasing priority, the defaults, the
// YAML file, the environment and the command line flags.
//
func loadConfig(flags *pflag.FlagSet, opts *replayOptions) (*configs.ReplayConfig, error) {
	var config *configs.ReplayConfig
	var err error

	if opts.dotenvPath != "" {
		err = parsers.LoadDotEnv(opts.dotenvPath)
		if err != nil {
			return nil, fmt.Errorf("cannot load %s: %w",
				opts.dotenvPath, err)
		}
	}

	config, err = parsers.ParseReplayConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	err = parsers.ApplyEnv(config, parsers.FromEnviron())
	if err != nil {
		return nil, err
	}

	applyFlags(flags, opts, config)

	err = parsers.Validate(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}


func runReplay(cmd *cobra.Command, opts *replayOptions) error {
	var observer *progressObserver
	var summary results.RunSummary
	var config *configs.ReplayConfig
	var descs []*core.TransactionDescriptor
	var shutdown telemetry.ShutdownFunc
	var connection *nsolana.Connection
	var compiler *nsolana.Compiler
	var env *nsolana.Environment
	var sequencer *core.Sequencer
	var signer *nsolana.Signer
	var stream io.Writer
	var ctx context.Context
	var stop context.CancelFunc
	var logger core.Logger
	var runErr, err error
	var verbosity int
	var executable string

	verbosity, err = parseVerbosity(opts.verbosity)
	if err != nil {
		return err
	}

	stream = os.Stderr
	if !opts.noProgress && isTerminal(os.Stderr) {
		observer = newProgressObserver(os.Stderr)
		stream = observer
	}

	setVerbosity(verbosity, stream)
	logger = core.ExtendLogger("replay")

	config, err = loadConfig(cmd.Flags(), opts)
	if err != nil {
		return err
	}

	ctx, stop = signal.NotifyContext(cmd.Context(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	shutdown, err = telemetry.InitTracer(ctx, PROGRAM_NAME,
		PROGRAM_VERSION, config.OtelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		var sctx context.Context
		var cancel context.CancelFunc

		sctx, cancel = context.WithTimeout(context.Background(),
			SHUTDOWN_TIMEOUT)
		defer cancel()

		if err := shutdown(sctx); err != nil {
			logger.Warnf("cannot flush traces: %s", err.Error())
		}
	}()

	key, err := nsolana.LoadKeypair(config.Keypair)
	if err != nil {
		return err
	}

	signer = nsolana.NewSigner(core.ExtendLogger("replay.signer"), key)
	logger.Infof("payer %s", signer.PublicKey())

	connection = nsolana.Connect(core.ExtendLogger("replay.solana"),
		config.Endpoint, config.Commitment, config.Confirmation.Timeout,
		config.Confirmation.PollInterval)
	defer connection.Close()

	_, err = core.CheckConnectivity(ctx, connection.Channel(),
		connection.Endpoint(), logger)
	if err != nil {
		return err
	}

	descs, err = workload.Discover(config.Transactions.Dir,
		config.Transactions.Pattern)
	if err != nil {
		return err
	}

	if len(descs) == 0 {
		logger.Warnf("no transaction matching '%s' in %s",
			config.Transactions.Pattern, config.Transactions.Dir)
	}

	executable, err = util.LookupExecutable(config.Runner.Executable,
		"bun")
	if err != nil {
		return err
	}

	env, err = nsolana.NewEnvironment(core.ExtendLogger("replay.discovery"),
		executable, config.Runner.Dir, config.Runner.DiscoveryScript,
		config.Runner.Artifact, config.Endpoint,
		config.Runner.DiscoveryTimeout)
	if err != nil {
		return err
	}

	compiler, err = nsolana.NewCompiler(core.ExtendLogger("replay.compiler"),
		env, executable, &config.Runner, signer.PublicKey())
	if err != nil {
		return err
	}

	options := []core.SequencerOption{
		core.WithLogger(logger),
		core.WithDelay(config.Delay),
	}
	if observer != nil {
		options = append(options, core.WithObserver(observer))
	}

	sequencer = core.NewSequencer(connection.Provider(), compiler, signer,
		connection.Channel(), options...)

	summary, runErr = sequencer.Run(ctx, descs)

	if observer != nil {
		observer.Close()
	}

	err = results.WriteResultsToFile(config.Output, summary)
	if err != nil {
		logger.Errorf("cannot write results: %s", err.Error())
	} else {
		logger.Infof("results saved to %s", config.Output)
	}

	if opts.summaryPath != "" {
		if serr := results.WriteSummary(opts.summaryPath, summary); serr != nil {
			logger.Errorf("cannot write summary: %s", serr.Error())
		}
	}

	if opts.stat {
		printStat(cmd.OutOrStdout(), &summary)
	}

	if runErr != nil {
		return runErr
	}

	return err
}


func execute(args []string) int {
	var cmd *cobra.Command = newRootCmd()
	var err error

	cmd.SetArgs(args)

	err = cmd.Execute()
	if err == nil {
		return 0
	}

	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	fmt.Fprintf(os.Stderr, "%s: %s\n", PROGRAM_NAME, err.Error())

	return 1
}

func main() {
	os.Exit(execute(os.Args[1:]))
}
