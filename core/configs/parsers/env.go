package parsers

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"surfpool-replay/core/configs"

	"github.com/joho/godotenv"
)

// EnvSource gives access to environment variables.
type EnvSource interface {
	Lookup(key string) (string, bool)
}

type EnvMap map[string]string

func (e EnvMap) Lookup(key string) (string, bool) {
	value, ok := e[key]
	return value, ok
}

func FromEnviron() EnvSource {
	env := make(EnvMap)
	for _, entry := range os.Environ() {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		env[parts[0]] = parts[1]
	}
	return env
}

// LoadDotEnv loads the given file into the process environment if it exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// ApplyEnv overlays the REPLAY_* variables of the source on the configuration.
func ApplyEnv(c *configs.ReplayConfig, source EnvSource) error {
	if source == nil {
		return nil
	}

	texts := []struct {
		key string
		dst *string
	}{
		{"REPLAY_RPC_URL", &c.Endpoint},
		{"REPLAY_KEYPAIR", &c.Keypair},
		{"REPLAY_COMMITMENT", &c.Commitment},
		{"REPLAY_OUTPUT", &c.Output},
		{"REPLAY_OTEL_ENDPOINT", &c.OtelEndpoint},
		{"REPLAY_RUNNER_DIR", &c.Runner.Dir},
		{"REPLAY_BUN", &c.Runner.Executable},
		{"REPLAY_TRANSACTIONS_DIR", &c.Transactions.Dir},
		{"REPLAY_TX_PATTERN", &c.Transactions.Pattern},
	}

	for _, s := range texts {
		if value, ok := source.Lookup(s.key); ok && value != "" {
			*s.dst = value
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"REPLAY_DELAY", &c.Delay},
		{"REPLAY_COMPILE_TIMEOUT", &c.Runner.CompileTimeout},
		{"REPLAY_COMPILE_MARGIN", &c.Runner.CompileMargin},
		{"REPLAY_DISCOVERY_TIMEOUT", &c.Runner.DiscoveryTimeout},
		{"REPLAY_CONFIRM_TIMEOUT", &c.Confirmation.Timeout},
		{"REPLAY_POLL_INTERVAL", &c.Confirmation.PollInterval},
	}

	for _, d := range durations {
		value, ok := source.Lookup(d.key)
		if !ok || value == "" {
			continue
		}
		parsed, err := parseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}

// parseDuration accepts Go duration strings ("2s", "500ms"). A bare number
// other than 0 is rejected since its unit would be a guess.
func parseDuration(value string) (time.Duration, error) {
	if _, err := strconv.ParseFloat(value, 64); (err == nil) && (value != "0") {
		return 0, fmt.Errorf("duration %q has no unit (e.g. 2s, 500ms)", value)
	}
	return time.ParseDuration(value)
}
