package validators

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"surfpool-replay/core/configs"

	"go.uber.org/zap"
)

// Validates all fields of the replay configuration.
// Determines the validity and returns a boolean whether it is
// valid or invalid.
func ValidateReplayConfig(c *configs.ReplayConfig) (bool, error) {
	// Empty endpoint is an error
	if len(c.Endpoint) == 0 {
		return false, errors.New("missing rpc endpoint")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false, fmt.Errorf("invalid rpc endpoint %q", c.Endpoint)
	}

	switch c.Commitment {
	case configs.CommitmentProcessed, configs.CommitmentConfirmed, configs.CommitmentFinalized:
	default:
		return false, fmt.Errorf("unknown commitment %q", c.Commitment)
	}

	if c.Delay < 0 {
		return false, errors.New("delay cannot be negative")
	}

	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"compile timeout", c.Runner.CompileTimeout},
		{"discovery timeout", c.Runner.DiscoveryTimeout},
		{"confirmation timeout", c.Confirmation.Timeout},
		{"poll interval", c.Confirmation.PollInterval},
	}

	for _, t := range timeouts {
		if t.value <= 0 {
			return false, fmt.Errorf("%s must be positive", t.name)
		}
	}

	// The process deadline must outlast the compiler's own timeout so a
	// hung compiler is told apart from a reported failure.
	if c.Runner.CompileMargin <= 0 {
		return false, errors.New("compile margin must be positive")
	}

	if len(c.Transactions.Pattern) == 0 {
		return false, errors.New("missing transaction file pattern")
	}

	if len(c.Output) == 0 {
		return false, errors.New("missing output path")
	}

	// Tracing is optional, but an odd endpoint is likely a typo.
	if c.OtelEndpoint != "" {
		if _, err := url.Parse(c.OtelEndpoint); err != nil {
			zap.L().Warn("otel endpoint does not parse as url",
				zap.String("otel_endpoint", c.OtelEndpoint))
		}
	}

	return true, nil
}
