package nsolana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"surfpool-replay/core"
	"surfpool-replay/util"
)

const defaultDiscoveryTimeout = 120 * time.Second

// The environment module the compiler imports. It holds the DEX pool
// constants found by the discovery script, and is generated once if absent.
type Environment struct {
	logger     core.Logger
	executable string
	dir        string // absolute runner directory
	script     string
	artifact   string
	endpoint   string
	timeout    time.Duration

	lock        sync.Mutex
	done        bool
	err         error
	invocations int
}

func NewEnvironment(logger core.Logger, executable, dir, script, artifact, endpoint string, timeout time.Duration) (*Environment, error) {
	absdir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = defaultDiscoveryTimeout
	}

	return &Environment{
		logger:     logger,
		executable: executable,
		dir:        absdir,
		script:     script,
		artifact:   artifact,
		endpoint:   endpoint,
		timeout:    timeout,
	}, nil
}

func (this *Environment) ArtifactPath() string {
	return filepath.Join(this.dir, this.artifact)
}

// How many times the discovery script was run.
func (this *Environment) Invocations() int {
	this.lock.Lock()
	defer this.lock.Unlock()
	return this.invocations
}

// Ensure makes sure the artifact exists, running the discovery if needed.
// Only the first call does any work, later calls return its outcome.
func (this *Environment) Ensure(ctx context.Context) error {
	this.lock.Lock()
	defer this.lock.Unlock()

	if this.done {
		return this.err
	}

	this.err = this.ensure(ctx)
	this.done = true

	return this.err
}

func (this *Environment) ensure(ctx context.Context) error {
	path := this.ArtifactPath()

	if _, err := os.Stat(path); err == nil {
		this.logger.Debugf("use existing %s", path)
		return nil
	}

	err := this.generate(ctx, path)
	if err != nil {
		return &core.SetupError{Artifact: this.artifact, Err: err}
	}

	this.logger.Infof("generated %s", path)

	return nil
}

func (this *Environment) generate(ctx context.Context, path string) error {
	if _, err := os.Stat(filepath.Join(this.dir, this.script)); err != nil {
		return &core.DiscoveryError{
			Reason: fmt.Sprintf("%s not found in %s", this.script, this.dir),
		}
	}

	tmp, err := os.CreateTemp(this.dir, "dex_env_*.json")
	if err != nil {
		return &core.DiscoveryError{Reason: "cannot create output file", Err: err}
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	this.logger.Infof("discovering DEX pools using %s", this.script)

	this.invocations += 1

	resp, err := util.RunProcess(ctx, &util.ProcessRequest{
		Name:    this.executable,
		Args:    []string{this.script, "--out", tmpPath, "--rpc", this.endpoint},
		Dir:     this.dir,
		Timeout: this.timeout,
	})
	if err == util.ErrTimeout {
		return &core.DiscoveryError{
			Reason: fmt.Sprintf("timed out after %s", this.timeout),
		}
	} else if err != nil {
		return &core.DiscoveryError{Reason: "cannot run discovery", Err: err}
	}

	if resp.ExitCode != 0 {
		return &core.DiscoveryError{
			Reason: fmt.Sprintf("discovery exited with code %d: %s",
				resp.ExitCode, strings.TrimSpace(string(resp.Stderr))),
		}
	}

	if out := strings.TrimSpace(string(resp.Stdout)); out != "" {
		this.logger.Infof("%s", out)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return &core.DiscoveryError{Reason: "no output", Err: err}
	}

	content, err := renderEnvironment(data)
	if err != nil {
		return err
	}

	return writeAtomic(path, content)
}

// Build the module text from the discovery output.
func renderEnvironment(data []byte) ([]byte, error) {
	var groups map[string]json.RawMessage
	var decoded interface{}
	var buf bytes.Buffer

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &core.DiscoveryError{Reason: "empty output"}
	}

	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &core.DiscoveryError{Reason: "malformed output", Err: err}
	}

	if err := discoveryOutputSchema.Validate(decoded); err != nil {
		return nil, &core.DiscoveryError{Reason: "unexpected output", Err: err}
	}

	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, &core.DiscoveryError{Reason: "malformed output", Err: err}
	}

	for _, group := range []struct{ key, name string }{
		{"raydium", "RAYDIUM"},
		{"meteora", "METEORA"},
	} {
		raw, found := groups[group.key]
		if !found {
			raw = json.RawMessage("{}")
		}

		var indented bytes.Buffer
		if err := json.Indent(&indented, raw, "", "  "); err != nil {
			return nil, &core.DiscoveryError{Reason: "malformed output", Err: err}
		}

		fmt.Fprintf(&buf, "export const %s = %s as const;\n", group.name,
			indented.String())
	}

	return buf.Bytes(), nil
}

func writeAtomic(path string, content []byte) error {
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}
