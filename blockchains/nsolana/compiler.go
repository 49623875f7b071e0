package nsolana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"surfpool-replay/core"
	"surfpool-replay/core/configs"
	"surfpool-replay/util"
)

type compilerOutput struct {
	Success      bool            `json:"success"`
	SerializedTx string          `json:"serialized_tx"`
	Error        string          `json:"error"`
	Details      json.RawMessage `json:"details"`
}

// Gateway to the external transaction compiler.
// The compiler runs in the runner directory, reads the staged transaction
// source and prints a single JSON object on its standard output.
type Compiler struct {
	logger     core.Logger
	env        *Environment
	executable string
	dir        string
	script     string
	codeFile   string
	timeout    time.Duration
	deadline   time.Duration // process deadline, beyond the compiler timeout
	payer      string
}

func NewCompiler(logger core.Logger, env *Environment, executable string, runner *configs.RunnerConfig, payer string) (*Compiler, error) {
	dir, err := filepath.Abs(runner.Dir)
	if err != nil {
		return nil, err
	}

	return &Compiler{
		logger:     logger,
		env:        env,
		executable: executable,
		dir:        dir,
		script:     runner.Script,
		codeFile:   runner.CodeFile,
		timeout:    runner.CompileTimeout,
		deadline:   runner.ProcessTimeout(),
		payer:      payer,
	}, nil
}

func (this *Compiler) Compile(ctx context.Context, desc *core.TransactionDescriptor, blockhash string) (*core.CompiledTransaction, error) {
	err := this.env.Ensure(ctx)
	if err != nil {
		return nil, err
	}

	codePath := filepath.Join(this.dir, this.codeFile)

	this.logger.Tracef("stage %s in %s", desc.Name, codePath)

	err = os.WriteFile(codePath, desc.Source, 0644)
	if err != nil {
		return nil, &core.CompileError{
			Name:    desc.Name,
			Message: "cannot stage transaction source",
			Details: err.Error(),
		}
	}
	defer os.Remove(codePath)

	this.logger.Debugf("compile %s", desc.Name)

	resp, err := util.RunProcess(ctx, &util.ProcessRequest{
		Name: this.executable,
		Args: []string{
			this.script,
			this.codeFile,
			strconv.FormatInt(this.timeout.Milliseconds(), 10),
			blockhash,
		},
		Dir:     this.dir,
		Env:     append(os.Environ(), "PAYER_PUBKEY="+this.payer),
		Timeout: this.deadline,
	})

	if err == util.ErrTimeout {
		return nil, &core.CompileTimeoutError{
			Name:    desc.Name,
			Timeout: this.deadline,
		}
	} else if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &core.CompileError{
			Name:    desc.Name,
			Message: "cannot run compiler",
			Details: err.Error(),
		}
	}

	output, err := parseCompilerOutput(resp.Stdout)
	if err != nil {
		return nil, &core.CompileError{
			Name:    desc.Name,
			Message: err.Error(),
			Details: processDetails(resp),
		}
	}

	if !output.Success {
		message := output.Error
		if message == "" {
			message = "unknown error"
		}
		return nil, &core.CompileError{
			Name:    desc.Name,
			Message: message,
			Details: detailsText(output.Details),
		}
	}

	return &core.CompiledTransaction{
		Name:    desc.Name,
		Encoded: output.SerializedTx,
	}, nil
}

// Parse the response of the compiler. The whole output should be the JSON
// object, but the last non empty line is accepted too in case the compiler
// printed logs before.
func parseCompilerOutput(stdout []byte) (*compilerOutput, error) {
	text := bytes.TrimSpace(stdout)

	if len(text) == 0 {
		return nil, fmt.Errorf("no compiler output")
	}

	output, err := decodeCompilerOutput(text)
	if err == nil {
		return output, nil
	}

	if idx := bytes.LastIndexByte(text, '\n'); idx >= 0 {
		if last, lerr := decodeCompilerOutput(bytes.TrimSpace(text[idx+1:])); lerr == nil {
			return last, nil
		}
	}

	return nil, err
}

func decodeCompilerOutput(text []byte) (*compilerOutput, error) {
	var decoded interface{}
	var output compilerOutput

	if err := json.Unmarshal(text, &decoded); err != nil {
		return nil, fmt.Errorf("malformed compiler output: %w", err)
	}

	if err := compilerOutputSchema.Validate(decoded); err != nil {
		return nil, fmt.Errorf("unexpected compiler output: %w", err)
	}

	if err := json.Unmarshal(text, &output); err != nil {
		return nil, fmt.Errorf("malformed compiler output: %w", err)
	}

	return &output, nil
}

func detailsText(raw json.RawMessage) string {
	var text string

	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	if json.Unmarshal(raw, &text) == nil {
		return text
	}

	return string(raw)
}

func processDetails(resp *util.ProcessResponse) string {
	stderr := strings.TrimSpace(string(resp.Stderr))

	if stderr == "" {
		return fmt.Sprintf("exit code %d", resp.ExitCode)
	}

	return fmt.Sprintf("exit code %d: %s", resp.ExitCode, stderr)
}
