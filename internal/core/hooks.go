package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"rwm/internal/domain"

	"github.com/charmbracelet/log"
)

// Hook names as exported in RWM_HOOK
const (
	HookBeforeAll = "install.before_all"
	HookAfterEach = "install.after_each"
	HookAfterAll  = "install.after_all"
)

// HookContext provides environment information for hook scripts
type HookContext struct {
	GamePath string
	ModsPath string
	ModID    uint64 // Zero for *_all hooks
	ModTitle string // Empty for *_all hooks
	HookName string
}

func (hc HookContext) env() []string {
	id := ""
	if hc.ModID != 0 {
		id = strconv.FormatUint(hc.ModID, 10)
	}
	return []string{
		"RWM_GAME_PATH=" + hc.GamePath,
		"RWM_MODS_PATH=" + hc.ModsPath,
		"RWM_MOD_ID=" + id,
		"RWM_MOD_TITLE=" + hc.ModTitle,
		"RWM_HOOK=" + hc.HookName,
	}
}

// HookResult contains the output from running a hook
type HookResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// HookRunner executes hook scripts with timeout and environment
type HookRunner struct {
	timeout time.Duration
}

// NewHookRunner creates a new hook runner with the given timeout
func NewHookRunner(timeout time.Duration) *HookRunner {
	return &HookRunner{timeout: timeout}
}

// Run executes a hook script and returns its output
func (r *HookRunner) Run(ctx context.Context, scriptPath string, hc HookContext) (*HookResult, error) {
	result := &HookResult{}

	info, err := os.Stat(scriptPath)
	if os.IsNotExist(err) {
		return result, fmt.Errorf("hook script not found: %s", scriptPath)
	}
	if err != nil {
		return result, fmt.Errorf("checking hook script: %w", err)
	}
	if info.Mode()&0111 == 0 {
		return result, fmt.Errorf("hook script not executable: %s", scriptPath)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, scriptPath)
	cmd.WaitDelay = 100 * time.Millisecond
	cmd.Env = append(os.Environ(), hc.env()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return result, fmt.Errorf("hook timed out after %v: %s", r.timeout, scriptPath)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, fmt.Errorf("hook failed with exit code %d: %s", result.ExitCode, scriptPath)
		}
		return result, fmt.Errorf("running hook: %w", err)
	}

	return result, nil
}

// InstallHooks runs the configured install hooks. Failures are logged as
// warnings and never change install outcomes.
type InstallHooks struct {
	runner   *HookRunner
	hooks    domain.HookConfig
	gamePath string
	modsPath string
	logger   *log.Logger
}

// NewInstallHooks binds hook scripts to a game. A nil *InstallHooks is a no-op.
func NewInstallHooks(runner *HookRunner, hooks domain.HookConfig, gamePath, modsPath string, logger *log.Logger) *InstallHooks {
	if hooks.IsEmpty() {
		return nil
	}
	return &InstallHooks{
		runner:   runner,
		hooks:    hooks,
		gamePath: gamePath,
		modsPath: modsPath,
		logger:   loggerOrDiscard(logger),
	}
}

// BeforeAll runs install.before_all
func (h *InstallHooks) BeforeAll(ctx context.Context) {
	if h == nil {
		return
	}
	h.run(ctx, h.hooks.BeforeAll, HookContext{HookName: HookBeforeAll})
}

// AfterEach runs install.after_each for a successful outcome
func (h *InstallHooks) AfterEach(ctx context.Context, o domain.InstallOutcome) {
	if h == nil || !o.Succeeded {
		return
	}
	h.run(ctx, h.hooks.AfterEach, HookContext{HookName: HookAfterEach, ModID: o.ID, ModTitle: o.Title})
}

// AfterAll runs install.after_all
func (h *InstallHooks) AfterAll(ctx context.Context) {
	if h == nil {
		return
	}
	h.run(ctx, h.hooks.AfterAll, HookContext{HookName: HookAfterAll})
}

func (h *InstallHooks) run(ctx context.Context, script string, hc HookContext) {
	if script == "" {
		return
	}
	hc.GamePath = h.gamePath
	hc.ModsPath = h.modsPath

	result, err := h.runner.Run(ctx, script, hc)
	if err != nil {
		h.logger.Warn("hook failed", "hook", hc.HookName, "err", err, "stderr", result.Stderr)
		return
	}
	h.logger.Debug("hook finished", "hook", hc.HookName, "stdout", result.Stdout)
}
