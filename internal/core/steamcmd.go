package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rwm/internal/domain"

	"github.com/charmbracelet/log"
)

// Markers steamcmd prints on a healthy anonymous session
const (
	markerConnect = "Connecting anonymously to Steam Public...OK"
	markerConfig  = "Waiting for client config...OK"
	markerUser    = "Waiting for user info...OK"

	markerSuccess = "Success. Downloaded item"
	markerError   = "ERROR! Download item"
)

const (
	downloadDirective = "+workshop_download_item " + domain.WorkshopAppID

	// DefaultAdminAttempts bounds commands that do not download anything
	DefaultAdminAttempts = 5

	// ExhaustedMessage is the output reported for an exhausted command
	ExhaustedMessage = "Error: Failed to install"
)

var downloadedItemRe = regexp.MustCompile(`Success\. Downloaded item (\d+)`)

// CommandRunner runs one process to completion and returns its stdout.
// A process that ran and exited non-zero is not an error; failing to start
// it is, and must wrap domain.ErrSpawn.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, dir string, env []string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. Stdin is the null device and
// stderr is discarded.
type ExecRunner struct{}

// Run implements CommandRunner
func (ExecRunner) Run(ctx context.Context, name string, args []string, dir string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = 100 * time.Millisecond
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if ctx.Err() != nil {
		return stdout.Bytes(), ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), nil
	}
	return nil, fmt.Errorf("%w: %s: %v", domain.ErrSpawn, name, err)
}

// SteamCmdConfig configures a SteamCmd executor
type SteamCmdConfig struct {
	Path    string // steamcmd executable
	HomeDir string // HOME for the process, also its working directory
	Runner  CommandRunner
	Policy  domain.RetryPolicy
	Logger  *log.Logger
}

// SteamCmd drives steamcmd with anonymous login
type SteamCmd struct {
	path    string
	homeDir string
	runner  CommandRunner
	policy  domain.RetryPolicy
	logger  *log.Logger
}

// NewSteamCmd creates an executor. A nil Runner uses ExecRunner.
func NewSteamCmd(cfg SteamCmdConfig) *SteamCmd {
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	return &SteamCmd{
		path:    cfg.Path,
		homeDir: cfg.HomeDir,
		runner:  cfg.Runner,
		policy:  cfg.Policy,
		logger:  loggerOrDiscard(cfg.Logger),
	}
}

// Path returns the steamcmd executable path
func (s *SteamCmd) Path() string {
	return s.path
}

// BuildDownloadDirectives returns one download directive per workshop ID
func BuildDownloadDirectives(ids []uint64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, downloadDirective+" "+strconv.FormatUint(id, 10))
	}
	return strings.Join(parts, " ")
}

// BuildArgs wraps directives with the anonymous login and quit directives
func BuildArgs(directives string) []string {
	return strings.Fields("+login anonymous " + directives + " +quit")
}

// SessionHealthy reports whether all three session markers are present
func SessionHealthy(output string) bool {
	return strings.Contains(output, markerConnect) &&
		strings.Contains(output, markerConfig) &&
		strings.Contains(output, markerUser)
}

// ClassifyOutput classifies download output. The second value is false when
// the output is indeterminate and the attempt should be retried.
func ClassifyOutput(output string) (domain.ExecutionStatus, bool) {
	if !SessionHealthy(output) {
		return domain.ExecFailure, false
	}
	if strings.Contains(output, markerSuccess) {
		return domain.ExecSuccess, true
	}
	if strings.Contains(output, markerError) {
		return domain.ExecFailure, true
	}
	return domain.ExecFailure, false
}

// ItemSucceeded reports whether output confirms the download of id
func ItemSucceeded(output string, id uint64) bool {
	want := strconv.FormatUint(id, 10)
	for _, m := range downloadedItemRe.FindAllStringSubmatch(output, -1) {
		if m[1] == want {
			return true
		}
	}
	return false
}

// Download fetches the given workshop items in one steamcmd invocation
func (s *SteamCmd) Download(ctx context.Context, ids []uint64) (domain.ExecutionResult, error) {
	return s.Execute(ctx, BuildDownloadDirectives(ids), 0)
}

// Execute runs steamcmd with directives until it produces a definitive
// answer. Download directives retry indeterminate output according to the
// retry policy; other commands give up after budget attempts
// (DefaultAdminAttempts when budget <= 0). The error is non-nil only when
// steamcmd cannot be started or ctx is done.
func (s *SteamCmd) Execute(ctx context.Context, directives string, budget int) (domain.ExecutionResult, error) {
	isDownload := strings.Contains(directives, downloadDirective)
	if budget <= 0 {
		budget = DefaultAdminAttempts
	}
	args := BuildArgs(directives)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return domain.ExecutionResult{Status: domain.ExecFailure, Attempts: attempt - 1}, err
		}

		s.logger.Debug("running steamcmd", "attempt", attempt, "args", strings.Join(args, " "))
		output, reason, err := s.attempt(ctx, args)
		if err != nil {
			return domain.ExecutionResult{Status: domain.ExecFailure, Output: output, Attempts: attempt}, err
		}

		if reason == "" {
			if isDownload {
				status, definitive := ClassifyOutput(output)
				if definitive {
					return domain.ExecutionResult{Status: status, Output: output, Attempts: attempt}, nil
				}
				reason = indeterminateReason(output)
			} else {
				if SessionHealthy(output) {
					return domain.ExecutionResult{Status: domain.ExecSuccess, Output: output, Attempts: attempt}, nil
				}
				reason = "session markers missing"
			}
		}

		limit := budget
		if isDownload {
			limit = s.policy.MaxAttempts
		}
		if limit > 0 && attempt >= limit {
			s.logger.Warn("giving up on steamcmd", "attempts", attempt, "reason", reason)
			return domain.ExecutionResult{Status: domain.ExecExhausted, Output: ExhaustedMessage, Attempts: attempt}, nil
		}

		s.logger.Warn("steamcmd output inconclusive, still retrying", "attempt", attempt, "reason", reason)
		if s.policy.OnRetry != nil {
			s.policy.OnRetry(attempt, reason)
		}
	}
}

// attempt runs a single steamcmd process. A non-empty reason marks an
// attempt that timed out on its own deadline.
func (s *SteamCmd) attempt(ctx context.Context, args []string) (string, string, error) {
	runCtx := ctx
	if s.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.policy.AttemptTimeout)
		defer cancel()
	}

	env := []string{"HOME=" + s.homeDir}
	out, err := s.runner.Run(runCtx, s.path, args, s.homeDir, env)
	if err != nil {
		if ctx.Err() != nil {
			return string(out), "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return string(out), fmt.Sprintf("attempt timed out after %v", s.policy.AttemptTimeout), nil
		}
		return string(out), "", err
	}
	return string(out), "", nil
}

func indeterminateReason(output string) string {
	if !SessionHealthy(output) {
		return "session markers missing"
	}
	return "no download result in output"
}

func loggerOrDiscard(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.New(io.Discard)
}
