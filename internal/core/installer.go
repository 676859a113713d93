package core

import (
	"context"
	"fmt"

	"rwm/internal/domain"

	"github.com/charmbracelet/log"
)

// Downloader fetches workshop content
type Downloader interface {
	Download(ctx context.Context, ids []uint64) (domain.ExecutionResult, error)
}

// DependencyInspector reads the dependencies declared by downloaded content
type DependencyInspector interface {
	Dependencies(ctx context.Context, id uint64) ([]string, error)
}

// ModDeployer places downloaded content where the game loads it from
type ModDeployer interface {
	Deploy(ctx context.Context, id uint64) error
}

// InstallerConfig configures an Installer
type InstallerConfig struct {
	Resolver   Resolver
	Downloader Downloader
	Deployer   ModDeployer         // Optional
	Inspector  DependencyInspector // Optional
	OnOutcome  func(domain.InstallOutcome)
	Logger     *log.Logger
}

// Installer resolves, downloads and recursively installs mods
type Installer struct {
	resolver   Resolver
	downloader Downloader
	deployer   ModDeployer
	inspector  DependencyInspector
	onOutcome  func(domain.InstallOutcome)
	logger     *log.Logger
}

// NewInstaller creates a new installer
func NewInstaller(cfg InstallerConfig) *Installer {
	return &Installer{
		resolver:   cfg.Resolver,
		downloader: cfg.Downloader,
		deployer:   cfg.Deployer,
		inspector:  cfg.Inspector,
		onOutcome:  cfg.OnOutcome,
		logger:     loggerOrDiscard(cfg.Logger),
	}
}

type workItem struct {
	identifier string
	depth      int
}

// unresolvedKey identifies a lookup that already failed during one call
type unresolvedKey struct {
	identifier string
	spec       domain.FilterSpec
}

// Install installs every requested mod. Per-mod failures are reported as
// outcomes; the error is non-nil only when steamcmd cannot run or ctx is
// done, in which case the outcomes gathered so far are returned with it.
//
// With dependency resolution enabled, top-level requests are installed
// first, in request order, then their dependencies depth-first. Every
// workshop ID is attempted at most once, including IDs pre-seeded in
// req.Visited.
func (i *Installer) Install(ctx context.Context, req *domain.InstallRequest) ([]domain.InstallOutcome, error) {
	if req.Visited == nil {
		req.Visited = make(domain.VisitedSet)
	}
	if !req.ResolveDependencies {
		return i.installBatch(ctx, req)
	}
	return i.installRecursive(ctx, req)
}

func (i *Installer) installRecursive(ctx context.Context, req *domain.InstallRequest) ([]domain.InstallOutcome, error) {
	var outcomes []domain.InstallOutcome
	var pending [][]string
	unresolved := make(map[unresolvedKey]bool)

	for _, identifier := range req.Requested {
		outcome, deps, err := i.installOne(ctx, req, unresolved, workItem{identifier: identifier}, req.Filter)
		if outcome != nil {
			outcomes = append(outcomes, *outcome)
		}
		if err != nil {
			return outcomes, err
		}
		pending = append(pending, deps)
	}

	var stack []workItem
	for p := len(pending) - 1; p >= 0; p-- {
		stack = pushReversed(stack, pending[p], 1)
	}

	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Operator filters target the requested names, not declared dependencies
		outcome, deps, err := i.installOne(ctx, req, unresolved, item, domain.FilterSpec{})
		if outcome != nil {
			outcomes = append(outcomes, *outcome)
		}
		if err != nil {
			return outcomes, err
		}
		stack = pushReversed(stack, deps, item.depth+1)
	}

	return outcomes, nil
}

// pushReversed pushes identifiers so the first one is popped first
func pushReversed(stack []workItem, identifiers []string, depth int) []workItem {
	for j := len(identifiers) - 1; j >= 0; j-- {
		stack = append(stack, workItem{identifier: identifiers[j], depth: depth})
	}
	return stack
}

// installOne runs resolve, visited check, download, deploy and dependency
// discovery for one work item. A nil outcome means the item was skipped.
// Identifiers in unresolved failed earlier in the call and are reported once.
func (i *Installer) installOne(ctx context.Context, req *domain.InstallRequest, unresolved map[unresolvedKey]bool, item workItem, spec domain.FilterSpec) (*domain.InstallOutcome, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	logger := i.logger.With("depth", item.depth, "mod", item.identifier)

	key := unresolvedKey{identifier: item.identifier, spec: spec}
	if unresolved[key] {
		logger.Debug("already failed to resolve, skipping")
		return nil, nil, nil
	}

	candidate, err := i.resolver.Resolve(ctx, item.identifier, spec)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		unresolved[key] = true
		logger.Debug("resolution failed", "err", err)
		outcome := i.emit(domain.InstallOutcome{
			Identifier: item.identifier,
			Depth:      item.depth,
			Message:    err.Error(),
			Err:        err,
		})
		return &outcome, nil, nil
	}

	if req.Visited.Has(candidate.ID) {
		logger.Debug("already attempted, skipping", "id", candidate.ID)
		return nil, nil, nil
	}
	req.Visited.Add(candidate.ID)

	logger.Info("downloading", "id", candidate.ID, "title", candidate.Title)
	result, err := i.downloader.Download(ctx, []uint64{candidate.ID})
	if err != nil {
		return nil, nil, fmt.Errorf("downloading %d: %w", candidate.ID, err)
	}

	outcome := domain.InstallOutcome{
		Identifier: item.identifier,
		ID:         candidate.ID,
		Title:      candidate.Title,
		Depth:      item.depth,
		Message:    result.Output,
	}
	if err := statusError(result); err != nil {
		outcome.Err = err
		outcome = i.emit(outcome)
		return &outcome, nil, nil
	}

	if err := i.deploy(ctx, candidate.ID); err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		outcome.Err = err
		outcome = i.emit(outcome)
		return &outcome, nil, nil
	}

	outcome.Succeeded = true
	outcome = i.emit(outcome)
	return &outcome, i.dependencies(ctx, candidate, logger), nil
}

// installBatch downloads every resolved top-level mod in one steamcmd call
func (i *Installer) installBatch(ctx context.Context, req *domain.InstallRequest) ([]domain.InstallOutcome, error) {
	var outcomes []domain.InstallOutcome
	var resolved []domain.Candidate
	var identifiers []string

	for _, identifier := range req.Requested {
		candidate, err := i.resolver.Resolve(ctx, identifier, req.Filter)
		if err != nil {
			if ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
			outcomes = append(outcomes, i.emit(domain.InstallOutcome{
				Identifier: identifier,
				Message:    err.Error(),
				Err:        err,
			}))
			continue
		}
		if req.Visited.Has(candidate.ID) {
			i.logger.Debug("already attempted, skipping", "mod", identifier, "id", candidate.ID)
			continue
		}
		req.Visited.Add(candidate.ID)
		resolved = append(resolved, candidate)
		identifiers = append(identifiers, identifier)
	}

	if len(resolved) == 0 {
		return outcomes, nil
	}

	ids := make([]uint64, len(resolved))
	for j, c := range resolved {
		ids[j] = c.ID
	}

	i.logger.Info("downloading", "count", len(ids))
	result, err := i.downloader.Download(ctx, ids)
	if err != nil {
		return outcomes, fmt.Errorf("downloading %d mods: %w", len(ids), err)
	}

	for j, c := range resolved {
		outcome := domain.InstallOutcome{
			Identifier: identifiers[j],
			ID:         c.ID,
			Title:      c.Title,
			Message:    result.Output,
		}

		err := statusError(result)
		if err == nil && len(resolved) > 1 && !ItemSucceeded(result.Output, c.ID) {
			err = fmt.Errorf("%w: no confirmation for %d", domain.ErrDownloadFailed, c.ID)
		}
		if err == nil {
			err = i.deploy(ctx, c.ID)
			if err != nil && ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
		}

		outcome.Err = err
		outcome.Succeeded = err == nil
		outcomes = append(outcomes, i.emit(outcome))
	}

	return outcomes, nil
}

func (i *Installer) deploy(ctx context.Context, id uint64) error {
	if i.deployer == nil {
		return nil
	}
	if err := i.deployer.Deploy(ctx, id); err != nil {
		return fmt.Errorf("%w: %d: %w", domain.ErrDeployFailed, id, err)
	}
	return nil
}

// dependencies merges the candidate's declared dependencies with those read
// from the downloaded content, keeping first occurrence order
func (i *Installer) dependencies(ctx context.Context, candidate domain.Candidate, logger *log.Logger) []string {
	deps := append([]string(nil), candidate.Dependencies...)

	if i.inspector != nil {
		found, err := i.inspector.Dependencies(ctx, candidate.ID)
		if err != nil {
			logger.Warn("could not read dependencies", "id", candidate.ID, "err", err)
		}
		deps = append(deps, found...)
	}

	seen := make(map[string]bool, len(deps))
	out := deps[:0]
	for _, d := range deps {
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	if len(out) > 0 {
		logger.Debug("queueing dependencies", "id", candidate.ID, "deps", out)
	}
	return out
}

func (i *Installer) emit(o domain.InstallOutcome) domain.InstallOutcome {
	if i.onOutcome != nil {
		i.onOutcome(o)
	}
	return o
}

func statusError(result domain.ExecutionResult) error {
	switch result.Status {
	case domain.ExecSuccess:
		return nil
	case domain.ExecExhausted:
		return fmt.Errorf("%w after %d attempts", domain.ErrDownloadExhausted, result.Attempts)
	default:
		return domain.ErrDownloadFailed
	}
}
