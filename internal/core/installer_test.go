package core_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"rwm/internal/core"
	"rwm/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const healthySession = "Connecting anonymously to Steam Public...OK\n" +
	"Waiting for client config...OK\n" +
	"Waiting for user info...OK\n"

// mapResolver resolves names from a fixed table and numbers directly
type mapResolver struct {
	names map[string]domain.Candidate
	calls []string
}

func (r *mapResolver) Resolve(_ context.Context, identifier string, _ domain.FilterSpec) (domain.Candidate, error) {
	r.calls = append(r.calls, identifier)
	if c, ok := r.names[identifier]; ok {
		return c, nil
	}
	if id, ok := domain.ExtractWorkshopID(identifier); ok {
		return domain.Candidate{ID: id, Title: identifier}, nil
	}
	return domain.Candidate{}, fmt.Errorf("%w %q: %w", domain.ErrResolution, identifier, domain.ErrNoCandidates)
}

// fakeDownloader succeeds for every ID unless listed in failures
type fakeDownloader struct {
	calls    [][]uint64
	failures map[uint64]domain.ExecutionStatus
	spawnErr error
}

func (d *fakeDownloader) Download(_ context.Context, ids []uint64) (domain.ExecutionResult, error) {
	d.calls = append(d.calls, append([]uint64(nil), ids...))
	if d.spawnErr != nil {
		return domain.ExecutionResult{}, d.spawnErr
	}

	var b strings.Builder
	b.WriteString(healthySession)
	status := domain.ExecFailure
	for _, id := range ids {
		if st, failed := d.failures[id]; failed {
			if st == domain.ExecExhausted {
				return domain.ExecutionResult{Status: domain.ExecExhausted, Output: core.ExhaustedMessage, Attempts: 3}, nil
			}
			fmt.Fprintf(&b, "ERROR! Download item %d failed (Failure).\n", id)
			continue
		}
		status = domain.ExecSuccess
		fmt.Fprintf(&b, "Success. Downloaded item %d to \"/content/%d\" (1 bytes)\n", id, id)
	}
	return domain.ExecutionResult{Status: status, Output: b.String(), Attempts: 1}, nil
}

func (d *fakeDownloader) downloadedIDs() []uint64 {
	var out []uint64
	for _, call := range d.calls {
		out = append(out, call...)
	}
	return out
}

type mapInspector map[uint64][]string

func (m mapInspector) Dependencies(_ context.Context, id uint64) ([]string, error) {
	return m[id], nil
}

type recordingDeployer struct {
	deployed []uint64
	fail     map[uint64]bool
}

func (d *recordingDeployer) Deploy(_ context.Context, id uint64) error {
	if d.fail[id] {
		return errors.New("disk full")
	}
	d.deployed = append(d.deployed, id)
	return nil
}

func outcomeIDs(outcomes []domain.InstallOutcome) []uint64 {
	out := make([]uint64, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.ID)
	}
	return out
}

func abcResolver() *mapResolver {
	return &mapResolver{names: map[string]domain.Candidate{
		"A": {ID: 1, Title: "A"},
		"B": {ID: 2, Title: "B"},
		"C": {ID: 3, Title: "C"},
		"D": {ID: 4, Title: "D"},
	}}
}

func TestInstall_SingleNumericWithoutDependencies(t *testing.T) {
	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{Resolver: abcResolver(), Downloader: dl})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"123456"}, false))
	require.NoError(t, err)

	require.Len(t, dl.calls, 1)
	assert.Equal(t, []uint64{123456}, dl.calls[0])
	require.Len(t, outcomes, 1)
	assert.Equal(t, uint64(123456), outcomes[0].ID)
	assert.True(t, outcomes[0].Succeeded)
	assert.Contains(t, outcomes[0].Message, "Success. Downloaded item 123456")
}

func TestInstall_AmbiguousNameWithoutFilter(t *testing.T) {
	catalog := &fakeCatalog{results: map[string][]domain.Candidate{
		"ModName": {
			{ID: 10, Title: "ModName Extended"},
			{ID: 11, Title: "ModName Lite"},
		},
	}}
	resolver := &core.CatalogResolver{Catalog: catalog}

	for _, deps := range []bool{false, true} {
		t.Run(fmt.Sprintf("deps=%v", deps), func(t *testing.T) {
			dl := &fakeDownloader{}
			inst := core.NewInstaller(core.InstallerConfig{Resolver: resolver, Downloader: dl})

			outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"ModName"}, deps))
			require.NoError(t, err)

			assert.Empty(t, dl.calls)
			require.Len(t, outcomes, 1)
			assert.False(t, outcomes[0].Succeeded)
			assert.Zero(t, outcomes[0].ID)
			assert.ErrorIs(t, outcomes[0].Err, domain.ErrResolution)
			assert.ErrorIs(t, outcomes[0].Err, domain.ErrAmbiguous)
		})
	}
}

func TestInstall_DependencyCycle(t *testing.T) {
	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   abcResolver(),
		Downloader: dl,
		Inspector:  mapInspector{1: {"B", "C"}, 2: {"A"}},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A"}, true))
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2, 3}, outcomeIDs(outcomes))
	assert.Equal(t, []uint64{1, 2, 3}, dl.downloadedIDs())
	assert.Equal(t, []int{0, 1, 1}, []int{outcomes[0].Depth, outcomes[1].Depth, outcomes[2].Depth})
	for _, o := range outcomes {
		assert.True(t, o.Succeeded, o.Identifier)
	}
}

func TestInstall_NoDuplicateIDsAcrossPaths(t *testing.T) {
	// Diamond plus a numeric alias of an already installed name
	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   abcResolver(),
		Downloader: dl,
		Inspector: mapInspector{
			1: {"B", "C"},
			2: {"D", "3"},
			3: {"D", "A", "1"},
		},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A", "1", "C"}, true))
	require.NoError(t, err)

	// Top-level first (A, then C; "1" is A), then dependencies depth-first
	assert.Equal(t, []uint64{1, 3, 2, 4}, outcomeIDs(outcomes))

	seen := map[uint64]bool{}
	for _, id := range dl.downloadedIDs() {
		assert.False(t, seen[id], "downloaded twice: %d", id)
		seen[id] = true
	}
}

func TestInstall_PreSeededVisitedIsSkipped(t *testing.T) {
	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{Resolver: abcResolver(), Downloader: dl})

	for _, deps := range []bool{false, true} {
		req := domain.NewInstallRequest([]string{"123456"}, deps)
		req.Visited.Add(123456)

		outcomes, err := inst.Install(context.Background(), req)
		require.NoError(t, err)
		assert.Empty(t, outcomes)
	}
	assert.Empty(t, dl.calls)
}

func TestInstall_RerunWithSameVisitedDownloadsNothing(t *testing.T) {
	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   abcResolver(),
		Downloader: dl,
		Inspector:  mapInspector{1: {"B"}},
	})

	req := domain.NewInstallRequest([]string{"A"}, true)
	_, err := inst.Install(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, dl.calls, 2)

	outcomes, err := inst.Install(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Len(t, dl.calls, 2)
}

func TestInstall_FailedDownloadDoesNotRecurse(t *testing.T) {
	dl := &fakeDownloader{failures: map[uint64]domain.ExecutionStatus{1: domain.ExecFailure}}
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   abcResolver(),
		Downloader: dl,
		Inspector:  mapInspector{1: {"B"}},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A", "C"}, true))
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.False(t, outcomes[0].Succeeded)
	assert.ErrorIs(t, outcomes[0].Err, domain.ErrDownloadFailed)
	assert.True(t, outcomes[1].Succeeded)
	assert.Equal(t, []uint64{1, 3}, dl.downloadedIDs())
	assert.Equal(t, 1, domain.CountFailed(outcomes))
}

func TestInstall_ExhaustedDownload(t *testing.T) {
	dl := &fakeDownloader{failures: map[uint64]domain.ExecutionStatus{2: domain.ExecExhausted}}
	inst := core.NewInstaller(core.InstallerConfig{Resolver: abcResolver(), Downloader: dl})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"B"}, true))
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, domain.ErrDownloadExhausted)
	assert.Equal(t, core.ExhaustedMessage, outcomes[0].Message)
}

func TestInstall_ResolutionFailureContinues(t *testing.T) {
	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{Resolver: abcResolver(), Downloader: dl})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"Nope", "A"}, true))
	require.NoError(t, err)

	require.Len(t, outcomes, 2)
	assert.ErrorIs(t, outcomes[0].Err, domain.ErrResolution)
	assert.Equal(t, "Nope", outcomes[0].Identifier)
	assert.True(t, outcomes[1].Succeeded)
}

func TestInstall_SharedUnresolvableDependencyReportedOnce(t *testing.T) {
	dl := &fakeDownloader{}
	resolver := abcResolver()
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   resolver,
		Downloader: dl,
		Inspector:  mapInspector{1: {"Royalty"}, 2: {"Royalty"}},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A", "B"}, true))
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	assert.Equal(t, []uint64{1, 2, 0}, outcomeIDs(outcomes))
	assert.Equal(t, "Royalty", outcomes[2].Identifier)
	assert.ErrorIs(t, outcomes[2].Err, domain.ErrResolution)
	assert.Equal(t, 1, domain.CountFailed(outcomes))
	assert.Equal(t, []string{"A", "B", "Royalty"}, resolver.calls)
}

func TestInstall_BatchDownloadsOnce(t *testing.T) {
	dl := &fakeDownloader{failures: map[uint64]domain.ExecutionStatus{3: domain.ExecFailure}}
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   abcResolver(),
		Downloader: dl,
		Inspector:  mapInspector{1: {"D"}},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A", "B", "C", "1"}, false))
	require.NoError(t, err)

	require.Len(t, dl.calls, 1)
	assert.Equal(t, []uint64{1, 2, 3}, dl.calls[0])
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Succeeded)
	assert.True(t, outcomes[1].Succeeded)
	assert.False(t, outcomes[2].Succeeded)
	assert.ErrorIs(t, outcomes[2].Err, domain.ErrDownloadFailed)
}

func TestInstall_DeployFailureStopsBranch(t *testing.T) {
	dl := &fakeDownloader{}
	deployer := &recordingDeployer{fail: map[uint64]bool{2: true}}
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   abcResolver(),
		Downloader: dl,
		Deployer:   deployer,
		Inspector:  mapInspector{1: {"B", "C"}, 2: {"D"}},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A"}, true))
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2, 3}, outcomeIDs(outcomes))
	assert.ErrorIs(t, outcomes[1].Err, domain.ErrDeployFailed)
	assert.Equal(t, []uint64{1, 3}, deployer.deployed)
}

func TestInstall_SpawnFailureIsFatal(t *testing.T) {
	dl := &fakeDownloader{spawnErr: fmt.Errorf("%w: not found", domain.ErrSpawn)}
	inst := core.NewInstaller(core.InstallerConfig{Resolver: abcResolver(), Downloader: dl})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"Nope", "A", "B"}, true))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSpawn)
	require.Len(t, outcomes, 1)
	assert.Len(t, dl.calls, 1)
}

func TestInstall_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{Resolver: abcResolver(), Downloader: dl})

	_, err := inst.Install(ctx, domain.NewInstallRequest([]string{"A"}, true))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dl.calls)
}

func TestInstall_OnOutcomeStreamsInOrder(t *testing.T) {
	var streamed []string
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   abcResolver(),
		Downloader: &fakeDownloader{},
		Inspector:  mapInspector{1: {"B"}},
		OnOutcome: func(o domain.InstallOutcome) {
			streamed = append(streamed, strconv.FormatUint(o.ID, 10))
		},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A", "C"}, true))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "2"}, streamed)
	assert.Len(t, outcomes, 3)
}

func TestInstall_CandidateDependenciesAreFollowed(t *testing.T) {
	resolver := abcResolver()
	resolver.names["A"] = domain.Candidate{ID: 1, Title: "A", Dependencies: []string{"D"}}
	dl := &fakeDownloader{}
	inst := core.NewInstaller(core.InstallerConfig{
		Resolver:   resolver,
		Downloader: dl,
		Inspector:  mapInspector{1: {"B", "D"}},
	})

	outcomes, err := inst.Install(context.Background(), domain.NewInstallRequest([]string{"A"}, true))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 4, 2}, outcomeIDs(outcomes))
}
