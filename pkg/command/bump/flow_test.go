package bump

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/marco79423/bumpversion/pkg/catalog"
	"github.com/marco79423/bumpversion/pkg/config"
	"github.com/marco79423/bumpversion/pkg/model"
	"github.com/marco79423/bumpversion/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	trains    map[string][]model.BuildVersion
	latest    string
	latestErr error
	live      model.BuildVersion
	liveErr   error
	findErr   error

	requested []string
}

func (f *fakeCatalog) FindBuildTrain(_ context.Context, version string) (*model.BuildTrain, error) {
	f.requested = append(f.requested, version)
	if f.findErr != nil {
		return nil, f.findErr
	}

	builds, ok := f.trains[version]
	if !ok {
		return nil, catalog.ErrTrainNotFound
	}
	train := &model.BuildTrain{Version: version}
	for _, build := range builds {
		train.Builds = append(train.Builds, model.BuildRecord{BuildVersion: build})
	}
	return train, nil
}

func (f *fakeCatalog) LatestTrainVersion(context.Context) (string, error) {
	return f.latest, f.latestErr
}

func (f *fakeCatalog) CurrentLiveBuildNumber(context.Context) (model.BuildVersion, error) {
	return f.live, f.liveErr
}

type fakePrompter struct {
	answer string
	asked  int
}

func (f *fakePrompter) Input(string) string {
	f.asked++
	return f.answer
}

// fakeAgvtool 模擬 agvtool，記錄目前的 build number
type fakeAgvtool struct {
	current string
	calls   []string
	err     error
}

func (f *fakeAgvtool) run(_ context.Context, _, _ string, args ...string) (string, error) {
	f.calls = append(f.calls, strings.Join(args, " "))
	if f.err != nil {
		return "", f.err
	}

	switch args[0] {
	case "new-version":
		f.current = args[len(args)-1]
	case "next-version":
		f.current = strconv.Itoa(model.ParseSegment(f.current) + 1)
	case "what-version":
		return "Current version of project App is:\n    " + f.current + "\n", nil
	}
	return "", nil
}

type fakeRepo struct {
	tags    []string
	pushed  bool
	pushErr error
}

func (f *fakeRepo) CreateTag(tagName string) error {
	f.tags = append(f.tags, tagName)
	return nil
}

func (f *fakeRepo) TagExists(tagName string) (bool, error) {
	for _, tag := range f.tags {
		if tag == tagName {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) PushTags() error {
	f.pushed = true
	return f.pushErr
}

func (f *fakeRepo) GetAllTagNames() ([]string, error) {
	return f.tags, nil
}

type testEnv struct {
	catalog  catalog.Catalog
	agvtool  *fakeAgvtool
	repo     *fakeRepo
	prompter *fakePrompter
	logs     *bytes.Buffer
}

func (e *testEnv) context() context.Context {
	e.logs = &bytes.Buffer{}
	ctx := context.WithValue(context.Background(), loggerKey, util.NewLogger(e.logs, true))
	ctx = context.WithValue(ctx, catalogKey, e.catalog)
	ctx = context.WithValue(ctx, agvtoolKey, &util.Agvtool{Dir: "/work/ios", Runner: e.agvtool.run})
	ctx = context.WithValue(ctx, prompterKey, util.Prompter(e.prompter))
	if e.repo != nil {
		ctx = context.WithValue(ctx, gitRepoKey, util.GitRepository(e.repo))
	}
	return ctx
}

func newTestEnv(source catalog.Catalog) *testEnv {
	return &testEnv{
		catalog:  source,
		agvtool:  &fakeAgvtool{},
		prompter: &fakePrompter{},
	}
}

func TestBumpStructuredVersion(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{
		"1.4.0": {"1.4.0.3", "1.4.0.10", "1.4.0.9"},
	}}
	env := newTestEnv(source)

	result, err := bump(env.context(), &config.Options{Version: "1.4.0", InitialBuildNumber: "1"})
	require.NoError(t, err)

	assert.Equal(t, "1.4.0.10", result.LatestBuildNumber)
	assert.Equal(t, "1.4.0.11", result.BuildNumber)
	assert.Equal(t, []string{"new-version -all 1.4.0.11", "what-version"}, env.agvtool.calls)
	assert.Equal(t, []string{"1.4.0"}, source.requested)
}

func TestBumpFlatVersionDelegates(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{
		"2.0": {"41", "42", "9"},
	}}
	env := newTestEnv(source)
	env.agvtool.current = "42"

	result, err := bump(env.context(), &config.Options{Version: "2.0", InitialBuildNumber: "1"})
	require.NoError(t, err)

	assert.Equal(t, "42", result.LatestBuildNumber)
	assert.Equal(t, "43", result.BuildNumber)
	assert.Equal(t, []string{"next-version -all", "what-version"}, env.agvtool.calls)
}

func TestBumpBuildNumberOverride(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{"1.0": {"1.0.4"}}}
	env := newTestEnv(source)

	result, err := bump(env.context(), &config.Options{Version: "1.0", BuildNumber: "1.0.100", InitialBuildNumber: "1"})
	require.NoError(t, err)

	assert.Equal(t, "1.0.4", result.LatestBuildNumber)
	assert.Equal(t, "1.0.100", result.BuildNumber)
	assert.Equal(t, "new-version -all 1.0.100", env.agvtool.calls[0])
}

func TestBumpUsesLatestTrainWhenVersionMissing(t *testing.T) {
	source := &fakeCatalog{
		latest: "1.10.0",
		trains: map[string][]model.BuildVersion{"1.10.0": {"1.10.0.1"}},
	}
	env := newTestEnv(source)

	result, err := bump(env.context(), &config.Options{InitialBuildNumber: "1"})
	require.NoError(t, err)

	assert.Equal(t, "1.10.0.2", result.BuildNumber)
	assert.Equal(t, []string{"1.10.0"}, source.requested)
	assert.Zero(t, env.prompter.asked)
}

func TestBumpPromptsWhenNoTrainKnown(t *testing.T) {
	source := &fakeCatalog{latestErr: catalog.ErrTrainNotFound}
	env := newTestEnv(source)
	env.prompter.answer = "3.0.0"

	result, err := bump(env.context(), &config.Options{InitialBuildNumber: "3.0.0.0"})
	require.NoError(t, err)

	assert.Equal(t, 1, env.prompter.asked)
	assert.Equal(t, []string{"3.0.0"}, source.requested)
	assert.Equal(t, "3.0.0.0", result.LatestBuildNumber)
	assert.Equal(t, "3.0.0.1", result.BuildNumber)
}

func TestBumpLookupFailureFallsBackToInitial(t *testing.T) {
	source := &fakeCatalog{findErr: errors.New("connection refused")}
	env := newTestEnv(source)

	result, err := bump(env.context(), &config.Options{Version: "1.0", InitialBuildNumber: "1.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", result.LatestBuildNumber)
	assert.Equal(t, "1.0.1", result.BuildNumber)
}

func TestBumpNoBuildAndNoInitial(t *testing.T) {
	env := newTestEnv(&fakeCatalog{})

	_, err := bump(env.context(), &config.Options{Version: "1.0"})
	assert.ErrorIs(t, err, model.ErrNoBuildFound)
	assert.Empty(t, env.agvtool.calls)
}

func TestBumpLive(t *testing.T) {
	source := &fakeCatalog{live: "1.3.0.12"}
	env := newTestEnv(source)

	result, err := bump(env.context(), &config.Options{Live: true, InitialBuildNumber: "1"})
	require.NoError(t, err)

	assert.Empty(t, source.requested)
	assert.Equal(t, "1.3.0.12", result.LatestBuildNumber)
	assert.Equal(t, "1.3.0.13", result.BuildNumber)
}

func TestBumpLiveFailure(t *testing.T) {
	env := newTestEnv(&fakeCatalog{liveErr: catalog.ErrLiveUnsupported})

	_, err := bump(env.context(), &config.Options{Live: true, InitialBuildNumber: "1"})
	assert.ErrorIs(t, err, catalog.ErrLiveUnsupported)
}

func TestBumpDryRun(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{"1.0": {"1.0.4"}}}
	env := newTestEnv(source)

	result, err := bump(env.context(), &config.Options{Version: "1.0", InitialBuildNumber: "1", DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, "1.0.5", result.BuildNumber)
	assert.Equal(t, "cd /work/ios && agvtool new-version -all 1.0.5", result.Command)
	assert.Empty(t, env.agvtool.calls)
}

func TestBumpDryRunFlat(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{"1.0": {"7"}}}
	env := newTestEnv(source)

	result, err := bump(env.context(), &config.Options{Version: "1.0", InitialBuildNumber: "1", DryRun: true})
	require.NoError(t, err)

	assert.Empty(t, result.BuildNumber)
	assert.Equal(t, "cd /work/ios && agvtool next-version -all", result.Command)
	assert.Empty(t, env.agvtool.calls)
}

func TestBumpApplyFailure(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{"1.0": {"1.0.4"}}}
	env := newTestEnv(source)
	env.agvtool.err = errors.New("agvtool: no project")

	_, err := bump(env.context(), &config.Options{Version: "1.0", InitialBuildNumber: "1"})
	assert.ErrorIs(t, err, env.agvtool.err)
}

func TestBumpTagAndPush(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{"1.4.0": {"1.4.0.7"}}}
	env := newTestEnv(source)
	env.repo = &fakeRepo{}

	result, err := bump(env.context(), &config.Options{
		Version:            "1.4.0",
		InitialBuildNumber: "1",
		TagPrefix:          "build/",
		Tag:                true,
		Push:               true,
	})
	require.NoError(t, err)

	assert.Equal(t, "build/1.4.0/1.4.0.8", result.Tag)
	assert.Equal(t, []string{"build/1.4.0/1.4.0.8"}, env.repo.tags)
	assert.True(t, env.repo.pushed)
}

func TestBumpTagExists(t *testing.T) {
	source := &fakeCatalog{trains: map[string][]model.BuildVersion{"1.4.0": {"1.4.0.7"}}}
	env := newTestEnv(source)
	env.repo = &fakeRepo{tags: []string{"build/1.4.0/1.4.0.8"}}

	_, err := bump(env.context(), &config.Options{
		Version:            "1.4.0",
		InitialBuildNumber: "1",
		TagPrefix:          "build/",
		Tag:                true,
	})
	assert.Error(t, err)
	assert.False(t, env.repo.pushed)
}

func TestBumpWithGitTagCatalog(t *testing.T) {
	repo := &fakeRepo{tags: []string{"build/2.1/2.1.0.10", "build/2.1/2.1.0.4", "build/2.1/2.1.0.9", "build/2.0/2.0.0.99"}}
	env := newTestEnv(catalog.NewGitTags(repo, ""))
	env.repo = repo

	result, err := bump(env.context(), &config.Options{InitialBuildNumber: "1", TagPrefix: "build/", Tag: true})
	require.NoError(t, err)

	assert.Equal(t, "2.1.0.10", result.LatestBuildNumber)
	assert.Equal(t, "2.1.0.11", result.BuildNumber)
	assert.Equal(t, "build/2.1/2.1.0.11", result.Tag)
	assert.Contains(t, repo.tags, "build/2.1/2.1.0.11")
}
