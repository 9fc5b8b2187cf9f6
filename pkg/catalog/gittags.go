package catalog

import (
	"context"
	"strings"

	"github.com/marco79423/bumpversion/pkg/model"
	"github.com/marco79423/bumpversion/pkg/util"
	"golang.org/x/xerrors"
)

const DefaultTagPrefix = "build/"

// GitTags 以 git tag 紀錄 build，格式為 <prefix><version>/<build>
type GitTags struct {
	repo   util.GitRepository
	prefix string
}

func NewGitTags(repo util.GitRepository, prefix string) *GitTags {
	if prefix == "" {
		prefix = DefaultTagPrefix
	}
	return &GitTags{repo: repo, prefix: prefix}
}

// TagName 回傳某個 build 對應的 tag 名稱
func (g *GitTags) TagName(version string, build model.BuildVersion) string {
	return g.prefix + version + "/" + build.String()
}

func (g *GitTags) parse(tagName string) (version, build string, ok bool) {
	if !strings.HasPrefix(tagName, g.prefix) {
		return "", "", false
	}

	rest := strings.TrimPrefix(tagName, g.prefix)
	idx := strings.LastIndex(rest, "/")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}

func (g *GitTags) FindBuildTrain(_ context.Context, version string) (*model.BuildTrain, error) {
	tagNames, err := g.repo.GetAllTagNames()
	if err != nil {
		return nil, xerrors.Errorf("取得 build train 失敗: %w", err)
	}

	train := &model.BuildTrain{Version: version}
	for _, tagName := range tagNames {
		v, build, ok := g.parse(tagName)
		if !ok || v != version {
			continue
		}
		train.Builds = append(train.Builds, model.BuildRecord{BuildVersion: model.BuildVersion(build)})
	}

	if len(train.Builds) == 0 {
		return nil, ErrTrainNotFound
	}
	return train, nil
}

func (g *GitTags) LatestTrainVersion(_ context.Context) (string, error) {
	tagNames, err := g.repo.GetAllTagNames()
	if err != nil {
		return "", xerrors.Errorf("取得最新版本失敗: %w", err)
	}

	var labels []string
	for _, tagName := range tagNames {
		if v, _, ok := g.parse(tagName); ok {
			labels = append(labels, v)
		}
	}
	return latestLabel(labels)
}

func (g *GitTags) CurrentLiveBuildNumber(_ context.Context) (model.BuildVersion, error) {
	return "", ErrLiveUnsupported
}
