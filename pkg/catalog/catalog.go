// Package catalog 提供查詢已上傳 build 的來源
package catalog

import (
	"context"

	"github.com/marco79423/bumpversion/pkg/model"
	"golang.org/x/xerrors"
)

var (
	ErrTrainNotFound   = xerrors.New("找不到該版本的 build train")
	ErrLiveUnsupported = xerrors.New("此來源不支援查詢上架中的版本")
)

type Catalog interface {
	// FindBuildTrain 取得某個版本所有的 build
	FindBuildTrain(ctx context.Context, version string) (*model.BuildTrain, error)

	// LatestTrainVersion 取得最新的版本
	LatestTrainVersion(ctx context.Context) (string, error)

	// CurrentLiveBuildNumber 取得目前上架中版本的 build number
	CurrentLiveBuildNumber(ctx context.Context) (model.BuildVersion, error)
}

func latestLabel(labels []string) (string, error) {
	versions := make([]model.BuildVersion, 0, len(labels))
	for _, label := range labels {
		versions = append(versions, model.BuildVersion(label))
	}

	latest, ok := model.SelectMax(versions)
	if !ok {
		return "", ErrTrainNotFound
	}
	return latest.String(), nil
}
