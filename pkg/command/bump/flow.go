package bump

import (
	"context"

	"github.com/marco79423/bumpversion/pkg/catalog"
	"github.com/marco79423/bumpversion/pkg/config"
	"github.com/marco79423/bumpversion/pkg/model"
	"github.com/marco79423/bumpversion/pkg/util"
	"golang.org/x/xerrors"
)

// 設定下一個 build number
func bump(ctx context.Context, options *config.Options) (Result, error) {
	logger := getCtxLogger(ctx)
	source := getCtxCatalog(ctx)

	if options.Username != "" {
		logger.Infof("App Store Connect 使用者: %s", options.Username)
	}
	if options.TeamID != "" || options.TeamName != "" {
		logger.Debugf("team: %s %s", options.TeamID, options.TeamName)
	}

	var latest model.BuildVersion
	version := options.Version
	if options.Live {
		err := util.WithProgress(logger, "取得上架中版本的 build number", func() error {
			var err error
			latest, err = source.CurrentLiveBuildNumber(ctx)
			return err
		})
		if err != nil {
			return Result{}, xerrors.Errorf("取得最新 build number 失敗: %w", err)
		}
	} else {
		version = resolveVersionLabel(ctx, options.Version)
		logger.Infof("取得版本 %s 最新的 build number", version)

		var train *model.BuildTrain
		err := util.WithProgress(logger, "查詢 build train", func() error {
			var err error
			train, err = source.FindBuildTrain(ctx, version)
			return err
		})
		if err != nil {
			// 查詢失敗與沒有 build 一樣處理
			logger.Debugf("查詢 build train 失敗: %v", err)
			train = nil
		}

		latest, err = model.ResolveLatest(train, model.BuildVersion(options.InitialBuildNumber))
		if err != nil {
			return Result{}, xerrors.Errorf("取得最新 build number 失敗: %w", err)
		}
	}

	logger.Infof("最新上傳的 build number: %s", latest)
	result := Result{LatestBuildNumber: latest.String()}

	if err := applyNext(ctx, options, &result); err != nil {
		return Result{}, err
	}

	if options.Tag {
		tag, err := tagBuild(ctx, options, version, result.BuildNumber)
		if err != nil {
			return Result{}, err
		}
		result.Tag = tag
	}

	return result, nil
}

// resolveVersionLabel 依序使用參數、最新的 build train、詢問使用者
func resolveVersionLabel(ctx context.Context, version string) string {
	if version != "" {
		return version
	}

	logger := getCtxLogger(ctx)
	latest, err := getCtxCatalog(ctx).LatestTrainVersion(ctx)
	if err == nil && latest != "" {
		return latest
	}
	logger.Debugf("取得最新版本失敗: %v", err)

	return getCtxPrompter(ctx).Input("請提供版本號碼，例如 1.4.0")
}

// applyNext 計算並套用下一個 build number，dry run 時只記錄會執行的指令
func applyNext(ctx context.Context, options *config.Options, result *Result) error {
	logger := getCtxLogger(ctx)
	agvtool := getCtxAgvtool(ctx)

	incrementFlat := func() (model.BuildVersion, error) {
		if options.DryRun {
			if options.BuildNumber != "" {
				result.Command = agvtool.CommandLine(options.BuildNumber)
				return model.BuildVersion(options.BuildNumber), nil
			}
			result.Command = agvtool.IncrementCommandLine()
			return "", nil
		}

		var applied util.ApplyResult
		var err error
		if options.BuildNumber != "" {
			applied, err = agvtool.Apply(ctx, options.BuildNumber)
		} else {
			applied, err = agvtool.IncrementFlat(ctx)
		}
		if err != nil {
			return "", err
		}
		return model.BuildVersion(applied.BuildNumber), nil
	}

	next, err := model.Increment(model.BuildVersion(result.LatestBuildNumber), incrementFlat)
	if err != nil {
		return xerrors.Errorf("設定 build number 失敗: %w", err)
	}
	if next.Delegated {
		result.BuildNumber = next.Next.String()
		if result.BuildNumber != "" {
			logger.Infof("新的 build number: %s", result.BuildNumber)
		}
		return nil
	}

	logger.Infof("新的 build number: %s", next.Next)
	buildNumber := config.FirstNonEmpty(options.BuildNumber, next.Next.String())

	if options.DryRun {
		result.Command = agvtool.CommandLine(buildNumber)
		result.BuildNumber = buildNumber
		return nil
	}

	applied, err := agvtool.Apply(ctx, buildNumber)
	if err != nil {
		return xerrors.Errorf("設定 build number 失敗: %w", err)
	}
	result.BuildNumber = applied.BuildNumber
	return nil
}

// tagBuild 以 git tag 紀錄新的 build，需要時推送到 origin
func tagBuild(ctx context.Context, options *config.Options, version, buildNumber string) (string, error) {
	logger := getCtxLogger(ctx)

	if version == "" {
		return "", xerrors.New("建立 Git tag 失敗: 未指定版本")
	}
	if buildNumber == "" {
		return "", xerrors.New("建立 Git tag 失敗: 無法得知新的 build number")
	}

	gitRepo := getCtxGitRepo(ctx)
	if gitRepo == nil {
		return "", xerrors.New("建立 Git tag 失敗: 沒有開啟 Git Repository")
	}

	tagName := catalog.NewGitTags(gitRepo, options.TagPrefix).TagName(version, model.BuildVersion(buildNumber))
	if options.DryRun {
		logger.Infof("將建立 Git tag %s", tagName)
		return tagName, nil
	}

	existed, err := gitRepo.TagExists(tagName)
	if err != nil {
		return "", xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}
	if existed {
		return "", xerrors.Errorf("建立 Git tag 失敗: %s 已存在", tagName)
	}

	if err := gitRepo.CreateTag(tagName); err != nil {
		return "", xerrors.Errorf("建立 Git tag 失敗: %w", err)
	}
	logger.Infof("已建立 Git tag %s", tagName)

	if options.Push {
		if err := gitRepo.PushTags(); err != nil {
			return "", xerrors.Errorf("推送 Git tag 失敗: %w", err)
		}
		logger.Infof("已推送 Git tag %s", tagName)
	}

	return tagName, nil
}
