package bump

import (
	"context"
	"os"

	gitSSH "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/marco79423/bumpversion/pkg/catalog"
	"github.com/marco79423/bumpversion/pkg/config"
	"github.com/marco79423/bumpversion/pkg/util"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

type ctxKey string

const (
	loggerKey   ctxKey = "logger"
	catalogKey  ctxKey = "catalog"
	agvtoolKey  ctxKey = "agvtool"
	gitRepoKey  ctxKey = "gitRepo"
	prompterKey ctxKey = "prompter"
)

// 準備所需要的 Context
func prepareContext(parent context.Context, options *config.Options) (context.Context, error) {
	logger := util.NewLogger(os.Stderr, options.Verbose)
	ctx := context.WithValue(parent, loggerKey, logger)
	ctx = context.WithValue(ctx, prompterKey, util.Prompter(util.TerminalPrompter{}))

	agvtool, err := util.NewAgvtool(options.Xcodeproj, util.ExecRunner)
	if err != nil {
		return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
	}
	ctx = context.WithValue(ctx, agvtoolKey, agvtool)

	// 只有用到 git 時才開啟 repo
	var gitRepo util.GitRepository
	if options.Catalog == config.CatalogGit || options.Tag {
		var gitAuth *gitSSH.PublicKeys
		if options.Push {
			gitAuth, err = util.GetGitAuth(options.Keyfile, options.KeyfilePassword)
			if err != nil {
				return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
			}
		}

		gitRepo, err = util.OpenGitRepo(options.Repo, gitAuth)
		if err != nil {
			return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
		}
		ctx = context.WithValue(ctx, gitRepoKey, gitRepo)
	}

	var source catalog.Catalog
	switch options.Catalog {
	case config.CatalogGit:
		source = catalog.NewGitTags(gitRepo, options.TagPrefix)
	default:
		source = catalog.NewAppStore(options.APIURL, options.APIToken, options.AppIdentifier)
	}
	ctx = context.WithValue(ctx, catalogKey, source)

	return ctx, nil
}

func getCtxLogger(ctx context.Context) *logrus.Logger {
	return ctx.Value(loggerKey).(*logrus.Logger)
}

func getCtxCatalog(ctx context.Context) catalog.Catalog {
	return ctx.Value(catalogKey).(catalog.Catalog)
}

func getCtxAgvtool(ctx context.Context) *util.Agvtool {
	return ctx.Value(agvtoolKey).(*util.Agvtool)
}

func getCtxPrompter(ctx context.Context) util.Prompter {
	return ctx.Value(prompterKey).(util.Prompter)
}

// getCtxGitRepo 沒有開啟 repo 時回傳 nil
func getCtxGitRepo(ctx context.Context) util.GitRepository {
	gitRepo, _ := ctx.Value(gitRepoKey).(util.GitRepository)
	return gitRepo
}
