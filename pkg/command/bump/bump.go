package bump

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/marco79423/bumpversion/pkg/catalog"
	"github.com/marco79423/bumpversion/pkg/config"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

const defaultInitialBuildNumber = "1"

func defaultKeyfile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}

// Result 是執行後的 build number
type Result struct {
	LatestBuildNumber string
	BuildNumber       string
	Tag               string

	// Command 是 dry run 時會執行的 agvtool 指令
	Command string
}

func Command() *cli.Command {
	return &cli.Command{
		Name:    "bump",
		Usage:   "查詢最新的 build number 並設定下一個 build number",
		Aliases: []string{"b"},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "live",
				Aliases: []string{"l"},
				Usage:   "查詢上架中 (ready for sale) 的版本",
				EnvVars: []string{"CURRENT_BUILD_NUMBER_LIVE"},
			},
			&cli.StringFlag{
				Name:    "app-identifier",
				Aliases: []string{"a"},
				Usage:   "App 的 bundle identifier",
				EnvVars: []string{"FASTLANE_APP_IDENTIFIER"},
			},
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Apple ID，只用於顯示",
				EnvVars: []string{"ITUNESCONNECT_USER"},
			},
			&cli.StringFlag{
				Name:    "version",
				Usage:   "要查詢 build number 的版本",
				EnvVars: []string{"LATEST_VERSION"},
			},
			&cli.StringFlag{
				Name:        "initial-build-number",
				Usage:       "找不到 build 時使用的 build number，設為空字串則直接失敗",
				EnvVars:     []string{"INITIAL_BUILD_NUMBER"},
				DefaultText: defaultInitialBuildNumber,
			},
			&cli.StringFlag{
				Name:    "team-id",
				Aliases: []string{"k"},
				Usage:   "App Store Connect team ID",
				EnvVars: []string{"LATEST_TESTFLIGHT_BUILD_NUMBER_TEAM_ID"},
			},
			&cli.StringFlag{
				Name:    "team-name",
				Aliases: []string{"e"},
				Usage:   "App Store Connect team 名稱",
				EnvVars: []string{"LATEST_TESTFLIGHT_BUILD_NUMBER_TEAM_NAME"},
			},
			&cli.StringFlag{
				Name:    "build-number",
				Usage:   "直接設定為指定的 build number",
				EnvVars: []string{"FL_BUILD_NUMBER_BUILD_NUMBER"},
			},
			&cli.PathFlag{
				Name:    "xcodeproj",
				Usage:   "Xcode 專案路徑，不在目前目錄時需要指定",
				EnvVars: []string{"FL_BUILD_NUMBER_PROJECT"},
			},
			&cli.StringFlag{
				Name:        "catalog",
				Usage:       "build 的來源: appstore 或 git",
				EnvVars:     []string{"BUMP_VERSION_CATALOG"},
				DefaultText: config.CatalogAppStore,
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "App Store Connect API token",
				EnvVars: []string{"ASC_API_TOKEN"},
			},
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "App Store Connect API 網址",
				EnvVars:     []string{"ASC_API_URL"},
				DefaultText: catalog.DefaultAppStoreURL,
			},
			&cli.PathFlag{
				Name:        "repo",
				Usage:       "Repository 路徑",
				EnvVars:     []string{"BUMP_VERSION_REPO"},
				DefaultText: ".",
			},
			&cli.StringFlag{
				Name:        "tag-prefix",
				Usage:       "記錄 build 的 git tag 前綴",
				EnvVars:     []string{"BUMP_VERSION_TAG_PREFIX"},
				DefaultText: catalog.DefaultTagPrefix,
			},
			&cli.BoolFlag{
				Name:  "tag",
				Usage: "為新的 build 建立 git tag",
			},
			&cli.BoolFlag{
				Name:  "push",
				Usage: "推送 git tag 到 origin",
			},
			&cli.PathFlag{
				Name:  "keyfile",
				Usage: "Private Key 檔案路徑",
			},
			&cli.StringFlag{
				Name:  "keyfile-password",
				Usage: "Private Key 的密碼",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "只顯示要執行的指令",
			},
			&cli.PathFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "設定檔路徑",
				EnvVars: []string{"BUMP_VERSION_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "顯示詳細訊息",
			},
		},
		Action: func(c *cli.Context) error {
			flags := flagValues{
				Options: config.Options{
					Live:               c.Bool("live"),
					AppIdentifier:      c.String("app-identifier"),
					Username:           c.String("username"),
					Version:            c.String("version"),
					InitialBuildNumber: c.String("initial-build-number"),
					TeamID:             c.String("team-id"),
					TeamName:           c.String("team-name"),
					BuildNumber:        c.String("build-number"),
					Xcodeproj:          c.Path("xcodeproj"),
					Catalog:            c.String("catalog"),
					APIToken:           c.String("api-token"),
					APIURL:             c.String("api-url"),
					Repo:               c.Path("repo"),
					TagPrefix:          c.String("tag-prefix"),
					Tag:                c.Bool("tag"),
					Push:               c.Bool("push"),
					Keyfile:            c.Path("keyfile"),
					KeyfilePassword:    c.String("keyfile-password"),
					DryRun:             c.Bool("dry-run"),
					Verbose:            c.Bool("verbose"),
				},
				ConfigPath:            c.Path("config"),
				InitialBuildNumberSet: c.IsSet("initial-build-number"),
			}

			file, err := config.Load(flags.ConfigPath)
			if err != nil {
				return xerrors.Errorf("程式執行失敗: %w", err)
			}

			options := mergeOptions(flags, file)
			if err := options.Validate(); err != nil {
				return xerrors.Errorf("程式執行失敗: %w", err)
			}

			ctx, err := prepareContext(c.Context, options)
			if err != nil {
				return xerrors.Errorf("程式執行失敗: %w", err)
			}

			result, err := bump(ctx, options)
			if err != nil {
				return xerrors.Errorf("程式執行失敗: %w", err)
			}

			if options.DryRun {
				fmt.Fprintln(c.App.Writer, result.Command)
				return nil
			}
			fmt.Fprintln(c.App.Writer, result.BuildNumber)
			return nil
		},
	}
}
