package bump

import (
	"github.com/marco79423/bumpversion/pkg/catalog"
	"github.com/marco79423/bumpversion/pkg/config"
)

// flagValues 是指令參數與環境變數的值
type flagValues struct {
	config.Options
	ConfigPath string

	// 明確設為空字串時代表不使用 initial build number
	InitialBuildNumberSet bool
}

// mergeOptions 依序採用參數、設定檔、預設值
func mergeOptions(flags flagValues, file *config.File) *config.Options {
	options := flags.Options

	options.AppIdentifier = config.FirstNonEmpty(flags.AppIdentifier, file.AppIdentifier)
	options.Username = config.FirstNonEmpty(flags.Username, file.Username)
	options.Version = config.FirstNonEmpty(flags.Version, file.Version)
	switch {
	case flags.InitialBuildNumberSet:
		options.InitialBuildNumber = config.FirstNonEmpty(flags.InitialBuildNumber)
	case file.InitialBuildNumber != nil:
		options.InitialBuildNumber = config.FirstNonEmpty(*file.InitialBuildNumber)
	default:
		options.InitialBuildNumber = defaultInitialBuildNumber
	}
	options.TeamID = config.FirstNonEmpty(flags.TeamID, file.TeamID)
	options.TeamName = config.FirstNonEmpty(flags.TeamName, file.TeamName)
	options.Xcodeproj = config.FirstNonEmpty(flags.Xcodeproj, file.Xcodeproj)
	options.Catalog = config.FirstNonEmpty(flags.Catalog, file.Catalog, config.CatalogAppStore)
	options.APIURL = config.FirstNonEmpty(flags.APIURL, file.APIURL, catalog.DefaultAppStoreURL)
	options.Repo = config.FirstNonEmpty(flags.Repo, file.Repo, ".")
	options.TagPrefix = config.FirstNonEmpty(flags.TagPrefix, file.TagPrefix, catalog.DefaultTagPrefix)
	options.Keyfile = config.FirstNonEmpty(flags.Keyfile, file.Keyfile, defaultKeyfile())

	return &options
}
