// Package config 讀取 .bumpversion.yml 並檢查選項
package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

const DefaultPath = ".bumpversion.yml"

const (
	CatalogAppStore = "appstore"
	CatalogGit      = "git"
)

var ErrInvalidProject = xerrors.New("Xcode 專案設定錯誤")

// File 是設定檔的內容，欄位與指令參數相同
type File struct {
	AppIdentifier      string  `yaml:"app_identifier"`
	Username           string  `yaml:"username"`
	Version            string  `yaml:"version"`
	InitialBuildNumber *string `yaml:"initial_build_number"`
	TeamID             string  `yaml:"team_id"`
	TeamName           string  `yaml:"team_name"`
	Xcodeproj          string  `yaml:"xcodeproj"`
	Catalog            string  `yaml:"catalog"`
	APIURL             string  `yaml:"api_url"`
	Repo               string  `yaml:"repo"`
	TagPrefix          string  `yaml:"tag_prefix"`
	Keyfile            string  `yaml:"keyfile"`
}

// Load 讀取設定檔，預設路徑的檔案不存在時回傳空設定
func Load(path string) (*File, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return &File{}, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("讀取設定檔失敗: %w", err)
	}

	file := &File{}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, xerrors.Errorf("解析設定檔 %s 失敗: %w", path, err)
	}
	return file, nil
}

// FirstNonEmpty 依序回傳第一個有值的設定
func FirstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

type Options struct {
	Live               bool
	AppIdentifier      string
	Username           string
	Version            string
	InitialBuildNumber string
	TeamID             string
	TeamName           string
	BuildNumber        string
	Xcodeproj          string
	Catalog            string
	APIToken           string
	APIURL             string
	Repo               string
	TagPrefix          string
	Tag                bool
	Push               bool
	Keyfile            string
	KeyfilePassword    string
	DryRun             bool
	Verbose            bool
}

func (o *Options) Validate() error {
	switch o.Catalog {
	case CatalogAppStore:
		if o.AppIdentifier == "" {
			return xerrors.New("使用 App Store Connect 時必須指定 app identifier")
		}
	case CatalogGit:
	default:
		return xerrors.Errorf("不支援的 catalog: %q", o.Catalog)
	}

	if o.Xcodeproj != "" {
		if strings.HasSuffix(o.Xcodeproj, ".xcworkspace") {
			return xerrors.Errorf("請提供專案路徑而不是 workspace: %w", ErrInvalidProject)
		}
		if _, err := os.Stat(o.Xcodeproj); err != nil && !o.DryRun {
			return xerrors.Errorf("找不到 Xcode 專案 %s: %w", o.Xcodeproj, ErrInvalidProject)
		}
	}

	if o.Push && !o.Tag {
		return xerrors.New("--push 需要同時使用 --tag")
	}
	if o.Tag && o.Live && o.Version == "" {
		return xerrors.New("查詢上架中版本時，--tag 需要指定 --version")
	}

	return nil
}
