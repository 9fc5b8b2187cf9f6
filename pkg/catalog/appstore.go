package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marco79423/bumpversion/pkg/model"
	"golang.org/x/xerrors"
)

const DefaultAppStoreURL = "https://api.appstoreconnect.apple.com"

const pageLimit = "200"

// AppStore 透過 App Store Connect API 查詢 build，token 由呼叫者提供
type AppStore struct {
	baseURL  string
	token    string
	bundleID string
	client   *http.Client

	appID string
}

type AppStoreOption func(*AppStore)

func WithHTTPClient(client *http.Client) AppStoreOption {
	return func(a *AppStore) {
		a.client = client
	}
}

func NewAppStore(baseURL, token, bundleID string, opts ...AppStoreOption) *AppStore {
	if baseURL == "" {
		baseURL = DefaultAppStoreURL
	}

	a := &AppStore{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		token:    token,
		bundleID: bundleID,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("App Store Connect 回應 %d", e.StatusCode)
	}
	return fmt.Sprintf("App Store Connect 回應 %d: %s", e.StatusCode, e.Detail)
}

type resource struct {
	Type          string                     `json:"type"`
	ID            string                     `json:"id"`
	Attributes    map[string]json.RawMessage `json:"attributes"`
	Relationships map[string]struct {
		Data *struct {
			Type string `json:"type"`
			ID   string `json:"id"`
		} `json:"data"`
	} `json:"relationships"`
}

// attr 取得字串屬性，非字串的值 (例如數字) 直接使用原始內容
func (r resource) attr(name string) string {
	raw, ok := r.Attributes[name]
	if !ok {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return value
	}

	literal := strings.TrimSpace(string(raw))
	if literal == "null" {
		return ""
	}
	return literal
}

type document struct {
	Data     []resource `json:"data"`
	Included []resource `json:"included"`
	Links    struct {
		Next string `json:"next"`
	} `json:"links"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (a *AppStore) get(ctx context.Context, rawURL string) (*document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, xerrors.Errorf("建立請求失敗: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, xerrors.Errorf("請求 App Store Connect 失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Errorf("讀取 App Store Connect 回應失敗: %w", err)
	}

	doc := &document{}
	decodeErr := json.Unmarshal(body, doc)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil && len(doc.Errors) > 0 {
			apiErr.Detail = doc.Errors[0].Detail
			if apiErr.Detail == "" {
				apiErr.Detail = doc.Errors[0].Title
			}
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, xerrors.Errorf("解析 App Store Connect 回應失敗: %w", decodeErr)
	}

	return doc, nil
}

// getAll 依照 links.next 取得所有分頁
func (a *AppStore) getAll(ctx context.Context, path string, query url.Values) (*document, error) {
	next := a.baseURL + path + "?" + query.Encode()

	all := &document{}
	for next != "" {
		doc, err := a.get(ctx, next)
		if err != nil {
			return nil, err
		}
		all.Data = append(all.Data, doc.Data...)
		all.Included = append(all.Included, doc.Included...)
		next = doc.Links.Next
	}
	return all, nil
}

func (a *AppStore) resolveAppID(ctx context.Context) (string, error) {
	if a.appID != "" {
		return a.appID, nil
	}

	query := url.Values{}
	query.Set("filter[bundleId]", a.bundleID)
	query.Set("fields[apps]", "bundleId")

	doc, err := a.get(ctx, a.baseURL+"/v1/apps?"+query.Encode())
	if err != nil {
		return "", xerrors.Errorf("取得 App 失敗: %w", err)
	}

	for _, app := range doc.Data {
		if app.attr("bundleId") == a.bundleID {
			a.appID = app.ID
			return a.appID, nil
		}
	}
	return "", xerrors.Errorf("取得 App 失敗: 找不到 %s", a.bundleID)
}

func (a *AppStore) FindBuildTrain(ctx context.Context, version string) (*model.BuildTrain, error) {
	appID, err := a.resolveAppID(ctx)
	if err != nil {
		return nil, xerrors.Errorf("取得 build train 失敗: %w", err)
	}

	query := url.Values{}
	query.Set("filter[app]", appID)
	query.Set("filter[preReleaseVersion.version]", version)
	query.Set("fields[builds]", "version,uploadedDate")
	query.Set("limit", pageLimit)

	doc, err := a.getAll(ctx, "/v1/builds", query)
	if err != nil {
		return nil, xerrors.Errorf("取得 build train 失敗: %w", err)
	}

	train := &model.BuildTrain{Version: version}
	for _, build := range doc.Data {
		record := model.BuildRecord{BuildVersion: model.BuildVersion(build.attr("version"))}
		if uploaded, err := time.Parse(time.RFC3339, build.attr("uploadedDate")); err == nil {
			record.UploadedAt = uploaded
		}
		train.Builds = append(train.Builds, record)
	}

	if len(train.Builds) == 0 {
		return nil, ErrTrainNotFound
	}
	return train, nil
}

func (a *AppStore) LatestTrainVersion(ctx context.Context) (string, error) {
	appID, err := a.resolveAppID(ctx)
	if err != nil {
		return "", xerrors.Errorf("取得最新版本失敗: %w", err)
	}

	query := url.Values{}
	query.Set("filter[app]", appID)
	query.Set("fields[preReleaseVersions]", "version")
	query.Set("limit", pageLimit)

	doc, err := a.getAll(ctx, "/v1/preReleaseVersions", query)
	if err != nil {
		return "", xerrors.Errorf("取得最新版本失敗: %w", err)
	}

	labels := make([]string, 0, len(doc.Data))
	for _, v := range doc.Data {
		labels = append(labels, v.attr("version"))
	}
	return latestLabel(labels)
}

func (a *AppStore) CurrentLiveBuildNumber(ctx context.Context) (model.BuildVersion, error) {
	appID, err := a.resolveAppID(ctx)
	if err != nil {
		return "", xerrors.Errorf("取得上架中版本失敗: %w", err)
	}

	query := url.Values{}
	query.Set("filter[appStoreState]", "READY_FOR_SALE")
	query.Set("include", "build")

	doc, err := a.get(ctx, a.baseURL+"/v1/apps/"+url.PathEscape(appID)+"/appStoreVersions?"+query.Encode())
	if err != nil {
		return "", xerrors.Errorf("取得上架中版本失敗: %w", err)
	}
	if len(doc.Data) == 0 {
		return "", xerrors.Errorf("取得上架中版本失敗: 沒有上架中的版本")
	}

	rel, ok := doc.Data[0].Relationships["build"]
	if !ok || rel.Data == nil {
		return "", xerrors.Errorf("取得上架中版本失敗: 上架中的版本沒有 build")
	}
	for _, included := range doc.Included {
		if included.Type == "builds" && included.ID == rel.Data.ID {
			return model.BuildVersion(included.attr("version")), nil
		}
	}
	return "", xerrors.Errorf("取得上架中版本失敗: 找不到 build %s", rel.Data.ID)
}
