package model

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// ErrNoBuildFound 表示找不到任何 build，也沒有設定 initial build number
var ErrNoBuildFound = xerrors.New("找不到任何 build，且未設定 initial build number")

// BuildVersion 是以 "." 分隔的 build 版號，例如 "42" 或 "1.2.3"
type BuildVersion string

func (v BuildVersion) String() string {
	return string(v)
}

// Segments 以 "." 切開版號，結尾的空白段會被捨棄，例如 "1.2." 為 ["1", "2"]
func (v BuildVersion) Segments() []string {
	segments := strings.Split(string(v), ".")
	for len(segments) > 0 && segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	return segments
}

// IsFlat 表示只有一段的整數 build number
func (v BuildVersion) IsFlat() bool {
	return len(v.Segments()) <= 1
}

// ParseSegment 解析單一段版號開頭的數字，例如 "12b" 為 12，無法解析時視為 0
func ParseSegment(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func segmentAt(segments []string, i int) int {
	if i >= len(segments) {
		return 0
	}
	return ParseSegment(segments[i])
}

// Compare 依序比較每一段的數值，缺少的段視為 0
//
// 前三段 (major、minor、patch) 決定主要順序，之後的段 (例如 1.4.0.10 的 10) 再依序比較。
func Compare(a, b BuildVersion) int {
	aSegments, bSegments := a.Segments(), b.Segments()
	n := 3
	if len(aSegments) > n {
		n = len(aSegments)
	}
	if len(bSegments) > n {
		n = len(bSegments)
	}
	for i := 0; i < n; i++ {
		x, y := segmentAt(aSegments, i), segmentAt(bSegments, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

// SelectMax 回傳最大的版號，輸入為空時回傳 false
func SelectMax(versions []BuildVersion) (BuildVersion, bool) {
	if len(versions) == 0 {
		return "", false
	}

	sorted := make([]BuildVersion, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return Compare(sorted[i], sorted[j]) < 0
	})

	return sorted[len(sorted)-1], true
}

// ResolveLatest 取得 train 中最新的 build，沒有的話使用 initial
func ResolveLatest(train *BuildTrain, initial BuildVersion) (BuildVersion, error) {
	if train != nil {
		if latest, ok := SelectMax(train.BuildVersions()); ok {
			return latest, nil
		}
	}

	if initial == "" {
		return "", ErrNoBuildFound
	}
	return initial, nil
}
