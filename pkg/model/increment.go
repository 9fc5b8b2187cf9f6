package model

import (
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// FlatIncrementer 負責遞增只有一段的 build number，並回傳新的值
type FlatIncrementer func() (BuildVersion, error)

type IncrementResult struct {
	Previous  BuildVersion
	Next      BuildVersion
	Delegated bool
}

// Increment 計算下一個 build number
//
// 只有一段時交給 external 處理；否則只把最後一段加一，其餘保持不變。
func Increment(current BuildVersion, external FlatIncrementer) (IncrementResult, error) {
	if current.IsFlat() {
		next, err := external()
		if err != nil {
			return IncrementResult{}, xerrors.Errorf("遞增 build number 失敗: %w", err)
		}
		return IncrementResult{Previous: current, Next: next, Delegated: true}, nil
	}

	segments := current.Segments()
	last := len(segments) - 1
	segments[last] = strconv.Itoa(ParseSegment(segments[last]) + 1)

	return IncrementResult{
		Previous: current,
		Next:     BuildVersion(strings.Join(segments, ".")),
	}, nil
}
