package util

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cli/safeexec"
	"golang.org/x/xerrors"
)

const agvtoolName = "agvtool"

// Runner 在 dir 下執行指令並回傳合併後的輸出
type Runner func(ctx context.Context, dir, name string, args ...string) (string, error)

func ExecRunner(ctx context.Context, dir, name string, args ...string) (string, error) {
	path, err := safeexec.LookPath(name)
	if err != nil {
		return "", xerrors.Errorf("找不到 %s: %w", name, err)
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		return output.String(), xerrors.Errorf("執行 %s %s 失敗 (%s): %w", name, strings.Join(args, " "), strings.TrimSpace(output.String()), err)
	}

	return output.String(), nil
}

// Agvtool 透過 agvtool 設定 Xcode 專案的 build number
type Agvtool struct {
	Dir    string
	Runner Runner
}

// NewAgvtool 以 xcodeproj 的上一層作為工作目錄，沒給的話使用目前目錄
func NewAgvtool(xcodeproj string, runner Runner) (*Agvtool, error) {
	folder := "."
	if xcodeproj != "" {
		folder = filepath.Join(xcodeproj, "..")
	}

	dir, err := filepath.Abs(folder)
	if err != nil {
		return nil, xerrors.Errorf("取得專案路徑失敗: %w", err)
	}

	if runner == nil {
		runner = ExecRunner
	}
	return &Agvtool{Dir: dir, Runner: runner}, nil
}

type ApplyResult struct {
	BuildNumber string
}

func newVersionArgs(buildNumber string) []string {
	return []string{"new-version", "-all", strings.TrimSpace(buildNumber)}
}

// Apply 將所有 target 的 build number 設為 buildNumber，並回傳實際套用後的值
func (a *Agvtool) Apply(ctx context.Context, buildNumber string) (ApplyResult, error) {
	if _, err := a.Runner(ctx, a.Dir, agvtoolName, newVersionArgs(buildNumber)...); err != nil {
		return ApplyResult{}, xerrors.Errorf("設定 build number 失敗: %w", err)
	}

	current, err := a.CurrentVersion(ctx)
	if err != nil {
		return ApplyResult{}, xerrors.Errorf("設定 build number 失敗: %w", err)
	}

	return ApplyResult{BuildNumber: current}, nil
}

// IncrementFlat 將整數 build number 加一
func (a *Agvtool) IncrementFlat(ctx context.Context) (ApplyResult, error) {
	if _, err := a.Runner(ctx, a.Dir, agvtoolName, "next-version", "-all"); err != nil {
		return ApplyResult{}, xerrors.Errorf("遞增 build number 失敗: %w", err)
	}

	current, err := a.CurrentVersion(ctx)
	if err != nil {
		return ApplyResult{}, xerrors.Errorf("遞增 build number 失敗: %w", err)
	}

	return ApplyResult{BuildNumber: current}, nil
}

// CurrentVersion 讀取 agvtool what-version 輸出的最後一行
func (a *Agvtool) CurrentVersion(ctx context.Context) (string, error) {
	output, err := a.Runner(ctx, a.Dir, agvtoolName, "what-version")
	if err != nil {
		return "", xerrors.Errorf("讀取 build number 失敗: %w", err)
	}

	current := lastLine(output)
	if current == "" {
		return "", xerrors.Errorf("讀取 build number 失敗: agvtool 沒有輸出")
	}
	return current, nil
}

// CommandLine 回傳 Apply 會執行的指令，給 dry run 使用
func (a *Agvtool) CommandLine(buildNumber string) string {
	return commandLine(a.Dir, newVersionArgs(buildNumber)...)
}

func (a *Agvtool) IncrementCommandLine() string {
	return commandLine(a.Dir, "next-version", "-all")
}

func commandLine(dir string, args ...string) string {
	return "cd " + quote(dir) + " && " + agvtoolName + " " + strings.Join(args, " ")
}

func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`&;|<>()*?!#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
