package util

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

func NewLogger(w io.Writer, verbose bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})

	logger.SetLevel(logrus.InfoLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// WithProgress 執行 fn 時在終端機顯示 spinner，非終端機或 debug 模式下改用 log
func WithProgress(logger *logrus.Logger, message string, fn func() error) error {
	if logger.IsLevelEnabled(logrus.DebugLevel) || !isTerminal(logger.Out) {
		logger.Debug(message)
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(logger.Out))
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	return fn()
}
