package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
)

type Prompter interface {
	Input(message string) string
}

// TerminalPrompter 透過 go-prompt 詢問使用者，直到輸入不為空
type TerminalPrompter struct{}

func (TerminalPrompter) Input(message string) string {
	var answer string
	for answer == "" {
		fmt.Fprintln(os.Stderr, message)
		answer = strings.TrimSpace(prompt.Input("> ", noSuggestions))
	}
	return answer
}

func noSuggestions(prompt.Document) []prompt.Suggest {
	return nil
}
