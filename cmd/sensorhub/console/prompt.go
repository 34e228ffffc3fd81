package console

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const (
	Yes  = "y"
	No   = "n"
	Quit = "q"
)

// Prompt asks question and returns one of the constraints, the first one
// being the default for an empty or unmatched answer. Interrupts and EOF
// answer Quit.
func Prompt(question string, constraints ...string) (string, error) {
	if len(constraints) == 0 {
		return "", errors.New("prompt needs at least one answer")
	}
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(strings.ToUpper(constraints[0]))
	for _, c := range constraints[1:] {
		prompt.WriteString("/")
		prompt.WriteString(c)
	}
	prompt.WriteString("]: ")
	rl, err := readline.New(prompt.String())
	if err != nil {
		return "", err
	}
	defer func() { _ = rl.Close() }()
	response, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return Quit, nil
	}
	if err != nil {
		return "", err
	}
	return match(response, constraints), nil
}

func match(response string, constraints []string) string {
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return normalized
		}
	}
	return constraints[0]
}
