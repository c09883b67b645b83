package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
)

// DefaultPrompt is written before each command is read.
const DefaultPrompt = ">>> "

// Loop reads commands line by line and dispatches them.
type Loop struct {
	dispatcher *Dispatcher
	in         io.Reader
	out        io.Writer
	prompt     string
}

// NewLoop creates a command loop reading from in. The prompt is written to
// out; a nil out disables it.
func NewLoop(dispatcher *Dispatcher, in io.Reader, out io.Writer) *Loop {
	return &Loop{
		dispatcher: dispatcher,
		in:         in,
		out:        out,
		prompt:     DefaultPrompt,
	}
}

// SetPrompt changes the prompt. An empty prompt disables it.
func (l *Loop) SetPrompt(prompt string) {
	l.prompt = prompt
}

// Run processes commands until quit, end of input or ctx cancellation.
// Bad commands are reported and skipped. Only a read error is returned.
func (l *Loop) Run(ctx context.Context) error {
	// Releases the reader once the loop is done, even if ctx lives on.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(l.in)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	lineNo := 0
	for {
		l.writePrompt()

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read command: %w", err)
					}
				default:
				}
				slog.Info("end of input, leaving command loop")
				return nil
			}

			lineNo++
			res, err := l.dispatcher.ExecuteLine(ctx, line)
			if err != nil {
				slog.Error("command failed",
					"line", lineNo,
					"input", line,
					"error", err,
				)
				continue
			}
			if res.Quit {
				slog.Info("quit received, leaving command loop")
				return nil
			}
		}
	}
}

func (l *Loop) writePrompt() {
	if l.out == nil || l.prompt == "" {
		return
	}
	fmt.Fprint(l.out, l.prompt)
}
