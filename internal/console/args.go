package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rwatch/datagen/internal/storage"
)

// Command errors. None of them is fatal to the command loop.
var (
	ErrEmptyCommand    = errors.New("missing command")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrWrongNumArgs    = errors.New("wrong number of arguments")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ArgError reports a bad positional argument.
type ArgError struct {
	Command  string
	Position int // 1-based
	Value    string
	Expected string
	Err      error
}

func (e *ArgError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("%s: %v (expected %s)", e.Command, e.Err, e.Expected)
	}
	return fmt.Sprintf("%s: argument %d %q: %v (expected %s)",
		e.Command, e.Position, e.Value, e.Err, e.Expected)
}

func (e *ArgError) Unwrap() error {
	return e.Err
}

// ParseSendArgs parses the three positional arguments of the send command:
// a count (non-negative integer, or "none" for every entry), whether to
// read from the latest entries, and whether to flush afterwards.
func ParseSendArgs(args []string) (storage.Window, error) {
	if len(args) != 3 {
		return storage.Window{}, &ArgError{
			Command:  "send",
			Expected: "<count|none> <latest:bool> <flush:bool>",
			Err:      ErrWrongNumArgs,
		}
	}

	var w storage.Window

	if !strings.EqualFold(args[0], "none") {
		n, err := strconv.ParseUint(args[0], 10, strconv.IntSize-1)
		if err != nil {
			return storage.Window{}, &ArgError{
				Command:  "send",
				Position: 1,
				Value:    args[0],
				Expected: "unsigned integer or 'none'",
				Err:      ErrInvalidArgument,
			}
		}
		count := int(n)
		w.Count = &count
	}

	latest, err := parseBool("send", 2, args[1])
	if err != nil {
		return storage.Window{}, err
	}
	flush, err := parseBool("send", 3, args[2])
	if err != nil {
		return storage.Window{}, err
	}

	w.FromLatest = latest
	w.FlushAfter = flush
	return w, nil
}

// parseBool accepts only the canonical spellings true and false.
func parseBool(command string, pos int, s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, &ArgError{
		Command:  command,
		Position: pos,
		Value:    s,
		Expected: "boolean",
		Err:      ErrInvalidArgument,
	}
}
