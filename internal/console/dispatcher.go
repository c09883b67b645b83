// Package console implements the interactive command front end: command
// dispatch, argument parsing and the line-reading loop.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rwatch/datagen/internal/storage"
)

// Command names, matched after trimming and lower-casing.
const (
	CommandStore = "store"
	CommandSend  = "send"
	CommandQuit  = "quit"
)

// Result describes the outcome of one command.
type Result struct {
	// Command is the normalized command name.
	Command string

	// Stored is the number of entries appended by store.
	Stored int

	// Entries is the window returned by send; nil when empty.
	Entries []storage.Entry

	// Quit is set when the caller should stop reading commands.
	Quit bool
}

// Dispatcher maps command names to store operations.
type Dispatcher struct {
	store storage.Store
	sink  Sink
}

// NewDispatcher creates a dispatcher. sink may be nil, in which case send
// results are only returned to the caller.
func NewDispatcher(store storage.Store, sink Sink) *Dispatcher {
	return &Dispatcher{
		store: store,
		sink:  sink,
	}
}

// Execute runs a single command. Errors abort that command only and
// leave the store untouched.
func (d *Dispatcher) Execute(ctx context.Context, name string, args []string) (Result, error) {
	cmd := strings.ToLower(strings.TrimSpace(name))
	if cmd == "" {
		return Result{}, ErrEmptyCommand
	}

	switch cmd {
	case CommandStore:
		return d.executeStore(ctx, args)
	case CommandSend:
		return d.executeSend(ctx, args)
	case CommandQuit:
		return Result{Command: cmd, Quit: true}, nil
	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
}

// ExecuteLine splits line and executes it.
func (d *Dispatcher) ExecuteLine(ctx context.Context, line string) (Result, error) {
	name, args, err := Split(line)
	if err != nil {
		return Result{}, err
	}
	return d.Execute(ctx, name, args)
}

func (d *Dispatcher) executeStore(ctx context.Context, args []string) (Result, error) {
	n, err := d.store.Append(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("store: %w", err)
	}

	slog.Debug("store command executed", "lines", len(args), "stored", n)
	return Result{Command: CommandStore, Stored: n}, nil
}

func (d *Dispatcher) executeSend(ctx context.Context, args []string) (Result, error) {
	w, err := ParseSendArgs(args)
	if err != nil {
		return Result{}, err
	}

	entries, err := d.store.Query(ctx, w)
	if err != nil {
		return Result{}, fmt.Errorf("send: %w", err)
	}

	if d.sink != nil {
		if err := d.sink.Deliver(ctx, entries); err != nil {
			return Result{}, fmt.Errorf("send: deliver: %w", err)
		}
	}

	slog.Debug("send command executed",
		"entries", len(entries),
		"latest", w.FromLatest,
		"flush", w.FlushAfter,
	)
	return Result{Command: CommandSend, Entries: entries}, nil
}
