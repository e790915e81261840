package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/intent"
)

var (
	promptColor    = color.New(color.FgCyan, color.Bold)
	assistantColor = color.New(color.FgGreen)
	warnColor      = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed, color.Bold)
)

// Terminal runs the interactive chat loop.
type Terminal struct {
	handler agent.Handler
	intents []intent.Intent
	in      io.Reader
	out     io.Writer
	log     *slog.Logger
}

// New creates a Terminal reading turns from in and writing replies to out.
// intents is what /agents lists.
func New(h agent.Handler, intents []intent.Intent, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		handler: h,
		intents: intents,
		in:      in,
		out:     out,
		log:     slog.Default().With("component", "terminal"),
	}
}

// Run starts the interactive session. It returns nil when the user quits,
// input ends or ctx is cancelled, and the error of a turn that failed
// fatally.
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	if initialPrompt != "" {
		if err := t.processTurn(ctx, initialPrompt); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		promptColor.Fprint(t.out, "You: ")

		var userInput string
		select {
		case <-ctx.Done():
			fmt.Fprintln(t.out)
			t.goodbye()
			return nil
		case err := <-readErr:
			// EOF or read error ends the session
			fmt.Fprintln(t.out)
			t.goodbye()
			return err
		case userInput = <-lines:
		}

		userInput = strings.TrimSpace(userInput)
		switch strings.ToLower(userInput) {
		case "":
			continue
		case "exit", "/exit", "/quit":
			t.goodbye()
			return nil
		case "/agents":
			t.listAgents()
			continue
		}

		if err := t.processTurn(ctx, userInput); err != nil {
			return err
		}
	}
}

// processTurn handles a single user turn. Fatal errors are returned
// unprinted for the caller to report; everything else is reported here and
// the session goes on.
func (t *Terminal) processTurn(ctx context.Context, userInput string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("turn panicked", "panic", r)
			errorColor.Fprintln(t.out, "Error: something went wrong while handling that request.")
			err = nil
		}
	}()

	resp, err := t.handler.Handle(ctx, agent.NewRequest(userInput))
	switch {
	case err == nil:
		assistantColor.Fprint(t.out, "Assistant: ")
		fmt.Fprintln(t.out, resp.Text)
	case errors.IsInvalidInput(err):
		assistantColor.Fprint(t.out, "Assistant: ")
		fmt.Fprintln(t.out, errors.Message(err))
	case errors.IsTransient(err):
		warnColor.Fprintf(t.out, "There was a temporary problem: %s. Please try again.\n", errors.Message(err))
	case errors.IsFatal(err):
		return err
	default:
		errorColor.Fprintf(t.out, "Error: %v\n", err)
	}
	return nil
}

func (t *Terminal) listAgents() {
	if len(t.intents) == 0 {
		fmt.Fprintln(t.out, "No agents are registered.")
		return
	}
	names := make([]string, len(t.intents))
	for i, in := range t.intents {
		names[i] = string(in)
	}
	fmt.Fprintf(t.out, "Registered agents: %s\n", strings.Join(names, ", "))
}

func (t *Terminal) goodbye() {
	assistantColor.Fprintln(t.out, "Goodbye!")
}
