// Package terminal implements the interactive command-line mode of steward.
//
// The user types requests at a "You: " prompt and each answer is printed
// after "Assistant: ". A few inputs are handled by the terminal itself:
//
//   - exit, /exit, /quit: end the session
//   - /agents: list the intents an agent is registered for
//
// End of input and cancellation of the context (Ctrl+C) also end the
// session.
//
// # Errors
//
// Failed turns are reported according to their class. Invalid input is
// answered like a normal reply so the user can rephrase, transient
// failures ask the user to try again, and unclassified errors are
// printed. In all three cases the session continues. A fatal error is
// returned from Run unprinted, which ends the session; the caller reports
// it. A panic inside
// a turn is recovered and reported as a failed turn.
//
// # Usage
//
//	term := terminal.New(manager, manager.Intents(), os.Stdin, os.Stdout)
//	if err := term.Run(ctx, ""); err != nil {
//	    // fatal: report it and exit non-zero
//	}
package terminal
