package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/m4xw311/steward/agent/terminal"
)

var chatCmd = &cobra.Command{
	Use:   "chat [request]",
	Short: "Start an interactive assistant session",
	Long: `Start an interactive session. Type a request at the "You:" prompt.

Type exit, /exit or /quit to leave, and /agents to list the available agents.
A request given as arguments is answered first.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Fprintln(cmd.OutOrStdout(), "steward is ready. Type your request, or /agents to see what I can do.")
	term := terminal.New(a.manager, a.manager.Intents(), os.Stdin, cmd.OutOrStdout())
	return term.Run(cmd.Context(), strings.Join(args, " "))
}
