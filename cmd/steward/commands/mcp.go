package commands

import (
	"github.com/spf13/cobra"

	"github.com/m4xw311/steward/agent/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the assistant as an MCP tool over stdio",
	Long: `Serve the assistant to an MCP client over stdin/stdout.

The server offers one tool, "assistant", taking {"request": "<text>"}.
Logs and OAuth prompts go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer a.Close()
		return mcp.Serve(cmd.Context(), a.manager, Version)
	},
}
