package commands

import (
	"github.com/spf13/cobra"

	"github.com/m4xw311/steward/agent/ws"
)

var wsAddr string

var wsCmd = &cobra.Command{
	Use:   "ws",
	Short: "Serve the assistant over WebSocket",
	Long: `Serve the assistant on ws://<addr>/ws. Each text frame is one request;
the answer comes back as a JSON text frame:

  {"type": "response", "text": "...", "intent": "calendar"}
  {"type": "error", "text": "..."}`,
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
		return ws.Serve(cmd.Context(), wsAddr, a.manager)
	},
}

func init() {
	wsCmd.Flags().StringVar(&wsAddr, "addr", ws.DefaultAddr, "address to listen on")
}
