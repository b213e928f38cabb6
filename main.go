package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	good = color.New(color.FgGreen)
	bad  = color.New(color.FgRed)
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		bad.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "easel [session.json]",
		Short:   "An infinite canvas for iterative image generation",
		Args:    cobra.MaximumNArgs(1),
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(configPath)
			sessionPath := ""
			if len(args) == 1 {
				sessionPath = args[0]
			}
			// The assistant inbox is live even without a collaborator
			// attached; anything holding the connection can drive the
			// canvas through it.
			m := initialModel(cfg, sessionPath, NewAssistantConn(), nil)
			p := tea.NewProgram(
				m,
				tea.WithAltScreen(),
				tea.WithMouseCellMotion(),
			)
			_, err := p.Run()
			return err
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
	cmd.AddCommand(exportCmd(&configPath))
	return cmd
}

func exportCmd(configPath *string) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <session.json>",
		Short: "Render a saved session to PNG without opening the canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := LoadConfig(*configPath)
			store := NewNodeStore()
			view := NewViewport()
			if err := LoadSession(args[0], store, view); err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".png"
			}
			out = cfg.SavePath(out)
			if err := ExportPNG(out, store.Nodes(), nil); err != nil {
				return err
			}
			good.Printf("exported %d nodes to %s\n", store.Len(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "output PNG path")
	return cmd
}
