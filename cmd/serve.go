package cmd

import (
	"github.com/emrgen/lexicon/internal/config"
	"github.com/emrgen/lexicon/internal/server"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var port string

	command := &cobra.Command{
		Use:   "serve",
		Short: "start the rest server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()
			if port != "" {
				cfg.HTTPPort = port
			}
			server.NewServer(cfg).Start()
		},
	}

	command.Flags().StringVarP(&port, "port", "p", "", "http port, overrides HTTP_PORT")

	return command
}
