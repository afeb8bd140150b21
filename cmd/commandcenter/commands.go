package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath  string
	listenAddr  string
	launchOnRun bool
	classifyAll bool
	forceInit   bool

	rootCmd = &cobra.Command{
		Use:   "commandcenter",
		Short: "Live telemetry-to-graph engine for the cognitive kernel",
		Long: `commandcenter supervises the kernel process, turns its log output into a
concept graph, lays the graph out with a force-directed simulation and serves
it to the front-end over HTTP, SSE and WebSocket.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the coordinator and the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	classifyCmd = &cobra.Command{
		Use:   "classify",
		Short: "Classify telemetry lines read from stdin and print the events as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.InOrStdin(), cmd.OutOrStdout(), classifyAll)
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}

	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfigInit,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file (default: search $COMMANDCENTER_CONFIG, ./commandcenter.yaml, XDG and /etc)")

	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "HTTP listen address (overrides server.addr)")
	serveCmd.Flags().BoolVar(&launchOnRun, "launch", false, "Launch the kernel on startup")

	classifyCmd.Flags().BoolVar(&classifyAll, "all", false, "Also print lines that produce no event")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configInitCmd)
	rootCmd.AddCommand(serveCmd, classifyCmd, configCmd)
}
