package main

import (
	"os"
	"strings"

	"github.com/alfredjeanlab/eventsvc/internal/client"
	"github.com/alfredjeanlab/eventsvc/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath string
	httpURL    string
	jsonOutput bool

	eventsClient client.EventsClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("EVENTSVC_URL"); s != "" {
		return s
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return "http://localhost:" + port
}

var rootCmd = &cobra.Command{
	Use:           "eventsvc <command>",
	Short:         "Event intake service and its client commands",
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		eventsClient = client.NewHTTPClient(httpURL)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if eventsClient != nil {
			eventsClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv(config.FileEnvVar), "TOML config file (environment overrides it)")
	rootCmd.PersistentFlags().StringVar(&httpURL, "url", defaultHTTPURL(), "eventsvc base URL for client commands")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "server", Title: "Server:"},
		&cobra.Group{ID: "events", Title: "Events:"},
	)
	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(emitCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// truncate shortens s to n runes for table output.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
