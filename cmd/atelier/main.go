// Command atelier is the Vizu Atelier command line: photo quality check,
// style analysis, virtual try-on, the HTTP API server and an MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/config"
	"github.com/fpang/vizu-atelier/internal/logging"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// Global flags
var (
	configFlag string
	imageFlag  string
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "atelier",
	Short: "AI personal stylist: analysis, palettes and virtual try-on",
	Long: `Vizu Atelier analyzes a portrait with Gemini and suggests a palette,
visagism and outfits linked to the partner store, then renders each outfit
on the photo as a virtual try-on.

Examples:
  atelier quality --image me.jpg
  atelier analyze --image me.jpg --height 1.65 --weight 55 --out look.json
  atelier tryon --result look.json
  atelier tryon --result look.json --index 2 --refine "mangas curtas"
  atelier serve --port 8080
  atelier mcp`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() == "mcp" {
			// stdout carries the protocol.
			logging.InitWriter(os.Stderr)
			return
		}
		logging.Init()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default atelier.yaml when present)")
	rootCmd.PersistentFlags().StringVarP(&imageFlag, "image", "i", "", "Portrait image (opens a file picker when omitted)")

	rootCmd.AddCommand(qualityCmd, analyzeCmd, tryonCmd, toneCmd, serveCmd, mcpCmd, checkKeyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	return cfg
}
