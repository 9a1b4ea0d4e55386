package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/cli"
)

var qualityJSONFlag bool

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Check whether a portrait is good enough for analysis",
	Long: `Runs the photo quality check: lighting, focus and framing, with a score
from 0 to 100 and advice in Portuguese. A failed check never blocks; when the
service is unavailable the photo is accepted.`,
	Args: cobra.NoArgs,
	Run:  runQuality,
}

func init() {
	qualityCmd.Flags().BoolVar(&qualityJSONFlag, "json", false, "Print the raw JSON result")
}

func runQuality(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := cmd.Context()

	image, path, err := cli.LoadImage(imageFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load image")
	}
	svc := cli.InitService(ctx, cfg, false)

	log.Info().Str("image", path).Msg("Checking photo quality")
	result := svc.ValidateImageQuality(ctx, image)

	if qualityJSONFlag {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			log.Fatal().Err(err).Msg("Failed to write result")
		}
		return
	}
	fmt.Print(cli.FormatQuality(result))
}
