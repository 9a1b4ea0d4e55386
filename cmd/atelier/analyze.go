package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/cli"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// analyze flags
var (
	heightFlag      string
	weightFlag      string
	stylesFlag      []string
	colorsFlag      string
	avoidFlag       string
	analyzeOutFlag  string
	skipQualityFlag bool
	forceFlag       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a portrait and write the style report",
	Long: `Runs the quality check, then the full style analysis: skin tone, biotype,
palette, visagism, eyewear and outfit suggestions linked to the partner store.
The result is written as a lookbook JSON file that tryon and tone update.`,
	Args: cobra.NoArgs,
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&heightFlag, "height", "", "Height in meters, e.g. 1.65")
	analyzeCmd.Flags().StringVar(&weightFlag, "weight", "", "Weight in kg, e.g. 55")
	analyzeCmd.Flags().StringSliceVar(&stylesFlag, "styles", nil, "Preferred styles, comma separated")
	analyzeCmd.Flags().StringVar(&colorsFlag, "colors", "", "Preferred colors")
	analyzeCmd.Flags().StringVar(&avoidFlag, "avoid", "", "Items or colors to avoid")
	analyzeCmd.Flags().StringVarP(&analyzeOutFlag, "out", "o", "lookbook.json", "Output lookbook file")
	analyzeCmd.Flags().BoolVar(&skipQualityFlag, "skip-quality", false, "Skip the photo quality check")
	analyzeCmd.Flags().BoolVar(&forceFlag, "force", false, "Analyze even when the quality check rejects the photo")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := cmd.Context()

	image, path, err := cli.LoadImage(imageFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load image")
	}
	svc := cli.InitService(ctx, cfg, false)

	if !skipQualityFlag {
		quality := svc.ValidateImageQuality(ctx, image)
		fmt.Print(cli.FormatQuality(quality))
		if !quality.IsValid && !forceFlag {
			log.Fatal().Float64("score", quality.Score).Msg("Photo rejected by quality check; retake it or pass --force")
		}
	}

	var metrics *stylist.UserMetrics
	if heightFlag != "" || weightFlag != "" {
		metrics = &stylist.UserMetrics{Height: heightFlag, Weight: weightFlag}
	}
	var prefs *stylist.UserPreferences
	if len(stylesFlag) > 0 || colorsFlag != "" || avoidFlag != "" {
		prefs = &stylist.UserPreferences{FavoriteStyles: stylesFlag, FavoriteColors: colorsFlag, AvoidItems: avoidFlag}
	}

	start := time.Now()
	log.Info().Str("image", path).Msg("Analyzing portrait")
	result, err := svc.Analyze(ctx, image, metrics, prefs)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("category", gemini.CategoryOf(err).String()).
			Msg("Analysis failed")
	}

	if err := writeLookbook(analyzeOutFlag, &lookbook{Image: path, Result: *result}); err != nil {
		log.Fatal().Err(err).Msg("Failed to save analysis")
	}
	log.Info().
		Str("out", analyzeOutFlag).
		Int("outfits", len(result.Outfits)).
		Str("elapsed", cli.FormatDurationShort(time.Since(start))).
		Msg("Analysis saved")
	fmt.Print(cli.FormatAnalysis(*result))
}
