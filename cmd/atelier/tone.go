package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/stylist"
)

var toneFlag string

var toneCmd = &cobra.Command{
	Use:   "tone",
	Short: "Override the detected skin undertone of a lookbook",
	Long: `Replaces the palette and skin narrative with the local profile for the
given undertone. No API call is made.

Undertones: Quente, Frio, Neutro, Oliva`,
	Args: cobra.NoArgs,
	Run:  runTone,
}

func init() {
	toneCmd.Flags().StringVarP(&resultFlag, "result", "r", "lookbook.json", "Lookbook file written by analyze")
	toneCmd.Flags().StringVar(&toneFlag, "tone", "", "Undertone to apply")
	_ = toneCmd.MarkFlagRequired("tone")
}

func runTone(cmd *cobra.Command, args []string) {
	lb, err := readLookbook(resultFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load lookbook")
	}

	updated, err := stylist.ApplySkinTone(lb.Result, stylist.SkinTone(toneFlag))
	if err != nil {
		names := make([]string, len(stylist.SkinTones))
		for i, t := range stylist.SkinTones {
			names[i] = string(t)
		}
		log.Fatal().Err(err).Str("supported", strings.Join(names, ", ")).Msg("Invalid skin tone")
	}
	lb.Result = updated
	if err := writeLookbook(resultFlag, lb); err != nil {
		log.Fatal().Err(err).Msg("Failed to save lookbook")
	}

	log.Info().Str("tone", toneFlag).Int("colors", len(updated.Palette)).Msg("Skin tone applied")
	fmt.Print(formatPalette(updated))
}

func formatPalette(r stylist.AnalysisResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Subtom: %s\n", r.SkinTone)
	for _, c := range r.Palette {
		fmt.Fprintf(&sb, "  %s  %s\n", c.Hex, c.Name)
	}
	return sb.String()
}
