package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/cli"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/media"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// tryon flags
var (
	resultFlag string
	indexFlag  int
	refineFlag string
)

var tryonCmd = &cobra.Command{
	Use:   "tryon",
	Short: "Render outfits from a lookbook onto the portrait",
	Long: `Without --index, renders every outfit that has no image yet, one at a time,
saving the lookbook after each. Running it again only retries what failed.
With --index, renders that outfit, optionally with a --refine instruction.`,
	Args: cobra.NoArgs,
	Run:  runTryOn,
}

func init() {
	tryonCmd.Flags().StringVarP(&resultFlag, "result", "r", "lookbook.json", "Lookbook file written by analyze")
	tryonCmd.Flags().IntVar(&indexFlag, "index", -1, "Render only this outfit (0-based)")
	tryonCmd.Flags().StringVar(&refineFlag, "refine", "", "Refinement instruction for --index, e.g. \"mangas curtas\"")
}

func runTryOn(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := cmd.Context()

	lb, err := readLookbook(resultFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load lookbook")
	}
	imagePath := imageFlag
	if imagePath == "" {
		imagePath = lb.Image
	}
	image, _, err := cli.LoadImage(imagePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load image")
	}
	svc := cli.InitService(ctx, cfg, false)
	outDir := filepath.Dir(resultFlag)

	if indexFlag >= 0 {
		renderOne(cmd, svc, lb, image, outDir)
		return
	}
	if refineFlag != "" {
		log.Fatal().Msg("--refine requires --index")
	}

	pending := lb.Result.Pending()
	if len(pending) == 0 {
		fmt.Println("Every look is already rendered.")
		return
	}

	start := time.Now()
	log.Info().Ints("pending", pending).Msg("Rendering looks")
	final := svc.GenerateAll(ctx, image, lb.Result, func(index int, result stylist.AnalysisResult) {
		lb.Result = result
		if err := writeLookbook(resultFlag, lb); err != nil {
			log.Error().Err(err).Msg("Failed to save progress")
		}
		if path, err := writeLookImage(outDir, index, result.Outfits[index]); err != nil {
			log.Error().Err(err).Msg("Failed to save look image")
		} else {
			fmt.Printf("[%d] %s -> %s\n", index, result.Outfits[index].Title, path)
		}
	})
	lb.Result = final
	if err := writeLookbook(resultFlag, lb); err != nil {
		log.Fatal().Err(err).Msg("Failed to save lookbook")
	}

	left := len(final.Pending())
	log.Info().
		Int("rendered", len(pending)-left).
		Int("failed", left).
		Str("elapsed", cli.FormatDurationShort(time.Since(start))).
		Msg("Try-on batch finished")
	if left > 0 {
		fmt.Printf("%d look(s) failed; run tryon again to retry them.\n", left)
	}
}

func renderOne(cmd *cobra.Command, svc *stylist.Service, lb *lookbook, image media.Payload, outDir string) {
	if indexFlag >= len(lb.Result.Outfits) {
		log.Fatal().Int("index", indexFlag).Int("outfits", len(lb.Result.Outfits)).Msg("Outfit index out of range")
	}
	outfit := lb.Result.Outfits[indexFlag]

	log.Info().Str("outfit", outfit.Title).Str("refinement", refineFlag).Msg("Rendering look")
	look, err := svc.RenderLook(cmd.Context(), image, lb.Result.Biotype, outfit, refineFlag)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("category", gemini.CategoryOf(err).String()).
			Msg("Try-on failed")
	}

	updated, err := lb.Result.WithOutfit(indexFlag, look)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to update lookbook")
	}
	lb.Result = updated
	if err := writeLookbook(resultFlag, lb); err != nil {
		log.Fatal().Err(err).Msg("Failed to save lookbook")
	}
	path, err := writeLookImage(outDir, indexFlag, look)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save look image")
	}
	fmt.Printf("[%d] %s -> %s\n", indexFlag, look.Title, path)
}
