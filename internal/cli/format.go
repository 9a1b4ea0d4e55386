package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/fpang/vizu-atelier/internal/stylist"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatQuality renders a quality check for the terminal.
func FormatQuality(q stylist.QualityResult) string {
	var b strings.Builder
	verdict := "OK"
	if !q.IsValid {
		verdict = "REJECTED"
	}
	fmt.Fprintf(&b, "Quality: %s (score %.0f/100)\n", verdict, q.Score)
	fmt.Fprintf(&b, "  Lighting: %s  Focus: %s  Framing: %s\n", q.Details.Lighting, q.Details.Focus, q.Details.Framing)
	for _, issue := range q.Issues {
		fmt.Fprintf(&b, "  - %s\n", issue)
	}
	if q.Advice != "" {
		fmt.Fprintf(&b, "  Advice: %s\n", q.Advice)
	}
	return b.String()
}

// FormatAnalysis renders the headline of an analysis and its outfits.
func FormatAnalysis(r stylist.AnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Skin tone: %s  Biotype: %s\n", r.SkinTone, r.Biotype)
	if len(r.Palette) > 0 {
		names := make([]string, len(r.Palette))
		for i, c := range r.Palette {
			names[i] = fmt.Sprintf("%s %s", c.Name, c.Hex)
		}
		fmt.Fprintf(&b, "Palette: %s\n", strings.Join(names, ", "))
	}
	for i, o := range r.Outfits {
		marker := " "
		if o.HasImage() {
			marker = "*"
		}
		if o.IsFavorite {
			marker = "♥"
		}
		fmt.Fprintf(&b, "%s [%d] %s (%s)\n", marker, i, o.Title, o.Occasion)
		if o.PartnerSuggestion != nil {
			fmt.Fprintf(&b, "      %s: %s\n", o.PartnerSuggestion.StoreName, o.PartnerSuggestion.Link)
		}
	}
	return b.String()
}
