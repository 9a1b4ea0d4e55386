package cli

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fpang/vizu-atelier/internal/stylist"
)

func TestFormatDurationShort(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{42 * time.Second, "0:42"},
		{3*time.Minute + 5*time.Second, "3:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDurationShort(tt.in); got != tt.want {
			t.Errorf("FormatDurationShort(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatQuality(t *testing.T) {
	got := FormatQuality(stylist.QualityResult{
		IsValid: false,
		Score:   35,
		Issues:  []string{"Pouca luz"},
		Advice:  "Use luz natural.",
		Details: stylist.QualityDetails{Lighting: "Too Dark", Focus: "Sharp", Framing: "Good"},
	})
	for _, want := range []string{"REJECTED", "score 35/100", "- Pouca luz", "Advice: Use luz natural."} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestFormatAnalysis(t *testing.T) {
	got := FormatAnalysis(stylist.AnalysisResult{
		SkinTone: stylist.SkinToneWarm,
		Biotype:  stylist.BiotypeOval,
		Palette:  []stylist.Color{{Hex: "#D4AF37", Name: "Dourado"}},
		Outfits: []stylist.OutfitSuggestion{
			{Title: "Blazer", Occasion: "Trabalho", GeneratedImage: "data:image/png;base64,AA",
				PartnerSuggestion: &stylist.PartnerSuggestion{StoreName: "Riachuelo", Link: "https://x"}},
			{Title: "Vestido", Occasion: "Festa", IsFavorite: true},
		},
	})
	for _, want := range []string{"Skin tone: Quente", "Dourado #D4AF37", "* [0] Blazer (Trabalho)", "Riachuelo: https://x", "♥ [1] Vestido"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestResolveImagePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "p.png")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got, err := ResolveImagePath(file); err != nil || got != file {
		t.Errorf("ResolveImagePath(file) = %q, %v", got, err)
	}
	if _, err := ResolveImagePath(dir); err == nil {
		t.Error("expected error for directory")
	}
	if _, err := ResolveImagePath(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}
	pngPath := filepath.Join(dir, "portrait.png")
	if err := os.WriteFile(pngPath, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	textPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(textPath, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}

	payload, path, err := LoadImage(pngPath)
	if err != nil {
		t.Fatalf("LoadImage() error = %v", err)
	}
	if payload.MIMEType != "image/png" || path != pngPath {
		t.Errorf("payload mime = %q path = %q", payload.MIMEType, path)
	}

	if _, _, err := LoadImage(textPath); err == nil {
		t.Error("expected error for non-image file")
	}
}
