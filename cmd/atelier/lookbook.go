package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/vizu-atelier/internal/media"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// lookbook is the on-disk session of the CLI: the portrait it was made from
// and the current analysis, including rendered looks.
type lookbook struct {
	Image  string                 `json:"image"`
	Result stylist.AnalysisResult `json:"result"`
}

func readLookbook(path string) (*lookbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookbook: %w", err)
	}
	var lb lookbook
	if err := json.Unmarshal(data, &lb); err != nil {
		return nil, fmt.Errorf("failed to parse lookbook %s: %w", path, err)
	}
	return &lb, nil
}

// writeLookbook writes atomically so an interrupted batch leaves the last
// complete state on disk.
func writeLookbook(path string, lb *lookbook) error {
	data, err := json.MarshalIndent(lb, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode lookbook: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write lookbook: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to write lookbook: %w", err)
	}
	return nil
}

// writeLookImage decodes the outfit's generated image next to the lookbook.
func writeLookImage(dir string, index int, outfit stylist.OutfitSuggestion) (string, error) {
	img, err := media.ParsePayload(outfit.GeneratedImage)
	if err != nil {
		return "", fmt.Errorf("look %d: %w", index, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("look-%d%s", index, extensionFor(img.MIMEType)))
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write look %d: %w", index, err)
	}
	return path, nil
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
