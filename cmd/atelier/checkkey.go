package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fpang/vizu-atelier/internal/cli"
)

var checkKeyCmd = &cobra.Command{
	Use:   "check-key",
	Short: "Verify the Gemini API key with one minimal call",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		cli.InitService(cmd.Context(), cfg, true)
		fmt.Println("API key OK")
	},
}
