// Package main is the Lambda entry point for the atelier HTTP API.
//
// It serves the same chi router as "atelier serve" behind API Gateway (HTTP
// API, payload v2). The Gemini key comes from SSM Parameter Store unless
// already in the environment; CloudFront adds x-origin-verify so direct
// API Gateway calls are refused when ORIGIN_VERIFY_SECRET is set.
//
// The batch endpoint is disabled: clients render looks one at a time with
// POST /api/sessions/{id}/looks/{index}, each well inside the gateway timeout.
//
// Sessions live in the memory of one warm container. A new container starts
// empty, so clients must tolerate 404 on a session and re-analyze.
package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/api"
	"github.com/fpang/vizu-atelier/internal/auth"
	"github.com/fpang/vizu-atelier/internal/config"
	"github.com/fpang/vizu-atelier/internal/gemini"
	"github.com/fpang/vizu-atelier/internal/lambdaboot"
	"github.com/fpang/vizu-atelier/internal/logging"
	"github.com/fpang/vizu-atelier/internal/metrics"
	"github.com/fpang/vizu-atelier/internal/session"
	"github.com/fpang/vizu-atelier/internal/stylist"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

var handler *httpadapter.HandlerAdapterV2

func init() {
	initStart := time.Now()
	logging.InitJSON()
	metrics.Enable(os.Stdout)

	clients := lambdaboot.InitAWS()
	lambdaboot.LoadGeminiKey(clients.SSM)

	cfg, err := config.Load(os.Getenv("ATELIER_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("Gemini API key not available")
	}

	svc := stylist.New(gemini.NewProvider(apiKey), cfg.StylistOptions())
	store := session.NewStore(cfg.Server.SessionTTL)
	go store.RunSweeper(context.Background(), 10*time.Minute)

	// API Gateway cuts requests off at 30s, shorter than a full batch.
	apiCfg := cfg.APIConfig(version)
	apiCfg.DisableBatch = true
	handler = httpadapter.NewV2(api.NewServer(svc, store, apiCfg).Router())

	cfg.Startup("atelier-lambda", version, initStart).
		SSMParam("gemini_api_key", lambdaboot.APIKeyParam()).
		Config("region", clients.Config.Region).
		Config("session_ttl", cfg.Server.SessionTTL.String()).
		Feature("batch_endpoint", !apiCfg.DisableBatch).
		Log()
}

func main() {
	lambda.Start(handler.ProxyWithContext)
}
