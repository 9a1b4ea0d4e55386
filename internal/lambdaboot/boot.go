// Package lambdaboot provides the Lambda cold-start bootstrap: AWS config,
// the Gemini API key from SSM Parameter Store, and startup logging.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/vizu-atelier/internal/logging"
)

// DefaultAPIKeyParam is the SSM parameter read when SSM_API_KEY_PARAM is unset.
const DefaultAPIKeyParam = "/vizu-atelier/prod/gemini-api-key"

// AWSClients holds the core AWS SDK clients used by the Lambda.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// ParameterGetter is the slice of the SSM client used here.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// APIKeyParam returns the SSM parameter name holding the Gemini API key.
func APIKeyParam() string {
	return logging.EnvOrDefault("SSM_API_KEY_PARAM", DefaultAPIKeyParam)
}

// FetchGeminiKey reads and decrypts the API key parameter.
func FetchGeminiKey(ctx context.Context, client ParameterGetter, paramName string) (string, error) {
	result, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read parameter %s: %w", paramName, err)
	}
	if result.Parameter == nil || aws.ToString(result.Parameter.Value) == "" {
		return "", fmt.Errorf("parameter %s is empty", paramName)
	}
	return aws.ToString(result.Parameter.Value), nil
}

// LoadGeminiKey fetches the Gemini API key from SSM Parameter Store unless
// API_KEY or GEMINI_API_KEY is already set, and exports it as GEMINI_API_KEY.
// Fatals on error.
func LoadGeminiKey(client ParameterGetter) {
	if os.Getenv("API_KEY") != "" || os.Getenv("GEMINI_API_KEY") != "" {
		return
	}
	paramName := APIKeyParam()
	ssmStart := time.Now()
	key, err := FetchGeminiKey(context.Background(), client, paramName)
	if err != nil {
		log.Fatal().Err(err).Str("param", paramName).Msg("Failed to read API key from SSM")
	}
	os.Setenv("GEMINI_API_KEY", key)
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(ssmStart)).Msg("Gemini API key loaded from SSM")
}
