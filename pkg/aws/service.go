package aws

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/redis/go-redis/v9"
)

// ErrNoSharedSecret means that the value returned from SSM was empty
var ErrNoSharedSecret = errors.New("no value for shared secret")

// MustBeSet returns value, or panics naming envVar when it is empty. Lambdas
// call it at cold start for the variables they cannot run without.
func MustBeSet(envVar string, value string) string {
	if len(value) == 0 {
		panic(fmt.Errorf("missing env var: %s", envVar))
	}
	return value
}

func mustGetEnv(envVar string) string {
	return MustBeSet(envVar, os.Getenv(envVar))
}

// Config describes all the values required to setup AWS from the environment.
// Values a given lambda does not use may be empty.
type Config struct {
	aws.Config
	MarshaURL               string
	SharedSecret            string
	DestinationBucket       string
	SourceBucket            string
	EncodeTimedTextFunction string
	EnvType                 string
	ConversionTableName     string
	// HarvestLedgerRedis is nil when no ledger is configured
	HarvestLedgerRedis *redis.Options
	HoneycombAPIKey    string
	SentryDSN          string
}

// FromEnv constructs the AWS Configuration from the environment
func FromEnv(ctx context.Context) Config {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		panic(fmt.Errorf("loading aws default config: %w", err))
	}

	return Config{
		Config:                  awsConfig,
		MarshaURL:               strings.TrimSuffix(os.Getenv("MARSHA_URL"), "/"),
		SharedSecret:            sharedSecret(ctx, awsConfig),
		DestinationBucket:       os.Getenv("S3_DESTINATION_BUCKET"),
		SourceBucket:            os.Getenv("S3_SOURCE_BUCKET"),
		EncodeTimedTextFunction: os.Getenv("LAMBDA_ENCODE_TIMED_TEXT_NAME"),
		EnvType:                 os.Getenv("ENV_TYPE"),
		ConversionTableName:     os.Getenv("CONVERSION_TABLE_NAME"),
		HarvestLedgerRedis:      harvestLedgerRedis(awsConfig),
		HoneycombAPIKey:         os.Getenv("HONEYCOMB_API_KEY"),
		SentryDSN:               os.Getenv("SENTRY_DSN"),
	}
}

// sharedSecret reads the webhook secret from the SSM parameter named by
// SHARED_SECRET_PARAMETER, falling back to the SHARED_SECRET variable.
func sharedSecret(ctx context.Context, cfg aws.Config) string {
	parameter := os.Getenv("SHARED_SECRET_PARAMETER")
	if parameter == "" {
		return os.Getenv("SHARED_SECRET")
	}
	ssmClient := ssm.NewFromConfig(cfg)
	response, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(parameter),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		panic(fmt.Errorf("retrieving shared secret: %w", err))
	}
	if response.Parameter == nil || aws.ToString(response.Parameter.Value) == "" {
		panic(ErrNoSharedSecret)
	}
	return *response.Parameter.Value
}

// harvestLedgerRedis accepts either a redis:// URL or the host name of an
// ElastiCache cluster, which is then reached over TLS with IAM authentication.
func harvestLedgerRedis(cfg aws.Config) *redis.Options {
	addr := os.Getenv("HARVEST_LEDGER_REDIS_URL")
	if addr == "" {
		return nil
	}
	if strings.Contains(addr, "://") {
		opts, err := redis.ParseURL(addr)
		if err != nil {
			panic(fmt.Errorf("parsing HARVEST_LEDGER_REDIS_URL: %w", err))
		}
		return opts
	}
	return &redis.Options{
		Addr:                       addr + ":6379",
		CredentialsProviderContext: elastiCacheCredentials(cfg, mustGetEnv("REDIS_USER_ID"), mustGetEnv("HARVEST_LEDGER_REDIS_CACHE")),
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}
