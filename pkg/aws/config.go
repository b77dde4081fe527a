package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/pythonsogood/dbms-nosql/logger"
)

// Endpoint returns the LocalStack-style endpoint override, if any. A
// service-specific variable (e.g. AWS_S3_ENDPOINT) wins over AWS_ENDPOINT.
func Endpoint(service string) string {
	if service != "" {
		if v := os.Getenv("AWS_" + service + "_ENDPOINT"); v != "" {
			return v
		}
	}
	return os.Getenv("AWS_ENDPOINT")
}

// LoadAWSConfig loads AWS config from the environment. When AWS_ENDPOINT is
// set every client built from the config targets that URL instead of AWS.
func LoadAWSConfig(ctx context.Context) (sdkaws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_REGION")
	}

	if endpoint := Endpoint(""); endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(endpoint)
		logger.Debug(ctx, "custom aws endpoint configured",
			zap.String("endpoint", endpoint),
			zap.String("region", cfg.Region),
		)
	}
	return cfg, nil
}
