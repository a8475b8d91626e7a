package clients

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

const (
	defaultRegion     = "us-east-2"
	localStackAddress = "http://docker.for.mac.host.internal:4566"
)

// loadAWSConfig honours AWS_REGION and, when isLocal, points every service at
// LocalStack (LOCALSTACK_ENDPOINT overrides the default address)
func loadAWSConfig(isLocal bool) aws.Config {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		panic("failed to load AWS configuration: " + err.Error())
	}

	if isLocal {
		endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
		if endpoint == "" {
			endpoint = localStackAddress
		}
		cfg.BaseEndpoint = aws.String(endpoint)
	}
	return cfg
}

// NewSSMClient creates the parameter store client the lambdas read /irtracker from
func NewSSMClient(isLocal bool) *ssm.Client {
	return ssm.NewFromConfig(loadAWSConfig(isLocal))
}
