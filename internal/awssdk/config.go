package awssdk

import (
	"context"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// LoadDefault loads the default AWS configuration for the given region using the
// standard environment/credentials chain.
func LoadDefault(ctx context.Context, region string) (awsv2.Config, error) {
	if region == "" {
		return awsconfig.LoadDefaultConfig(ctx)
	}
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
}

// NewDynamoDB constructs a DynamoDB client from a loaded configuration.
func NewDynamoDB(cfg awsv2.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// NewSecretsManager constructs a Secrets Manager client from a loaded configuration.
func NewSecretsManager(cfg awsv2.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(cfg)
}
