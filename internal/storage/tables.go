package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// CreateTablesIfNotExist creates the runs table for local development
func CreateTablesIfNotExist(ctx context.Context, client *dynamodb.Client, config DynamoConfig, logger zerolog.Logger) error {
	_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(config.RunsTable),
	})
	if err == nil {
		logger.Info().Str("table", config.RunsTable).Msg("table already exists")
		return nil
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(config.RunsTable),
		KeySchema: []dbtypes.KeySchemaElement{
			{AttributeName: aws.String("Scope"), KeyType: dbtypes.KeyTypeHash},
			{AttributeName: aws.String("GeneratedAt"), KeyType: dbtypes.KeyTypeRange},
		},
		AttributeDefinitions: []dbtypes.AttributeDefinition{
			{AttributeName: aws.String("Scope"), AttributeType: dbtypes.ScalarAttributeTypeS},
			{AttributeName: aws.String("GeneratedAt"), AttributeType: dbtypes.ScalarAttributeTypeS},
		},
		BillingMode: dbtypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", config.RunsTable, err)
	}
	logger.Info().Str("table", config.RunsTable).Msg("table created")

	return nil
}
