package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"xdigest/pkg/config"
	"xdigest/pkg/report"
)

// DynamoDBStore archives tweets in a DynamoDB table keyed by tweet id
type DynamoDBStore struct {
	client    dynamodbiface.DynamoDBAPI
	tableName string
	now       func() time.Time
}

// NewDynamoDBStore connects to DynamoDB and creates the table when missing
func NewDynamoDBStore(ctx context.Context, cfg config.ArchiveConfig) (*DynamoDBStore, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// DynamoDB Local
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	store := newDynamoDBStore(dynamodb.New(sess), cfg.TableName)
	if err := store.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}
	return store, nil
}

func newDynamoDBStore(client dynamodbiface.DynamoDBAPI, table string) *DynamoDBStore {
	return &DynamoDBStore{client: client, tableName: table, now: time.Now}
}

// ensureTable creates the table if it doesn't exist
func (d *DynamoDBStore) ensureTable(ctx context.Context) error {
	_, err := d.client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	if err == nil {
		return nil
	}

	_, err = d.client.CreateTableWithContext(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(d.tableName),
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String("id"),
				KeyType:       aws.String("HASH"),
			},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String("id"),
				AttributeType: aws.String("S"),
			},
		},
		BillingMode: aws.String("PAY_PER_REQUEST"),
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return d.client.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
}

func (d *DynamoDBStore) Name() string { return "dynamodb" }

// Write puts every record of r, replacing items with the same id
func (d *DynamoDBStore) Write(ctx context.Context, r *report.Report) error {
	for _, doc := range Documents(r, d.now()) {
		item, err := dynamodbattribute.MarshalMap(doc)
		if err != nil {
			return fmt.Errorf("failed to marshal tweet %s: %w", doc.ID, err)
		}

		_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(d.tableName),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("failed to store tweet %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Close is a no-op; the DynamoDB client holds no connection
func (d *DynamoDBStore) Close(context.Context) error {
	return nil
}
