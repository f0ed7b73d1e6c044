package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"xlreport/config"
)

// DynamoDBClient defines the interface needed for scanning.
type DynamoDBClient interface {
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoDBDataFetcher implements DataFetcher using AWS DynamoDB.
// A source maps to the table named by Table, falling back to its id.
type DynamoDBDataFetcher struct {
	Client DynamoDBClient
}

// NewDynamoDBDataFetcher creates a new fetcher with the given AWS config.
func NewDynamoDBDataFetcher(cfg aws.Config) *DynamoDBDataFetcher {
	return &DynamoDBDataFetcher{
		Client: dynamodb.NewFromConfig(cfg),
	}
}

// Fetch scans the source table with equality filters on the declared filter
// parameters.
// Filter values are compared as strings.
func (f *DynamoDBDataFetcher) Fetch(ctx context.Context, source config.SourceConfig, opts FetchOptions) (*RowSet, error) {
	tableName := source.Table
	if tableName == "" {
		tableName = source.ID
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(tableName),
	}
	params := source.FilterParams(opts.Params)
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		names := make(map[string]string, len(keys))
		values := make(map[string]types.AttributeValue, len(keys))
		conditions := make([]string, 0, len(keys))
		for i, k := range keys {
			// Placeholders avoid clashes with reserved words.
			kName := fmt.Sprintf("#k%d", i)
			vName := fmt.Sprintf(":v%d", i)
			conditions = append(conditions, kName+" = "+vName)
			names[kName] = k
			values[vName] = &types.AttributeValueMemberS{Value: params[k]}
		}
		input.FilterExpression = aws.String(strings.Join(conditions, " AND "))
		input.ExpressionAttributeNames = names
		input.ExpressionAttributeValues = values
	}

	limit := opts.Limit()
	paginator := dynamodb.NewScanPaginator(f.Client, input)
	var items []map[string]any
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table %s: %w", tableName, err)
		}

		var pageItems []map[string]any
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
		items = append(items, pageItems...)
		if limit > 0 && len(items) >= limit {
			break
		}
	}

	rs := NewRowSet(nil, items)
	rs.Limit(limit)
	return rs, nil
}
