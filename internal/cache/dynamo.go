package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"recipegate/internal/domain"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoStore persists cache entries in a DynamoDB table. The table's
// TTL attribute must be configured on expires_at; DynamoDB evicts
// expired items lazily, so Get still applies the logical expiry check.
type DynamoStore struct {
	client DynamoAPI
	table  string
}

// dynamoItem is the marshaled table row. The payload is stored as a JSON
// string rather than a nested document so the recipe shape can evolve
// without table migrations.
type dynamoItem struct {
	CacheKey  string `dynamodbav:"cache_key"`
	Payload   string `dynamodbav:"payload"`
	CreatedAt int64  `dynamodbav:"created_at"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

// NewDynamoStore creates a DynamoDB-backed store over the given table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{client: client, table: table}
}

// Get fetches the item for key, returning domain.ErrCacheMiss when the
// item is absent or past its TTL.
func (s *DynamoStore) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrCacheMiss
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshaling cache item: %w", err)
	}

	entry := &domain.CacheEntry{
		CacheKey:  item.CacheKey,
		CreatedAt: time.Unix(item.CreatedAt, 0).UTC(),
		ExpiresAt: time.Unix(item.ExpiresAt, 0).UTC(),
	}
	if entry.Expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}

	var recipe domain.GeneratedRecipe
	if err := json.Unmarshal([]byte(item.Payload), &recipe); err != nil {
		return nil, fmt.Errorf("decoding cached recipe: %w", err)
	}
	entry.Recipe = &recipe
	return entry, nil
}

// Put writes the recipe under key, unconditionally replacing any
// existing item.
func (s *DynamoStore) Put(ctx context.Context, key string, recipe *domain.GeneratedRecipe, ttl time.Duration) error {
	payload, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("encoding recipe: %w", err)
	}

	entry := NewEntry(key, recipe, ttl)
	item, err := attributevalue.MarshalMap(dynamoItem{
		CacheKey:  key,
		Payload:   string(payload),
		CreatedAt: entry.CreatedAt.Unix(),
		ExpiresAt: entry.ExpiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshaling cache item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put: %w", err)
	}
	return nil
}

// Delete removes the item for key.
func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	}); err != nil {
		return fmt.Errorf("dynamodb delete: %w", err)
	}
	return nil
}

// Close is a no-op; the underlying client owns no resources to release.
func (s *DynamoStore) Close() error {
	return nil
}
