package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shutterspot/backend/internal/adapter"
	"github.com/shutterspot/backend/internal/model"
)

// DynamoCredentialStore implements CredentialStore on a DynamoDB table keyed
// by user_id.
type DynamoCredentialStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewDynamoCredentialStore creates a CredentialStore backed by DynamoDB.
func NewDynamoCredentialStore(client *dynamodb.Client, tableName string) *DynamoCredentialStore {
	return &DynamoCredentialStore{client: client, tableName: tableName}
}

func (s *DynamoCredentialStore) Get(ctx context.Context, userID string) (*model.UserCredential, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get credential from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, adapter.ErrAuthRequired
	}

	var cred model.UserCredential
	if err := attributevalue.UnmarshalMap(out.Item, &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}
	return &cred, nil
}

func (s *DynamoCredentialStore) Put(ctx context.Context, cred *model.UserCredential) error {
	item, err := attributevalue.MarshalMap(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save credential to DynamoDB: %w", err)
	}
	return nil
}

// MemoryCredentialStore implements CredentialStore with an in-memory map,
// used in tests and DEV_MODE.
type MemoryCredentialStore struct {
	creds map[string]model.UserCredential
	mu    sync.RWMutex
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]model.UserCredential)}
}

func (s *MemoryCredentialStore) Get(ctx context.Context, userID string) (*model.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[userID]
	if !ok {
		return nil, adapter.ErrAuthRequired
	}
	return &cred, nil
}

func (s *MemoryCredentialStore) Put(ctx context.Context, cred *model.UserCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[cred.UserID] = *cred
	return nil
}
