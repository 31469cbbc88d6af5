package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shutterspot/backend/internal/model"
)

// DefaultTTL bounds how long a crashed sync pass can hold a connection.
// A full pass over a large folder downloads every new original, so this is
// deliberately generous.
const DefaultTTL = 10 * time.Minute

// LeaseManager implements Locker on a DynamoDB table with TTL expiry.
type LeaseManager struct {
	client      *dynamodb.Client
	tableName   string
	ttlDuration time.Duration
}

// NewLeaseManager creates a new LeaseManager.
func NewLeaseManager(client *dynamodb.Client, tableName string) *LeaseManager {
	return &LeaseManager{
		client:      client,
		tableName:   tableName,
		ttlDuration: DefaultTTL,
	}
}

// Acquire takes the lease via a conditional put:
// (no lease) OR (expired) OR (same owner).
func (m *LeaseManager) Acquire(ctx context.Context, connectionID, owner string) (*model.SyncLease, error) {
	now := time.Now().Unix()
	lease := model.SyncLease{
		ConnectionID: connectionID,
		Owner:        owner,
		ExpiresAt:    now + int64(m.ttlDuration.Seconds()),
	}

	item, err := attributevalue.MarshalMap(lease)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lease: %w", err)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.tableName),
		Item:      item,
		ConditionExpression: aws.String(
			"attribute_not_exists(connection_id) OR expires_at < :now OR #owner = :owner",
		),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil, ErrLeaseHeld
		}
		return nil, fmt.Errorf("failed to acquire lease: %w", err)
	}

	return &lease, nil
}

// Release drops the lease if owner holds it.
func (m *LeaseManager) Release(ctx context.Context, connectionID, owner string) error {
	_, err := m.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"connection_id": &types.AttributeValueMemberS{Value: connectionID},
		},
		ConditionExpression: aws.String("#owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		// Not holding the lease (expired and stolen, or already released) is
		// not a release failure.
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil
		}
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

// Status returns the active lease, or nil if none is held or it expired.
func (m *LeaseManager) Status(ctx context.Context, connectionID string) (*model.SyncLease, error) {
	out, err := m.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"connection_id": &types.AttributeValueMemberS{Value: connectionID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get lease status: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var lease model.SyncLease
	if err := attributevalue.UnmarshalMap(out.Item, &lease); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lease: %w", err)
	}

	if lease.ExpiresAt < time.Now().Unix() {
		return nil, nil
	}
	return &lease, nil
}
