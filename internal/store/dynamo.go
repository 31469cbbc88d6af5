package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shutterspot/backend/internal/model"
)

// galleryRemoteIndex is the GSI on the photos table with partition key
// gallery_id and sort key drive_file_id.
const galleryRemoteIndex = "gallery-remote-index"

// Tables names the three DynamoDB tables the store uses.
type Tables struct {
	Connections string
	Galleries   string
	Photos      string
}

// DefaultTables returns the table names used when none are configured.
func DefaultTables() Tables {
	return Tables{
		Connections: "DriveConnections",
		Galleries:   "Galleries",
		Photos:      "Photos",
	}
}

// DynamoStore implements Store on DynamoDB.
type DynamoStore struct {
	client *dynamodb.Client
	tables Tables
}

// NewDynamoStore creates a Store backed by DynamoDB.
func NewDynamoStore(client *dynamodb.Client, tables Tables) *DynamoStore {
	return &DynamoStore{client: client, tables: tables}
}

func (s *DynamoStore) getItem(ctx context.Context, table, id string, out interface{}) error {
	res, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to get item from %s: %w", table, err)
	}
	if res.Item == nil {
		return ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(res.Item, out); err != nil {
		return fmt.Errorf("failed to unmarshal item from %s: %w", table, err)
	}
	return nil
}

func (s *DynamoStore) putItem(ctx context.Context, table string, record interface{}) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal item for %s: %w", table, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item to %s: %w", table, err)
	}
	return nil
}

func (s *DynamoStore) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	var conn model.Connection
	if err := s.getItem(ctx, s.tables.Connections, id, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

func (s *DynamoStore) ListConnectionsByUser(ctx context.Context, userID string) ([]model.Connection, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tables.Connections),
		FilterExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan connections: %w", err)
	}

	conns := []model.Connection{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &conns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
	}
	return conns, nil
}

func (s *DynamoStore) CreateConnection(ctx context.Context, conn *model.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now
	return s.putItem(ctx, s.tables.Connections, conn)
}

func (s *DynamoStore) UpdateConnection(ctx context.Context, conn *model.Connection) error {
	conn.UpdatedAt = time.Now()
	return s.putItem(ctx, s.tables.Connections, conn)
}

func (s *DynamoStore) DeleteConnection(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tables.Connections),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

func (s *DynamoStore) ListEligibleForAutoSync(ctx context.Context, cutoff time.Time) ([]model.Connection, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tables.Connections),
		FilterExpression: aws.String(
			"auto_sync = :on AND (attribute_not_exists(last_synced) OR last_synced <= :cutoff)",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":on":     &types.AttributeValueMemberBOOL{Value: true},
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan eligible connections: %w", err)
	}

	conns := []model.Connection{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &conns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal connections: %w", err)
	}
	return conns, nil
}

func (s *DynamoStore) GetGallery(ctx context.Context, id string) (*model.Gallery, error) {
	var gallery model.Gallery
	if err := s.getItem(ctx, s.tables.Galleries, id, &gallery); err != nil {
		return nil, err
	}
	return &gallery, nil
}

func (s *DynamoStore) PutGallery(ctx context.Context, gallery *model.Gallery) error {
	if gallery.ID == "" {
		gallery.ID = uuid.NewString()
	}
	gallery.UpdatedAt = time.Now()
	if gallery.CreatedAt.IsZero() {
		gallery.CreatedAt = gallery.UpdatedAt
	}
	return s.putItem(ctx, s.tables.Galleries, gallery)
}

func (s *DynamoStore) GetPhoto(ctx context.Context, id string) (*model.Photo, error) {
	var photo model.Photo
	if err := s.getItem(ctx, s.tables.Photos, id, &photo); err != nil {
		return nil, err
	}
	return &photo, nil
}

func (s *DynamoStore) FindPhotoByGalleryAndRemoteID(ctx context.Context, galleryID, remoteFileID string) (*model.Photo, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Photos),
		IndexName:              aws.String(galleryRemoteIndex),
		KeyConditionExpression: aws.String("gallery_id = :gid AND drive_file_id = :fid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":gid": &types.AttributeValueMemberS{Value: galleryID},
			":fid": &types.AttributeValueMemberS{Value: remoteFileID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query photos by remote id: %w", err)
	}
	if len(out.Items) == 0 {
		return nil, nil
	}

	var photo model.Photo
	if err := attributevalue.UnmarshalMap(out.Items[0], &photo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photo: %w", err)
	}
	return &photo, nil
}

func (s *DynamoStore) ListPhotosByGallery(ctx context.Context, galleryID string) ([]model.Photo, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Photos),
		IndexName:              aws.String(galleryRemoteIndex),
		KeyConditionExpression: aws.String("gallery_id = :gid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":gid": &types.AttributeValueMemberS{Value: galleryID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query photos by gallery: %w", err)
	}

	photos := []model.Photo{}
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &photos); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photos: %w", err)
	}
	return photos, nil
}

// CreatePhoto enforces the (gallery, remote file id) uniqueness invariant with
// a lookup-then-put. The per-connection sync lease serializes writers into a
// gallery, so the window between lookup and put has no concurrent creator.
func (s *DynamoStore) CreatePhoto(ctx context.Context, photo *model.Photo) error {
	if photo.RemoteFileID != "" {
		existing, err := s.FindPhotoByGalleryAndRemoteID(ctx, photo.GalleryID, photo.RemoteFileID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicatePhoto
		}
	}

	if photo.ID == "" {
		photo.ID = uuid.NewString()
	}
	now := time.Now()
	photo.CreatedAt = now
	photo.UpdatedAt = now

	item, err := attributevalue.MarshalMap(photo)
	if err != nil {
		return fmt.Errorf("failed to marshal photo: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tables.Photos),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

func (s *DynamoStore) UpdatePhoto(ctx context.Context, photo *model.Photo) error {
	photo.UpdatedAt = time.Now()
	return s.putItem(ctx, s.tables.Photos, photo)
}

func (s *DynamoStore) AdjustFavorites(ctx context.Context, photoID string, delta int) (*model.Photo, error) {
	photo, err := s.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, err
	}

	next := photo.FavoritesCount + delta
	if next < 0 {
		next = 0
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tables.Photos),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: photoID},
		},
		UpdateExpression: aws.String("SET favorites_count = :n, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", next)},
			":now": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update favorites count: %w", err)
	}

	var updated model.Photo
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal photo: %w", err)
	}
	return &updated, nil
}
