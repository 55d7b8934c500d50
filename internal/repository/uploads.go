// Package repository persists per-intake upload manifests in DynamoDB so
// follow-up intake turns can fold previously uploaded file text back into
// the conversation.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"legal-intake/internal/domain"
)

const (
	skPrefixFile = "FILE#"
	ttlDuration  = 30 * 24 * time.Hour // uploads expire after 30 days
)

// dynamodbAPI is the minimal DynamoDB surface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store wraps a DynamoDB table holding upload manifests.
type Store struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new upload Store.
func New(api dynamodbAPI, tableName string) (*Store, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Store{api: api, tableName: tableName}, nil
}

// intakePK returns the partition key for an intake.
func intakePK(intakeID string) string {
	return "INTAKE#" + intakeID
}

// fileSK returns the sort key for an upload record; RFC3339Nano keeps
// records in upload order.
func fileSK(ts time.Time) string {
	return skPrefixFile + ts.UTC().Format(time.RFC3339Nano)
}

func ttlValue(now time.Time) int64 {
	return now.Add(ttlDuration).Unix()
}

// SaveUploadedFile writes one attachment manifest record. PK, SK, and TTL
// are derived here when unset.
func (s *Store) SaveUploadedFile(ctx context.Context, rec domain.UploadedFile) error {
	if strings.TrimSpace(rec.IntakeID) == "" {
		return errors.New("repository: SaveUploadedFile: intake id is required")
	}
	now := time.Now()
	if rec.PK == "" {
		rec.PK = intakePK(rec.IntakeID)
	}
	if rec.SK == "" {
		rec.SK = fileSK(now)
	}
	if rec.TTL == 0 {
		rec.TTL = ttlValue(now)
	}

	_, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"PK":         &types.AttributeValueMemberS{Value: rec.PK},
			"SK":         &types.AttributeValueMemberS{Value: rec.SK},
			"intake_id":  &types.AttributeValueMemberS{Value: rec.IntakeID},
			"name":       &types.AttributeValueMemberS{Value: rec.Name},
			"size":       &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.Size, 10)},
			"media_type": &types.AttributeValueMemberS{Value: rec.MediaType},
			"text":       &types.AttributeValueMemberS{Value: rec.Text},
			"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SaveUploadedFile put item: %w", err)
	}
	return nil
}

// GetUploadedTexts returns the stored text excerpts for an intake in upload
// order. Records with no extracted text are skipped.
func (s *Store) GetUploadedTexts(ctx context.Context, intakeID string) ([]string, error) {
	if strings.TrimSpace(intakeID) == "" {
		return nil, errors.New("repository: GetUploadedTexts: intake id is required")
	}

	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: intakePK(intakeID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixFile},
		},
		ScanIndexForward: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("repository: GetUploadedTexts query: %w", err)
	}

	texts := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		text := strAttr(item, "text")
		if strings.TrimSpace(text) == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func strAttr(item map[string]types.AttributeValue, key string) string {
	v, ok := item[key]
	if !ok {
		return ""
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return s.Value
}
