// Package chat is the staff-only internal message board.
package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// RecentLimit bounds how many messages the board loads.
const RecentLimit = 30

// timestampLayout pads fractional seconds to nine digits so the createdAt
// sort key orders lexicographically by creation time.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Message is one staff chat entry.
type Message struct {
	ID        string `json:"id" dynamodbav:"id"`
	Sender    string `json:"sender" dynamodbav:"sender"` // display name, e.g. "secretary"
	Text      string `json:"text" dynamodbav:"text"`
	CreatedAt string `json:"created_at" dynamodbav:"createdAt"`
}

// Repository provides chat persistence.
type Repository interface {
	Append(ctx context.Context, msg *Message) (*Message, error)
	// ListRecent returns the most recent messages in chronological order.
	ListRecent(ctx context.Context) ([]*Message, error)
}

const chatPartition = "internal_messages"

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoRepository stores messages under a constant partition keyed by
// createdAt, queried descending and reversed for display order.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

var _ Repository = (*DynamoRepository)(nil)

func NewDynamoRepository(client dynamoAPI, tableName string) *DynamoRepository {
	return &DynamoRepository{client: client, tableName: tableName, now: time.Now}
}

type messageItem struct {
	Collection string `dynamodbav:"collection"`
	Message
}

func (r *DynamoRepository) Append(ctx context.Context, msg *Message) (*Message, error) {
	stored := *msg
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC().Format(timestampLayout)

	item, err := attributevalue.MarshalMap(messageItem{Collection: chatPartition, Message: stored})
	if err != nil {
		return nil, fmt.Errorf("chat: marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: put message: %w", err)
	}
	return &stored, nil
}

func (r *DynamoRepository) ListRecent(ctx context.Context) ([]*Message, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{
			"#c": "collection",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: chatPartition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(RecentLimit),
	})
	if err != nil {
		return nil, fmt.Errorf("chat: query messages: %w", err)
	}

	messages := make([]*Message, 0, len(out.Items))
	for _, raw := range out.Items {
		var item messageItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, fmt.Errorf("chat: unmarshal message: %w", err)
		}
		msg := item.Message
		messages = append(messages, &msg)
	}
	// Query returned newest first; the board renders oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MemoryRepository keeps messages in memory for tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	messages []*Message
	now      func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) Append(ctx context.Context, msg *Message) (*Message, error) {
	stored := *msg
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC().Format(timestampLayout)

	r.mu.Lock()
	r.messages = append(r.messages, &stored)
	r.mu.Unlock()

	out := stored
	return &out, nil
}

func (r *MemoryRepository) ListRecent(ctx context.Context) ([]*Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Message, 0, len(r.messages))
	for _, m := range r.messages {
		copied := *m
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	if len(out) > RecentLimit {
		out = out[len(out)-RecentLimit:]
	}
	return out, nil
}
