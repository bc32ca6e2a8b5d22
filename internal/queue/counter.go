package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// NumberAllocator hands out queue numbers for a calendar day. Numbers must
// be ascending and collision-free within the day; the sequence resets
// implicitly because each day keys its own counter.
type NumberAllocator interface {
	Next(ctx context.Context, date string) (int, error)
}

type counterAPI interface {
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoAllocator increments a per-day counter item with an atomic ADD, so
// concurrent confirmations can never receive the same number.
type DynamoAllocator struct {
	client    counterAPI
	tableName string
}

var _ NumberAllocator = (*DynamoAllocator)(nil)

// NewDynamoAllocator builds an allocator over the queue counters table.
func NewDynamoAllocator(client counterAPI, tableName string) *DynamoAllocator {
	if client == nil {
		panic("queue: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("queue: counter table name cannot be empty")
	}
	return &DynamoAllocator{client: client, tableName: tableName}
}

// Next returns the next unused number in the day's sequence, starting at 1.
func (a *DynamoAllocator) Next(ctx context.Context, date string) (int, error) {
	if date == "" {
		return 0, errors.New("queue: date required")
	}
	out, err := a.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(a.tableName),
		Key:              map[string]types.AttributeValue{"date": &types.AttributeValueMemberS{Value: date}},
		UpdateExpression: aws.String("ADD seq :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("queue: advance counter for %s: %w", date, err)
	}

	attr, ok := out.Attributes["seq"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, errors.New("queue: counter returned no sequence value")
	}
	n, err := strconv.Atoi(attr.Value)
	if err != nil {
		return 0, fmt.Errorf("queue: decode sequence value: %w", err)
	}
	return n, nil
}

// MemoryAllocator is an in-process allocator for tests and local development.
type MemoryAllocator struct {
	mu   sync.Mutex
	seqs map[string]int
}

var _ NumberAllocator = (*MemoryAllocator)(nil)

// NewMemoryAllocator creates an empty in-memory allocator.
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{seqs: make(map[string]int)}
}

func (a *MemoryAllocator) Next(ctx context.Context, date string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seqs[date]++
	return a.seqs[date], nil
}
