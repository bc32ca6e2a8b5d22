package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// Repository defines the interface for appointment storage.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)
	GetByID(ctx context.Context, id string) (*Appointment, error)
	// ListByDate returns every record for a calendar date, createdAt ascending.
	ListByDate(ctx context.Context, date string) ([]*Appointment, error)
	// ListByPhone returns a patient's full history, newest first, cross-date.
	ListByPhone(ctx context.Context, phone string) ([]*Appointment, error)

	// MarkConfirmed transitions pending -> confirmed and assigns the queue
	// number. Fails with ErrConditionFailed when the record is not pending.
	MarkConfirmed(ctx context.Context, id string, queueNumber int) error
	// SetQueueNumber overwrites the queue number unconditionally.
	SetQueueNumber(ctx context.Context, id string, queueNumber int) error
	// MarkDone transitions confirmed -> done and attaches the doctor's notes.
	MarkDone(ctx context.Context, id, notes string) error
	// MarkCancelled transitions any non-done record to cancelled.
	MarkCancelled(ctx context.Context, id string) error
	// SetFileLink attaches an external file URL to the record.
	SetFileLink(ctx context.Context, id, url string) error
}

const (
	dateIndex  = "appointmentDate-createdAt-index"
	phoneIndex = "patientPhone-createdAt-index"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoRepository persists appointments to a DynamoDB table with
// date and phone secondary indexes.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository backed by the provided DynamoDB client.
func NewDynamoRepository(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoRepository {
	if client == nil {
		panic("appointments: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("appointments: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoRepository{client: client, tableName: tableName, logger: logger}
}

// Create inserts a new record, assigning id and createdAt when unset.
func (r *DynamoRepository) Create(ctx context.Context, appt *Appointment) (*Appointment, error) {
	if appt == nil {
		return nil, errors.New("appointments: appointment cannot be nil")
	}
	stored := *appt
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt == "" {
		stored.CreatedAt = time.Now().UTC().Format(TimestampLayout)
	}
	if stored.Status == "" {
		stored.Status = StatusPending
	}

	item, err := attributevalue.MarshalMap(&stored)
	if err != nil {
		return nil, fmt.Errorf("appointments: marshal record: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: persist record: %w", err)
	}
	return &stored, nil
}

// GetByID fetches a record by id.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	if id == "" {
		return nil, errors.New("appointments: id required")
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
	})
	if err != nil {
		return nil, fmt.Errorf("appointments: fetch record: %w", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var appt Appointment
	if err := attributevalue.UnmarshalMap(out.Item, &appt); err != nil {
		return nil, fmt.Errorf("appointments: decode record: %w", err)
	}
	return &appt, nil
}

// ListByDate queries the date index; the createdAt sort key yields arrival order.
func (r *DynamoRepository) ListByDate(ctx context.Context, date string) ([]*Appointment, error) {
	if date == "" {
		return nil, errors.New("appointments: date required")
	}
	return r.queryIndex(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(dateIndex),
		KeyConditionExpression: aws.String("appointmentDate = :date"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":date": &types.AttributeValueMemberS{Value: date},
		},
		ScanIndexForward: aws.Bool(true),
	})
}

// ListByPhone queries the phone index newest-first, regardless of date.
func (r *DynamoRepository) ListByPhone(ctx context.Context, phone string) ([]*Appointment, error) {
	if phone == "" {
		return nil, errors.New("appointments: phone required")
	}
	return r.queryIndex(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(phoneIndex),
		KeyConditionExpression: aws.String("patientPhone = :phone"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":phone": &types.AttributeValueMemberS{Value: phone},
		},
		ScanIndexForward: aws.Bool(false),
	})
}

func (r *DynamoRepository) queryIndex(ctx context.Context, input *dynamodb.QueryInput) ([]*Appointment, error) {
	var results []*Appointment
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("appointments: query index: %w", err)
		}
		for _, item := range out.Items {
			var appt Appointment
			if err := attributevalue.UnmarshalMap(item, &appt); err != nil {
				return nil, fmt.Errorf("appointments: decode record: %w", err)
			}
			results = append(results, &appt)
		}
		if out.LastEvaluatedKey == nil {
			return results, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// MarkConfirmed guards the pending -> confirmed transition at the store level
// so a racing double-confirm cannot assign two numbers to one record.
func (r *DynamoRepository) MarkConfirmed(ctx context.Context, id string, queueNumber int) error {
	return r.update(ctx, id,
		"SET #status = :confirmed, queueNumber = :num",
		aws.String("attribute_exists(id) AND #status = :pending"),
		map[string]string{"#status": "status"},
		map[string]types.AttributeValue{
			":confirmed": &types.AttributeValueMemberS{Value: string(StatusConfirmed)},
			":pending":   &types.AttributeValueMemberS{Value: string(StatusPending)},
			":num":       &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", queueNumber)},
		})
}

// SetQueueNumber applies an operator-supplied number with no uniqueness check.
func (r *DynamoRepository) SetQueueNumber(ctx context.Context, id string, queueNumber int) error {
	return r.update(ctx, id,
		"SET queueNumber = :num",
		aws.String("attribute_exists(id)"),
		nil,
		map[string]types.AttributeValue{
			":num": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", queueNumber)},
		})
}

// MarkDone finishes the session, preserving the queue number and attaching notes.
func (r *DynamoRepository) MarkDone(ctx context.Context, id, notes string) error {
	return r.update(ctx, id,
		"SET #status = :done, doctorNotes = :notes",
		aws.String("attribute_exists(id) AND #status = :confirmed"),
		map[string]string{"#status": "status"},
		map[string]types.AttributeValue{
			":done":      &types.AttributeValueMemberS{Value: string(StatusDone)},
			":confirmed": &types.AttributeValueMemberS{Value: string(StatusConfirmed)},
			":notes":     &types.AttributeValueMemberS{Value: notes},
		})
}

// MarkCancelled cancels any record that has not been completed. Done records
// are terminal, so the condition rejects them.
func (r *DynamoRepository) MarkCancelled(ctx context.Context, id string) error {
	return r.update(ctx, id,
		"SET #status = :cancelled",
		aws.String("attribute_exists(id) AND #status <> :done"),
		map[string]string{"#status": "status"},
		map[string]types.AttributeValue{
			":cancelled": &types.AttributeValueMemberS{Value: string(StatusCancelled)},
			":done":      &types.AttributeValueMemberS{Value: string(StatusDone)},
		})
}

// SetFileLink stores the external document URL on the record.
func (r *DynamoRepository) SetFileLink(ctx context.Context, id, url string) error {
	return r.update(ctx, id,
		"SET fileLink = :link",
		aws.String("attribute_exists(id)"),
		nil,
		map[string]types.AttributeValue{
			":link": &types.AttributeValueMemberS{Value: url},
		})
}

func (r *DynamoRepository) update(ctx context.Context, id, expression string, condition *string, names map[string]string, values map[string]types.AttributeValue) error {
	if id == "" {
		return errors.New("appointments: id required")
	}
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:          aws.String(expression),
		ConditionExpression:       condition,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrConditionFailed
		}
		return fmt.Errorf("appointments: update record %s: %w", id, err)
	}
	return nil
}
