package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

func TestTimestampLayoutOrdersLexicographically(t *testing.T) {
	// Sub-second pairs where a variable-width format (RFC3339Nano trims
	// trailing zeros, ".1Z" vs ".15Z") would invert the order.
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	pairs := [][2]time.Time{
		{base.Add(100 * time.Millisecond), base.Add(150 * time.Millisecond)},
		{base.Add(200 * time.Millisecond), base.Add(1 * time.Second)},
		{base, base.Add(50 * time.Nanosecond)},
	}
	for _, p := range pairs {
		early, late := p[0].Format(TimestampLayout), p[1].Format(TimestampLayout)
		if !(early < late) {
			t.Errorf("order inverted: %q should sort before %q", early, late)
		}
	}
}

func TestListByDateArrivalOrderWithinSameSecond(t *testing.T) {
	repo := NewInMemoryRepository()
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	seed := func(name string, offset time.Duration) {
		t.Helper()
		_, err := repo.Create(context.Background(), &Appointment{
			PatientName:     name,
			PatientPhone:    "0100000000",
			Complaint:       "checkup",
			AppointmentDate: "2026-09-01",
			CreatedAt:       base.Add(offset).UTC().Format(TimestampLayout),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	seed("early", 100*time.Millisecond)
	seed("late", 150*time.Millisecond)

	got, err := repo.ListByDate(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("ListByDate returned error: %v", err)
	}
	if len(got) != 2 || got[0].PatientName != "early" || got[1].PatientName != "late" {
		t.Fatalf("arrival order broken: %s then %s", got[0].PatientName, got[1].PatientName)
	}
}

func TestCreateAssignsFixedWidthTimestamp(t *testing.T) {
	repo := NewInMemoryRepository()
	created, err := repo.Create(context.Background(), &Appointment{
		PatientName:     "Mona Hassan",
		PatientPhone:    "0100000000",
		Complaint:       "checkup",
		AppointmentDate: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// Strict parse: the layout requires all nine fractional digits.
	if _, err := time.Parse(TimestampLayout, created.CreatedAt); err != nil {
		t.Fatalf("createdAt %q is not fixed width: %v", created.CreatedAt, err)
	}
}

func TestDynamoCreateAssignsDefaults(t *testing.T) {
	mock := &mockDynamo{}
	repo := NewDynamoRepository(mock, "appointments", logging.Default())

	created, err := repo.Create(context.Background(), &Appointment{
		PatientName:     "Mona Hassan",
		PatientPhone:    "0100000000",
		Complaint:       "chest pain",
		AppointmentDate: "2026-09-01",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if created.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if created.CreatedAt == "" {
		t.Fatal("expected createdAt to be assigned")
	}
	if created.Status != StatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}

	if mock.putInput == nil {
		t.Fatal("expected PutItem to be called")
	}
	if expr := mock.putInput.ConditionExpression; expr == nil || *expr != "attribute_not_exists(id)" {
		t.Fatalf("expected create to guard against overwrites, got %v", expr)
	}

	var stored Appointment
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored record: %v", err)
	}
	if stored.QueueNumber != 0 {
		t.Fatalf("expected no queue number at creation, got %d", stored.QueueNumber)
	}
}

func TestDynamoGetByIDNotFound(t *testing.T) {
	mock := &mockDynamo{getOutput: &dynamodb.GetItemOutput{}}
	repo := NewDynamoRepository(mock, "appointments", logging.Default())

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDynamoListByDateQueriesDateIndex(t *testing.T) {
	mock := &mockDynamo{
		queryOutput: &dynamodb.QueryOutput{
			Items: []map[string]types.AttributeValue{
				{
					"id":              &types.AttributeValueMemberS{Value: "a1"},
					"appointmentDate": &types.AttributeValueMemberS{Value: "2026-09-01"},
					"status":          &types.AttributeValueMemberS{Value: "pending"},
				},
			},
		},
	}
	repo := NewDynamoRepository(mock, "appointments", logging.Default())

	got, err := repo.ListByDate(context.Background(), "2026-09-01")
	if err != nil {
		t.Fatalf("ListByDate returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("unexpected result: %#v", got)
	}

	q := mock.queryInputs[0]
	if *q.IndexName != dateIndex {
		t.Fatalf("expected date index, got %s", *q.IndexName)
	}
	if !*q.ScanIndexForward {
		t.Fatal("expected ascending createdAt order for the worklist")
	}
}

func TestDynamoListByPhoneNewestFirst(t *testing.T) {
	mock := &mockDynamo{queryOutput: &dynamodb.QueryOutput{}}
	repo := NewDynamoRepository(mock, "appointments", logging.Default())

	if _, err := repo.ListByPhone(context.Background(), "0100000000"); err != nil {
		t.Fatalf("ListByPhone returned error: %v", err)
	}

	q := mock.queryInputs[0]
	if *q.IndexName != phoneIndex {
		t.Fatalf("expected phone index, got %s", *q.IndexName)
	}
	if *q.ScanIndexForward {
		t.Fatal("expected history to be returned newest first")
	}
}

func TestDynamoMarkConfirmedGuardsPending(t *testing.T) {
	mock := &mockDynamo{}
	repo := NewDynamoRepository(mock, "appointments", logging.Default())

	if err := repo.MarkConfirmed(context.Background(), "a1", 7); err != nil {
		t.Fatalf("MarkConfirmed returned error: %v", err)
	}

	update := mock.updateInputs[0]
	if cond := *update.ConditionExpression; cond != "attribute_exists(id) AND #status = :pending" {
		t.Fatalf("unexpected condition expression %q", cond)
	}
	num := update.ExpressionAttributeValues[":num"].(*types.AttributeValueMemberN).Value
	if num != "7" {
		t.Fatalf("expected queue number 7, got %s", num)
	}
}

func TestDynamoConditionFailureMapsToSentinel(t *testing.T) {
	mock := &mockDynamo{updateErr: &types.ConditionalCheckFailedException{}}
	repo := NewDynamoRepository(mock, "appointments", logging.Default())

	err := repo.MarkCancelled(context.Background(), "a1")
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
}

func TestDynamoMarkDoneKeepsQueueNumber(t *testing.T) {
	mock := &mockDynamo{}
	repo := NewDynamoRepository(mock, "appointments", logging.Default())

	if err := repo.MarkDone(context.Background(), "a1", "rest and fluids"); err != nil {
		t.Fatalf("MarkDone returned error: %v", err)
	}

	update := mock.updateInputs[0]
	if expr := *update.UpdateExpression; expr != "SET #status = :done, doctorNotes = :notes" {
		t.Fatalf("unexpected update expression %q", expr)
	}
}

type mockDynamo struct {
	putInput     *dynamodb.PutItemInput
	putErr       error
	getOutput    *dynamodb.GetItemOutput
	getErr       error
	updateInputs []*dynamodb.UpdateItemInput
	updateErr    error
	queryInputs  []*dynamodb.QueryInput
	queryOutput  *dynamodb.QueryOutput
	queryErr     error
}

func (m *mockDynamo) PutItem(ctx context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = input
	return &dynamodb.PutItemOutput{}, m.putErr
}

func (m *mockDynamo) GetItem(ctx context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return m.getOutput, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, input *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	m.updateInputs = append(m.updateInputs, input)
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	return &dynamodb.UpdateItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, input *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.queryInputs = append(m.queryInputs, input)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	if m.queryOutput == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return m.queryOutput, nil
}
