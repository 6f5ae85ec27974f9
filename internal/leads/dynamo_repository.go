package leads

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// dynamoLead is the item layout. Absent optional fields are omitted from the
// item rather than stored as empty strings.
type dynamoLead struct {
	ID           string  `dynamodbav:"id"`
	Type         string  `dynamodbav:"type"`
	Name         string  `dynamodbav:"name"`
	Email        string  `dynamodbav:"email"`
	Phone        *string `dynamodbav:"phone,omitempty"`
	Message      *string `dynamodbav:"message,omitempty"`
	ProjectType  *string `dynamodbav:"project_type,omitempty"`
	Address      *string `dynamodbav:"address,omitempty"`
	ProjectTitle *string `dynamodbav:"project_title,omitempty"`
	EmailSent    bool    `dynamodbav:"email_sent"`
	CreatedAt    string  `dynamodbav:"created_at"`
}

// DynamoRepository stores leads in a DynamoDB table keyed by "id". It backs
// the serverless deployment, where lead volume is small enough for admin
// listings to scan the table.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	now       func() time.Time
}

// NewDynamoRepository builds a repository on the given table.
func NewDynamoRepository(client dynamoAPI, tableName string) *DynamoRepository {
	if client == nil {
		panic("leads: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("leads: table name cannot be empty")
	}
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *DynamoRepository) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

// Create inserts a new item with email_sent = false.
func (r *DynamoRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if req == nil {
		return nil, errors.New("leads: request cannot be nil")
	}
	created := r.now()
	item := dynamoLead{
		ID:           uuid.New().String(),
		Type:         string(req.Category),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Message:      req.Message,
		ProjectType:  req.ProjectType,
		Address:      req.Address,
		ProjectTitle: req.ProjectTitle,
		CreatedAt:    created.Format(time.RFC3339Nano),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("leads: failed to marshal lead: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return nil, fmt.Errorf("leads: failed to insert lead: %w", err)
	}
	return item.toLead(created), nil
}

// GetByID retrieves a lead by ID.
func (r *DynamoRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            r.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("leads: failed to get lead: %w", err)
	}
	if out.Item == nil {
		return nil, ErrLeadNotFound
	}
	return decodeDynamoLead(out.Item)
}

// MarkEmailSent sets the delivery flag on an existing item.
func (r *DynamoRepository) MarkEmailSent(ctx context.Context, id string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              r.key(id),
		UpdateExpression: aws.String("SET email_sent = :sent"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sent": &types.AttributeValueMemberBOOL{Value: true},
		},
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrLeadNotFound
		}
		return fmt.Errorf("leads: failed to mark email sent: %w", err)
	}
	return nil
}

// List scans the table and returns leads newest first.
func (r *DynamoRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	filter = filter.Normalize()

	input := r.scanInput(filter.Category)
	var all []*Lead
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("leads: failed to scan leads: %w", err)
		}
		for _, item := range page.Items {
			lead, err := decodeDynamoLead(item)
			if err != nil {
				return nil, err
			}
			all = append(all, lead)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if filter.Offset >= len(all) {
		return []*Lead{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

// Count returns the number of items, optionally limited to one category.
func (r *DynamoRepository) Count(ctx context.Context, category Category) (int, error) {
	input := r.scanInput(category)
	input.Select = types.SelectCount

	total := 0
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("leads: failed to count leads: %w", err)
		}
		total += int(page.Count)
	}
	return total, nil
}

// Delete removes a lead permanently.
func (r *DynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.key(id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrLeadNotFound
		}
		return fmt.Errorf("leads: failed to delete lead: %w", err)
	}
	return nil
}

func (r *DynamoRepository) scanInput(category Category) *dynamodb.ScanInput {
	input := &dynamodb.ScanInput{TableName: aws.String(r.tableName)}
	if category != "" {
		// "type" is a reserved word.
		input.FilterExpression = aws.String("#type = :type")
		input.ExpressionAttributeNames = map[string]string{"#type": "type"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":type": &types.AttributeValueMemberS{Value: string(category)},
		}
	}
	return input
}

func decodeDynamoLead(item map[string]types.AttributeValue) (*Lead, error) {
	var rec dynamoLead
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return nil, fmt.Errorf("leads: failed to decode lead: %w", err)
	}
	created, err := time.Parse(time.RFC3339Nano, rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("leads: invalid created_at %q: %w", rec.CreatedAt, err)
	}
	return rec.toLead(created), nil
}

func (d dynamoLead) toLead(created time.Time) *Lead {
	return &Lead{
		ID:           d.ID,
		Category:     Category(d.Type),
		Name:         d.Name,
		Email:        d.Email,
		Phone:        d.Phone,
		Message:      d.Message,
		ProjectType:  d.ProjectType,
		Address:      d.Address,
		ProjectTitle: d.ProjectTitle,
		EmailSent:    d.EmailSent,
		CreatedAt:    created,
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

var _ Repository = (*DynamoRepository)(nil)
