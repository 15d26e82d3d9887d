package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hiresphere/pipeline-health/internal/application/port"
	"github.com/hiresphere/pipeline-health/internal/domain/entity"
	"github.com/hiresphere/pipeline-health/internal/domain/valueobject"
	"github.com/hiresphere/pipeline-health/internal/infrastructure/awsconfig"
)

const (
	maxBatchWriteSize = 25
	maxBatchRetries   = 5

	alertSortKey = "STATE"

	attrPK              = "PK"
	attrSK              = "SK"
	attrAlertID         = "alert_id"
	attrRule            = "rule"
	attrSeverity        = "severity"
	attrTitle           = "title"
	attrMessage         = "message"
	attrQuickActions    = "quick_actions"
	attrRecommendations = "recommendations"
	attrAcknowledged    = "acknowledged"
	attrResolved        = "resolved"
	attrFirstSeenAt     = "first_seen_at"
	attrLastSeenAt      = "last_seen_at"
	attrAcknowledgedAt  = "acknowledged_at"
	attrResolvedAt      = "resolved_at"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// dynamoAPI is the subset of the DynamoDB client the store uses.
type dynamoAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// AlertStore implements port.AlertStore on a single DynamoDB table keyed by alert id.
type AlertStore struct {
	client      dynamoAPI
	tableName   string
	strongReads bool
	retryDelay  time.Duration
}

type quickActionItem struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

func NewAlertStore(ctx context.Context, cfg Config) (*AlertStore, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if (accessKeyID == "") != (secretAccessKey == "") {
		return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
	}

	awsCfg, err := awsconfig.Load(ctx, awsconfig.Options{
		Region:          cfg.Region,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return newAlertStore(client, cfg.TableName, cfg.StrongReads), nil
}

func newAlertStore(client dynamoAPI, tableName string, strongReads bool) *AlertStore {
	return &AlertStore{
		client:      client,
		tableName:   strings.TrimSpace(tableName),
		strongReads: strongReads,
		retryDelay:  100 * time.Millisecond,
	}
}

func (s *AlertStore) SaveAll(ctx context.Context, alerts []*entity.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	for start := 0; start < len(alerts); start += maxBatchWriteSize {
		end := start + maxBatchWriteSize
		if end > len(alerts) {
			end = len(alerts)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, alert := range alerts[start:end] {
			item, err := toItem(alert)
			if err != nil {
				return err
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeBatchWithRetry(ctx, requests); err != nil {
			return err
		}
	}

	return nil
}

func (s *AlertStore) FindByID(ctx context.Context, id string) (*entity.Alert, error) {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: buildPK(id)},
			attrSK: &types.AttributeValueMemberS{Value: alertSortKey},
		},
		ConsistentRead: boolPointer(s.strongReads),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get item failed: %w", err)
	}
	if len(output.Item) == 0 {
		return nil, port.ErrAlertNotFound
	}

	return fromItem(output.Item)
}

func (s *AlertStore) FindAll(ctx context.Context, includeResolved bool) ([]*entity.Alert, error) {
	alerts := make([]*entity.Alert, 0)

	input := &dynamodb.ScanInput{
		TableName:      &s.tableName,
		ConsistentRead: boolPointer(s.strongReads),
	}
	if !includeResolved {
		filter := "#resolved = :false"
		input.FilterExpression = &filter
		input.ExpressionAttributeNames = map[string]string{"#resolved": attrResolved}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":false": &types.AttributeValueMemberBOOL{Value: false},
		}
	}

	for {
		output, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("dynamodb scan failed: %w", err)
		}

		for _, raw := range output.Items {
			alert, err := fromItem(raw)
			if err != nil {
				return nil, err
			}
			alerts = append(alerts, alert)
		}

		if len(output.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].LastSeenAt().After(alerts[j].LastSeenAt())
	})

	return alerts, nil
}

func (s *AlertStore) writeBatchWithRetry(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{
		s.tableName: requests,
	}

	for attempt := 0; attempt < maxBatchRetries; attempt++ {
		output, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return fmt.Errorf("dynamodb batch write failed: %w", err)
		}

		if len(output.UnprocessedItems) == 0 {
			return nil
		}

		pending = output.UnprocessedItems
		time.Sleep(time.Duration(attempt+1) * s.retryDelay)
	}

	return fmt.Errorf("dynamodb batch write has unprocessed items after retries")
}

func toItem(alert *entity.Alert) (map[string]types.AttributeValue, error) {
	condition := alert.Condition()

	actions := make([]quickActionItem, 0, len(condition.QuickActions))
	for _, action := range condition.QuickActions {
		actions = append(actions, quickActionItem{Label: action.Label, Action: action.Action})
	}
	serializedActions, err := json.Marshal(actions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal quick actions: %w", err)
	}

	recommendations := make([]types.AttributeValue, 0, len(condition.Recommendations))
	for _, rec := range condition.Recommendations {
		recommendations = append(recommendations, &types.AttributeValueMemberS{Value: rec})
	}

	item := map[string]types.AttributeValue{
		attrPK:              &types.AttributeValueMemberS{Value: buildPK(alert.ID())},
		attrSK:              &types.AttributeValueMemberS{Value: alertSortKey},
		attrAlertID:         &types.AttributeValueMemberS{Value: alert.ID()},
		attrRule:            &types.AttributeValueMemberS{Value: string(condition.Rule)},
		attrSeverity:        &types.AttributeValueMemberS{Value: condition.Severity.String()},
		attrTitle:           &types.AttributeValueMemberS{Value: condition.Title},
		attrMessage:         &types.AttributeValueMemberS{Value: condition.Message},
		attrQuickActions:    &types.AttributeValueMemberS{Value: string(serializedActions)},
		attrRecommendations: &types.AttributeValueMemberL{Value: recommendations},
		attrAcknowledged:    &types.AttributeValueMemberBOOL{Value: alert.Acknowledged()},
		attrResolved:        &types.AttributeValueMemberBOOL{Value: alert.Resolved()},
		attrFirstSeenAt:     timeAttr(alert.FirstSeenAt()),
		attrLastSeenAt:      timeAttr(alert.LastSeenAt()),
	}

	if at := alert.AcknowledgedAt(); at != nil {
		item[attrAcknowledgedAt] = timeAttr(*at)
	}
	if at := alert.ResolvedAt(); at != nil {
		item[attrResolvedAt] = timeAttr(*at)
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (*entity.Alert, error) {
	id, err := attrString(item, attrAlertID)
	if err != nil {
		return nil, err
	}
	rule, err := attrString(item, attrRule)
	if err != nil {
		return nil, err
	}
	severityRaw, err := attrString(item, attrSeverity)
	if err != nil {
		return nil, err
	}
	severity := valueobject.AlertSeverity(severityRaw)
	if err := severity.Validate(); err != nil {
		return nil, fmt.Errorf("invalid attribute %s: %w", attrSeverity, err)
	}

	firstSeenMS, err := attrInt64(item, attrFirstSeenAt)
	if err != nil {
		return nil, err
	}
	lastSeenMS, err := attrInt64(item, attrLastSeenAt)
	if err != nil {
		return nil, err
	}

	var actions []quickActionItem
	if raw := optionalString(item, attrQuickActions); raw != "" {
		if err := json.Unmarshal([]byte(raw), &actions); err != nil {
			return nil, fmt.Errorf("invalid attribute %s: %w", attrQuickActions, err)
		}
	}
	quickActions := make([]valueobject.QuickAction, 0, len(actions))
	for _, action := range actions {
		quickActions = append(quickActions, valueobject.QuickAction{Label: action.Label, Action: action.Action})
	}

	condition := valueobject.Alert{
		Rule:            valueobject.AlertRule(rule),
		Severity:        severity,
		Title:           optionalString(item, attrTitle),
		Message:         optionalString(item, attrMessage),
		QuickActions:    quickActions,
		Recommendations: optionalStringList(item, attrRecommendations),
	}

	return entity.ReconstructAlert(
		id,
		condition,
		optionalBool(item, attrAcknowledged),
		optionalBool(item, attrResolved),
		time.UnixMilli(firstSeenMS).UTC(),
		time.UnixMilli(lastSeenMS).UTC(),
		optionalTime(item, attrAcknowledgedAt),
		optionalTime(item, attrResolvedAt),
	), nil
}

func buildPK(alertID string) string {
	return "ALERT#" + alertID
}

func timeAttr(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.UTC().UnixMilli(), 10)}
}

func attrString(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalString(item map[string]types.AttributeValue, name string) string {
	value, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func optionalStringList(item map[string]types.AttributeValue, name string) []string {
	list, ok := item[name].(*types.AttributeValueMemberL)
	if !ok {
		return []string{}
	}
	values := make([]string, 0, len(list.Value))
	for _, raw := range list.Value {
		if value, ok := raw.(*types.AttributeValueMemberS); ok {
			values = append(values, value.Value)
		}
	}
	return values
}

func optionalBool(item map[string]types.AttributeValue, name string) bool {
	value, ok := item[name].(*types.AttributeValueMemberBOOL)
	return ok && value.Value
}

func attrInt64(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalTime(item map[string]types.AttributeValue, name string) *time.Time {
	ms, err := attrInt64(item, name)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func boolPointer(v bool) *bool {
	return &v
}
