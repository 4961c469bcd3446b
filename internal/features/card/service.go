package card

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// FieldValidator checks changed field values against their bound lists of
// values. Implemented by the lov feature.
type FieldValidator interface {
	ValidateFieldData(ctx context.Context, cfg *workflow.Configuration, prior, next map[string]interface{}) error
}

// ActivityRecorder receives before/after snapshots of every card write.
// Implemented by the stats feature.
type ActivityRecorder interface {
	RecordCardWrite(ctx context.Context, workflowID string, before, after *models.CardEntry, userID string) error
}

// CreateInput is the caller-supplied portion of a new card.
type CreateInput struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Type        string                 `json:"type"`
	Value       float64                `json:"value"`
	Owner       string                 `json:"owner"`
	FieldData   map[string]interface{} `json:"fieldData"`
}

type Service interface {
	Create(ctx context.Context, workflowID string, input CreateInput, userID, userEmail string) (*models.CardEntry, error)
	Get(ctx context.Context, workflowID, cardID string) (*models.CardEntry, error)
	List(ctx context.Context, workflowID, status string, limit, offset int64) ([]models.CardEntry, error)
	Update(ctx context.Context, workflowID, cardID string, fields map[string]interface{}, userID, userEmail string) (*models.CardEntry, error)
	Delete(ctx context.Context, workflowID, cardID string, userID, userEmail string) error
}

type ServiceImpl struct {
	Repo      Repository
	Workflows workflow.Service
	Validator FieldValidator
	Recorder  ActivityRecorder
	Logger    *zap.Logger
}

func NewService(repo Repository, workflows workflow.Service, validator FieldValidator, recorder ActivityRecorder, logger *zap.Logger) Service {
	return &ServiceImpl{
		Repo:      repo,
		Workflows: workflows,
		Validator: validator,
		Recorder:  recorder,
		Logger:    logger,
	}
}

func (s *ServiceImpl) Create(ctx context.Context, workflowID string, input CreateInput, userID, userEmail string) (*models.CardEntry, error) {
	cfg, err := s.Workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(cfg, userEmail); err != nil {
		return nil, err
	}
	if input.Type != "" && len(cfg.Types) > 0 && !contains(cfg.Types, input.Type) {
		return nil, fmt.Errorf("unknown card type %q", input.Type)
	}
	if err := validateFieldData(cfg, input.FieldData); err != nil {
		return nil, err
	}
	if err := s.Validator.ValidateFieldData(ctx, cfg, nil, input.FieldData); err != nil {
		return nil, err
	}

	now := time.Now()
	card := &models.CardEntry{
		WorkflowID:     workflowID,
		WorkflowCardID: cardID(cfg, input.FieldData),
		Title:          input.Title,
		Description:    input.Description,
		Status:         workflow.StatusDraft,
		Type:           input.Type,
		Value:          input.Value,
		Owner:          input.Owner,
		FieldData:      input.FieldData,
		StatusSince:    now.UnixMilli(),
		CreatedBy:      userID,
		CreatedAt:      now,
		UpdatedBy:      userID,
		UpdatedAt:      now,
	}
	if card.Owner == "" {
		card.Owner = userEmail
	}
	if card.FieldData == nil {
		card.FieldData = map[string]interface{}{}
	}

	if err := s.Repo.Create(ctx, card); err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordCardWrite(ctx, workflowID, nil, card, userID); err != nil {
		return nil, err
	}

	s.Logger.Info("card created",
		zap.String("workflowId", workflowID),
		zap.String("cardId", card.WorkflowCardID))
	return card, nil
}

func (s *ServiceImpl) Get(ctx context.Context, workflowID, cardID string) (*models.CardEntry, error) {
	return s.Repo.Get(ctx, workflowID, cardID)
}

func (s *ServiceImpl) List(ctx context.Context, workflowID, status string, limit, offset int64) ([]models.CardEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.Repo.List(ctx, workflowID, status, limit, offset)
}

// editableFields is the full set of keys Update accepts. Everything else,
// identity, audit stamps, status and approvals included, is owned by the
// engine and writable only through its own path.
var editableFields = map[string]bool{
	"title":       true,
	"description": true,
	"type":        true,
	"value":       true,
	"owner":       true,
	"fieldData":   true,
}

// Update applies a direct field edit. The status field is owned by the
// transition engine and may not be touched here.
func (s *ServiceImpl) Update(ctx context.Context, workflowID, cardID string, fields map[string]interface{}, userID, userEmail string) (*models.CardEntry, error) {
	for key := range fields {
		if key == "status" || key == "status_since" || strings.HasPrefix(key, "approval_tokens") {
			return nil, fmt.Errorf("field %q may only change through its dedicated endpoint", key)
		}
		if !editableFields[key] {
			return nil, fmt.Errorf("field %q is not editable", key)
		}
	}

	cfg, err := s.Workflows.Get(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	if err := checkAccess(cfg, userEmail); err != nil {
		return nil, err
	}

	before, err := s.Repo.Get(ctx, workflowID, cardID)
	if err != nil {
		return nil, err
	}

	if rawData, ok := fields["fieldData"]; ok {
		fieldData, ok := rawData.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("fieldData must be an object")
		}
		if err := validateFieldData(cfg, fieldData); err != nil {
			return nil, err
		}
		if err := s.Validator.ValidateFieldData(ctx, cfg, before.FieldData, fieldData); err != nil {
			return nil, err
		}
		delete(fields, "fieldData")
		for key, value := range fieldData {
			fields["field_data."+key] = value
		}
	}

	fields["updated_by"] = userID
	fields["updated_at"] = time.Now()
	if err := s.Repo.Merge(ctx, workflowID, cardID, fields); err != nil {
		return nil, err
	}

	after, err := s.Repo.Get(ctx, workflowID, cardID)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordCardWrite(ctx, workflowID, before, after, userID); err != nil {
		return nil, err
	}
	return after, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, workflowID, cardID string, userID, userEmail string) error {
	cfg, err := s.Workflows.Get(ctx, workflowID)
	if err != nil {
		return err
	}
	if err := checkAccess(cfg, userEmail); err != nil {
		return err
	}

	before, err := s.Repo.Get(ctx, workflowID, cardID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, workflowID, cardID); err != nil {
		return err
	}
	if err := s.Recorder.RecordCardWrite(ctx, workflowID, before, nil, userID); err != nil {
		return err
	}

	s.Logger.Info("card deleted",
		zap.String("workflowId", workflowID),
		zap.String("cardId", cardID))
	return nil
}

// cardID derives the card's id from the document-identifier field when the
// workflow declares one and the value is present; otherwise a generated id.
func cardID(cfg *workflow.Configuration, fieldData map[string]interface{}) string {
	if field := cfg.DocumentIdentifierField(); field != nil {
		if value, ok := fieldData[field.Slug].(string); ok && value != "" {
			return value
		}
	}
	return primitive.NewObjectID().Hex()
}

// checkAccess matches the user's email against the configuration's access
// patterns: a literal email, or a domain pattern ("@example.com" or
// "example.com"). An empty list admits everyone.
func checkAccess(cfg *workflow.Configuration, userEmail string) error {
	if len(cfg.Access) == 0 {
		return nil
	}
	domain := ""
	if at := strings.LastIndex(userEmail, "@"); at >= 0 {
		domain = userEmail[at+1:]
	}
	for _, pattern := range cfg.Access {
		if pattern == userEmail {
			return nil
		}
		if strings.TrimPrefix(pattern, "@") == domain {
			return nil
		}
	}
	return fmt.Errorf("user %q is not allowed to access workflow %q", userEmail, cfg.WorkflowID)
}
