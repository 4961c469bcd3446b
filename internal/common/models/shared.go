package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	UserIDKey    ContextKey = "user_id"
	UserEmailKey ContextKey = "user_email"
)

// ActivityAction classifies a single card mutation.
type ActivityAction string

const (
	ActivityActionCreate  ActivityAction = "create"
	ActivityActionUpdate  ActivityAction = "update"
	ActivityActionTransit ActivityAction = "transit"
	ActivityActionDelete  ActivityAction = "delete"
)

// Change is one field-level difference between two card snapshots.
type Change struct {
	Key  string      `bson:"key" json:"key"`
	From interface{} `bson:"from,omitempty" json:"from,omitempty"`
	To   interface{} `bson:"to,omitempty" json:"to,omitempty"`
}

// ActivityLog is an immutable append-only record of one card mutation.
type ActivityLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkflowID string             `bson:"workflow_id" json:"workflowId"`
	CardID     string             `bson:"card_id" json:"cardId"`
	CardTitle  string             `bson:"card_title" json:"cardTitle"`
	UserID     string             `bson:"user_id" json:"userId"`
	Action     ActivityAction     `bson:"action" json:"action"`
	Changes    []Change           `bson:"changes,omitempty" json:"changes,omitempty"`
	Timestamp  time.Time          `bson:"timestamp" json:"timestamp"`
}

// ApprovalToken is one vote recorded against a card's approval key. Tokens are
// never rewritten in place; a token is retired by setting Voided.
type ApprovalToken struct {
	Kind       string `bson:"kind" json:"kind"` // currently always "basic"
	Author     string `bson:"author" json:"author"`
	Date       int64  `bson:"date" json:"date"` // epoch millis
	Note       string `bson:"note,omitempty" json:"note,omitempty"`
	IsNegative bool   `bson:"is_negative" json:"isNegative"`
	Voided     bool   `bson:"voided,omitempty" json:"voided,omitempty"`
}

// CardEntry is a single workflow card document.
//
// Status always names a status slug of the owning workflow's configuration
// (or the reserved "draft" sentinel); the transition engine is the only path
// allowed to change it. StatusSince is loosely typed because historical
// documents carry either an epoch-millis number or a BSON datetime.
type CardEntry struct {
	WorkflowID     string                     `bson:"workflow_id" json:"workflowId"`
	WorkflowCardID string                     `bson:"workflow_card_id" json:"workflowCardId"`
	Title          string                     `bson:"title" json:"title"`
	Description    string                     `bson:"description,omitempty" json:"description,omitempty"`
	Status         string                     `bson:"status" json:"status"`
	Type           string                     `bson:"type" json:"type"`
	Value          float64                    `bson:"value" json:"value"`
	Owner          string                     `bson:"owner" json:"owner"`
	FieldData      map[string]interface{}     `bson:"field_data" json:"fieldData"`
	ApprovalTokens map[string][]ApprovalToken `bson:"approval_tokens,omitempty" json:"approvalTokens,omitempty"`
	StatusSince    interface{}                `bson:"status_since" json:"statusSince"`
	CreatedBy      string                     `bson:"created_by" json:"createdBy"`
	CreatedAt      time.Time                  `bson:"created_at" json:"createdAt"`
	UpdatedBy      string                     `bson:"updated_by" json:"updatedBy"`
	UpdatedAt      time.Time                  `bson:"updated_at" json:"updatedAt"`
}

// PendingEntry marks a card currently sitting in a status.
type PendingEntry struct {
	CardID      string  `bson:"card_id" json:"cardId"`
	StatusSince int64   `bson:"status_since" json:"statusSince"` // epoch millis
	Value       float64 `bson:"value" json:"value"`
	UserID      string  `bson:"user_id" json:"userId"`
}

// StatusStats is the per (workflow, status) aggregate maintained incrementally
// from transition events. CurrentPendings is keyed by card id so that adds and
// removals stay idempotent under duplicate event delivery.
type StatusStats struct {
	WorkflowID           string                  `bson:"workflow_id" json:"workflowId"`
	Status               string                  `bson:"status" json:"status"`
	TotalTransitionTime  int64                   `bson:"total_transition_time" json:"totalTransitionTime"` // millis
	TotalTransitionCount int64                   `bson:"total_transition_count" json:"totalTransitionCount"`
	CurrentPendings      map[string]PendingEntry `bson:"current_pendings" json:"currentPendings"`
	LastUpdated          time.Time               `bson:"last_updated" json:"lastUpdated"`
}
