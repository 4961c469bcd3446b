package workflow

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusDraft is the reserved sentinel status every card is created in. It
// never appears in a configuration's status list but is always a legal
// transition origin.
const StatusDraft = "draft"

type FieldKind string

const (
	FieldKindNumber      FieldKind = "number"
	FieldKindText        FieldKind = "text"
	FieldKindChoice      FieldKind = "choice"
	FieldKindMultiChoice FieldKind = "multi-choice"
	FieldKindBool        FieldKind = "bool"
	FieldKindURL         FieldKind = "url"
	FieldKindList        FieldKind = "list"
)

// LovSource binds a text field to an externally sourced list of values.
type LovSource struct {
	Kind     string             `json:"kind" bson:"kind"` // "api", "googlesheet", "database"
	CacheKey string             `json:"cacheKey,omitempty" bson:"cache_key,omitempty"`
	API      *LovAPISource      `json:"api,omitempty" bson:"api,omitempty"`
	Sheet    *LovSheetSource    `json:"sheet,omitempty" bson:"sheet,omitempty"`
	Database *LovDatabaseSource `json:"database,omitempty" bson:"database,omitempty"`
}

// LovAPISource fetches values over HTTP GET. Paths are dotted JSON selectors;
// ListPath selects the array, KeyPath/LabelPath select per-item fields.
type LovAPISource struct {
	URL       string            `json:"url" bson:"url"`
	Headers   map[string]string `json:"headers,omitempty" bson:"headers,omitempty"`
	ListPath  string            `json:"listPath,omitempty" bson:"list_path,omitempty"`
	KeyPath   string            `json:"keyPath" bson:"key_path"`
	LabelPath string            `json:"labelPath" bson:"label_path"`
}

// LovSheetSource reads parallel key/label ranges from a spreadsheet. The
// orientation declares whether each range runs down a column or across a row.
type LovSheetSource struct {
	File        string `json:"file" bson:"file"`
	KeyRange    string `json:"keyRange" bson:"key_range"`
	LabelRange  string `json:"labelRange" bson:"label_range"`
	Orientation string `json:"orientation,omitempty" bson:"orientation,omitempty"` // "columns" (default) or "rows"
}

// LovDatabaseSource runs a SQL query whose first two columns are key, label.
type LovDatabaseSource struct {
	Driver string `json:"driver" bson:"driver"` // "postgres" or "mysql"
	DSN    string `json:"dsn" bson:"dsn"`
	Query  string `json:"query" bson:"query"`
}

// FieldSchema carries the kind-specific constraints of a field.
type FieldSchema struct {
	Kind     FieldKind  `json:"kind" bson:"kind"`
	Min      *float64   `json:"min,omitempty" bson:"min,omitempty"`
	Max      *float64   `json:"max,omitempty" bson:"max,omitempty"`
	Choices  []string   `json:"choices,omitempty" bson:"choices,omitempty"`
	Regex    string     `json:"regex,omitempty" bson:"regex,omitempty"`
	Lov      *LovSource `json:"lov,omitempty" bson:"lov,omitempty"`
	Multiple bool       `json:"multiple,omitempty" bson:"multiple,omitempty"`
}

type WorkflowField struct {
	Slug        string      `json:"slug" bson:"slug"` // [a-zA-Z0-9_]+
	Title       string      `json:"title" bson:"title"`
	Description string      `json:"description,omitempty" bson:"description,omitempty"`
	Schema      FieldSchema `json:"schema" bson:"schema"`

	// DocumentIdentifier marks this field as the source of the card's
	// human-readable id. At most one field per workflow may carry it, and
	// only text fields qualify.
	DocumentIdentifier bool `json:"documentIdentifier,omitempty" bson:"document_identifier,omitempty"`
}

// ApprovalRequirement names an approval that must be satisfied before a
// status can be entered.
type ApprovalRequirement struct {
	Key string `json:"key" bson:"key"`
}

// StatusPrecondition gates entry into a status. Empty From allows any origin;
// empty Users allows anyone. Users entries are literal emails/user ids, "*"
// (anyone) or "owner" (the card's owner field). Required entries are field
// slugs checked against fieldData, or "$."-prefixed top-level card fields.
type StatusPrecondition struct {
	From      []string              `json:"from,omitempty" bson:"from,omitempty"`
	Required  []string              `json:"required,omitempty" bson:"required,omitempty"`
	Users     []string              `json:"users,omitempty" bson:"users,omitempty"`
	Approvals []ApprovalRequirement `json:"approvals,omitempty" bson:"approvals,omitempty"`
}

// ActionDefinition is one side-effecting action attached to a status. Params
// carries the kind-specific fields (to, subject, message, url, headers, ...)
// and is placeholder-resolved against the card before dispatch.
type ActionDefinition struct {
	Kind   string                 `json:"kind" bson:"kind"`
	Params map[string]interface{} `json:"params,omitempty" bson:"params,omitempty"`
}

type WorkflowStatus struct {
	Slug         string              `json:"slug" bson:"slug"`
	Title        string              `json:"title" bson:"title"`
	Terminal     bool                `json:"terminal" bson:"terminal"`
	UIColor      string              `json:"uiColor,omitempty" bson:"ui_color,omitempty"`
	Precondition *StatusPrecondition `json:"precondition,omitempty" bson:"precondition,omitempty"`
	Transition   []ActionDefinition  `json:"transition,omitempty" bson:"transition,omitempty"` // pre-persist, serial
	Finally      []ActionDefinition  `json:"finally,omitempty" bson:"finally,omitempty"`       // post-persist, parallel
}

// ApprovalRule is one way an approval may be granted. An empty By pattern
// lets anyone approve; otherwise By is placeholder-resolved against the card
// and compared to the acting user.
type ApprovalRule struct {
	Kind string `json:"kind" bson:"kind"` // "basic"
	By   string `json:"by,omitempty" bson:"by,omitempty"`
}

type ApprovalDefinition struct {
	Slug    string         `json:"slug" bson:"slug"`
	Allowed []ApprovalRule `json:"allowed" bson:"allowed"`
}

// NounLabels customizes how the UI refers to cards of this workflow.
type NounLabels struct {
	Singular string `json:"singular,omitempty" bson:"singular,omitempty"`
	Plural   string `json:"plural,omitempty" bson:"plural,omitempty"`
}

// Configuration is the static, versioned definition of one workflow. It is
// loaded read-only at runtime and never mutated by the engine.
type Configuration struct {
	ID         primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	WorkflowID string               `json:"workflowId" bson:"workflow_id"`
	Name       string               `json:"name" bson:"name"`
	Access     []string             `json:"access,omitempty" bson:"access,omitempty"` // email or domain patterns
	Nouns      NounLabels           `json:"nouns,omitempty" bson:"nouns,omitempty"`
	Types      []string             `json:"types,omitempty" bson:"types,omitempty"`
	Fields     []WorkflowField      `json:"fields" bson:"fields"`
	Statuses   []WorkflowStatus     `json:"statuses" bson:"statuses"`
	Approvals  []ApprovalDefinition `json:"approvals,omitempty" bson:"approvals,omitempty"`
	CreatedAt  time.Time            `json:"createdAt" bson:"created_at"`
	UpdatedAt  time.Time            `json:"updatedAt" bson:"updated_at"`
}

// Status looks up a declared status by slug.
func (c *Configuration) StatusBySlug(slug string) *WorkflowStatus {
	for i := range c.Statuses {
		if c.Statuses[i].Slug == slug {
			return &c.Statuses[i]
		}
	}
	return nil
}

// ApprovalBySlug looks up an approval definition by slug.
func (c *Configuration) ApprovalBySlug(slug string) *ApprovalDefinition {
	for i := range c.Approvals {
		if c.Approvals[i].Slug == slug {
			return &c.Approvals[i]
		}
	}
	return nil
}

// FieldBySlug looks up a field definition by slug.
func (c *Configuration) FieldBySlug(slug string) *WorkflowField {
	for i := range c.Fields {
		if c.Fields[i].Slug == slug {
			return &c.Fields[i]
		}
	}
	return nil
}

// DocumentIdentifierField returns the field marked as the card id source, or
// nil when the workflow relies on generated ids.
func (c *Configuration) DocumentIdentifierField() *WorkflowField {
	for i := range c.Fields {
		if c.Fields[i].DocumentIdentifier {
			return &c.Fields[i]
		}
	}
	return nil
}
