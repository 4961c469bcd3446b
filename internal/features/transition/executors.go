package transition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/common/models"
	"github.com/peatiscoding/cadence-sub000/internal/features/card"
	"github.com/peatiscoding/cadence-sub000/internal/features/email"
	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action kinds form a closed set; anything else is rejected by the runner.
const (
	ActionKindSetOwner    = "set-owner"
	ActionKindSendEmail   = "send-email"
	ActionKindSendWebhook = "send-webhook"
)

// Executor performs one resolved action against a card. Params have already
// been placeholder-resolved by the runner.
type Executor interface {
	Execute(ctx context.Context, cardEntry *models.CardEntry, action workflow.ActionDefinition) error
}

// NewExecutorRegistry wires the closed set of action executors.
func NewExecutorRegistry(cards card.Repository, senders email.Registry, logger *zap.Logger) map[string]Executor {
	return map[string]Executor{
		ActionKindSetOwner:    &setOwnerExecutor{cards: cards},
		ActionKindSendEmail:   &sendEmailExecutor{senders: senders},
		ActionKindSendWebhook: &sendWebhookExecutor{
			client: &http.Client{Timeout: 30 * time.Second},
			logger: logger,
		},
	}
}

// setOwnerExecutor writes the resolved "to" value as the card's owner via a
// merge-style partial update. Re-running it with the same input is a no-op.
type setOwnerExecutor struct {
	cards card.Repository
}

func (e *setOwnerExecutor) Execute(ctx context.Context, cardEntry *models.CardEntry, action workflow.ActionDefinition) error {
	to, _ := action.Params["to"].(string)
	if to == "" {
		return fmt.Errorf("set-owner: \"to\" is required")
	}
	return e.cards.Merge(ctx, cardEntry.WorkflowID, cardEntry.WorkflowCardID, map[string]interface{}{
		"owner": to,
	})
}

type sendEmailExecutor struct {
	senders email.Registry
}

func (e *sendEmailExecutor) Execute(ctx context.Context, cardEntry *models.CardEntry, action workflow.ActionDefinition) error {
	from, _ := action.Params["from"].(string)
	subject, _ := action.Params["subject"].(string)
	message, _ := action.Params["message"].(string)
	if from == "" {
		return fmt.Errorf("send-email: \"from\" is required")
	}
	to := stringList(action.Params["to"])
	if len(to) == 0 {
		return fmt.Errorf("send-email: \"to\" is required")
	}

	domain, err := email.DomainOf(from)
	if err != nil {
		return fmt.Errorf("send-email: %w", err)
	}
	sender, err := e.senders.SenderFor(domain)
	if err != nil {
		return fmt.Errorf("send-email: %w", err)
	}

	_, err = sender.SendMessage(ctx, email.Message{
		From:    from,
		To:      to,
		CC:      stringList(action.Params["cc"]),
		BCC:     stringList(action.Params["bcc"]),
		Subject: subject,
		Body:    message,
	})
	return err
}

type sendWebhookExecutor struct {
	client *http.Client
	logger *zap.Logger
}

func (e *sendWebhookExecutor) Execute(ctx context.Context, cardEntry *models.CardEntry, action workflow.ActionDefinition) error {
	url, _ := action.Params["url"].(string)
	if url == "" {
		return fmt.Errorf("send-webhook: \"url\" is required")
	}
	method, _ := action.Params["method"].(string)
	if method == "" {
		method = http.MethodPost
	}

	body, contentType, err := encodeBody(action.Params["body"])
	if err != nil {
		return fmt.Errorf("send-webhook: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send-webhook: %w", err)
	}

	req.Header.Set("User-Agent", "Cadence-Webhook")
	req.Header.Set("X-Cadence-Delivery", uuid.NewString())
	if headers, ok := action.Params["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			req.Header.Set(key, fmt.Sprintf("%v", value))
		}
	}
	// Only sniff a Content-Type when the caller did not set one
	if req.Header.Get("Content-Type") == "" && len(body) > 0 {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("send-webhook: %w", err)
	}
	defer resp.Body.Close()

	e.logger.Info("webhook delivered",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.String("cardId", cardEntry.WorkflowCardID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("send-webhook: %s responded %d %s: %s",
			url, resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(text)))
	}
	return nil
}

var formEncodedPattern = regexp.MustCompile(`^[^=&\s]+=[^=&]*(&[^=&\s]+=[^=&]*)*$`)

// encodeBody serializes the webhook body and detects its Content-Type from
// shape: structured values go out as JSON; strings are inspected for JSON,
// XML or form encoding and fall back to plain text.
func encodeBody(body interface{}) ([]byte, string, error) {
	switch val := body.(type) {
	case nil:
		return nil, "", nil
	case string:
		trimmed := strings.TrimSpace(val)
		switch {
		case strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "["):
			return []byte(val), "application/json", nil
		case strings.HasPrefix(trimmed, "<"):
			return []byte(val), "application/xml", nil
		case formEncodedPattern.MatchString(trimmed):
			return []byte(val), "application/x-www-form-urlencoded", nil
		default:
			return []byte(val), "text/plain", nil
		}
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, "", err
		}
		return encoded, "application/json", nil
	}
}

func stringList(v interface{}) []string {
	switch val := v.(type) {
	case string:
		if val == "" {
			return nil
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range val {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
