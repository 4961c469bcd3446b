package lov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

// apiProvider pulls entries from a JSON HTTP endpoint. ListPath selects the
// array inside the response body; KeyPath and LabelPath select fields of each
// item. All three are dotted paths and an empty ListPath treats the body
// itself as the array.
type apiProvider struct {
	source *workflow.LovAPISource
	client *http.Client
}

func (p *apiProvider) Fetch(ctx context.Context) ([]Entry, error) {
	client := p.client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.source.URL, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range p.source.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lov api %s returned %d: %s", p.source.URL, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("lov api %s: %w", p.source.URL, err)
	}

	list, err := selectList(payload, p.source.ListPath)
	if err != nil {
		return nil, fmt.Errorf("lov api %s: %w", p.source.URL, err)
	}

	entries := make([]Entry, 0, len(list))
	for i, item := range list {
		key, err := selectString(item, p.source.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("lov api item %d: %w", i, err)
		}
		label, err := selectString(item, p.source.LabelPath)
		if err != nil {
			return nil, fmt.Errorf("lov api item %d: %w", i, err)
		}
		entries = append(entries, Entry{Key: key, Label: label})
	}
	return entries, nil
}

func selectList(payload interface{}, path string) ([]interface{}, error) {
	value, err := selectPath(payload, path)
	if err != nil {
		return nil, err
	}
	list, ok := value.([]interface{})
	if !ok {
		return nil, fmt.Errorf("path %q does not select an array", path)
	}
	return list, nil
}

func selectString(item interface{}, path string) (string, error) {
	value, err := selectPath(item, path)
	if err != nil {
		return "", err
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case nil:
		return "", fmt.Errorf("path %q selects no value", path)
	}
	return "", fmt.Errorf("path %q selects a non-scalar value", path)
}

func selectPath(value interface{}, path string) (interface{}, error) {
	if path == "" {
		return value, nil
	}
	for _, segment := range strings.Split(path, ".") {
		obj, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("path %q walks through a non-object", path)
		}
		value, ok = obj[segment]
		if !ok {
			return nil, fmt.Errorf("path %q has no segment %q", path, segment)
		}
	}
	return value, nil
}
