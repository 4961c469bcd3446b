package lov

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

func TestAPIProviderFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"items":[
			{"id":"th","attrs":{"name":"Thailand"}},
			{"id":"jp","attrs":{"name":"Japan"}}
		]}}`))
	}))
	defer server.Close()

	provider := &apiProvider{source: &workflow.LovAPISource{
		URL:       server.URL,
		Headers:   map[string]string{"X-Api-Key": "secret"},
		ListPath:  "data.items",
		KeyPath:   "id",
		LabelPath: "attrs.name",
	}}

	entries, err := provider.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %v", entries)
	}
	if entries[0].Key != "th" || entries[0].Label != "Thailand" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	if entries[1].Key != "jp" || entries[1].Label != "Japan" {
		t.Fatalf("second entry = %+v", entries[1])
	}
}

func TestAPIProviderRejectsNonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := &apiProvider{source: &workflow.LovAPISource{
		URL: server.URL, KeyPath: "id", LabelPath: "name",
	}}
	if _, err := provider.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestAPIProviderRootArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"a","name":"Alpha"}]`))
	}))
	defer server.Close()

	provider := &apiProvider{source: &workflow.LovAPISource{
		URL: server.URL, KeyPath: "id", LabelPath: "name",
	}}
	entries, err := provider.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Label != "Alpha" {
		t.Fatalf("entries = %v", entries)
	}
}
