package lov

import (
	"context"
	"fmt"
	"time"

	"github.com/peatiscoding/cadence-sub000/internal/features/workflow"
)

const (
	SourceKindAPI         = "api"
	SourceKindGoogleSheet = "googlesheet"
	SourceKindDatabase    = "database"
)

// Provider fetches the live entries of one list-of-values source.
type Provider interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// NewProvider builds the provider matching the source definition.
func NewProvider(src *workflow.LovSource) (Provider, error) {
	switch src.Kind {
	case SourceKindAPI:
		if src.API == nil {
			return nil, fmt.Errorf("lov source %q is missing its api definition", src.Kind)
		}
		return &apiProvider{source: src.API}, nil
	case SourceKindGoogleSheet:
		if src.Sheet == nil {
			return nil, fmt.Errorf("lov source %q is missing its sheet definition", src.Kind)
		}
		return &sheetProvider{source: src.Sheet}, nil
	case SourceKindDatabase:
		if src.Database == nil {
			return nil, fmt.Errorf("lov source %q is missing its database definition", src.Kind)
		}
		return &databaseProvider{source: src.Database}, nil
	}
	return nil, fmt.Errorf("unsupported lov source kind %q", src.Kind)
}

// TTLFor returns the cache lifetime for a provider kind. Spreadsheet content
// moves slowly, APIs move fast, everything else sits in between.
func TTLFor(kind string) time.Duration {
	switch kind {
	case SourceKindAPI:
		return 30 * time.Minute
	case SourceKindGoogleSheet:
		return 120 * time.Minute
	}
	return 60 * time.Minute
}
