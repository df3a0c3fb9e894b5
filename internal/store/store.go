package store

import (
	"context"

	"LF-DOCGEN/internal/models"
)

// TemplateFilters are hard constraints applied in addition to firm scoping.
// A template failing any set filter is excluded regardless of lexical rank.
type TemplateFilters struct {
	Category     string
	Jurisdiction string
	CaseType     string
}

// Store is the firm-scoped persistence boundary. Every method that touches
// firm data takes the firm ID explicitly; there is no ambient current firm.
type Store interface {
	TemplateStore
	GenerationStore
	ProfileStore
	ActivityStore
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type TemplateStore interface {
	// CreateTemplate inserts a new template row.
	CreateTemplate(ctx context.Context, tmpl *models.Template) error
	// GetTemplate retrieves a template by ID within a firm. Inactive
	// templates are returned too, so history stays resolvable.
	GetTemplate(ctx context.Context, firmID, id string) (*models.Template, error)
	// GetTemplateByName retrieves a template by its natural key.
	GetTemplateByName(ctx context.Context, firmID, name string) (*models.Template, error)
	// ListTemplates lists templates for a firm, optionally filtered.
	ListTemplates(ctx context.Context, firmID string, filters TemplateFilters, activeOnly bool) ([]models.Template, error)
	// UpdateTemplate persists changes to an existing template row.
	UpdateTemplate(ctx context.Context, tmpl *models.Template) error
	// DeactivateTemplates marks active templates whose name matches the
	// regular expression as inactive and returns the affected count.
	// Matching nothing is a valid outcome, not an error.
	DeactivateTemplates(ctx context.Context, firmID, namePattern string) (int64, error)
	// SearchTemplatesByName is the resolver fallback: case-insensitive
	// substring match on the template name.
	SearchTemplatesByName(ctx context.Context, firmID, query string, limit int) ([]models.Template, error)
	// TouchTemplateUsage bumps usage_count and last_used_at.
	TouchTemplateUsage(ctx context.Context, firmID, id string) error
}

type GenerationStore interface {
	// CreateGenerationRecord appends one audit row. Records are immutable.
	CreateGenerationRecord(ctx context.Context, rec *models.GenerationRecord) error
	// GetGenerationRecord retrieves one record by ID within a firm.
	GetGenerationRecord(ctx context.Context, firmID, id string) (*models.GenerationRecord, error)
	// ListGenerationRecords pages a firm's generation history, most recent
	// first. templateID narrows to one template when non-empty.
	ListGenerationRecords(ctx context.Context, firmID, templateID string, limit, offset int) ([]models.GenerationRecord, int64, error)
}

type ProfileStore interface {
	// SaveAttorneyProfile upserts by (firm_id, bar_number).
	SaveAttorneyProfile(ctx context.Context, profile *models.AttorneyProfile) error
	// GetFirmProfile returns the firm's primary attorney profile, or the
	// only profile when none is marked primary.
	GetFirmProfile(ctx context.Context, firmID string) (*models.AttorneyProfile, error)
}

type ActivityStore interface {
	CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error
	ListActivityLogs(ctx context.Context, firmID string, limit, offset int) ([]models.ActivityLog, int64, error)
}
