package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"LF-DOCGEN/internal/docx"
	"LF-DOCGEN/internal/models"
	"LF-DOCGEN/internal/store"
)

type TemplateService struct {
	store store.Store
	log   *logrus.Logger
}

func NewTemplateService(st store.Store, log *logrus.Logger) *TemplateService {
	return &TemplateService{store: st, log: log}
}

// ImportRequest carries one template upload. Metadata fields left empty are
// inferred from the filename.
type ImportRequest struct {
	FirmID          string
	Filename        string
	Content         []byte
	DocumentTypeKey string
	Category        string
	Jurisdiction    string
	CaseTypes       []string
	Tags            []string
}

// ImportResult reports what the import did to the row.
type ImportResult struct {
	Template *models.Template
	Created  bool
	Updated  bool // content changed, version bumped
}

// ImportTemplate validates, normalizes and upserts one template. The name
// is the natural key within the firm: re-importing identical bytes is a
// no-op, changed bytes bump the version in place.
func (s *TemplateService) ImportTemplate(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.FirmID == "" {
		return nil, errors.New("firm id is required")
	}

	pkg, err := docx.OpenPackage(req.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplatePackage, err)
	}
	if err := docx.ValidatePackage(pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplatePackage, err)
	}

	// Canonicalize legacy placeholder forms before anything reads them.
	changed, err := docx.NormalizePlaceholders(pkg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplatePackage, err)
	}
	content := req.Content
	if changed {
		if content, err = pkg.Bytes(); err != nil {
			return nil, fmt.Errorf("failed to rebuild package: %w", err)
		}
	}

	variables, err := docx.ScanPlaceholders(pkg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplatePackage, err)
	}

	name := canonicalName(req.Filename)
	meta := inferMetadata(name)
	if req.DocumentTypeKey != "" {
		meta.documentTypeKey = req.DocumentTypeKey
	}
	if req.Category != "" {
		meta.category = req.Category
	}

	hash := contentHash(content)
	tmpl := &models.Template{
		ID:              uuid.New().String(),
		FirmID:          req.FirmID,
		Name:            name,
		OriginalName:    req.Filename,
		DocumentTypeKey: meta.documentTypeKey,
		Category:        meta.category,
		Jurisdiction:    req.Jurisdiction,
		CaseTypes:       models.EncodeStringList(req.CaseTypes),
		Tags:            models.EncodeStringList(req.Tags),
		Variables:       models.EncodeStringList(variables),
		FileContent:     content,
		ContentHash:     hash,
		FileSize:        int64(len(content)),
		IsActive:        true,
		Version:         1,
	}
	tmpl.SearchableText = buildSearchableText(tmpl)

	result := &ImportResult{}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		existing, err := tx.GetTemplateByName(ctx, req.FirmID, name)
		if errors.Is(err, store.ErrNotFound) {
			result.Template = tmpl
			result.Created = true
			return tx.CreateTemplate(ctx, tmpl)
		}
		if err != nil {
			return err
		}

		if existing.ContentHash == hash && existing.IsActive {
			result.Template = existing
			return nil
		}

		existing.OriginalName = tmpl.OriginalName
		existing.DocumentTypeKey = tmpl.DocumentTypeKey
		existing.Category = tmpl.Category
		if tmpl.Jurisdiction != "" {
			existing.Jurisdiction = tmpl.Jurisdiction
		}
		existing.CaseTypes = tmpl.CaseTypes
		existing.Tags = tmpl.Tags
		existing.IsActive = true
		if existing.ContentHash != hash {
			existing.FileContent = content
			existing.ContentHash = hash
			existing.FileSize = tmpl.FileSize
			existing.Variables = tmpl.Variables
			existing.Version++
			result.Updated = true
		}
		existing.SearchableText = buildSearchableText(existing)
		result.Template = existing
		return tx.UpdateTemplate(ctx, existing)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import template: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"firm_id":  req.FirmID,
		"template": name,
		"created":  result.Created,
		"updated":  result.Updated,
		"version":  result.Template.Version,
	}).Info("imported template")
	return result, nil
}

// ImportFolder imports every .docx under dir. Files that fail validation
// are skipped with a warning so one corrupt file cannot sink a batch.
func (s *TemplateService) ImportFolder(ctx context.Context, firmID, dir string) ([]*ImportResult, error) {
	var results []*ImportResult
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".docx") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		result, err := s.ImportTemplate(ctx, ImportRequest{
			FirmID:   firmID,
			Filename: filepath.Base(path),
			Content:  content,
		})
		if err != nil {
			s.log.WithError(err).WithField("file", path).Warn("skipping template")
			return nil
		}
		results = append(results, result)
		return nil
	})
	if err != nil {
		return results, err
	}
	return results, nil
}

// Deactivate marks active templates whose name matches the pattern as
// inactive. Existing generation records keep resolving by ID.
func (s *TemplateService) Deactivate(ctx context.Context, firmID, namePattern string) (int64, error) {
	var count int64
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		count, err = tx.DeactivateTemplates(ctx, firmID, namePattern)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate templates: %w", err)
	}
	return count, nil
}

func (s *TemplateService) GetTemplate(ctx context.Context, firmID, id string) (*models.Template, error) {
	tmpl, err := s.store.GetTemplate(ctx, firmID, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	return tmpl, err
}

func (s *TemplateService) GetTemplateByName(ctx context.Context, firmID, name string) (*models.Template, error) {
	tmpl, err := s.store.GetTemplateByName(ctx, firmID, canonicalName(name))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	return tmpl, err
}

func (s *TemplateService) ListTemplates(ctx context.Context, firmID string, filters store.TemplateFilters, activeOnly bool) ([]models.Template, error) {
	return s.store.ListTemplates(ctx, firmID, filters, activeOnly)
}

// canonicalName lowers the filename to a stable lower_snake key, dropping
// the extension and collapsing punctuation runs.
func canonicalName(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.ToLower(name)
	var sb strings.Builder
	lastUnderscore := true
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				sb.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "_")
}

type templateMetadata struct {
	documentTypeKey string
	category        string
}

// metadataRules map filename keywords to document type and category.
// First hit wins, so more specific phrases come first.
var metadataRules = []struct {
	keyword  string
	key      string
	category string
}{
	{"bond", "bond_assignment", "bond"},
	{"dismiss", "motion_to_dismiss", "motion"},
	{"continuance", "motion_for_continuance", "motion"},
	{"continue", "motion_for_continuance", "motion"},
	{"entry_of_appearance", "entry_of_appearance", "entry"},
	{"appearance", "entry_of_appearance", "entry"},
	{"discovery", "request_for_discovery", "discovery"},
	{"interrogator", "request_for_discovery", "discovery"},
	{"hearing", "notice_of_hearing", "notice"},
	{"disposition", "disposition_letter", "letter"},
	{"letter", "disposition_letter", "letter"},
	{"motion", "", "motion"},
	{"notice", "", "notice"},
}

func inferMetadata(name string) templateMetadata {
	for _, rule := range metadataRules {
		if strings.Contains(name, rule.keyword) {
			return templateMetadata{documentTypeKey: rule.key, category: rule.category}
		}
	}
	return templateMetadata{category: "general"}
}

// buildSearchableText flattens the template's lexical surface into one
// lowercase string the resolver scores against.
func buildSearchableText(tmpl *models.Template) string {
	parts := []string{
		strings.ReplaceAll(tmpl.Name, "_", " "),
		strings.ToLower(strings.TrimSuffix(tmpl.OriginalName, filepath.Ext(tmpl.OriginalName))),
		strings.ReplaceAll(tmpl.DocumentTypeKey, "_", " "),
		tmpl.Category,
		strings.ToLower(tmpl.Jurisdiction),
	}
	parts = append(parts, tmpl.CaseTypeList()...)
	parts = append(parts, tmpl.TagList()...)

	seen := make(map[string]bool)
	var sb strings.Builder
	for _, part := range parts {
		for _, word := range strings.Fields(strings.ToLower(part)) {
			if !seen[word] {
				seen[word] = true
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(word)
			}
		}
	}
	return sb.String()
}

func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
