package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"LF-DOCGEN/internal/docx"
	"LF-DOCGEN/internal/models"
	"LF-DOCGEN/internal/schema"
	"LF-DOCGEN/internal/storage"
	"LF-DOCGEN/internal/store"
)

// Fallback drafts a document body when no stored template fits a request.
// The server runs without one; callers then just get ErrTemplateNotFound.
type Fallback interface {
	Draft(ctx context.Context, firmID, request string, variables map[string]string) ([]byte, error)
}

type GeneratorService struct {
	store    store.Store
	blobs    storage.BlobStore
	registry *schema.Registry
	log      *logrus.Logger
}

func NewGeneratorService(st store.Store, blobs storage.BlobStore, registry *schema.Registry, log *logrus.Logger) *GeneratorService {
	if registry == nil {
		registry = schema.Defaults()
	}
	return &GeneratorService{store: st, blobs: blobs, registry: registry, log: log}
}

// GenerateRequest fills one template. Variables are the user-supplied
// values; profile and default values fill in underneath them.
type GenerateRequest struct {
	FirmID      string
	TemplateID  string
	CaseID      string
	Variables   map[string]string
	Draft       bool
	GeneratedBy string
}

type GenerateResult struct {
	Record  *models.GenerationRecord
	Content []byte
}

// Generate produces a filled document from a stored template. The stored
// bytes are never modified; substitution runs on a transient copy. Draft
// mode skips required-variable enforcement and leaves unfilled tokens
// visible in the output.
func (s *GeneratorService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	tmpl, err := s.store.GetTemplate(ctx, req.FirmID, req.TemplateID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	docType, _ := s.registry.Get(tmpl.DocumentTypeKey)
	plan, err := s.buildPlan(ctx, req, tmpl, docType)
	if err != nil {
		return nil, err
	}

	pkg, err := docx.OpenPackage(tmpl.FileContent)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplatePackage, err)
	}
	if err := docx.Substitute(pkg, plan.substitution); err != nil {
		return nil, fmt.Errorf("substitution failed: %w", err)
	}
	if err := docx.ValidatePackage(pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubstitutionIntegrity, err)
	}
	content, err := pkg.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild package: %w", err)
	}

	documentID := uuid.New().String()
	filename := tmpl.Name + ".docx"
	objectName := storage.DocumentObjectName(req.FirmID, documentID, filename)
	if _, err := s.blobs.Upload(ctx, bytes.NewReader(content), objectName, storage.DocxContentType); err != nil {
		return nil, fmt.Errorf("failed to store generated document: %w", err)
	}

	record := &models.GenerationRecord{
		ID:              documentID,
		FirmID:          req.FirmID,
		TemplateID:      tmpl.ID,
		TemplateName:    tmpl.Name,
		TemplateVersion: tmpl.Version,
		CaseID:          req.CaseID,
		VariablesUsed:   models.EncodeUsedVariables(plan.used),
		Draft:           req.Draft,
		GeneratedBy:     req.GeneratedBy,
		OutputReference: objectName,
		GeneratedAt:     time.Now(),
	}
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.CreateGenerationRecord(ctx, record); err != nil {
			return err
		}
		return tx.TouchTemplateUsage(ctx, req.FirmID, tmpl.ID)
	})
	if err != nil {
		s.blobs.Delete(ctx, objectName)
		return nil, fmt.Errorf("failed to record generation: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"firm_id":  req.FirmID,
		"template": tmpl.Name,
		"version":  tmpl.Version,
		"draft":    req.Draft,
		"document": documentID,
	}).Info("generated document")
	return &GenerateResult{Record: record, Content: content}, nil
}

type substitutionPlan struct {
	substitution docx.Substitution
	used         map[string]models.UsedVariable
}

// buildPlan merges user values over profile values over schema defaults and
// checks required coverage. Variable names the template does not declare
// but the schema anchors to a label become label insertion rules.
func (s *GeneratorService) buildPlan(ctx context.Context, req GenerateRequest, tmpl *models.Template, docType schema.DocumentType) (*substitutionPlan, error) {
	values := make(map[string]string)
	used := make(map[string]models.UsedVariable)

	if len(docType.ProfileFilled) > 0 {
		profile, err := s.store.GetFirmProfile(ctx, req.FirmID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("failed to load firm profile: %w", err)
		}
		if profile != nil {
			profileValues := profile.ProfileValues()
			for _, name := range docType.ProfileFilled {
				if v, ok := profileValues[name]; ok && v != "" {
					values[name] = v
					used[name] = models.UsedVariable{Value: v, Source: models.VariableSourceProfile}
				}
			}
		}
	}

	for _, opt := range docType.Optional {
		if opt.Default == "" {
			continue
		}
		if _, ok := values[opt.Name]; !ok {
			values[opt.Name] = opt.Default
			used[opt.Name] = models.UsedVariable{Value: opt.Default, Source: models.VariableSourceDefault}
		}
	}

	// User values win over everything, including profile data.
	for name, value := range req.Variables {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
		if value == "" {
			continue
		}
		values[key] = value
		used[key] = models.UsedVariable{Value: value, Source: models.VariableSourceUser}
	}

	if !req.Draft {
		for _, name := range docType.Required {
			if values[name] == "" {
				return nil, &MissingRequiredVariableError{Name: name}
			}
		}
	}

	removeIfMissing := make(map[string]bool)
	for _, opt := range docType.Optional {
		if opt.SkipIfAbsent && values[opt.Name] == "" {
			removeIfMissing[opt.Name] = true
		}
	}

	declared := make(map[string]bool)
	for _, v := range tmpl.VariableList() {
		declared[v] = true
	}
	var labels []docx.LabelRule
	for name, label := range docType.LabelAnchors {
		if !declared[name] && values[name] != "" {
			labels = append(labels, docx.LabelRule{Label: label, Value: values[name]})
		}
	}

	return &substitutionPlan{
		substitution: docx.Substitution{
			Values:           values,
			UppercaseCaption: docType.UppercaseCaptionVars(),
			RemoveIfMissing:  removeIfMissing,
			Labels:           labels,
		},
		used: used,
	}, nil
}

// BatchItem is one entry of a batch generation call.
type BatchItem struct {
	TemplateID string
	CaseID     string
	Variables  map[string]string
}

type BatchResult struct {
	Index  int
	Result *GenerateResult
	Err    error
}

// GenerateBatch fills several templates in one call. Items are isolated:
// one failure does not abort the rest, and each result carries its own
// error slot.
func (s *GeneratorService) GenerateBatch(ctx context.Context, firmID, generatedBy string, draft bool, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	for i, item := range items {
		result, err := s.Generate(ctx, GenerateRequest{
			FirmID:      firmID,
			TemplateID:  item.TemplateID,
			CaseID:      item.CaseID,
			Variables:   item.Variables,
			Draft:       draft,
			GeneratedBy: generatedBy,
		})
		results[i] = BatchResult{Index: i, Result: result, Err: err}
	}
	return results
}

// Document streams back a previously generated document.
func (s *GeneratorService) Document(ctx context.Context, firmID, documentID string) (*models.GenerationRecord, []byte, error) {
	record, err := s.store.GetGenerationRecord(ctx, firmID, documentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.blobs.Read(ctx, record.OutputReference)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read generated document: %w", err)
	}
	defer reader.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, nil, err
	}
	return record, buf.Bytes(), nil
}

// History pages a firm's generation records.
func (s *GeneratorService) History(ctx context.Context, firmID, templateID string, limit, offset int) ([]models.GenerationRecord, int64, error) {
	return s.store.ListGenerationRecords(ctx, firmID, templateID, limit, offset)
}
