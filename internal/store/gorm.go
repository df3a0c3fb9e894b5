package store

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"LF-DOCGEN/internal/models"
)

// ErrNotFound is returned when a row does not exist within the firm scope.
var ErrNotFound = errors.New("record not found")

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

func (g *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (g *GormStore) CreateTemplate(ctx context.Context, tmpl *models.Template) error {
	return g.db.WithContext(ctx).Create(tmpl).Error
}

func (g *GormStore) GetTemplate(ctx context.Context, firmID, id string) (*models.Template, error) {
	var tmpl models.Template
	err := g.db.WithContext(ctx).
		Where("firm_id = ? AND id = ?", firmID, id).
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (g *GormStore) GetTemplateByName(ctx context.Context, firmID, name string) (*models.Template, error) {
	var tmpl models.Template
	err := g.db.WithContext(ctx).
		Where("firm_id = ? AND name = ?", firmID, name).
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (g *GormStore) ListTemplates(ctx context.Context, firmID string, filters TemplateFilters, activeOnly bool) ([]models.Template, error) {
	query := g.db.WithContext(ctx).Where("firm_id = ?", firmID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Jurisdiction != "" {
		query = query.Where("jurisdiction = ?", filters.Jurisdiction)
	}
	if filters.CaseType != "" {
		// case_types is a JSON array of strings; containment via the quoted
		// element keeps the query portable between MySQL and SQLite.
		query = query.Where("case_types LIKE ?", `%"`+filters.CaseType+`"%`)
	}

	var templates []models.Template
	err := query.Order("updated_at DESC").Find(&templates).Error
	return templates, err
}

func (g *GormStore) UpdateTemplate(ctx context.Context, tmpl *models.Template) error {
	return g.db.WithContext(ctx).Save(tmpl).Error
}

func (g *GormStore) DeactivateTemplates(ctx context.Context, firmID, namePattern string) (int64, error) {
	re, err := regexp.Compile(namePattern)
	if err != nil {
		return 0, err
	}

	var candidates []models.Template
	if err := g.db.WithContext(ctx).
		Select("id", "name").
		Where("firm_id = ? AND is_active = ?", firmID, true).
		Find(&candidates).Error; err != nil {
		return 0, err
	}

	var ids []string
	for _, tmpl := range candidates {
		if re.MatchString(tmpl.Name) {
			ids = append(ids, tmpl.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res := g.db.WithContext(ctx).
		Model(&models.Template{}).
		Where("firm_id = ? AND id IN ?", firmID, ids).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	logrus.WithFields(logrus.Fields{
		"firm_id": firmID,
		"pattern": namePattern,
		"count":   res.RowsAffected,
	}).Info("deactivated templates")
	return res.RowsAffected, nil
}

func (g *GormStore) SearchTemplatesByName(ctx context.Context, firmID, query string, limit int) ([]models.Template, error) {
	var templates []models.Template
	err := g.db.WithContext(ctx).
		Where("firm_id = ? AND is_active = ? AND LOWER(name) LIKE ?", firmID, true, "%"+toLowerPattern(query)+"%").
		Order("name ASC").
		Limit(limit).
		Find(&templates).Error
	return templates, err
}

func (g *GormStore) TouchTemplateUsage(ctx context.Context, firmID, id string) error {
	now := time.Now()
	return g.db.WithContext(ctx).
		Model(&models.Template{}).
		Where("firm_id = ? AND id = ?", firmID, id).
		Updates(map[string]interface{}{
			"usage_count":  gorm.Expr("usage_count + 1"),
			"last_used_at": &now,
		}).Error
}

func (g *GormStore) CreateGenerationRecord(ctx context.Context, rec *models.GenerationRecord) error {
	return g.db.WithContext(ctx).Create(rec).Error
}

func (g *GormStore) GetGenerationRecord(ctx context.Context, firmID, id string) (*models.GenerationRecord, error) {
	var rec models.GenerationRecord
	err := g.db.WithContext(ctx).
		Where("firm_id = ? AND id = ?", firmID, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (g *GormStore) ListGenerationRecords(ctx context.Context, firmID, templateID string, limit, offset int) ([]models.GenerationRecord, int64, error) {
	query := g.db.WithContext(ctx).Model(&models.GenerationRecord{}).Where("firm_id = ?", firmID)
	if templateID != "" {
		query = query.Where("template_id = ?", templateID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []models.GenerationRecord
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Order("generated_at DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (g *GormStore) SaveAttorneyProfile(ctx context.Context, profile *models.AttorneyProfile) error {
	var existing models.AttorneyProfile
	err := g.db.WithContext(ctx).
		Where("firm_id = ? AND bar_number = ?", profile.FirmID, profile.BarNumber).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return g.db.WithContext(ctx).Create(profile).Error
	}
	if err != nil {
		return err
	}
	profile.ID = existing.ID
	profile.CreatedAt = existing.CreatedAt
	return g.db.WithContext(ctx).Save(profile).Error
}

func (g *GormStore) GetFirmProfile(ctx context.Context, firmID string) (*models.AttorneyProfile, error) {
	var profile models.AttorneyProfile
	err := g.db.WithContext(ctx).
		Where("firm_id = ?", firmID).
		Order("is_primary DESC, created_at ASC").
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (g *GormStore) CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	return g.db.WithContext(ctx).Create(entry).Error
}

func (g *GormStore) ListActivityLogs(ctx context.Context, firmID string, limit, offset int) ([]models.ActivityLog, int64, error) {
	query := g.db.WithContext(ctx).Model(&models.ActivityLog{})
	if firmID != "" {
		query = query.Where("firm_id = ?", firmID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ActivityLog
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func toLowerPattern(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
