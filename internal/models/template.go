package models

import (
	"encoding/json"
	"time"
)

// Template is a firm-owned .docx template with {{placeholder}} variables.
// FileContent is owned by the store; generation always works on a copy.
type Template struct {
	ID              string `gorm:"type:varchar(36);primaryKey" json:"id"`
	FirmID          string `gorm:"type:varchar(64);not null;index:idx_templates_firm;uniqueIndex:idx_templates_firm_name,priority:1" json:"firm_id"`
	Name            string `gorm:"type:varchar(191);not null;uniqueIndex:idx_templates_firm_name,priority:2" json:"name"`
	OriginalName    string `json:"original_name"`
	DocumentTypeKey string `gorm:"type:varchar(100);index" json:"document_type_key"`
	Category        string `gorm:"type:varchar(50)" json:"category"`
	Jurisdiction    string `gorm:"type:varchar(100)" json:"jurisdiction"`
	CaseTypes       string `gorm:"type:json" json:"case_types"` // JSON array of case type strings
	Tags            string `gorm:"type:json" json:"tags"`       // JSON array of tag strings
	Variables       string `gorm:"type:json" json:"variables"`  // JSON array of placeholder names
	SearchableText  string `gorm:"type:text" json:"searchable_text"`
	FileContent     []byte `gorm:"type:longblob" json:"-"`
	ContentHash     string `gorm:"type:varchar(64)" json:"content_hash"`
	FileSize        int64  `json:"file_size"`
	IsActive        bool   `gorm:"default:true;index:idx_templates_firm_active" json:"is_active"`
	Version         int    `gorm:"default:1" json:"version"`
	UsageCount      int64  `gorm:"default:0" json:"usage_count"`

	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Template) TableName() string {
	return "document_templates"
}

func (t *Template) CaseTypeList() []string {
	return decodeStringList(t.CaseTypes)
}

func (t *Template) TagList() []string {
	return decodeStringList(t.Tags)
}

func (t *Template) VariableList() []string {
	return decodeStringList(t.Variables)
}

func decodeStringList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func EncodeStringList(values []string) string {
	if values == nil {
		values = []string{}
	}
	raw, _ := json.Marshal(values)
	return string(raw)
}
