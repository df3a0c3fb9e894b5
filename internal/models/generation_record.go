package models

import (
	"encoding/json"
	"time"
)

// Variable value sources recorded in the generation audit log.
const (
	VariableSourceUser    = "user"
	VariableSourceProfile = "profile"
	VariableSourceDefault = "default"
)

// UsedVariable is one resolved variable value and where it came from.
type UsedVariable struct {
	Value  string `json:"value"`
	Source string `json:"source"`
}

// GenerationRecord is an append-only audit entry, one per successful
// generation. Rows are never updated or deleted.
type GenerationRecord struct {
	ID              string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	FirmID          string    `gorm:"type:varchar(64);not null;index:idx_generations_firm" json:"firm_id"`
	TemplateID      string    `gorm:"type:varchar(36);not null;index:idx_generations_template" json:"template_id"`
	TemplateName    string    `json:"template_name"`
	TemplateVersion int       `json:"template_version"`
	CaseID          string    `gorm:"type:varchar(64)" json:"case_id,omitempty"`
	VariablesUsed   string    `gorm:"type:json" json:"variables_used"` // JSON map of name -> UsedVariable
	Draft           bool      `json:"draft"`
	GeneratedBy     string    `gorm:"type:varchar(100)" json:"generated_by"`
	OutputReference string    `json:"output_reference"`
	GeneratedAt     time.Time `gorm:"index" json:"generated_at"`
}

func (GenerationRecord) TableName() string {
	return "generated_documents"
}

func (r *GenerationRecord) UsedVariables() map[string]UsedVariable {
	out := map[string]UsedVariable{}
	if r.VariablesUsed == "" {
		return out
	}
	_ = json.Unmarshal([]byte(r.VariablesUsed), &out)
	return out
}

func EncodeUsedVariables(vars map[string]UsedVariable) string {
	if vars == nil {
		vars = map[string]UsedVariable{}
	}
	raw, _ := json.Marshal(vars)
	return string(raw)
}
