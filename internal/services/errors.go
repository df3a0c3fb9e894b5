package services

import (
	"errors"
	"fmt"
)

var (
	// ErrTemplateNotFound means no template matched the identifier or
	// request within the firm.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrDocumentNotFound means no generated document matched the ID
	// within the firm.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidTemplatePackage means the uploaded file is not a valid
	// document package (bad zip, missing document part, malformed XML).
	ErrInvalidTemplatePackage = errors.New("invalid template package")
	// ErrSubstitutionIntegrity means substitution produced a structurally
	// broken document. Nothing is persisted when this fires.
	ErrSubstitutionIntegrity = errors.New("substitution corrupted document structure")
)

// MissingRequiredVariableError identifies the first required variable that
// had no value from the user, profile, or defaults.
type MissingRequiredVariableError struct {
	Name string
}

func (e *MissingRequiredVariableError) Error() string {
	return fmt.Sprintf("missing required variable: %s", e.Name)
}
