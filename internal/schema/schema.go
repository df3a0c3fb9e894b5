package schema

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Party terminology sets. They decide which party variable names are
// semantically valid for a document type.
const (
	PartiesDefendantState       = "defendant_state"
	PartiesPlaintiffDefendant   = "plaintiff_defendant"
	PartiesPetitionerRespondent = "petitioner_respondent"
)

// ContextCaption is the only recognized force-uppercase context.
const ContextCaption = "caption"

// OptionalVariable is an optional template variable. Exactly one of
// Default / SkipIfAbsent / plain omission applies when no value is given:
// a default fills in, skip-if-absent removes the containing line, and
// otherwise the token is replaced with an empty string.
type OptionalVariable struct {
	Name         string `yaml:"name"`
	Default      string `yaml:"default,omitempty"`
	SkipIfAbsent bool   `yaml:"skip_if_absent,omitempty"`
}

// DocumentType is the variable schema for one document_type_key.
type DocumentType struct {
	Key              string             `yaml:"key"`
	Required         []string           `yaml:"required"`
	Optional         []OptionalVariable `yaml:"optional,omitempty"`
	ProfileFilled    []string           `yaml:"profile_filled,omitempty"`
	PartyTerminology string             `yaml:"party_terminology,omitempty"`
	// ForceUppercase maps variable name -> context ("caption").
	ForceUppercase map[string]string `yaml:"force_uppercase_in_context,omitempty"`
	// LabelAnchors maps variable name -> document label for templates that
	// predate placeholder tagging (e.g. case_number -> "Case No.:").
	LabelAnchors map[string]string `yaml:"label_anchors,omitempty"`
}

func (d DocumentType) IsProfileFilled(name string) bool {
	for _, v := range d.ProfileFilled {
		if v == name {
			return true
		}
	}
	return false
}

func (d DocumentType) OptionalByName(name string) (OptionalVariable, bool) {
	for _, v := range d.Optional {
		if v.Name == name {
			return v, true
		}
	}
	return OptionalVariable{}, false
}

// UppercaseCaptionVars returns the variable names that render uppercase
// inside caption context.
func (d DocumentType) UppercaseCaptionVars() map[string]bool {
	out := make(map[string]bool, len(d.ForceUppercase))
	for name, ctx := range d.ForceUppercase {
		if ctx == ContextCaption {
			out[name] = true
		}
	}
	return out
}

// Registry holds document type schemas, keyed by document_type_key.
type Registry struct {
	types map[string]DocumentType
}

func NewRegistry(types ...DocumentType) *Registry {
	r := &Registry{types: make(map[string]DocumentType)}
	for _, t := range types {
		r.types[t.Key] = t
	}
	return r
}

func (r *Registry) Get(key string) (DocumentType, bool) {
	t, ok := r.types[key]
	return t, ok
}

func (r *Registry) Register(t DocumentType) {
	r.types[t.Key] = t
}

func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.types))
	for k := range r.types {
		keys = append(keys, k)
	}
	return keys
}

// LoadFile merges schemas from a YAML file over the registry. Firms ship
// overrides next to the deploy config; a missing file is not an error.
func (r *Registry) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	var file struct {
		DocumentTypes []DocumentType `yaml:"document_types"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse schema file: %w", err)
	}
	for _, t := range file.DocumentTypes {
		if t.Key == "" {
			return fmt.Errorf("schema file entry missing key")
		}
		r.types[t.Key] = t
	}
	return nil
}
