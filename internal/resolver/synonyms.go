package resolver

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// stopWords are filler tokens stripped from queries before matching.
// "motion" and "notice" are deliberately absent: they carry signal.
var stopWords = map[string]bool{
	"i": true, "me": true, "my": true, "need": true, "want": true,
	"looking": true, "for": true, "please": true, "the": true, "a": true,
	"an": true, "to": true, "of": true, "in": true, "is": true, "it": true,
	"can": true, "you": true, "do": true, "get": true, "make": true,
	"create": true, "give": true, "find": true, "show": true, "help": true,
	"with": true, "this": true, "that": true,
}

// defaultSynonyms maps practitioner shorthand to canonical phrasing.
// Keys are matched as whole phrases against the lowercased query, longest
// first, and expansions are added alongside the original tokens so a query
// that already uses canonical terms never loses rank.
var defaultSynonyms = map[string]string{
	"assignment of cash bond": "bond assignment",
	"cash bond":               "bond assignment",
	"nolle pros":              "nolle prosequi",
	"nol pros":                "nolle prosequi",
	"mtd":                     "motion to dismiss",
	"mtc":                     "motion to continue",
	"eoa":                     "entry of appearance",
	"noh":                     "notice of hearing",
	"rogs":                    "interrogatories",
	"rog":                     "interrogatories",
	"rfp":                     "request for production",
	"rfa":                     "request for admission",
	"dor":                     "director of revenue",
}

// SynonymTable expands abbreviations and alternate phrasings in queries.
type SynonymTable struct {
	phrases map[string]string
	ordered []string // keys longest first, for greedy phrase matching
}

func NewSynonymTable() *SynonymTable {
	t := &SynonymTable{phrases: make(map[string]string)}
	for k, v := range defaultSynonyms {
		t.phrases[k] = v
	}
	t.reorder()
	return t
}

// LoadFile merges firm-specific synonyms from a YAML file. Entries override
// built-ins on key collision. A missing file is not an error.
func (t *SynonymTable) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read synonym file: %w", err)
	}

	var file struct {
		Synonyms map[string]string `yaml:"synonyms"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse synonym file: %w", err)
	}
	for k, v := range file.Synonyms {
		t.phrases[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}
	t.reorder()
	return nil
}

func (t *SynonymTable) reorder() {
	t.ordered = t.ordered[:0]
	for k := range t.phrases {
		t.ordered = append(t.ordered, k)
	}
	// Longest key first so "assignment of cash bond" wins over "cash bond".
	for i := 1; i < len(t.ordered); i++ {
		for j := i; j > 0 && len(t.ordered[j]) > len(t.ordered[j-1]); j-- {
			t.ordered[j], t.ordered[j-1] = t.ordered[j-1], t.ordered[j]
		}
	}
}

// Expand returns the lowercased query plus the expansion of every synonym
// phrase it contains. The original text is always kept.
func (t *SynonymTable) Expand(query string) string {
	lower := strings.ToLower(query)
	var extra []string
	matched := lower
	for _, phrase := range t.ordered {
		if containsPhrase(matched, phrase) {
			extra = append(extra, t.phrases[phrase])
			// Blank out the matched phrase so its substrings ("rog" inside
			// "rogs") do not fire again.
			matched = strings.ReplaceAll(matched, phrase, " ")
		}
	}
	if len(extra) == 0 {
		return lower
	}
	return lower + " " + strings.Join(extra, " ")
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
func containsPhrase(text, phrase string) bool {
	for from := 0; ; {
		idx := strings.Index(text[from:], phrase)
		if idx == -1 {
			return false
		}
		start := from + idx
		end := start + len(phrase)
		beforeOK := start == 0 || !isWordByte(text[start-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		from = start + 1
	}
}

func isWordByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_'
}
