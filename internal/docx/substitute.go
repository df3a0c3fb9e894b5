package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
)

// tokenPattern matches {{variable_name}} placeholders. Legacy spacing and
// casing ({{ County }}, {{VAR}}) still match so they can be normalized at
// import time; substitution keys are always lower_snake.
var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z][A-Za-z0-9_ ]*?)\s*\}\}`)

var bracketPattern = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9_]*)\]`)

// LabelRule inserts a value after a fixed label in the document text
// (e.g. `Case No.:`), for templates that predate placeholder tagging.
// Matching uses the full paragraph text because label and trailing blank
// may span formatting runs.
type LabelRule struct {
	Label string
	Value string
}

// Substitution describes one generation pass over a package copy.
// Tokens whose name is absent from Values are left in place, which is how
// draft mode and unknown placeholders stay visible in the output.
type Substitution struct {
	Values           map[string]string
	UppercaseCaption map[string]bool // names forced uppercase in caption context
	RemoveIfMissing  map[string]bool // skip-if-absent names: drop the containing paragraph
	Labels           []LabelRule
}

// Substitute rewrites all text parts of pkg in place. The caller passes a
// transient copy; stored template bytes are never touched.
func Substitute(pkg *Package, sub Substitution) error {
	labelsDone := make(map[string]bool)

	for _, name := range pkg.TextPartNames() {
		data, _ := pkg.Part(name)
		doc, err := parseDocument(string(data))
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}

		var edits []edit
		for _, para := range doc.paras {
			substituteParagraph(para, sub)
			if !para.removed {
				applyLabels(para, sub.Labels, labelsDone)
			}
			edits = append(edits, para.edits()...)
		}

		if len(edits) > 0 {
			pkg.SetPart(name, []byte(applyEdits(doc.xml, edits)))
		}
	}
	return nil
}

func substituteParagraph(para *paragraph, sub Substitution) {
	text := para.text()
	if !strings.Contains(text, "{{") {
		return
	}

	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	if len(sub.RemoveIfMissing) > 0 {
		for _, m := range matches {
			if sub.RemoveIfMissing[normalizeName(text[m[2]:m[3]])] {
				para.removed = true
				return
			}
		}
	}

	// Right to left so earlier byte offsets stay valid. Tokens inside one
	// run and tokens split across runs take the same path: replaceSpan
	// keeps the first touched run's formatting and empties the covered
	// tail segments.
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		name := normalizeName(text[m[2]:m[3]])
		value, ok := sub.Values[name]
		if !ok {
			continue
		}
		if sub.UppercaseCaption[name] && uppercaseContext(text, m[0], m[1]) {
			value = strings.ToUpper(value)
		}
		para.replaceSpan(m[0], m[1], value)
	}
}

func applyLabels(para *paragraph, labels []LabelRule, done map[string]bool) {
	if len(labels) == 0 {
		return
	}
	for _, rule := range labels {
		if done[rule.Label] || rule.Value == "" {
			continue
		}
		text := para.text()
		idx := strings.Index(text, rule.Label)
		if idx == -1 {
			continue
		}
		pos := idx + len(rule.Label)
		value := rule.Value
		if pos < len(text) && text[pos] == ' ' {
			pos++
		} else {
			value = " " + value
		}
		para.insert(pos, value)
		done[rule.Label] = true
	}
}

// uppercaseContext reports whether the paragraph text around the token span
// [s,e) is an all-caps region, such as a court caption. The window is 40
// runes each side; fewer than 4 alphabetic runes is not enough context.
func uppercaseContext(text string, s, e int) bool {
	before := []rune(text[:s])
	if len(before) > 40 {
		before = before[len(before)-40:]
	}
	after := []rune(text[e:])
	if len(after) > 40 {
		after = after[:40]
	}

	alpha := 0
	for _, r := range append(before, after...) {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			alpha++
		}
	}
	return alpha >= 4
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ScanPlaceholders returns the unique placeholder names in document order.
// Paragraph text is scanned as a whole, so tokens split across formatting
// runs are still detected.
func ScanPlaceholders(pkg *Package) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	for _, partName := range pkg.TextPartNames() {
		data, _ := pkg.Part(partName)
		doc, err := parseDocument(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", partName, err)
		}
		for _, para := range doc.paras {
			for _, m := range tokenPattern.FindAllStringSubmatch(para.text(), -1) {
				name := normalizeName(m[1])
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
	}
	return names, nil
}

// NormalizePlaceholders rewrites legacy placeholder forms ({{VAR}},
// {{ Spaced Name }}, [var]) to canonical {{lower_snake}} tokens. This runs
// at import time only; substitution assumes canonical tokens.
func NormalizePlaceholders(pkg *Package) (bool, error) {
	changed := false

	for _, partName := range pkg.TextPartNames() {
		data, _ := pkg.Part(partName)
		doc, err := parseDocument(string(data))
		if err != nil {
			return changed, fmt.Errorf("failed to parse %s: %w", partName, err)
		}

		var edits []edit
		for _, para := range doc.paras {
			normalizeParagraph(para)
			edits = append(edits, para.edits()...)
		}
		if len(edits) > 0 {
			changed = true
			pkg.SetPart(partName, []byte(applyEdits(doc.xml, edits)))
		}
	}
	return changed, nil
}

func normalizeParagraph(para *paragraph) {
	text := para.text()

	matches := tokenPattern.FindAllStringSubmatchIndex(text, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		canonical := "{{" + normalizeName(text[m[2]:m[3]]) + "}}"
		if text[m[0]:m[1]] != canonical {
			para.replaceSpan(m[0], m[1], canonical)
		}
	}

	text = para.text()
	brackets := bracketPattern.FindAllStringSubmatchIndex(text, -1)
	for i := len(brackets) - 1; i >= 0; i-- {
		m := brackets[i]
		para.replaceSpan(m[0], m[1], "{{"+normalizeName(text[m[2]:m[3]])+"}}")
	}
}

// ExtractText returns the plain text of all text parts, one line per
// paragraph. Used for searchable-text building and test assertions.
func ExtractText(pkg *Package) (string, error) {
	var sb strings.Builder
	for _, partName := range pkg.TextPartNames() {
		data, _ := pkg.Part(partName)
		doc, err := parseDocument(string(data))
		if err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", partName, err)
		}
		for _, para := range doc.paras {
			sb.WriteString(para.text())
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

// ValidatePackage checks that every text part is still well-formed XML with
// an intact paragraph/run structure. A failure after substitution means the
// engine corrupted the document and generation must abort.
func ValidatePackage(pkg *Package) error {
	for _, partName := range pkg.TextPartNames() {
		data, _ := pkg.Part(partName)
		if _, err := parseDocument(string(data)); err != nil {
			return fmt.Errorf("part %s: %w", partName, err)
		}
		decoder := xml.NewDecoder(bytes.NewReader(data))
		for {
			_, err := decoder.Token()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("part %s is not well-formed: %w", partName, err)
			}
		}
	}
	return nil
}
