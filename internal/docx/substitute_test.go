package docx

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="xml" ContentType="application/xml"/></Types>`

func runXML(text string) string {
	return `<w:r><w:rPr><w:b/></w:rPr><w:t>` + text + `</w:t></w:r>`
}

func paraXML(runs ...string) string {
	return `<w:p><w:pPr><w:jc w:val="center"/></w:pPr>` + strings.Join(runs, "") + `</w:p>`
}

func docXML(paras ...string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` + strings.Join(paras, "") + `</w:body></w:document>`
}

func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	names := []string{"[Content_Types].xml", "word/document.xml", "word/header1.xml", "word/footer1.xml", "word/styles.xml"}
	for _, name := range names {
		data, ok := parts[name]
		if !ok {
			continue
		}
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func simpleDocx(t *testing.T, paras ...string) []byte {
	return buildDocx(t, map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"word/document.xml":   docXML(paras...),
	})
}

func documentText(t *testing.T, pkg *Package) string {
	t.Helper()
	text, err := ExtractText(pkg)
	require.NoError(t, err)
	return text
}

func TestSubstituteSingleRun(t *testing.T) {
	raw := simpleDocx(t,
		paraXML(runXML(`Defendant: {{defendant_name}}`)),
		paraXML(runXML(`Untouched paragraph`)),
	)
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{Values: map[string]string{"defendant_name": "John Doe"}})
	require.NoError(t, err)

	text := documentText(t, pkg)
	assert.Contains(t, text, "Defendant: John Doe")
	assert.NotContains(t, text, "{{")
}

func TestSubstituteLeavesUntouchedBytesIdentical(t *testing.T) {
	keep := paraXML(runXML(`This paragraph stays exactly as is.`))
	raw := simpleDocx(t,
		paraXML(runXML(`Name: {{defendant_name}}`)),
		keep,
	)
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	before, _ := pkg.Part("word/document.xml")
	beforeStr := string(before)
	err = Substitute(pkg, Substitution{Values: map[string]string{"defendant_name": "Jane Roe"}})
	require.NoError(t, err)

	after, _ := pkg.Part("word/document.xml")
	assert.Contains(t, string(after), keep)
	// Everything before the changed run is byte-identical.
	prefixEnd := strings.Index(beforeStr, "<w:t")
	assert.Equal(t, beforeStr[:prefixEnd], string(after)[:prefixEnd])
}

func TestSubstitutePartWithoutTokensNotRewritten(t *testing.T) {
	styles := `<w:styles xmlns:w="x"><w:style/></w:styles>`
	raw := buildDocx(t, map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"word/document.xml":   docXML(paraXML(runXML(`{{county}}`))),
		"word/styles.xml":     styles,
	})
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{Values: map[string]string{"county": "Cole"}})
	require.NoError(t, err)

	data, _ := pkg.Part("word/styles.xml")
	assert.Equal(t, styles, string(data))
}

func TestSubstituteCrossRunToken(t *testing.T) {
	raw := simpleDocx(t, paraXML(
		runXML(`Dear {{de`),
		runXML(`fendant_na`),
		runXML(`me}},`),
	))
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{Values: map[string]string{"defendant_name": "John Doe"}})
	require.NoError(t, err)

	text := documentText(t, pkg)
	assert.Contains(t, text, "Dear John Doe,")
	assert.NotContains(t, text, "{{")

	// The value lands in the first touched run; later runs keep only their
	// uncovered tails.
	data, _ := pkg.Part("word/document.xml")
	assert.Contains(t, string(data), ">Dear John Doe<")
}

func TestSubstituteUppercaseInCaption(t *testing.T) {
	raw := simpleDocx(t,
		paraXML(runXML(`IN THE CIRCUIT COURT OF {{county}} COUNTY, MISSOURI`)),
		paraXML(runXML(`Venue is proper in {{county}} County.`)),
	)
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{
		Values:           map[string]string{"county": "Jefferson"},
		UppercaseCaption: map[string]bool{"county": true},
	})
	require.NoError(t, err)

	text := documentText(t, pkg)
	assert.Contains(t, text, "IN THE CIRCUIT COURT OF JEFFERSON COUNTY, MISSOURI")
	assert.Contains(t, text, "Venue is proper in Jefferson County.")
}

func TestSubstituteDraftLeavesUnfilledTokens(t *testing.T) {
	raw := simpleDocx(t, paraXML(runXML(`{{defendant_name}} / {{case_number}}`)))
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{Values: map[string]string{"defendant_name": "John Doe"}})
	require.NoError(t, err)

	text := documentText(t, pkg)
	assert.Contains(t, text, "John Doe / {{case_number}}")
}

func TestSubstituteLabelAnchor(t *testing.T) {
	raw := simpleDocx(t,
		paraXML(runXML(`Case No.:`)),
		paraXML(runXML(`Case No.: also here`)),
	)
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{
		Labels: []LabelRule{{Label: "Case No.:", Value: "25JE-CR00123"}},
	})
	require.NoError(t, err)

	text := documentText(t, pkg)
	assert.Contains(t, text, "Case No.: 25JE-CR00123")
	// Only the first occurrence is filled.
	assert.Contains(t, text, "Case No.: also here")
	assert.Equal(t, 1, strings.Count(text, "25JE-CR00123"))
}

func TestSubstituteLabelAnchorKeepsExistingSpace(t *testing.T) {
	raw := simpleDocx(t, paraXML(runXML(`Case No.: `), runXML(`_______`)))
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{
		Labels: []LabelRule{{Label: "Case No.:", Value: "25JE-CR00123"}},
	})
	require.NoError(t, err)

	text := documentText(t, pkg)
	assert.Contains(t, text, "Case No.: 25JE-CR00123")
	assert.NotContains(t, text, "Case No.:  25JE")
}

func TestSubstituteSkipIfAbsentRemovesParagraph(t *testing.T) {
	raw := simpleDocx(t,
		paraXML(runXML(`Defendant: {{defendant_name}}`)),
		paraXML(runXML(`Available dates: {{available_dates}}`)),
	)
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{
		Values:          map[string]string{"defendant_name": "John Doe"},
		RemoveIfMissing: map[string]bool{"available_dates": true},
	})
	require.NoError(t, err)

	text := documentText(t, pkg)
	assert.Contains(t, text, "Defendant: John Doe")
	assert.NotContains(t, text, "Available dates")
	require.NoError(t, ValidatePackage(pkg))
}

func TestSubstituteEscapesSpecialCharacters(t *testing.T) {
	raw := simpleDocx(t, paraXML(runXML(`Firm: {{firm_name}}`)))
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{Values: map[string]string{"firm_name": "Smith & Jones <LLC>"}})
	require.NoError(t, err)

	data, _ := pkg.Part("word/document.xml")
	assert.Contains(t, string(data), "Smith &amp; Jones &lt;LLC&gt;")
	require.NoError(t, ValidatePackage(pkg))
}

func TestSubstituteHeaderAndFooter(t *testing.T) {
	raw := buildDocx(t, map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"word/document.xml":   docXML(paraXML(runXML(`Body {{case_number}}`))),
		"word/header1.xml":    docXML(paraXML(runXML(`Header {{case_number}}`))),
		"word/footer1.xml":    docXML(paraXML(runXML(`Footer {{case_number}}`))),
	})
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	err = Substitute(pkg, Substitution{Values: map[string]string{"case_number": "25CR-1"}})
	require.NoError(t, err)

	for _, part := range []string{"word/document.xml", "word/header1.xml", "word/footer1.xml"} {
		data, _ := pkg.Part(part)
		assert.Contains(t, string(data), "25CR-1", part)
		assert.NotContains(t, string(data), "{{", part)
	}
}

func TestScanPlaceholdersCrossRun(t *testing.T) {
	raw := simpleDocx(t,
		paraXML(runXML(`{{defendant_name}} and {{case_number}}`)),
		paraXML(runXML(`{{coun`), runXML(`ty}}`)),
		paraXML(runXML(`{{defendant_name}} again`)),
	)
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	names, err := ScanPlaceholders(pkg)
	require.NoError(t, err)
	assert.Equal(t, []string{"defendant_name", "case_number", "county"}, names)
}

func TestNormalizePlaceholders(t *testing.T) {
	raw := simpleDocx(t,
		paraXML(runXML(`{{ Defendant Name }} / {{COUNTY}}`)),
		paraXML(runXML(`[case_number]`)),
		paraXML(runXML(`{{already_canonical}}`)),
	)
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	changed, err := NormalizePlaceholders(pkg)
	require.NoError(t, err)
	assert.True(t, changed)

	text := documentText(t, pkg)
	assert.Contains(t, text, "{{defendant_name}} / {{county}}")
	assert.Contains(t, text, "{{case_number}}")
	assert.Contains(t, text, "{{already_canonical}}")

	changed, err = NormalizePlaceholders(pkg)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestOpenPackageRejectsGarbage(t *testing.T) {
	_, err := OpenPackage([]byte("not a zip archive"))
	assert.ErrorIs(t, err, ErrInvalidPackage)
}

func TestOpenPackageRequiresDocumentPart(t *testing.T) {
	raw := buildDocx(t, map[string]string{"[Content_Types].xml": contentTypesXML})
	_, err := OpenPackage(raw)
	assert.ErrorIs(t, err, ErrInvalidPackage)
}

func TestValidatePackageDetectsBrokenXML(t *testing.T) {
	raw := simpleDocx(t, paraXML(runXML(`fine`)))
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	pkg.SetPart("word/document.xml", []byte(`<w:document><w:body><w:p><w:r><w:t>oops`))
	assert.Error(t, ValidatePackage(pkg))
}

func TestBytesRoundTripPreservesParts(t *testing.T) {
	raw := buildDocx(t, map[string]string{
		"[Content_Types].xml": contentTypesXML,
		"word/document.xml":   docXML(paraXML(runXML(`hello`))),
		"word/styles.xml":     `<w:styles/>`,
	})
	pkg, err := OpenPackage(raw)
	require.NoError(t, err)

	rebuilt, err := pkg.Bytes()
	require.NoError(t, err)

	pkg2, err := OpenPackage(rebuilt)
	require.NoError(t, err)
	assert.Equal(t, pkg.PartNames(), pkg2.PartNames())
	for _, name := range pkg.PartNames() {
		a, _ := pkg.Part(name)
		b, _ := pkg2.Part(name)
		assert.Equal(t, a, b, name)
	}
}

func TestUppercaseContextNeedsEnoughLetters(t *testing.T) {
	assert.True(t, uppercaseContext("IN THE CIRCUIT COURT OF {{county}} COUNTY", 24, 34))
	assert.False(t, uppercaseContext("of {{county}} County, Missouri", 3, 13))
	// Too little surrounding text to call it a caption.
	assert.False(t, uppercaseContext("A {{county}}", 2, 12))
}
