package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidPackage is returned when bytes are not a readable document package.
var ErrInvalidPackage = errors.New("invalid document package")

// Package is an in-memory OOXML document package: an ordered list of zip
// parts. Part order and non-text parts are preserved byte for byte across
// a read/modify/write cycle.
type Package struct {
	parts []Part
}

type Part struct {
	Name string
	Data []byte
}

const documentPart = "word/document.xml"

// OpenPackage reads a .docx byte slice into a Package. It fails if the
// bytes are not a zip archive or the main document part is missing.
func OpenPackage(raw []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackage, err)
	}

	pkg := &Package{}
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %v", ErrInvalidPackage, file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidPackage, file.Name, err)
		}
		pkg.parts = append(pkg.parts, Part{Name: file.Name, Data: data})
	}

	if _, ok := pkg.Part(documentPart); !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPackage, documentPart)
	}
	return pkg, nil
}

// Part returns the raw data of the named part.
func (p *Package) Part(name string) ([]byte, bool) {
	for _, part := range p.parts {
		if part.Name == name {
			return part.Data, true
		}
	}
	return nil, false
}

// SetPart replaces the data of an existing part. Unknown names are ignored;
// substitution never adds or removes parts.
func (p *Package) SetPart(name string, data []byte) {
	for i := range p.parts {
		if p.parts[i].Name == name {
			p.parts[i].Data = data
			return
		}
	}
}

// PartNames returns all part names in archive order.
func (p *Package) PartNames() []string {
	names := make([]string, 0, len(p.parts))
	for _, part := range p.parts {
		names = append(names, part.Name)
	}
	return names
}

// TextPartNames returns the parts that carry substitutable text: the main
// document plus headers and footers.
func (p *Package) TextPartNames() []string {
	var names []string
	for _, part := range p.parts {
		if part.Name == documentPart ||
			(strings.HasPrefix(part.Name, "word/header") && strings.HasSuffix(part.Name, ".xml")) ||
			(strings.HasPrefix(part.Name, "word/footer") && strings.HasSuffix(part.Name, ".xml")) {
			names = append(names, part.Name)
		}
	}
	return names
}

// Bytes re-zips the package, keeping the original part order.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for _, part := range p.parts {
		w, err := writer.Create(part.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", part.Name, err)
		}
		if _, err := w.Write(part.Data); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", part.Name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize package: %w", err)
	}
	return buf.Bytes(), nil
}
