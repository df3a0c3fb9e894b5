package docx

import (
	"fmt"
	"sort"
	"strings"
)

// document is a span-indexed view of one WordprocessingML part. Paragraph
// and run positions are byte offsets into the raw XML, so rewrites touch
// only the text of changed runs and leave every other byte alone.
type document struct {
	xml   string
	paras []*paragraph
}

type paragraph struct {
	start, end int // span of <w:p>...</w:p> including tags
	removed    bool
	runs       []*runText
}

// runText is the <w:t> element of one formatting run. Runs without a text
// element carry no substitutable text and are not tracked.
type runText struct {
	openStart int    // offset of "<w:t"
	closeEnd  int    // offset just past "</w:t>" (or "/>" when self-closing)
	attrs     string // raw attribute text of the <w:t> tag
	selfClose bool
	orig      string // text as parsed
	text      string // working text
}

// findTag locates the next opening tag with the exact given name, starting
// at from. Name boundaries matter: "<w:p" must not match "<w:pPr".
func findTag(xml, name string, from, to int) int {
	for {
		idx := strings.Index(xml[from:to], "<"+name)
		if idx == -1 {
			return -1
		}
		pos := from + idx
		next := pos + len(name) + 1
		if next < to {
			switch xml[next] {
			case '>', ' ', '/', '\t', '\r', '\n':
				return pos
			}
		}
		from = pos + 1
	}
}

func parseDocument(xml string) (*document, error) {
	doc := &document{xml: xml}

	idx := 0
	for {
		pStart := findTag(xml, "w:p", idx, len(xml))
		if pStart == -1 {
			break
		}
		closeIdx := strings.Index(xml[pStart:], "</w:p>")
		if closeIdx == -1 {
			return nil, fmt.Errorf("unterminated w:p at offset %d", pStart)
		}
		pEnd := pStart + closeIdx + len("</w:p>")

		para := &paragraph{start: pStart, end: pEnd}
		if err := para.parseRuns(xml, pStart, pEnd); err != nil {
			return nil, err
		}
		doc.paras = append(doc.paras, para)
		idx = pEnd
	}

	return doc, nil
}

func (p *paragraph) parseRuns(xml string, from, to int) error {
	idx := from
	for {
		rStart := findTag(xml, "w:r", idx, to)
		if rStart == -1 {
			break
		}
		closeIdx := strings.Index(xml[rStart:to], "</w:r>")
		if closeIdx == -1 {
			return fmt.Errorf("unterminated w:r at offset %d", rStart)
		}
		rEnd := rStart + closeIdx + len("</w:r>")

		if rt, ok := parseRunText(xml, rStart, rEnd); ok {
			p.runs = append(p.runs, rt)
		}
		idx = rEnd
	}
	return nil
}

func parseRunText(xml string, from, to int) (*runText, bool) {
	tStart := findTag(xml, "w:t", from, to)
	if tStart == -1 {
		return nil, false
	}
	tagEnd := strings.IndexByte(xml[tStart:to], '>')
	if tagEnd == -1 {
		return nil, false
	}
	tagEnd += tStart

	if xml[tagEnd-1] == '/' {
		return &runText{
			openStart: tStart,
			closeEnd:  tagEnd + 1,
			attrs:     xml[tStart+len("<w:t") : tagEnd-1],
			selfClose: true,
		}, true
	}

	textStart := tagEnd + 1
	closeIdx := strings.Index(xml[textStart:to], "</w:t>")
	if closeIdx == -1 {
		return nil, false
	}
	text := unescapeXML(xml[textStart : textStart+closeIdx])
	return &runText{
		openStart: tStart,
		closeEnd:  textStart + closeIdx + len("</w:t>"),
		attrs:     xml[tStart+len("<w:t") : tagEnd],
		orig:      text,
		text:      text,
	}, true
}

// text returns the paragraph's working text: the concatenation of its run
// texts. Byte offsets into this string are what replaceSpan consumes.
func (p *paragraph) text() string {
	var sb strings.Builder
	for _, r := range p.runs {
		sb.WriteString(r.text)
	}
	return sb.String()
}

// replaceSpan rewrites the byte span [s,e) of the paragraph text with repl.
// The first run the span touches keeps its formatting and receives the
// replacement; trailing covered segments are removed from their own runs so
// surrounding text never migrates between formatting runs.
func (p *paragraph) replaceSpan(s, e int, repl string) {
	if s == e {
		p.insert(s, repl)
		return
	}
	off := 0
	placed := false
	for _, r := range p.runs {
		n := len(r.text)
		start, end := off, off+n
		off = end
		if end <= s || start >= e {
			continue
		}
		ls := 0
		if s > start {
			ls = s - start
		}
		le := n
		if e < end {
			le = e - start
		}
		if !placed {
			r.text = r.text[:ls] + repl + r.text[le:]
			placed = true
		} else {
			r.text = r.text[:ls] + r.text[le:]
		}
	}
}

// insert places text at byte position pos of the paragraph text. A position
// on a run boundary goes to the earlier run, so an inserted value inherits
// the formatting of the text it follows.
func (p *paragraph) insert(pos int, text string) {
	off := 0
	for _, r := range p.runs {
		n := len(r.text)
		if pos <= off+n {
			at := pos - off
			if at < 0 {
				at = 0
			}
			r.text = r.text[:at] + text + r.text[at:]
			return
		}
		off += n
	}
	if len(p.runs) > 0 {
		p.runs[len(p.runs)-1].text += text
	}
}

// edits emits one XML edit per changed run, plus a whole-paragraph edit
// when the paragraph was removed.
func (p *paragraph) edits() []edit {
	if p.removed {
		return []edit{{start: p.start, end: p.end}}
	}
	var out []edit
	for _, r := range p.runs {
		if r.text == r.orig {
			continue
		}
		out = append(out, edit{start: r.openStart, end: r.closeEnd, repl: r.render()})
	}
	return out
}

// render rebuilds the <w:t> element for a changed run. xml:space="preserve"
// is added when the new text has significant leading or trailing whitespace,
// otherwise Word collapses it on load.
func (r *runText) render() string {
	attrs := r.attrs
	if needsSpacePreserve(r.text) && !strings.Contains(attrs, "xml:space") {
		attrs += ` xml:space="preserve"`
	}
	return "<w:t" + attrs + ">" + escapeXML(r.text) + "</w:t>"
}

func needsSpacePreserve(text string) bool {
	return text != strings.TrimSpace(text)
}

type edit struct {
	start, end int
	repl       string
}

// applyEdits rewrites the XML with all collected edits. Edits are disjoint
// by construction (one per run or per removed paragraph).
func applyEdits(xml string, edits []edit) string {
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	for _, e := range edits {
		xml = xml[:e.start] + e.repl + xml[e.end:]
	}
	return xml
}
