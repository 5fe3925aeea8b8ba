package classifier

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"regexp"
	"strings"
)

// score awards independent SQL and NoSQL points from a weighted table of
// structural signals (header shape, nesting depth, nodes-per-record)
// and returns one human-readable reason per signal awarded, in the order
// they were evaluated.
func score(ext string, content []byte) (sql int, nosql int, reasons []string) {
	add := func(toSQL bool, pts int, why string) {
		if pts == 0 {
			return
		}
		if toSQL {
			sql += pts
		} else {
			nosql += pts
		}
		reasons = append(reasons, why)
	}

	switch ext {
	case ".csv":
		rows := parseCSV(content)
		add(true, 5, "tabular format (csv)")
		if consistentCSVShape(rows) {
			add(true, 2, "schema looks consistent across records")
		}
		if hasIDColumn(rows) {
			add(true, 1, "fields named *_id")
		}
		return
	case ".xlsx":
		add(true, 5, "tabular format (xlsx)")
		return
	}

	if ext == ".json" {
		var v any
		if err := json.Unmarshal(content, &v); err == nil {
			scoreJSON(v, add)
			return
		}
	}

	if ext == ".xml" {
		scoreXML(content, add)
		return
	}

	if ext == ".html" {
		scoreHTML(content, add)
		return
	}

	// .txt .md .log, and the native body of PDF/DOCX once extracted to text.
	if ext == ".txt" || ext == ".md" || ext == ".log" || ext == ".pdf" || ext == ".docx" {
		add(false, 3, "pure text body")
		if hasLargeFreeTextField(string(content)) {
			add(false, 2, "large free-text field")
		}
		return
	}

	// Anything else (yaml, ini, cfg, conf, unknown): treated as loosely
	// structured text; only the free-text-length signal applies.
	if hasLargeFreeTextField(string(content)) {
		add(false, 2, "large free-text field")
	}
	return
}

func parseCSV(content []byte) [][]string {
	r := csv.NewReader(strings.NewReader(string(content)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil
	}
	return rows
}

func consistentCSVShape(rows [][]string) bool {
	if len(rows) < 2 {
		return true
	}
	n := len(rows[0])
	for _, row := range rows[1:] {
		if len(row) != n {
			return false
		}
	}
	return true
}

var idColRe = regexp.MustCompile(`(?i)_id$`)

func hasIDColumn(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	for _, h := range rows[0] {
		if idColRe.MatchString(strings.TrimSpace(h)) {
			return true
		}
	}
	return false
}

func scoreJSON(v any, add func(toSQL bool, pts int, why string)) {
	switch root := v.(type) {
	case []any:
		if len(root) == 0 {
			add(true, 4, "flat json (empty array)")
			return
		}
		flatShapes := map[string]bool{}
		allFlat := true
		allPrimitiveHeavy := true
		hasIDField := false
		for _, el := range root {
			m, ok := el.(map[string]any)
			if !ok {
				allFlat = false
				continue
			}
			keys := sortedKeys(m)
			flatShapes[strings.Join(keys, ",")] = true
			for k, fv := range m {
				if strings.HasSuffix(strings.ToLower(k), "_id") {
					hasIDField = true
				}
				if isNestedValue(fv) {
					allFlat = false
				}
				if !isPrimitive(fv) {
					allPrimitiveHeavy = false
				}
			}
		}
		if allFlat {
			add(true, 4, "flat json (no nested object/array values)")
		}
		if len(flatShapes) == 1 {
			add(true, 4, "json array whose elements share identical key sets")
			add(true, 2, "schema looks consistent across records")
		} else if len(flatShapes) > 1 {
			add(false, 3, "json array with inconsistent element shapes")
			add(false, 2, "keys vary per record")
		}
		if allPrimitiveHeavy {
			add(true, 1, "mostly primitive fields")
		}
		if hasIDField {
			add(true, 1, "fields named *_id")
		}
		if hasLargeFreeTextField(jsonStrings(root)) {
			add(false, 2, "large free-text field")
		}
	case map[string]any:
		nested := false
		for _, fv := range root {
			if isNestedValue(fv) {
				nested = true
				break
			}
		}
		if nested {
			add(false, 4, "json with nested objects")
		} else {
			add(true, 4, "flat json (no nested object/array values)")
		}
		if hasLargeFreeTextField(jsonStrings(root)) {
			add(false, 2, "large free-text field")
		}
	}
}

func isNestedValue(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	default:
		return false
	}
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case string, float64, bool, nil:
		return true
	default:
		return false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func jsonStrings(v any) string {
	var b strings.Builder
	var walk func(any)
	walk = func(x any) {
		switch t := x.(type) {
		case string:
			b.WriteString(t)
			b.WriteByte(' ')
		case map[string]any:
			for _, fv := range t {
				walk(fv)
			}
		case []any:
			for _, el := range t {
				walk(el)
			}
		}
	}
	walk(v)
	return b.String()
}

// xmlNode is a minimal generic tree used only to measure nesting depth
// and sibling-shape repetition; we do not need a typed schema here.
type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Content string     `xml:",chardata"`
	Nodes   []xmlNode  `xml:",any"`
}

func scoreXML(content []byte, add func(toSQL bool, pts int, why string)) {
	var root xmlNode
	if err := xml.Unmarshal(content, &root); err != nil {
		add(false, 3, "pure text body (unparseable xml)")
		return
	}
	depth := xmlDepth(root)
	if depth > 2 {
		add(false, 3, "xml depth > 2")
	}
	if xmlHasRepeatingShape(root) {
		add(true, 3, "xml with repeating same-shape records")
	}
	if hasLargeFreeTextField(xmlText(root)) {
		add(false, 2, "large free-text field")
	}
}

func xmlDepth(n xmlNode) int {
	if len(n.Nodes) == 0 {
		return 1
	}
	max := 0
	for _, c := range n.Nodes {
		if d := xmlDepth(c); d > max {
			max = d
		}
	}
	return 1 + max
}

func xmlHasRepeatingShape(n xmlNode) bool {
	if len(n.Nodes) < 2 {
		return false
	}
	shapes := map[string]bool{}
	for _, c := range n.Nodes {
		shapes[c.XMLName.Local] = true
	}
	return len(shapes) == 1
}

func xmlText(n xmlNode) string {
	var b strings.Builder
	b.WriteString(n.Content)
	for _, c := range n.Nodes {
		b.WriteString(xmlText(c))
	}
	return b.String()
}

var tableRe = regexp.MustCompile(`(?is)<table[\s>]`)

func scoreHTML(content []byte, add func(toSQL bool, pts int, why string)) {
	s := string(content)
	if tableRe.MatchString(s) {
		add(true, 3, "well-formed html <table>")
	} else {
		add(false, 1, "html without tables")
	}
	if hasLargeFreeTextField(s) {
		add(false, 2, "large free-text field")
	}
}

// hasLargeFreeTextField reports whether s as a whole, after collapsing
// whitespace, is at least 200 characters long. Callers pass the
// concatenation of all of a document's string values (JSON, XML) or its
// whole body, so this measures total free text; the length of any single
// field is not checked on its own.
func hasLargeFreeTextField(s string) bool {
	fields := strings.Fields(s)
	run := 0
	best := 0
	for _, f := range fields {
		run += len(f) + 1
		if run > best {
			best = run
		}
	}
	return best >= 200 || len(strings.TrimSpace(s)) >= 200
}
