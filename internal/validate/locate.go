package validate

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var yamlLineRE = regexp.MustCompile(`^(?:yaml: )?line (\d+): (.*)$`)

// syntaxMarkers converts a yaml.v3 parse or decode error into markers.
func syntaxMarkers(err error) []Marker {
	var msgs []string
	if te, ok := err.(*yaml.TypeError); ok {
		msgs = te.Errors
	} else {
		msgs = []string{err.Error()}
	}

	markers := make([]Marker, 0, len(msgs))
	for _, msg := range msgs {
		m := Marker{Line: 1, Message: strings.TrimPrefix(msg, "yaml: "), Severity: SeverityError, Source: "yaml"}
		if sub := yamlLineRE.FindStringSubmatch(strings.TrimSpace(msg)); sub != nil {
			if n, convErr := strconv.Atoi(sub[1]); convErr == nil {
				m.Line = n
			}
			m.Message = sub[2]
		}
		markers = append(markers, m)
	}
	return markers
}

// locate returns the position of the node addressed by a JSON pointer.
// It stops at the deepest node that exists, so a pointer to a missing key
// resolves to its parent.
func locate(doc *yaml.Node, pointer string) (line, col int) {
	n := doc
	if n != nil && n.Kind == yaml.DocumentNode {
		if len(n.Content) == 0 {
			return 1, 0
		}
		n = n.Content[0]
	}
	if n == nil || n.Kind == 0 {
		return 1, 0
	}

	pos := n
	for _, tok := range splitPointer(pointer) {
		for n.Kind == yaml.AliasNode && n.Alias != nil {
			n = n.Alias
		}
		var next *yaml.Node
		switch n.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				if n.Content[i].Value == tok {
					pos = n.Content[i]
					next = n.Content[i+1]
					break
				}
			}
		case yaml.SequenceNode:
			if idx, err := strconv.Atoi(tok); err == nil && idx >= 0 && idx < len(n.Content) {
				next = n.Content[idx]
				pos = next
			}
		}
		if next == nil {
			break
		}
		n = next
	}

	if pos.Line == 0 {
		return 1, 0
	}
	return pos.Line, max(pos.Column-1, 0)
}

func splitPointer(pointer string) []string {
	pointer = strings.TrimPrefix(pointer, "/")
	if pointer == "" {
		return nil
	}
	parts := strings.Split(pointer, "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return parts
}

// normalize converts decoded YAML into the JSON value model the schema
// validator expects. Non-finite floats are left as they are; instance
// documents go through normalizeInstance instead.
func normalize(v any) any {
	out, _ := normalizeInstance(v)
	return out
}

// normalizeInstance is normalize that also returns the JSON pointers of
// NaN and infinite values, which have no JSON representation.
func normalizeInstance(v any) (any, []string) {
	var nonFinite []string
	out := normalizeAt(v, "", &nonFinite)
	return out, nonFinite
}

func normalizeAt(v any, ptr string, nonFinite *[]string) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeAt(val, ptr+"/"+escapePointer(k), nonFinite)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			key := fmt.Sprint(k)
			out[key] = normalizeAt(val, ptr+"/"+escapePointer(key), nonFinite)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeAt(val, ptr+"/"+strconv.Itoa(i), nonFinite)
		}
		return out
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case int:
		return json.Number(strconv.FormatInt(int64(t), 10))
	case int64:
		return json.Number(strconv.FormatInt(t, 10))
	case uint64:
		return json.Number(strconv.FormatUint(t, 10))
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			*nonFinite = append(*nonFinite, ptr)
			return t
		}
		return json.Number(strconv.FormatFloat(t, 'g', -1, 64))
	default:
		return v
	}
}

func escapePointer(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	return strings.ReplaceAll(tok, "/", "~1")
}
