package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders a short reference of the schema's top-level properties.
func (d Descriptor) Markdown() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", d.DisplayName)
	if d.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", d.Description)
	}
	fmt.Fprintf(&sb, "Applies to `%s`, source `%s`.\n\n", strings.Join(d.Globs(), "`, `"), d.CanonicalURI())

	props, _ := d.Document["properties"].(map[string]any)
	if len(props) == 0 {
		sb.WriteString("_No properties declared._\n")
		return sb.String()
	}

	required := map[string]bool{}
	if req, ok := d.Document["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("| Property | Type | Required | Notes |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, name := range names {
		prop, _ := props[name].(map[string]any)
		req := ""
		if required[name] {
			req = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, propertyType(prop), req, propertyNotes(prop))
	}

	if ap, ok := d.Document["additionalProperties"].(bool); ok && !ap {
		sb.WriteString("\nNo other properties are allowed.\n")
	}
	return sb.String()
}

func propertyType(prop map[string]any) string {
	switch t := prop["type"].(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, " \\| ")
	}
	if _, ok := prop["enum"]; ok {
		return "enum"
	}
	return "any"
}

func propertyNotes(prop map[string]any) string {
	var notes []string
	if desc, ok := prop["description"].(string); ok && desc != "" {
		notes = append(notes, desc)
	}
	if enum, ok := prop["enum"].([]any); ok {
		vals := make([]string, 0, len(enum))
		for _, v := range enum {
			vals = append(vals, fmt.Sprintf("`%v`", v))
		}
		notes = append(notes, "one of "+strings.Join(vals, ", "))
	}
	return strings.ReplaceAll(strings.Join(notes, "; "), "|", "\\|")
}
