package rationale

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat validates a format name. Empty means markdown.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown export format %q: must be one of: markdown, json, yaml", s)
	}
}

// Export renders a session's rationale history.
func Export(sessionID string, entries []Rationale, format Format) (string, error) {
	switch format {
	case FormatMarkdown:
		return exportMarkdown(sessionID, entries), nil
	case FormatJSON:
		doc := struct {
			SessionID string      `json:"session_id"`
			Entries   []Rationale `json:"entries"`
		}{SessionID: sessionID, Entries: entries}
		if doc.Entries == nil {
			doc.Entries = []Rationale{}
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling rationale: %w", err)
		}
		return string(data), nil
	case FormatYAML:
		return exportYAML(sessionID, entries)
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

func exportMarkdown(sessionID string, entries []Rationale) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Design Rationale: %s\n\n", sessionID))
	if len(entries) == 0 {
		sb.WriteString("_No rationale captured yet._\n")
		return sb.String()
	}

	for _, r := range entries {
		sb.WriteString(fmt.Sprintf("## Phase: %s\n\n", r.PhaseID))
		sb.WriteString(fmt.Sprintf("_Captured %s_\n\n", r.Timestamp.UTC().Format(time.RFC3339)))
		section := func(title string, recs []Record) {
			if len(recs) == 0 {
				return
			}
			sb.WriteString(fmt.Sprintf("### %s\n\n", title))
			for _, rec := range recs {
				sb.WriteString(fmt.Sprintf("- %s\n", rec.Statement))
			}
			sb.WriteString("\n")
		}
		section("Decisions", r.Decisions)
		section("Assumptions", r.Assumptions)
		section("Alternatives", r.Alternatives)
		section("Risks", r.Risks)
	}
	return sb.String()
}

// exportYAML writes a flattened key/value mapping such as
// "entries.0.decisions.1: statement". Keys stay in insertion order.
func exportYAML(sessionID string, entries []Rationale) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	// A !!str tag makes the encoder quote values such as "42", "true" or
	// "null" that would otherwise read back as another type.
	addTagged := func(key, value, tag string) {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
		)
	}
	add := func(key, value string) { addTagged(key, value, "!!str") }

	add("session_id", sessionID)
	addTagged("count", strconv.Itoa(len(entries)), "!!int")
	for i, r := range entries {
		prefix := fmt.Sprintf("entries.%d", i)
		add(prefix+".phase_id", r.PhaseID)
		add(prefix+".timestamp", r.Timestamp.UTC().Format(time.RFC3339))
		flat := func(name string, recs []Record) {
			for j, rec := range recs {
				add(fmt.Sprintf("%s.%s.%d", prefix, name, j), rec.Statement)
			}
		}
		flat("decisions", r.Decisions)
		flat("assumptions", r.Assumptions)
		flat("alternatives", r.Alternatives)
		flat("risks", r.Risks)
	}

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("encoding rationale yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encoding rationale yaml: %w", err)
	}
	return sb.String(), nil
}
