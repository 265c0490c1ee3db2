package rationale

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func init() {
	// Freeze time for deterministic tests.
	timeNow = func() time.Time {
		return time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)
	}
}

// ─── Extract ────────────────────────────────────────────────────────────────

func TestExtract_AllKinds(t *testing.T) {
	text := "We decided to use PostgreSQL. We assume that traffic stays low. " +
		"Alternatively, we could shard later. There is a risk of vendor lock-in."

	r := Extract(nil, "s1", "architecture", text)

	if len(r.Decisions) != 1 || r.Decisions[0].Statement != "use PostgreSQL" {
		t.Errorf("Decisions = %+v", r.Decisions)
	}
	if len(r.Assumptions) != 1 || r.Assumptions[0].Statement != "that traffic stays low" {
		t.Errorf("Assumptions = %+v", r.Assumptions)
	}
	if len(r.Alternatives) != 1 || r.Alternatives[0].Statement != "we could shard later" {
		t.Errorf("Alternatives = %+v", r.Alternatives)
	}
	if len(r.Risks) != 1 || r.Risks[0].Statement != "vendor lock-in" {
		t.Errorf("Risks = %+v", r.Risks)
	}
	if r.SessionID != "s1" || r.PhaseID != "architecture" {
		t.Errorf("ids = %q/%q", r.SessionID, r.PhaseID)
	}
	if !r.Timestamp.Equal(time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v, want frozen clock", r.Timestamp)
	}
}

func TestExtract_OneRecordPerMatch(t *testing.T) {
	r := Extract(nil, "s1", "p", "We chose Go. Then we opted for gRPC. Finally we selected SQLite.")
	if len(r.Decisions) != 3 {
		t.Errorf("Decisions = %d, want 3", len(r.Decisions))
	}
	for _, d := range r.Decisions {
		if d.Kind != KindDecision || d.ID == "" {
			t.Errorf("bad record %+v", d)
		}
	}
}

func TestExtract_FallbackRecord(t *testing.T) {
	r := Extract(nil, "s1", "planning", "Nothing interesting here")
	records := r.Records()
	if len(records) != 1 {
		t.Fatalf("Records = %d, want 1", len(records))
	}
	if records[0].Kind != KindDecision || !strings.Contains(records[0].Statement, "planning") {
		t.Errorf("fallback = %+v", records[0])
	}
}

// ─── MemoryLog ──────────────────────────────────────────────────────────────

func TestMemoryLog_AppendAndList(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()
	_ = l.Append(ctx, Extract(nil, "s1", "discovery", "We chose A."))
	_ = l.Append(ctx, Extract(nil, "s1", "requirements", "We chose B."))
	_ = l.Append(ctx, Extract(nil, "s2", "discovery", "We chose C."))

	got, err := l.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].PhaseID != "discovery" || got[1].PhaseID != "requirements" {
		t.Errorf("List(s1) = %+v", got)
	}

	empty, _ := l.List(ctx, "nobody")
	if len(empty) != 0 {
		t.Errorf("List(nobody) = %d entries", len(empty))
	}
}

func TestMemoryLog_RejectsMissingSession(t *testing.T) {
	if err := NewMemoryLog().Append(context.Background(), Rationale{}); err == nil {
		t.Error("expected error for missing session id")
	}
}

func TestMemoryLog_ListIsolated(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLog()
	_ = l.Append(ctx, Extract(nil, "s1", "p", "We chose A."))

	got, _ := l.List(ctx, "s1")
	got[0].Decisions[0].Statement = "mutated"

	again, _ := l.List(ctx, "s1")
	if again[0].Decisions[0].Statement != "A" {
		t.Error("mutation leaked into the log")
	}
}

// ─── SQLiteLog ──────────────────────────────────────────────────────────────

func newTestSQLiteLog(t *testing.T, dir string) *SQLiteLog {
	t.Helper()
	l, err := NewSQLiteLog(SQLiteConfig{DataDir: dir}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteLog: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestSQLiteLog_InMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestSQLiteLog(t, "")

	in := Extract(nil, "s1", "architecture",
		"We decided to use queues. We assume that load is bursty. There is a risk of backlog.")
	if err := l.Append(ctx, in); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := l.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("List = %d entries, want 1", len(got))
	}
	r := got[0]
	if r.ID != in.ID || r.PhaseID != "architecture" || !r.Timestamp.Equal(in.Timestamp) {
		t.Errorf("header mismatch: %+v", r)
	}
	if len(r.Decisions) != 1 || len(r.Assumptions) != 1 || len(r.Risks) != 1 || len(r.Alternatives) != 0 {
		t.Errorf("records mismatch: %+v", r)
	}
}

func TestSQLiteLog_AppendOrderPreserved(t *testing.T) {
	ctx := context.Background()
	l := newTestSQLiteLog(t, "")
	for _, phase := range []string{"discovery", "requirements", "architecture"} {
		if err := l.Append(ctx, Extract(nil, "s1", phase, "text")); err != nil {
			t.Fatalf("Append(%s): %v", phase, err)
		}
	}
	got, _ := l.List(ctx, "s1")
	if len(got) != 3 || got[0].PhaseID != "discovery" || got[2].PhaseID != "architecture" {
		t.Errorf("order = %+v", got)
	}
}

func TestSQLiteLog_PersistsToDataDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	l, err := NewSQLiteLog(SQLiteConfig{DataDir: dir}, nil)
	if err != nil {
		t.Fatalf("NewSQLiteLog: %v", err)
	}
	if err := l.Append(ctx, Extract(nil, "s1", "p", "We chose A.")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	l.Close()

	if _, err := os.Stat(filepath.Join(dir, "rationale.db")); err != nil {
		t.Fatalf("rationale.db not created: %v", err)
	}

	reopened := newTestSQLiteLog(t, dir)
	got, err := reopened.List(ctx, "s1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("List after reopen = %d, want 1", len(got))
	}
}

func TestSQLiteLog_OpenError(t *testing.T) {
	orig := openDB
	openDB = func(driver, dsn string) (*sql.DB, error) {
		return nil, errors.New("boom")
	}
	defer func() { openDB = orig }()

	if _, err := NewSQLiteLog(SQLiteConfig{}, nil); err == nil {
		t.Error("expected open error")
	}
}

func TestSQLiteLog_CommitErrorSurfaces(t *testing.T) {
	l := newTestSQLiteLog(t, "")
	l.hooks.commit = func(tx *sql.Tx) error {
		_ = tx.Rollback()
		return errors.New("disk full")
	}

	err := l.Append(context.Background(), Extract(nil, "s1", "p", "x"))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Append error = %v, want commit failure", err)
	}

	l.hooks = defaultLogHooks()
	got, _ := l.List(context.Background(), "s1")
	if len(got) != 0 {
		t.Errorf("failed append left %d entries behind", len(got))
	}
}

// ─── Export ─────────────────────────────────────────────────────────────────

func sampleEntries() []Rationale {
	return []Rationale{
		Extract(nil, "s1", "architecture", "We decided to use queues. There is a risk of backlog."),
	}
}

func TestExport_Markdown(t *testing.T) {
	out, err := Export("s1", sampleEntries(), FormatMarkdown)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, want := range []string{"# Design Rationale: s1", "## Phase: architecture", "### Decisions", "- use queues", "### Risks", "- backlog"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestExport_MarkdownEmpty(t *testing.T) {
	out, _ := Export("s1", nil, FormatMarkdown)
	if !strings.Contains(out, "No rationale captured") {
		t.Errorf("empty markdown = %q", out)
	}
}

func TestExport_JSON(t *testing.T) {
	out, err := Export("s1", sampleEntries(), FormatJSON)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(out, `"session_id": "s1"`) || !strings.Contains(out, `"statement": "use queues"`) {
		t.Errorf("json = %s", out)
	}

	empty, _ := Export("s1", nil, FormatJSON)
	if !strings.Contains(empty, `"entries": []`) {
		t.Errorf("empty json = %s", empty)
	}
}

func TestExport_YAMLFlattened(t *testing.T) {
	out, err := Export("s1", sampleEntries(), FormatYAML)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, want := range []string{
		"session_id: s1",
		"count: 1",
		"entries.0.phase_id: architecture",
		"entries.0.decisions.0: use queues",
		"entries.0.risks.0: backlog",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "session_id") > strings.Index(out, "entries.0") {
		t.Error("yaml keys out of insertion order")
	}
}

func TestExport_YAMLKeepsScalarStatementsAsStrings(t *testing.T) {
	entries := []Rationale{{
		PhaseID: "planning",
		Decisions: []Record{
			{Kind: KindDecision, Statement: "42"},
			{Kind: KindDecision, Statement: "true"},
			{Kind: KindDecision, Statement: "null"},
			{Kind: KindDecision, Statement: ""},
		},
	}}
	out, err := Export("007", entries, FormatYAML)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var got map[string]any
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("yaml.Unmarshal: %v\n%s", err, out)
	}
	want := map[string]string{
		"session_id":            "007",
		"entries.0.decisions.0": "42",
		"entries.0.decisions.1": "true",
		"entries.0.decisions.2": "null",
		"entries.0.decisions.3": "",
	}
	for key, w := range want {
		s, ok := got[key].(string)
		if !ok || s != w {
			t.Errorf("%s = %#v (%T), want string %q", key, got[key], got[key], w)
		}
	}
	if n, ok := got["count"].(int); !ok || n != 1 {
		t.Errorf("count = %#v, want int 1", got["count"])
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatMarkdown, false},
		{"Markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}
