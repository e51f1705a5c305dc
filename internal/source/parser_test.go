package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// writeExport creates a temp export file and returns its path.
func writeExport(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conversations.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseFile_Basic(t *testing.T) {
	path := writeExport(t, `[
		{"id":"c1","title":"Hello","mapping":{
			"b":{"message":{"id":"m2","author":{"role":"assistant"},"create_time":1700000100.5,"content":{"content_type":"text","parts":["hi"]}}},
			"a":{"message":{"id":"m1","author":{"role":"user"},"create_time":1700000000,"content":{"content_type":"text","parts":["hey"]}}},
			"root":{"message":null}
		}}
	]`)

	result, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Conversations) != 1 {
		t.Fatalf("Conversations = %d, want 1", len(result.Conversations))
	}
	if result.SizeBytes == 0 {
		t.Error("SizeBytes = 0, want file size")
	}

	conv := result.Conversations[0]
	if conv.ID != "c1" || conv.Title != "Hello" {
		t.Errorf("conversation = %q/%q, want c1/Hello", conv.ID, conv.Title)
	}
	if len(conv.Nodes) != 3 {
		t.Fatalf("Nodes = %d, want 3", len(conv.Nodes))
	}

	// Nodes are ordered by id, not by position in the mapping.
	wantIDs := []string{"a", "b", "root"}
	for i, want := range wantIDs {
		if conv.Nodes[i].ID != want {
			t.Errorf("Nodes[%d].ID = %q, want %q", i, conv.Nodes[i].ID, want)
		}
	}

	first := conv.Nodes[0].Message
	if first == nil || first.ID != "m1" || first.Role != "user" {
		t.Fatalf("Nodes[0].Message = %+v, want m1 by user", first)
	}
	if first.CreateTime == nil || *first.CreateTime != 1700000000 {
		t.Errorf("CreateTime = %v, want 1700000000", first.CreateTime)
	}
	if conv.Nodes[2].Message != nil {
		t.Error("null message should decode to nil")
	}
}

func TestParse_NotAList(t *testing.T) {
	for _, body := range []string{`{"id":"c1"}`, `"text"`, ``, `   `} {
		_, err := Parse([]byte(body))
		if !errors.Is(err, model.ErrMalformedInput) {
			t.Errorf("Parse(%q) error = %v, want ErrMalformedInput", body, err)
		}
	}
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`[{"id": "c1",`))
	if !errors.Is(err, model.ErrMalformedInput) {
		t.Fatalf("error = %v, want ErrMalformedInput", err)
	}
	if model.ErrorKind(err) != "MalformedInputError" {
		t.Errorf("ErrorKind = %q, want MalformedInputError", model.ErrorKind(err))
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if model.ErrorKind(err) != "" {
		t.Errorf("ErrorKind = %q, want empty for I/O errors", model.ErrorKind(err))
	}
}

func TestParse_EmptyList(t *testing.T) {
	result, err := Parse([]byte(`[]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Conversations) != 0 {
		t.Errorf("Conversations = %d, want 0", len(result.Conversations))
	}
}

func TestParse_NonObjectEntriesKeepIndex(t *testing.T) {
	result, err := Parse([]byte(`[1, "x", {"id":"c2"}, null]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Conversations) != 4 {
		t.Fatalf("Conversations = %d, want 4", len(result.Conversations))
	}
	if result.SkippedEntries != 3 {
		t.Errorf("SkippedEntries = %d, want 3", result.SkippedEntries)
	}
	if result.Conversations[2].ID != "c2" {
		t.Errorf("Conversations[2].ID = %q, want c2", result.Conversations[2].ID)
	}
}

func TestParse_LenientFields(t *testing.T) {
	result, err := Parse([]byte(`[
		{"id":42,"title":null,"mapping":{
			"n1":{"message":{"author":"bob","create_time":"2024-01-01","content":{"content_type":"text","parts":["x"]}}},
			"n2":{"message":{}},
			"n3":"not a node",
			"n4":{"message":{"author":{"role":7},"create_time":null}}
		}},
		{"id":"c2","mapping":[]}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	conv := result.Conversations[0]
	if conv.ID != "" || conv.Title != "" {
		t.Errorf("non-string id/title should decode empty, got %q/%q", conv.ID, conv.Title)
	}

	n1 := conv.Nodes[0].Message
	if n1 == nil {
		t.Fatal("n1 message should decode")
	}
	if n1.Role != "" {
		t.Errorf("Role = %q, want empty for non-object author", n1.Role)
	}
	if n1.CreateTime != nil {
		t.Errorf("CreateTime = %v, want nil for string timestamp", *n1.CreateTime)
	}

	if conv.Nodes[1].Message != nil {
		t.Error("empty message object should decode to nil")
	}
	if conv.Nodes[2].Message != nil {
		t.Error("non-object node should decode to nil")
	}

	n4 := conv.Nodes[3].Message
	if n4 == nil || n4.Role != "" || n4.CreateTime != nil {
		t.Errorf("n4 = %+v, want empty role and nil time", n4)
	}

	if got := result.Conversations[1]; got.ID != "c2" || len(got.Nodes) != 0 {
		t.Errorf("non-object mapping should yield no nodes, got %+v", got)
	}
}

func TestParse_KeysAreCaseSensitive(t *testing.T) {
	result, err := Parse([]byte(`[
		{"ID":"c1","Title":"Upper","Mapping":{
			"a":{"message":{"id":"m1","author":{"role":"user"},"create_time":1700000000}}
		}},
		{"id":"c2","title":"Mixed","mapping":{
			"a":{"Message":{"id":"m1","author":{"role":"user"}}},
			"b":{"message":{"ID":"m2","Author":{"role":"user"},"Create_Time":1700000000,"Content":{"content_type":"text","parts":["x"]}}},
			"c":{"message":{"id":"m3","author":{"Role":"assistant"},"create_time":1700000000}}
		}}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upper := result.Conversations[0]
	if upper.ID != "" || upper.Title != "" || len(upper.Nodes) != 0 {
		t.Errorf("differently cased keys should be ignored, got %+v", upper)
	}

	mixed := result.Conversations[1]
	if len(mixed.Nodes) != 3 {
		t.Fatalf("Nodes = %d, want 3", len(mixed.Nodes))
	}
	if mixed.Nodes[0].Message != nil {
		t.Error(`"Message" key should not be read as a message`)
	}
	b := mixed.Nodes[1].Message
	if b == nil {
		t.Fatal("b message should decode")
	}
	if b.ID != "" || b.Role != "" || b.CreateTime != nil || b.Content != nil {
		t.Errorf("b = %+v, want every field empty", b)
	}
	if c := mixed.Nodes[2].Message; c == nil || c.Role != "" || c.ID != "m3" {
		t.Errorf("c = %+v, want id m3 and empty role", c)
	}
}
