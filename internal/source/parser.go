// Package source decodes conversation exports and extracts message text.
package source

import (
	"bytes"
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/model"
)

// ParseResult holds the decoded conversations of one export.
type ParseResult struct {
	Conversations []Conversation
	// SkippedEntries counts array elements that were not objects. They
	// still occupy a conversation index.
	SkippedEntries int
	SizeBytes      int64
}

// ParseFile reads and decodes an export file.
func ParseFile(path string) (ParseResult, error) {
	data, err := os.ReadFile(path) //nolint:gosec // input path is supplied by the local user
	if err != nil {
		return ParseResult{}, errors.Wrapf(err, "reading %s", path)
	}

	pr, err := Parse(data)
	if err != nil {
		return ParseResult{}, errors.Wrap(err, path)
	}
	pr.SizeBytes = int64(len(data))
	return pr, nil
}

// Parse decodes an export held in memory. The top-level value must be a
// JSON array; anything else is ErrMalformedInput. Elements and fields are
// decoded best-effort: unexpected shapes fall back to empty values.
func Parse(data []byte) (ParseResult, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ParseResult{}, errors.Wrap(model.ErrMalformedInput, "top-level value is not a list")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return ParseResult{}, errors.Wrapf(model.ErrMalformedInput, "invalid JSON: %v", err)
	}

	result := ParseResult{Conversations: make([]Conversation, 0, len(items))}
	for _, raw := range items {
		conv, ok := decodeConversation(raw)
		if !ok {
			result.SkippedEntries++
		}
		result.Conversations = append(result.Conversations, conv)
	}
	return result, nil
}

// Export keys are matched exactly, so "Mapping" or "ID" are not read.
func decodeConversation(raw json.RawMessage) (Conversation, bool) {
	fields, ok := partObject(raw)
	if !ok {
		return Conversation{}, false
	}

	conv := Conversation{
		ID:    stringValue(fields["id"]),
		Title: stringValue(fields["title"]),
	}

	mapping, ok := partObject(fields["mapping"])
	if !ok {
		return conv, true
	}

	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	conv.Nodes = make([]Node, 0, len(ids))
	for _, id := range ids {
		conv.Nodes = append(conv.Nodes, Node{ID: id, Message: decodeNodeMessage(mapping[id])})
	}
	return conv, true
}

func decodeNodeMessage(raw json.RawMessage) *Message {
	node, ok := partObject(raw)
	if !ok {
		return nil
	}
	fields, ok := partObject(node["message"])
	if !ok || len(fields) == 0 {
		return nil
	}

	msg := &Message{
		ID:         stringValue(fields["id"]),
		CreateTime: numberValue(fields["create_time"]),
		Content:    fields["content"],
	}
	if author, ok := partObject(fields["author"]); ok {
		msg.Role = stringValue(author["role"])
	}
	return msg
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// stringValue returns raw as a string, or "" when it is not a JSON string.
func stringValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return ""
	}
	return s
}

// numberValue returns raw as a float, or nil when it is not a JSON number.
func numberValue(raw json.RawMessage) *float64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	if c := trimmed[0]; c != '-' && (c < '0' || c > '9') {
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil
	}
	return &f
}
