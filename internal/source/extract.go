package source

import (
	"encoding/json"
	"strings"
)

// contentKind is the closed set of content shapes text can be read from.
type contentKind int

const (
	kindUnknown contentKind = iota
	kindTextual
	kindMultimodal
	kindUserContext
)

var textualContentTypes = map[string]struct{}{
	"text":                    {},
	"code":                    {},
	"reasoning_recap":         {},
	"thoughts":                {},
	"execution_output":        {},
	"tether_browsing_display": {},
	"system_error":            {},
	"computer_output":         {},
	"sonic_webpage":           {},
	"tether_quote":            {},
}

func kindOf(contentType string) contentKind {
	if _, ok := textualContentTypes[contentType]; ok {
		return kindTextual
	}
	switch contentType {
	case "multimodal_text":
		return kindMultimodal
	case "user_editable_context":
		return kindUserContext
	default:
		return kindUnknown
	}
}

// Placeholders for non-text multimodal parts.
const (
	PlaceholderImage      = "[image]"
	PlaceholderAudio      = "[audio]"
	PlaceholderRealtimeAV = "[realtime av]"
)

// content is the subset of a message content object that extraction reads.
// Keys are matched exactly; a "Parts" key is not "parts".
type content struct {
	ContentType      json.RawMessage
	UserInstructions json.RawMessage
	decodedParts     []json.RawMessage
}

func decodeContent(raw json.RawMessage) (content, bool) {
	fields, ok := partObject(raw)
	if !ok {
		return content{}, false
	}
	c := content{
		ContentType:      fields["content_type"],
		UserInstructions: fields["user_instructions"],
	}
	var parts []json.RawMessage
	if json.Unmarshal(fields["parts"], &parts) == nil {
		c.decodedParts = parts
	}
	return c, true
}

// ContentType returns the content_type of a content object, or "" when it
// is absent or not a string.
func ContentType(raw json.RawMessage) string {
	c, ok := decodeContent(raw)
	if !ok {
		return ""
	}
	return stringValue(c.ContentType)
}

// ExtractText returns the display text of a message content object. It is
// total: nil, malformed or unrecognized content yields "". Extracted lines
// are joined with newlines and empty lines are dropped.
func ExtractText(raw json.RawMessage) string {
	c, ok := decodeContent(raw)
	if !ok {
		return ""
	}

	var lines []string
	switch kindOf(stringValue(c.ContentType)) {
	case kindTextual:
		lines = textualParts(c.decodedParts)
	case kindMultimodal:
		lines = multimodalParts(c.decodedParts)
	case kindUserContext:
		lines = []string{stringValue(c.UserInstructions)}
	case kindUnknown:
		return ""
	}

	kept := lines[:0]
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// textualParts reads string parts as-is and object parts through their
// text field, falling back to title.
func textualParts(parts []json.RawMessage) []string {
	var out []string
	for _, part := range parts {
		if s, ok := partString(part); ok {
			out = append(out, s)
			continue
		}
		fields, ok := partObject(part)
		if !ok {
			continue
		}
		if s, ok := fieldString(fields, "text"); ok {
			out = append(out, s)
		} else if s, ok := fieldString(fields, "title"); ok {
			out = append(out, s)
		}
	}
	return out
}

// multimodalParts dispatches each object part on its own content_type.
func multimodalParts(parts []json.RawMessage) []string {
	var out []string
	for _, part := range parts {
		if s, ok := partString(part); ok {
			out = append(out, s)
			continue
		}
		fields, ok := partObject(part)
		if !ok {
			continue
		}
		partType, _ := fieldString(fields, "content_type")
		switch partType {
		case "text":
			if s, ok := fieldString(fields, "text"); ok {
				out = append(out, s)
			}
		case "audio_transcription":
			if s, ok := fieldString(fields, "transcript"); ok && s != "" {
				out = append(out, s)
			}
		case "image_asset_pointer":
			out = append(out, PlaceholderImage)
		case "audio_asset_pointer":
			out = append(out, PlaceholderAudio)
		case "real_time_user_audio_video_asset_pointer":
			out = append(out, PlaceholderRealtimeAV)
		}
	}
	return out
}

func partString(raw json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
		return "", false
	}
	return s, true
}

func partObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if !isObject(raw) {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func fieldString(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	return partString(raw)
}
