package source

import (
	"encoding/json"
	"testing"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"nil", ``, ""},
		{"null", `null`, ""},
		{"not an object", `["a"]`, ""},
		{"garbage", `{"content_type":`, ""},
		{"missing content type", `{"parts":["a"]}`, ""},
		{"unknown content type", `{"content_type":"tether_unknown","parts":["a"]}`, ""},
		{"text parts", `{"content_type":"text","parts":["hello","","world"]}`, "hello\nworld"},
		{"code", `{"content_type":"code","parts":["print(1)"]}`, "print(1)"},
		{"object part text", `{"content_type":"reasoning_recap","parts":[{"text":"thought"}]}`, "thought"},
		{"object part title fallback", `{"content_type":"tether_quote","parts":[{"title":"Quote"}]}`, "Quote"},
		{"object part non-string text", `{"content_type":"text","parts":[{"text":3,"title":"T"}]}`, "T"},
		{"non-string parts skipped", `{"content_type":"text","parts":[1,null,"ok"]}`, "ok"},
		{"parts not a list", `{"content_type":"text","parts":"abc"}`, ""},
		{
			"multimodal",
			`{"content_type":"multimodal_text","parts":[
				"caption",
				{"content_type":"image_asset_pointer"},
				{"content_type":"text","text":"inline"},
				{"content_type":"audio_transcription","transcript":"spoken"},
				{"content_type":"audio_transcription","transcript":""},
				{"content_type":"audio_asset_pointer"},
				{"content_type":"real_time_user_audio_video_asset_pointer"},
				{"content_type":"something_else","text":"ignored"}
			]}`,
			"caption\n[image]\ninline\nspoken\n[audio]\n[realtime av]",
		},
		{"user context", `{"content_type":"user_editable_context","user_instructions":"be brief"}`, "be brief"},
		{"user context missing", `{"content_type":"user_editable_context"}`, ""},
		{"content type key is case sensitive", `{"CONTENT_TYPE":"text","parts":["x"]}`, ""},
		{"parts key is case sensitive", `{"content_type":"text","PARTS":["x"]}`, ""},
		{"exact parts key wins over other case", `{"content_type":"text","parts":["a"],"Parts":["b"]}`, "a"},
		{"exact parts key wins when listed last", `{"content_type":"text","Parts":["b"],"parts":["a"]}`, "a"},
		{"user instructions key is case sensitive", `{"content_type":"user_editable_context","User_Instructions":"x"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractText(json.RawMessage(tt.raw))
			if got != tt.want {
				t.Errorf("ExtractText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType(json.RawMessage(`{"content_type":"code"}`)); got != "code" {
		t.Errorf("ContentType = %q, want code", got)
	}
	if got := ContentType(json.RawMessage(`{"content_type":5}`)); got != "" {
		t.Errorf("ContentType = %q, want empty for non-string", got)
	}
	if got := ContentType(json.RawMessage(`{"Content_Type":"code"}`)); got != "" {
		t.Errorf("ContentType = %q, want empty for differently cased key", got)
	}
	if got := ContentType(nil); got != "" {
		t.Errorf("ContentType(nil) = %q, want empty", got)
	}
}

func FuzzExtractText(f *testing.F) {
	f.Add(`{"content_type":"text","parts":["a"]}`)
	f.Add(`{"content_type":"multimodal_text","parts":[{"content_type":"image_asset_pointer"}]}`)
	f.Add(`null`)
	f.Add(`{`)
	f.Fuzz(func(t *testing.T, raw string) {
		// Must never panic.
		_ = ExtractText(json.RawMessage(raw))
		_ = ContentType(json.RawMessage(raw))
	})
}
