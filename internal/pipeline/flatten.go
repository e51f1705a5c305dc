package pipeline

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/source"
)

var wordRE = regexp.MustCompile(`[A-Za-z']+`)

// maxUnixSeconds bounds timestamps to years 0001..9999.
const maxUnixSeconds = 253402300799

// Flatten turns conversations into one FlatMessage per node that carries a
// message. Output follows conversation order, then node id order.
func Flatten(convs []source.Conversation) []model.FlatMessage {
	out := make([]model.FlatMessage, 0, len(convs))
	for i, conv := range convs {
		out = append(out, flattenConversation(i, conv)...)
	}
	return out
}

func flattenConversation(idx int, conv source.Conversation) []model.FlatMessage {
	id := conv.ID
	if id == "" {
		id = fmt.Sprintf("conversation_%05d", idx)
	}
	title := conv.Title
	if title == "" {
		title = "Untitled"
	}

	var out []model.FlatMessage
	for _, node := range conv.Nodes {
		msg := node.Message
		if msg == nil {
			continue
		}

		text := source.ExtractText(msg.Content)
		contentType := source.ContentType(msg.Content)
		role := msg.Role
		if role == "" {
			role = model.RoleUnknown
		}

		fm := model.FlatMessage{
			ConversationIndex: idx,
			ConversationID:    id,
			ConversationTitle: title,
			MessageID:         msg.ID,
			Role:              role,
			ContentType:       contentType,
			Text:              text,
			WordCount:         CountWords(text),
			CharCount:         utf8.RuneCountInString(text),
			HasCode:           contentType == model.ContentTypeCode,
			IsMultimodal:      contentType == model.ContentTypeMultimodal,
		}
		if ts, ok := unixTime(msg.CreateTime); ok {
			cal := model.NewCalendar(ts)
			fm.CreateTime = &ts
			fm.Calendar = &cal
		}
		out = append(out, fm)
	}
	return out
}

// CountWords counts alphabetic word tokens, apostrophes included.
func CountWords(text string) int {
	return len(wordRE.FindAllStringIndex(strings.ToLower(text), -1))
}

// unixTime converts fractional epoch seconds to a UTC time.
func unixTime(secs *float64) (time.Time, bool) {
	if secs == nil {
		return time.Time{}, false
	}
	f := *secs
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > maxUnixSeconds {
		return time.Time{}, false
	}
	whole := math.Floor(f)
	nanos := math.Round((f - whole) * 1e9)
	if nanos >= 1e9 {
		whole++
		nanos -= 1e9
	}
	return time.Unix(int64(whole), int64(nanos)).UTC(), true
}
