// Package model defines the flat message table and the derived recap tables.
package model

import "time"

// Author roles that get dedicated counters in conversation summaries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
	RoleSystem    = "system"
	RoleUnknown   = "unknown"
)

// Content types that set message flags.
const (
	ContentTypeCode       = "code"
	ContentTypeMultimodal = "multimodal_text"
)

// Calendar holds the UTC calendar buckets of a message timestamp.
type Calendar struct {
	Date    time.Time // midnight UTC
	Month   time.Time // first day of the month, midnight UTC
	Hour    int
	Weekday time.Weekday
}

// NewCalendar derives the calendar buckets of t in UTC.
func NewCalendar(t time.Time) Calendar {
	u := t.UTC()
	return Calendar{
		Date:    time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC),
		Month:   time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC),
		Hour:    u.Hour(),
		Weekday: u.Weekday(),
	}
}

// FlatMessage is one message node of an export, normalized.
// CreateTime and Calendar are nil together when the source timestamp
// was not numeric.
type FlatMessage struct {
	ConversationIndex int
	ConversationID    string
	ConversationTitle string
	MessageID         string
	Role              string
	CreateTime        *time.Time
	ContentType       string
	Text              string
	WordCount         int
	CharCount         int
	HasCode           bool
	IsMultimodal      bool
	Calendar          *Calendar
}

// HasTime reports whether the message carries a usable timestamp.
func (m FlatMessage) HasTime() bool {
	return m.CreateTime != nil && m.Calendar != nil
}

// MessageColumns is the column set of the flat message table. It is the
// schema an empty table still carries.
var MessageColumns = []string{
	"conversation_index",
	"conversation_id",
	"conversation_title",
	"message_id",
	"message_index",
	"role",
	"create_time",
	"content_type",
	"text",
	"word_count",
	"char_count",
	"has_code",
	"is_multimodal",
	"date",
	"month",
	"hour",
	"weekday",
}

// WeekdayOrder lists weekdays Monday first.
var WeekdayOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// WeekdayRank returns the position of d in WeekdayOrder.
func WeekdayRank(d time.Weekday) int {
	return (int(d) + 6) % 7
}
