package model

import (
	"encoding/json"
	"math"
	"time"
)

// Conversation depth categories.
const (
	CategoryOneAndDone     = "one_and_done"
	CategoryShortMultiTurn = "short_multi_turn"
	CategoryDeepMultiTurn  = "deep_multi_turn"
)

// ConversationSummary holds per-conversation totals.
type ConversationSummary struct {
	ConversationIndex int
	ConversationID    string
	ConversationTitle string
	FirstTime         *time.Time
	LastTime          *time.Time
	DurationMinutes   float64 // NaN when either endpoint is missing

	Messages          int
	UserMessages      int
	AssistantMessages int
	ToolMessages      int
	SystemMessages    int
	WordsUser         int
	WordsAssistant    int

	HasCode       bool
	HasMultimodal bool
	HasTool       bool
	Category      string
}

// RoleCount is a message count for one author role.
type RoleCount struct {
	Role     string
	Messages int
}

// CategoryCount is a conversation count for one depth category.
type CategoryCount struct {
	Category      string
	Conversations int
}

// MonthCount holds messages for one calendar month.
type MonthCount struct {
	Month    time.Time
	Messages int
}

// MonthRoleCount holds messages for one month and role.
type MonthRoleCount struct {
	Month    time.Time
	Role     string
	Messages int
}

// MonthConversationCount holds conversations started in one month.
type MonthConversationCount struct {
	Month         time.Time
	Conversations int
}

// HourCount holds messages for one hour of the day.
type HourCount struct {
	Hour     int
	Messages int
}

// HourRoleCount holds messages for one hour and role.
type HourRoleCount struct {
	Hour     int
	Role     string
	Messages int
}

// WeekdayCount holds messages for one day of the week.
type WeekdayCount struct {
	Weekday  time.Weekday
	Messages int
}

// WeekdayRoleCount holds messages for one weekday and role.
type WeekdayRoleCount struct {
	Weekday  time.Weekday
	Role     string
	Messages int
}

// DayCount holds messages for one calendar day.
type DayCount struct {
	Date     time.Time
	Messages int
}

// WeekdayHourCount holds messages for one weekday/hour cell.
type WeekdayHourCount struct {
	Weekday  time.Weekday
	Hour     int
	Messages int
}

// CumulativeCount is a running message total by day.
type CumulativeCount struct {
	Date               time.Time
	Messages           int
	CumulativeMessages int
}

// LengthStats summarizes assistant reply lengths within a bucket.
type LengthStats struct {
	Responses       int
	MeanWordCount   float64
	MedianWordCount float64
	MeanCharCount   float64
	MedianCharCount float64
}

// DailyLength is LengthStats for one day plus trailing rolling means
// of the daily means.
type DailyLength struct {
	Date time.Time
	LengthStats
	MeanWordCountRoll7  float64
	MeanWordCountRoll30 float64
	MeanCharCountRoll7  float64
	MeanCharCountRoll30 float64
}

// MonthlyLength is LengthStats for one month.
type MonthlyLength struct {
	Month time.Time
	LengthStats
}

// PivotKey, PivotRole and PivotCount let long role tables be widened.
func (r MonthRoleCount) PivotKey() time.Time { return r.Month }
func (r MonthRoleCount) PivotRole() string { return r.Role }
func (r MonthRoleCount) PivotCount() int { return r.Messages }

func (r HourRoleCount) PivotKey() int { return r.Hour }
func (r HourRoleCount) PivotRole() string { return r.Role }
func (r HourRoleCount) PivotCount() int { return r.Messages }

func (r WeekdayRoleCount) PivotKey() time.Weekday { return r.Weekday }
func (r WeekdayRoleCount) PivotRole() string { return r.Role }
func (r WeekdayRoleCount) PivotCount() int { return r.Messages }

// RoleKeyed is a long-form row keyed by K and an author role.
type RoleKeyed[K comparable] interface {
	PivotKey() K
	PivotRole() string
	PivotCount() int
}

// RolePivot is the wide form of a role table: one row per key and one
// column per role, missing combinations filled with 0.
type RolePivot[K comparable] struct {
	Roles []string
	Rows  []RolePivotRow[K]
}

// RolePivotRow holds the counts of one key, aligned with RolePivot.Roles.
type RolePivotRow[K comparable] struct {
	Key    K
	Counts []int
}

// Stats is a six-number summary. Every field but Count is NaN when
// Count is 0.
type Stats struct {
	Count  int
	Min    float64
	Mean   float64
	Median float64
	P90    float64
	Max    float64
}

// MarshalJSON writes NaN fields as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Count  int      `json:"count"`
		Min    *float64 `json:"min"`
		Mean   *float64 `json:"mean"`
		Median *float64 `json:"median"`
		P90    *float64 `json:"p90"`
		Max    *float64 `json:"max"`
	}{
		Count:  s.Count,
		Min:    nullable(s.Min),
		Mean:   nullable(s.Mean),
		Median: nullable(s.Median),
		P90:    nullable(s.P90),
		Max:    nullable(s.Max),
	})
}

func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// NaiveLayout formats a UTC wall-clock time without a zone marker.
const NaiveLayout = "2006-01-02T15:04:05"

// DateRange bounds the export. First and last conversation times are UTC
// wall-clock values with no zone attached when serialised.
type DateRange struct {
	FirstConversation *time.Time
	LastConversation  *time.Time
	ActiveDays        int
}

// MarshalJSON writes the conversation bounds as naive ISO timestamps.
func (d DateRange) MarshalJSON() ([]byte, error) {
	naive := func(t *time.Time) *string {
		if t == nil {
			return nil
		}
		s := t.UTC().Format(NaiveLayout)
		return &s
	}
	return json.Marshal(struct {
		FirstConversation *string `json:"first_conversation"`
		LastConversation  *string `json:"last_conversation"`
		ActiveDays        int     `json:"active_days"`
	}{naive(d.FirstConversation), naive(d.LastConversation), d.ActiveDays})
}

// Metrics is the scalar summary of a recap.
type Metrics struct {
	ConversationCount                int            `json:"conversation_count"`
	MessageCountTotal                int            `json:"message_count_total"`
	MessagesByRole                   map[string]int `json:"messages_by_role"`
	ConversationLengthStats          Stats          `json:"conversation_length_stats"`
	ConversationDurationMinutesStats Stats          `json:"conversation_duration_minutes_stats"`
	UserTurnStats                    Stats          `json:"user_turn_stats"`
	AssistantTurnStats               Stats          `json:"assistant_turn_stats"`
	UserWordCountStats               Stats          `json:"user_word_count_stats"`
	AssistantWordCountStats          Stats          `json:"assistant_word_count_stats"`
	UserCharacterCountStats          Stats          `json:"user_character_count_stats"`
	AssistantCharacterCountStats     Stats          `json:"assistant_character_count_stats"`
	DateRange                        DateRange      `json:"date_range"`
}

// AnalysisResult bundles the flat table, every derived table and the
// metrics of one run. It is read-only once built.
type AnalysisResult struct {
	Messages                   []FlatMessage
	ConversationSummary        []ConversationSummary
	MessagesByRole             []RoleCount
	ConversationCategories     []CategoryCount
	MonthlyMessageCounts       []MonthCount
	MonthlyMessageCountsByRole []MonthRoleCount
	MonthlyConversationCounts  []MonthConversationCount
	MessagesByHour             []HourCount
	MessagesByHourByRole       []HourRoleCount
	MessagesByWeekday          []WeekdayCount
	MessagesByWeekdayByRole    []WeekdayRoleCount
	DailyMessageCounts         []DayCount
	WeekdayHourCounts          []WeekdayHourCount
	CumulativeMessageCounts    []CumulativeCount
	AssistantResponses         []FlatMessage
	AssistantDailyLengths      []DailyLength
	AssistantMonthlyLengths    []MonthlyLength
	Metrics                    Metrics
}
