// Package charts renders recap tables as standalone SVG files.
package charts

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/theirongolddev/gptrecap/internal/model"
	"github.com/theirongolddev/gptrecap/internal/pipeline"
)

// Chart file names.
const (
	MonthlyByRole       = "messages_per_month_by_role.svg"
	DepthMix            = "conversation_depth_mix.svg"
	ReplyTrendWords     = "assistant_reply_length_trend_words.svg"
	ReplyTrendChars     = "assistant_reply_length_trend_characters.svg"
	WeekdayHourHeatmap  = "messages_weekday_hour_heatmap.svg"
	Cumulative          = "messages_cumulative.svg"
	ReplyHistogramWords = "assistant_reply_length_words_hist.svg"
	ReplyHistogramChars = "assistant_reply_length_characters_hist.svg"
)

// FileNames lists every chart in render order.
var FileNames = []string{
	MonthlyByRole,
	DepthMix,
	ReplyTrendWords,
	ReplyTrendChars,
	WeekdayHourHeatmap,
	Cumulative,
	ReplyHistogramWords,
	ReplyHistogramChars,
}

// Histogram settings.
const (
	HistogramBins  = 60
	WordClip       = 2000
	CharacterClip  = 12000
	wideWidth      = 1200
	wideHeight     = 700
	standardWidth  = 1000
	standardHeight = 600
)

// RoleColors maps author roles to line colours.
var RoleColors = map[string]string{
	model.RoleUser:      "#64ffda",
	model.RoleAssistant: "#ff61ef",
	model.RoleTool:      "#ffd479",
	model.RoleSystem:    "#9bb5ff",
	model.RoleUnknown:   "#d2d2d2",
}

const fallbackRoleColor = "#9bb5ff"

// RoleColor returns the colour of role, falling back for unlisted roles.
func RoleColor(role string) string {
	if c, ok := RoleColors[role]; ok {
		return c
	}
	return fallbackRoleColor
}

// Render draws one chart by file name.
func Render(name string, res *model.AnalysisResult) ([]byte, error) {
	switch name {
	case MonthlyByRole:
		return MonthlyByRoleChart(res.MonthlyMessageCountsByRole), nil
	case DepthMix:
		return DepthMixChart(res.ConversationCategories), nil
	case ReplyTrendWords:
		return ReplyTrendChart(res.AssistantDailyLengths, false), nil
	case ReplyTrendChars:
		return ReplyTrendChart(res.AssistantDailyLengths, true), nil
	case WeekdayHourHeatmap:
		return HeatmapChart(res.WeekdayHourCounts), nil
	case Cumulative:
		return CumulativeChart(res.CumulativeMessageCounts), nil
	case ReplyHistogramWords:
		return ReplyHistogram(res.AssistantResponses, false), nil
	case ReplyHistogramChars:
		return ReplyHistogram(res.AssistantResponses, true), nil
	default:
		return nil, errors.Errorf("unknown chart %q", name)
	}
}

// WriteAll renders every chart into dir and returns file name to path.
func WriteAll(dir string, res *model.AnalysisResult) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	paths := make(map[string]string, len(FileNames))
	for _, name := range FileNames {
		data, err := Render(name, res)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return nil, errors.Wrapf(err, "writing %s", path)
		}
		paths[name] = path
	}
	return paths, nil
}

// MonthlyByRoleChart draws one line with a light area per role.
func MonthlyByRoleChart(rows []model.MonthRoleCount) []byte {
	if len(rows) == 0 {
		return placeholder(wideWidth, wideHeight)
	}
	pivot := pipeline.PivotByRole[time.Time](rows)

	c := newCanvas(wideWidth, wideHeight)
	c.title("Messages per Month by Role")
	p := newPlotArea(c)

	maxY := 0.0
	months := make([]time.Time, len(pivot.Rows))
	for i, r := range pivot.Rows {
		months[i] = r.Key
		for _, n := range r.Counts {
			maxY = math.Max(maxY, float64(n))
		}
	}
	y := frame(c, p, maxY, "Month", "Messages")
	x := timeAxis(c, p, months, "Jan 2006")

	var entries []legendEntry
	for j, role := range pivot.Roles {
		pts := make([]point, len(pivot.Rows))
		for i, r := range pivot.Rows {
			pts[i] = point{x.at(unix(r.Key)), y.at(float64(r.Counts[j]))}
		}
		color := RoleColor(role)
		c.area(pts, p.bottom(), color, 0.08)
		c.polyline(pts, color, 2.6, 1)
		entries = append(entries, legendEntry{titleCase(role), color})
	}
	legend(c, p, entries)
	return c.bytes()
}

var depthBars = []struct {
	category, label, color string
}{
	{model.CategoryDeepMultiTurn, "Deep dives", "#ff61ef"},
	{model.CategoryShortMultiTurn, "Quick loops", "#64ffda"},
	{model.CategoryOneAndDone, "One & done", "#ffe066"},
}

// DepthMixChart draws conversation counts per depth category.
func DepthMixChart(rows []model.CategoryCount) []byte {
	if len(rows) == 0 {
		return placeholder(standardWidth, standardHeight)
	}
	counts := make(map[string]int, len(rows))
	maxY := 0.0
	for _, r := range rows {
		counts[r.Category] = r.Conversations
		maxY = math.Max(maxY, float64(r.Conversations))
	}

	c := newCanvas(standardWidth, standardHeight)
	c.title("Conversation Depth Mix")
	p := newPlotArea(c)
	y := frame(c, p, maxY, "", "Conversations")

	slot := p.width / float64(len(depthBars))
	for i, bar := range depthBars {
		x0 := p.left + float64(i)*slot + slot*0.15
		top := y.at(float64(counts[bar.category]))
		c.rect(x0, top, slot*0.7, p.bottom()-top, bar.color, 1)
		c.text(x0+slot*0.35, p.bottom()+22, bar.label, "middle", 14, colorTick)
	}
	return c.bytes()
}

// ReplyTrendChart draws daily mean reply length with 7- and 30-day means.
func ReplyTrendChart(rows []model.DailyLength, characters bool) []byte {
	if len(rows) == 0 {
		return placeholder(wideWidth, wideHeight)
	}

	type series struct {
		label, color string
		width, alpha float64
		value        func(model.DailyLength) float64
	}
	title, yLabel := "Assistant Reply Length (Words)", "Words per reply"
	lines := []series{
		{"Daily mean", "#64ffda", 1, 0.4, func(d model.DailyLength) float64 { return d.MeanWordCount }},
		{"7-day mean", "#2dd4bf", 2, 1, func(d model.DailyLength) float64 { return d.MeanWordCountRoll7 }},
		{"30-day mean", "#0ea5e9", 2.5, 1, func(d model.DailyLength) float64 { return d.MeanWordCountRoll30 }},
	}
	if characters {
		title, yLabel = "Assistant Reply Length (Characters)", "Characters per reply"
		lines = []series{
			{"Daily mean", "#ff9f1c", 1, 0.4, func(d model.DailyLength) float64 { return d.MeanCharCount }},
			{"7-day mean", "#f3722c", 2, 1, func(d model.DailyLength) float64 { return d.MeanCharCountRoll7 }},
			{"30-day mean", "#f94144", 2.5, 1, func(d model.DailyLength) float64 { return d.MeanCharCountRoll30 }},
		}
	}

	maxY := 0.0
	dates := make([]time.Time, len(rows))
	for i, d := range rows {
		dates[i] = d.Date
		for _, s := range lines {
			if v := s.value(d); !math.IsNaN(v) {
				maxY = math.Max(maxY, v)
			}
		}
	}

	c := newCanvas(wideWidth, wideHeight)
	c.title(title)
	p := newPlotArea(c)
	y := frame(c, p, maxY, "Date", yLabel)
	x := timeAxis(c, p, dates, "Jan 02, 2006")

	entries := make([]legendEntry, 0, len(lines))
	for _, s := range lines {
		pts := make([]point, 0, len(rows))
		for _, d := range rows {
			if v := s.value(d); !math.IsNaN(v) {
				pts = append(pts, point{x.at(unix(d.Date)), y.at(v)})
			}
		}
		c.polyline(pts, s.color, s.width, s.alpha)
		entries = append(entries, legendEntry{s.label, s.color})
	}
	legend(c, p, entries)
	return c.bytes()
}

// viridis stops, low to high.
var viridis = [][3]float64{
	{0x44, 0x01, 0x54},
	{0x3b, 0x52, 0x8b},
	{0x21, 0x91, 0x8c},
	{0x5e, 0xc9, 0x62},
	{0xfd, 0xe7, 0x25},
}

// rampColor interpolates the viridis ramp at t in [0, 1].
func rampColor(t float64) string {
	t = math.Max(0, math.Min(1, t))
	pos := t * float64(len(viridis)-1)
	i := int(math.Floor(pos))
	if i >= len(viridis)-1 {
		i = len(viridis) - 2
	}
	frac := pos - float64(i)
	var rgb [3]int
	for k := range rgb {
		rgb[k] = int(math.Round(viridis[i][k] + (viridis[i+1][k]-viridis[i][k])*frac))
	}
	return hexColor(rgb)
}

// HeatmapChart draws a weekday by hour grid, Monday on top.
func HeatmapChart(rows []model.WeekdayHourCount) []byte {
	if len(rows) == 0 {
		return placeholder(wideWidth, standardHeight)
	}
	var grid [7][24]int
	peak := 0
	for _, r := range rows {
		if r.Hour < 0 || r.Hour > 23 {
			continue
		}
		grid[model.WeekdayRank(r.Weekday)][r.Hour] += r.Messages
		peak = max(peak, grid[model.WeekdayRank(r.Weekday)][r.Hour])
	}

	c := newCanvas(wideWidth, standardHeight)
	c.title("Messages by Weekday & Hour")
	p := plotArea{left: 120, top: 80, width: c.w - 120 - 140, height: c.h - 80 - 80}
	cw, ch := p.width/24, p.height/7

	for d, day := range model.WeekdayOrder {
		c.text(p.left-10, p.top+float64(d)*ch+ch/2+4, day.String(), "end", 13, colorTick)
		for h := 0; h < 24; h++ {
			frac := 0.0
			if peak > 0 {
				frac = float64(grid[d][h]) / float64(peak)
			}
			c.outlinedRect(p.left+float64(h)*cw, p.top+float64(d)*ch, cw, ch, rampColor(frac), "#1f1f3a")
		}
	}
	for h := 0; h < 24; h++ {
		c.text(p.left+float64(h)*cw+cw/2, p.bottom()+18, itoa(h), "middle", 12, colorTick)
	}
	c.text(p.left+p.width/2, c.h-24, "Hour", "middle", 14, colorText)

	// colour bar
	barX := p.right() + 30
	steps := 40
	for i := 0; i < steps; i++ {
		frac := float64(i) / float64(steps-1)
		c.rect(barX, p.bottom()-float64(i+1)*p.height/float64(steps), 18, p.height/float64(steps)+0.5, rampColor(frac), 1)
	}
	c.text(barX+26, p.top+10, itoa(peak), "start", 12, colorTick)
	c.text(barX+26, p.bottom(), "0", "start", 12, colorTick)
	c.rotatedText(barX+70, p.top+p.height/2, "Messages", 13, colorText)
	return c.bytes()
}

// CumulativeChart draws the running message total.
func CumulativeChart(rows []model.CumulativeCount) []byte {
	if len(rows) == 0 {
		return placeholder(wideWidth, standardHeight)
	}
	const color = "#7c3aed"

	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
	}
	c := newCanvas(wideWidth, standardHeight)
	c.title("Cumulative Messages")
	p := newPlotArea(c)
	y := frame(c, p, float64(rows[len(rows)-1].CumulativeMessages), "Date", "Messages")
	x := timeAxis(c, p, dates, "Jan 02, 2006")

	pts := make([]point, len(rows))
	for i, r := range rows {
		pts[i] = point{x.at(unix(r.Date)), y.at(float64(r.CumulativeMessages))}
	}
	c.area(pts, p.bottom(), color, 0.2)
	c.polyline(pts, color, 2.5, 1)
	return c.bytes()
}

// Histogram is the binned distribution of clipped values.
type Histogram struct {
	Edges  []float64 // len(Counts)+1
	Counts []int
}

// BuildHistogram bins values clipped at clip into bins equal-width bins
// spanning the observed range. The maximum lands in the last bin.
func BuildHistogram(values []float64, clip float64, bins int) Histogram {
	if len(values) == 0 || bins < 1 {
		return Histogram{}
	}
	clipped := make([]float64, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range values {
		clipped[i] = math.Min(v, clip)
		lo = math.Min(lo, clipped[i])
		hi = math.Max(hi, clipped[i])
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}

	h := Histogram{Edges: make([]float64, bins+1), Counts: make([]int, bins)}
	width := (hi - lo) / float64(bins)
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	for _, v := range clipped {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Counts[idx]++
	}
	return h
}

// ReplyHistogram draws the distribution of assistant reply lengths.
func ReplyHistogram(responses []model.FlatMessage, characters bool) []byte {
	if len(responses) == 0 {
		return placeholder(standardWidth, standardHeight)
	}
	unit, xLabel, color, clip := "Words", "Words", "#64ffda", float64(WordClip)
	if characters {
		unit, xLabel, color, clip = "Characters", "Characters", "#f94144", float64(CharacterClip)
	}

	values := make([]float64, len(responses))
	for i, m := range responses {
		if characters {
			values[i] = float64(m.CharCount)
		} else {
			values[i] = float64(m.WordCount)
		}
	}
	h := BuildHistogram(values, clip, HistogramBins)

	peak := 0
	for _, n := range h.Counts {
		peak = max(peak, n)
	}

	c := newCanvas(standardWidth, standardHeight)
	c.title("Assistant Reply Length Distribution (" + unit + ")")
	p := newPlotArea(c)
	y := frame(c, p, float64(peak), xLabel, "Responses")
	x := linear{d0: h.Edges[0], d1: h.Edges[len(h.Edges)-1], r0: p.left, r1: p.right()}

	for i, n := range h.Counts {
		if n == 0 {
			continue
		}
		x0, x1 := x.at(h.Edges[i]), x.at(h.Edges[i+1])
		top := y.at(float64(n))
		c.rect(x0+0.5, top, x1-x0-1, p.bottom()-top, color, 0.85)
	}
	for _, v := range niceTicks(h.Edges[len(h.Edges)-1]) {
		if v < h.Edges[0] {
			continue
		}
		c.text(x.at(v), p.bottom()+20, formatTick(v), "middle", 12, colorTick)
	}
	return c.bytes()
}

// timeAxis labels up to six evenly spaced instants and returns the x scale.
func timeAxis(c *canvas, p plotArea, ts []time.Time, layout string) linear {
	first, last := ts[0], ts[0]
	for _, t := range ts[1:] {
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}
	pad := p.width * 0.02
	x := linear{d0: unix(first), d1: unix(last), r0: p.left + pad, r1: p.right() - pad}

	labels := 6
	if len(ts) < labels {
		labels = len(ts)
	}
	if first.Equal(last) {
		labels = 1
	}
	for i := 0; i < labels; i++ {
		v := unix(first)
		if labels > 1 {
			v += (unix(last) - unix(first)) * float64(i) / float64(labels-1)
		}
		t := time.Unix(int64(v), 0).UTC()
		c.text(x.at(v), p.bottom()+22, t.Format(layout), "middle", 12, colorTick)
	}
	return x
}

func unix(t time.Time) float64 { return float64(t.Unix()) }

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
