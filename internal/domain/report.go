package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Required report categories, in the order the prompt requests them.
const (
	CategoryAgenda   = "📅 Agenda del Día"
	CategoryWeather  = "🌤️ Clima y Consejos"
	CategoryEconomy  = "📈 Análisis Económico Local"
	CategoryPhones   = "☎️ Teléfonos Útiles"
	summaryCategory  = CategoryEconomy
	maxExcerptLength = 200
)

var requiredCategories = [...]string{CategoryAgenda, CategoryWeather, CategoryEconomy, CategoryPhones}

// RequiredCategories returns the fixed set of category names every report
// must contain.
func RequiredCategories() []string {
	return append([]string(nil), requiredCategories[:]...)
}

// Category is one titled Markdown section of a report.
type Category struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ReportRecord is the persisted daily artifact consumed by the frontend.
type ReportRecord struct {
	Title       string     `json:"title"`
	LastUpdated string     `json:"lastUpdated"`
	Categories  []Category `json:"categories"`
}

// Category returns the content of the named category.
func (r ReportRecord) Category(name string) (string, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c.Content, true
		}
	}
	return "", false
}

// Summary returns the part of the record carried into the next day's
// prompt as the previous-day analysis.
func (r ReportRecord) Summary() string {
	s, _ := r.Category(summaryCategory)
	return s
}

// ReportRequest fully determines a compiled prompt. It is never persisted.
type ReportRequest struct {
	Context            LocalityContext
	PreviousDaySummary string
	GeneratedAt        time.Time
}

// MarshalRecord renders a record as indented UTF-8 JSON. HTML escaping is
// disabled so Markdown links keep their literal '&', '<' and '>'.
func MarshalRecord(r ReportRecord) ([]byte, error) {
	if r.Categories == nil {
		r.Categories = []Category{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("serialize report record: %w", err)
	}
	return buf.Bytes(), nil
}

// Excerpt truncates s to at most 200 runes for diagnostics.
func Excerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= maxExcerptLength {
		return s
	}
	return string(runes[:maxExcerptLength]) + "…"
}
