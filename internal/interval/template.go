package interval

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownTemplate is returned when a template lookup fails.
var ErrUnknownTemplate = errors.New("unknown template")

// Template is a draggable palette entry that becomes an Interval on drop.
type Template struct {
	Category        string `toml:"category"`
	Label           string `toml:"label"`
	DefaultDuration int    `toml:"duration"` // minutes
	Color           string `toml:"color"`    // optional, palette decides when empty
}

// Name returns the label shown in palettes, falling back to the category.
func (t Template) Name() string {
	if t.Label != "" {
		return t.Label
	}
	return t.Category
}

// Instantiate creates an unsaved interval from the template.
func (t Template) Instantiate(date time.Time, start int) *Interval {
	duration := t.DefaultDuration
	if duration <= 0 {
		duration = 60
	}
	return &Interval{
		Date:      truncateToDay(date),
		Label:     t.Name(),
		Category:  t.Category,
		Start:     start,
		End:       start + duration,
		Color:     t.Color,
		CreatedAt: time.Now(),
	}
}

// TemplateSource supplies the draggable templates.
type TemplateSource interface {
	Templates() []Template
}

// Templates is a static TemplateSource.
type Templates []Template

// Templates returns the list itself.
func (ts Templates) Templates() []Template {
	return ts
}

// Find returns the template with the given category or label (case-insensitive).
func (ts Templates) Find(name string) (Template, error) {
	for _, t := range ts {
		if strings.EqualFold(t.Category, name) || strings.EqualFold(t.Label, name) {
			return t, nil
		}
	}
	return Template{}, ErrUnknownTemplate
}
