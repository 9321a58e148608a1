package palette

import (
	"errors"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ErrInvalidColor is returned for colors that are not "#rrggbb".
var ErrInvalidColor = errors.New("color must be in #rrggbb format")

// Service maps categories to colors. Categories without a registered
// color get a stable swatch picked by hashing the category name.
// It is safe for concurrent use.
type Service struct {
	mu       sync.RWMutex
	theme    *Theme
	assigned map[string]string
}

// New creates a service for a theme. A nil theme loads the default.
func New(t *Theme) (*Service, error) {
	if t == nil {
		var err error
		if t, err = Load(DefaultTheme); err != nil {
			return nil, err
		}
	}
	return &Service{theme: t, assigned: make(map[string]string)}, nil
}

// Theme returns the active theme.
func (s *Service) Theme() *Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.theme
}

// Register assigns a color to a category. Category names are
// case-insensitive.
func (s *Service) Register(category, color string) error {
	if !ValidHex(color) {
		return ErrInvalidColor
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assigned[key(category)] = strings.ToLower(color)
	return nil
}

// ColorFor returns the color of a category.
func (s *Service) ColorFor(category string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.assigned[key(category)]; ok {
		return c
	}
	sw := s.theme.Swatches
	h := fnv.New32a()
	_, _ = h.Write([]byte(key(category)))
	return sw[h.Sum32()%uint32(len(sw))]
}

// TextFor returns a readable foreground for text on a block of color.
func (s *Service) TextFor(color string) string {
	t := s.Theme()
	return TextOn(color, t.Fg, t.Bg)
}

// Block returns the style of an interval block of the given color.
// Muted blocks are blended toward the background.
func (s *Service) Block(color string, muted bool) lipgloss.Style {
	t := s.Theme()
	if !ValidHex(color) {
		color = t.Accent
	}
	if muted {
		color = Blend(color, t.Bg, 0.6)
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color(s.TextFor(color)))
}

// GhostStyle returns the style of the drag preview.
func (s *Service) GhostStyle() lipgloss.Style {
	t := s.Theme()
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.Ghost)).
		Background(lipgloss.Color(t.BgSelection)).
		Bold(true)
}

func key(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}
