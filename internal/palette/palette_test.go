package palette

import (
	"errors"
	"testing"
)

func TestLoad(t *testing.T) {
	for _, name := range Available() {
		th, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q) failed: %v", name, err)
		}
		if th.Name != name {
			t.Errorf("Load(%q).Name = %q", name, th.Name)
		}
		if len(th.Swatches) == 0 {
			t.Errorf("theme %q has no swatches", name)
		}
		for _, c := range append([]string{th.Bg, th.Fg, th.Ghost, th.Conflict}, th.Swatches...) {
			if !ValidHex(c) {
				t.Errorf("theme %q has invalid color %q", name, c)
			}
		}
	}

	th, err := Load("does-not-exist")
	if err != nil || th.Name != DefaultTheme {
		t.Errorf("unknown theme should fall back to %q, got %v, %v", DefaultTheme, th, err)
	}
	if !IsAvailable("Latte") {
		t.Error("IsAvailable should be case-insensitive")
	}
}

func TestService_ColorFor(t *testing.T) {
	s, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}

	first := s.ColorFor("Math")
	if first != s.ColorFor("  math ") {
		t.Error("ColorFor should be stable and case-insensitive")
	}

	if err := s.Register("math", "#ABCDEF"); err != nil {
		t.Fatal(err)
	}
	if got := s.ColorFor("Math"); got != "#abcdef" {
		t.Errorf("ColorFor(Math) = %q, want registered #abcdef", got)
	}
	if err := s.Register("art", "red"); !errors.Is(err, ErrInvalidColor) {
		t.Errorf("Register(red) error = %v, want ErrInvalidColor", err)
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		a, b  string
		ratio float64
		want  string
	}{
		{a: "#000000", b: "#ffffff", ratio: 0, want: "#000000"},
		{a: "#000000", b: "#ffffff", ratio: 1, want: "#ffffff"},
		{a: "#000000", b: "#ffffff", ratio: 0.5, want: "#7f7f7f"},
		{a: "#000000", b: "#ffffff", ratio: 7, want: "#ffffff"},
		{a: "bogus", b: "#ffffff", ratio: 0.5, want: "bogus"},
	}
	for _, tt := range tests {
		if got := Blend(tt.a, tt.b, tt.ratio); got != tt.want {
			t.Errorf("Blend(%q, %q, %v) = %q, want %q", tt.a, tt.b, tt.ratio, got, tt.want)
		}
	}
}

func TestTextOnPrefersContrast(t *testing.T) {
	bg := "#f0f0f0"
	light := "#ffffff"
	dark := "#111111"

	if got := TextOn(bg, light, dark); got != dark {
		t.Fatalf("TextOn(%q, %q, %q) = %q, want %q", bg, light, dark, got, dark)
	}
	if got := TextOn("#101010", light, dark); got != light {
		t.Fatalf("TextOn on dark = %q, want %q", got, light)
	}
}
