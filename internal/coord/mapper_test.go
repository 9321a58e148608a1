package coord

import (
	"errors"
	"math"
	"testing"
)

// 06:00-20:00 over 840 rows: one row per minute.
func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := New(Config{WindowStart: 6, WindowEnd: 20, Height: 840, SnapMinutes: 15})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return m
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{name: "valid", cfg: Config{WindowStart: 6, WindowEnd: 20, SnapMinutes: 15}},
		{name: "zero snap uses default", cfg: Config{WindowStart: 0, WindowEnd: 24}},
		{name: "inverted window", cfg: Config{WindowStart: 20, WindowEnd: 6}, wantErr: ErrInvalidWindow},
		{name: "end past midnight", cfg: Config{WindowStart: 6, WindowEnd: 25}, wantErr: ErrInvalidWindow},
		{name: "negative snap", cfg: Config{WindowStart: 6, WindowEnd: 20, SnapMinutes: -5}, wantErr: ErrInvalidSnap},
		{name: "snap not dividing window", cfg: Config{WindowStart: 6, WindowEnd: 7, SnapMinutes: 25}, wantErr: ErrInvalidSnap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMapper_PixelToTime(t *testing.T) {
	m := newTestMapper(t)

	tests := []struct {
		name string
		y    float64
		want int
	}{
		{name: "top", y: 0, want: 360},
		{name: "09:00", y: 180, want: 540},
		{name: "fraction rounds", y: 180.6, want: 541},
		{name: "bottom", y: 840, want: 1200},
		{name: "above track clamps", y: -50, want: 360},
		{name: "below track clamps", y: 5000, want: 1200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.PixelToTime(tt.y); got != tt.want {
				t.Errorf("PixelToTime(%v) = %d, want %d", tt.y, got, tt.want)
			}
		})
	}
}

func TestMapper_ZeroHeight(t *testing.T) {
	m := newTestMapper(t).WithHeight(0)

	if got := m.PixelToTime(123); got != 360 {
		t.Errorf("PixelToTime on zero height = %d, want window start 360", got)
	}
	if got := m.Snap(42); got != 0 {
		t.Errorf("Snap on zero height = %v, want 0", got)
	}
	if got := m.TimeToPixel(600); got != 0 {
		t.Errorf("TimeToPixel on zero height = %v, want 0", got)
	}
}

func TestMapper_SnapIdempotent(t *testing.T) {
	heights := []float64{840, 37, 600.5, 1}
	for _, h := range heights {
		m := newTestMapper(t).WithHeight(h)
		for y := -20.0; y <= h+20; y += 0.37 {
			once := m.Snap(y)
			if twice := m.Snap(once); twice != once {
				t.Fatalf("height %v: Snap(Snap(%v)) = %v, want %v", h, y, twice, once)
			}
		}
	}
}

func TestMapper_RoundTrip(t *testing.T) {
	for _, h := range []float64{840, 420, 56, 1234.5} {
		m := newTestMapper(t).WithHeight(h)
		for minute := m.WindowStart(); minute <= m.WindowEnd(); minute++ {
			got := m.PixelToTime(m.TimeToPixel(minute))
			if diff := got - minute; diff < -m.Resolution() || diff > m.Resolution() {
				t.Fatalf("height %v: PixelToTime(TimeToPixel(%d)) = %d", h, minute, got)
			}
		}
	}
}

func TestMapper_DragByFortySevenMinutes(t *testing.T) {
	m := newTestMapper(t)
	start, end := 540, 600

	dy := m.DurationToPixels(47)
	top := m.Snap(m.TimeToPixel(start) + dy)
	newStart := m.PixelToTime(top)
	newStart, newEnd := m.ClampSpan(newStart, end-start)

	if newStart != 585 {
		t.Errorf("new start = %d, want 585 (09:45)", newStart)
	}
	if newEnd-newStart != 60 {
		t.Errorf("duration = %d, want 60", newEnd-newStart)
	}
}

func TestMapper_SnapMinutes(t *testing.T) {
	m := newTestMapper(t)
	tests := []struct{ in, want int }{
		{in: 587, want: 585},
		{in: 593, want: 600},
		{in: 585, want: 585},
	}
	for _, tt := range tests {
		if got := m.SnapMinutes(tt.in); got != tt.want {
			t.Errorf("SnapMinutes(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMapper_ClampSpan(t *testing.T) {
	m := newTestMapper(t)
	tests := []struct {
		name               string
		start, duration    int
		wantStart, wantEnd int
	}{
		{name: "inside", start: 540, duration: 60, wantStart: 540, wantEnd: 600},
		{name: "before window", start: 300, duration: 60, wantStart: 360, wantEnd: 420},
		{name: "past window", start: 1180, duration: 60, wantStart: 1140, wantEnd: 1200},
		{name: "longer than window", start: 0, duration: 2000, wantStart: 360, wantEnd: 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := m.ClampSpan(tt.start, tt.duration)
			if s != tt.wantStart || e != tt.wantEnd {
				t.Errorf("ClampSpan(%d, %d) = %d-%d, want %d-%d", tt.start, tt.duration, s, e, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	c := Columns{Count: 7, Width: 700, Left: 10}

	tests := []struct {
		x    float64
		want int
	}{
		{x: 10, want: 0},
		{x: 109.9, want: 0},
		{x: 110, want: 1},
		{x: 705, want: 6},
		{x: -100, want: 0},
		{x: 9999, want: 6},
	}
	for _, tt := range tests {
		if got := c.DayAt(tt.x); got != tt.want {
			t.Errorf("DayAt(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}

	if got := c.LeftOf(3); math.Abs(got-310) > 1e-9 {
		t.Errorf("LeftOf(3) = %v, want 310", got)
	}
	if c.Contains(9) || !c.Contains(10) || c.Contains(710) {
		t.Error("Contains() boundaries are wrong")
	}
}
