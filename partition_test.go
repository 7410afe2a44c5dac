package mandelbrot

import (
	"errors"
	"fmt"
	"testing"
)

func TestPartitionCovers(t *testing.T) {
	for _, h := range []int{0, 1, 2, 3, 7, 100, 101, 900} {
		for _, step := range []int{1, 2, 3, 8} {
			for _, workers := range []int{1, 2, 3, 4, 16, 200} {
				name := fmt.Sprintf("h%d_s%d_w%d", h, step, workers)
				t.Run(name, func(t *testing.T) {
					units, err := Partition(h, step, workers)
					if err != nil {
						t.Fatal(err)
					}
					if len(units) != workers {
						t.Fatalf("got %d units, want %d", len(units), workers)
					}
					if err := ValidateCover(units, h); err != nil {
						t.Fatal(err)
					}
					// Only the last non-empty unit may end on a partial block.
					live := NonEmpty(units)
					for i := 0; i+1 < len(live); i++ {
						if live[i].Rows()%step != 0 {
							t.Errorf("unit %d (%v) splits a pixel-step block", i, live[i])
						}
					}
				})
			}
		}
	}
}

func TestPartitionShortFrame(t *testing.T) {
	// One row with two-row blocks: the only live unit ends mid-block and
	// the second worker gets nothing.
	units, err := Partition(1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []WorkUnit{
		{RowStart: 0, RowEnd: 1, PixelStep: 2},
		{RowStart: 1, RowEnd: 1, PixelStep: 2},
	}
	if len(units) != len(want) {
		t.Fatalf("got %d units, want %d", len(units), len(want))
	}
	for i := range want {
		if units[i] != want[i] {
			t.Errorf("unit %d = %v, want %v", i, units[i], want[i])
		}
	}
	if live := NonEmpty(units); len(live) != 1 {
		t.Errorf("NonEmpty() kept %d units, want 1", len(live))
	}
}

func TestPartitionEvenSplit(t *testing.T) {
	units, err := Partition(100, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	for i, u := range units {
		if u.RowStart != i*25 || u.RowEnd != (i+1)*25 {
			t.Errorf("unit %d = %v", i, u)
		}
	}
}

func TestPartitionErrors(t *testing.T) {
	tests := []struct {
		name    string
		h, s, w int
		want    error
	}{
		{"no workers", 100, 1, 0, ErrNoWorkers},
		{"negative workers", 100, 1, -2, ErrNoWorkers},
		{"zero step", 100, 0, 4, ErrInvalidPixelStep},
		{"negative height", -1, 1, 4, ErrPartitionCover},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Partition(tt.h, tt.s, tt.w); !errors.Is(err, tt.want) {
				t.Errorf("Partition() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateCover(t *testing.T) {
	tests := []struct {
		name  string
		units []WorkUnit
		want  error
	}{
		{"ok", []WorkUnit{{0, 5, 1}, {5, 5, 1}, {5, 10, 1}}, nil},
		{"inverted", []WorkUnit{{0, 5, 1}, {6, 5, 1}}, ErrInvertedUnit},
		{"gap", []WorkUnit{{0, 4, 1}, {5, 10, 1}}, ErrPartitionCover},
		{"overlap", []WorkUnit{{0, 6, 1}, {5, 10, 1}}, ErrPartitionCover},
		{"short", []WorkUnit{{0, 9, 1}}, ErrPartitionCover},
		{"bad step", []WorkUnit{{0, 10, 0}}, ErrInvalidPixelStep},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCover(tt.units, 10)
			if tt.want == nil {
				if err != nil {
					t.Errorf("ValidateCover() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateCover() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNonEmptyAndFullFrame(t *testing.T) {
	units, _ := Partition(3, 1, 8)
	ne := NonEmpty(units)
	if len(ne) != 3 {
		t.Errorf("NonEmpty kept %d units, want 3", len(ne))
	}
	if len(units) != 8 {
		t.Error("NonEmpty modified its input")
	}

	f := FullFrame(480, 0)
	if f != (WorkUnit{RowStart: 0, RowEnd: 480, PixelStep: 1}) {
		t.Errorf("FullFrame = %v", f)
	}
}
