package facematch

import (
	"testing"

	"github.com/kozaktomas/face-finder/internal/database"
)

func TestClampBBox(t *testing.T) {
	tests := []struct {
		name   string
		bbox   []float64
		width  int
		height int
		want   database.BBox
		ok     bool
	}{
		{
			name:   "inside image",
			bbox:   []float64{10.7, 20.2, 110.9, 140.5},
			width:  800,
			height: 600,
			want:   database.BBox{X: 10, Y: 20, W: 100, H: 120},
			ok:     true,
		},
		{
			name:   "overflows every edge",
			bbox:   []float64{-15, -3.5, 900, 700},
			width:  800,
			height: 600,
			want:   database.BBox{X: 0, Y: 0, W: 800, H: 600},
			ok:     true,
		},
		{
			name:   "entirely outside",
			bbox:   []float64{900, 10, 950, 60},
			width:  800,
			height: 600,
			want:   database.BBox{X: 900, Y: 10},
			ok:     true,
		},
		{
			name:  "too few coordinates",
			bbox:  []float64{1, 2, 3},
			width: 800, height: 600,
			ok: false,
		},
		{
			name:  "zero size image",
			bbox:  []float64{0, 0, 10, 10},
			width: 0, height: 600,
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClampBBox(tt.bbox, tt.width, tt.height)
			if ok != tt.ok {
				t.Fatalf("ClampBBox(%v) ok = %v, want %v", tt.bbox, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ClampBBox(%v) = %+v, want %+v", tt.bbox, got, tt.want)
			}
		})
	}
}

func TestIsTooSmall(t *testing.T) {
	tests := []struct {
		box  database.BBox
		want bool
	}{
		{database.BBox{W: 30, H: 30}, false},
		{database.BBox{W: 29, H: 100}, true},
		{database.BBox{W: 100, H: 29}, true},
		{database.BBox{W: 0, H: 0}, true},
	}
	for _, tt := range tests {
		if got := IsTooSmall(tt.box, 30); got != tt.want {
			t.Errorf("IsTooSmall(%+v, 30) = %v, want %v", tt.box, got, tt.want)
		}
	}
}

func TestSortLeftToRight(t *testing.T) {
	type face struct {
		id  string
		box database.BBox
	}
	faces := []face{
		{"c", database.BBox{X: 300}},
		{"a", database.BBox{X: 10}},
		{"b1", database.BBox{X: 120}},
		{"b2", database.BBox{X: 120}},
	}

	SortLeftToRight(faces, func(f face) database.BBox { return f.box })

	want := []string{"a", "b1", "b2", "c"}
	for i, f := range faces {
		if f.id != want[i] {
			t.Errorf("position %d = %s, want %s", i, f.id, want[i])
		}
	}
}
