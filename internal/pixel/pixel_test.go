package pixel

import (
	"errors"
	"image"
	"testing"
)

var (
	black = RGB(0, 0, 0)
	white = RGB(255, 255, 255)
	red   = RGB(200, 10, 10)
	green = RGB(10, 200, 10)
	blue  = RGB(10, 10, 200)
)

// stripes builds an image with horizontal stripes of the given heights.
func stripes(width int, heights []int, colors []Color) *Frame {
	total := 0
	for _, h := range heights {
		total += h
	}
	f := NewFrame(width, total)
	y := 0
	for i, h := range heights {
		f.Fill(image.Rect(0, y, width, y+h), colors[i])
		y += h
	}
	return f
}

func TestColorDistance(t *testing.T) {
	a := RGB(10, 20, 30)
	b := RGB(13, 18, 30)
	if d := a.Distance(b); d != 5 {
		t.Errorf("Expected distance 5, got %d", d)
	}
	if a.Matches(b, 5) {
		t.Error("Expected distance 5 not to match tolerance 5")
	}
	if !a.Matches(b, 6) {
		t.Error("Expected distance 5 to match tolerance 6")
	}
	if !a.Matches(a, 0) || a.Matches(b, 0) {
		t.Error("Expected tolerance 0 to mean exact equality")
	}
}

func TestColorLuma(t *testing.T) {
	tests := []struct {
		c    Color
		want int
	}{
		{black, 0},
		{white, 255},
		{RGB(128, 128, 128), 128},
		{RGB(255, 0, 0), 76},
	}
	for _, tt := range tests {
		if got := tt.c.Luma(); got != tt.want {
			t.Errorf("Luma(%v) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestCountBands(t *testing.T) {
	img := stripes(4, []int{3, 1, 5, 2}, []Color{red, green, blue, red})
	if n := CountBands(img, image.Pt(1, 0), Down); n != 4 {
		t.Errorf("Expected 4 bands, got %d", n)
	}
	if n := CountBands(img, image.Pt(1, 10), Up); n != 4 {
		t.Errorf("Expected 4 bands scanning up, got %d", n)
	}
	if n := CountBands(img, image.Pt(0, 0), Right); n != 1 {
		t.Errorf("Expected 1 band along a stripe, got %d", n)
	}
	if n := CountBands(img, image.Pt(-1, 0), Down); n != 0 {
		t.Errorf("Expected 0 bands from outside the image, got %d", n)
	}
}

func TestCountBandsCollapsesRepeats(t *testing.T) {
	img := stripes(1, []int{2, 2, 2}, []Color{red, red, green})
	if n := CountBands(img, image.Pt(0, 0), Down); n != 2 {
		t.Errorf("Expected 2 bands, got %d", n)
	}
}

func TestFindBand(t *testing.T) {
	img := stripes(4, []int{3, 1, 5, 2}, []Color{red, green, blue, red})

	b := FindBand(img, 0, image.Pt(2, 0), Down)
	if b.Start != image.Pt(2, 0) || b.End != image.Pt(2, 2) || b.Middle != image.Pt(2, 1) {
		t.Errorf("Unexpected band 0: %+v", b)
	}

	b = FindBand(img, 2, image.Pt(2, 0), Down)
	if b.Start != image.Pt(2, 4) || b.End != image.Pt(2, 8) || b.Middle != image.Pt(2, 6) {
		t.Errorf("Unexpected band 2: %+v", b)
	}

	b = FindBand(img, 1, image.Pt(2, 10), Up)
	if b.Start != image.Pt(2, 8) || b.End != image.Pt(2, 4) || b.Middle != image.Pt(2, 6) {
		t.Errorf("Unexpected band 1 scanning up: %+v", b)
	}
}

func TestFindBandMissing(t *testing.T) {
	img := stripes(4, []int{3, 1, 5, 2}, []Color{red, green, blue, red})

	tests := []struct {
		name  string
		n     int
		start image.Point
	}{
		{"beyond last band", 5, image.Pt(0, 0)},
		{"band cut off by the edge", 3, image.Pt(0, 0)},
		{"negative index", -1, image.Pt(0, 0)},
		{"start outside", 0, image.Pt(9, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := FindBand(img, tt.n, tt.start, Down)
			if b.Found() {
				t.Errorf("Expected NoBand, got %+v", b)
			}
			if b.Start != image.Pt(-1, -1) || b.Middle != image.Pt(-1, -1) || b.End != image.Pt(-1, -1) {
				t.Errorf("Expected (-1,-1) sentinel, got %+v", b)
			}
		})
	}
}

func TestChangedRegionSingleRectangle(t *testing.T) {
	before := NewFrame(50, 40)
	before.Fill(Bounds(before), RGB(40, 40, 40))
	after := Crop(before, Bounds(before))
	want := image.Rect(12, 7, 30, 22)
	after.Fill(want, RGB(40, 40, 66))

	got, err := ChangedRegion(before, after, 25)
	if err != nil {
		t.Fatalf("ChangedRegion failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestChangedRegionThreshold(t *testing.T) {
	before := NewFrame(20, 20)
	after := NewFrame(20, 20)
	after.Fill(image.Rect(5, 5, 10, 10), RGB(25, 25, 25))

	if _, err := ChangedRegion(before, after, 25); !errors.Is(err, ErrNoChange) {
		t.Errorf("Expected ErrNoChange for a delta of exactly 25, got %v", err)
	}
}

func TestChangedRegionWidestRun(t *testing.T) {
	before := NewFrame(60, 30)
	after := NewFrame(60, 30)
	after.Fill(image.Rect(2, 3, 8, 5), white)    // 6 wide
	after.Fill(image.Rect(20, 10, 35, 12), white) // 15 wide
	after.Fill(image.Rect(25, 1, 26, 28), white)  // same run, taller
	after.Fill(image.Rect(40, 0, 55, 30), white)  // 15 wide, later

	got, err := ChangedRegion(before, after, 25)
	if err != nil {
		t.Fatalf("ChangedRegion failed: %v", err)
	}
	want := image.Rect(20, 1, 35, 28)
	if got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestChangedRegionRunAtRightEdge(t *testing.T) {
	before := NewFrame(30, 10)
	after := NewFrame(30, 10)
	after.Fill(image.Rect(10, 2, 30, 4), white)

	got, err := ChangedRegion(before, after, 25)
	if err != nil {
		t.Fatalf("ChangedRegion failed: %v", err)
	}
	if want := image.Rect(10, 2, 30, 4); got != want {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestChangedRegionSizeMismatch(t *testing.T) {
	if _, err := ChangedRegion(NewFrame(10, 10), NewFrame(11, 10), 25); err == nil {
		t.Error("Expected an error for mismatched sizes")
	}
}

// panels draws two bordered panels side by side, as a cascading menu does.
func panels() (*Frame, image.Rectangle, image.Rectangle) {
	border := RGB(120, 120, 120)
	fill := RGB(200, 200, 200)
	f := NewFrame(100, 40)
	first := image.Rect(10, 5, 40, 30)
	second := image.Rect(40, 5, 80, 38)
	for _, r := range []image.Rectangle{first, second} {
		f.Fill(r, border)
		f.Fill(r.Inset(1), fill)
	}
	return f, first, second
}

func TestLastPanel(t *testing.T) {
	f, first, second := panels()
	region := image.Rect(first.Min.X, first.Min.Y, second.Max.X, second.Max.Y)

	got, err := LastPanel(f, region, 50)
	if err != nil {
		t.Fatalf("LastPanel failed: %v", err)
	}
	if got != second {
		t.Errorf("Expected %v, got %v", second, got)
	}
}

func TestLastPanelNoEdge(t *testing.T) {
	f := NewFrame(20, 10)
	f.Fill(image.Rect(0, 0, 20, 1), white)
	if _, err := LastPanel(f, image.Rect(0, 0, 20, 10), 50); !errors.Is(err, ErrNoPanelEdge) {
		t.Errorf("Expected ErrNoPanelEdge, got %v", err)
	}
	if _, err := LastPanel(f, image.Rect(0, 0, 20, 1), 50); !errors.Is(err, ErrNoPanelEdge) {
		t.Errorf("Expected ErrNoPanelEdge for a one-row region, got %v", err)
	}
}

func TestFindAllColumnMajor(t *testing.T) {
	img := NewFrame(30, 30)
	tpl := NewFrame(2, 2)
	tpl.Fill(Bounds(tpl), red)
	for _, p := range []image.Point{{20, 3}, {5, 20}, {5, 4}} {
		img.Fill(image.Rectangle{Min: p, Max: p.Add(image.Pt(2, 2))}, red)
	}

	hits := FindAll(img, tpl)
	want := []image.Point{{5, 4}, {5, 20}, {20, 3}}
	if len(hits) != len(want) {
		t.Fatalf("Expected %d hits, got %v", len(want), hits)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("Hit %d: expected %v, got %v", i, want[i], hits[i])
		}
	}
	if MatchesAt(img, tpl, image.Pt(29, 29)) {
		t.Error("Expected no match when the template overhangs the image")
	}
}

func TestFingerprint(t *testing.T) {
	f, _, _ := panels()
	a, err := NewFingerprint(f)
	if err != nil {
		t.Fatalf("NewFingerprint failed: %v", err)
	}
	b, err := NewFingerprint(Crop(f, Bounds(f)))
	if err != nil {
		t.Fatalf("NewFingerprint failed: %v", err)
	}
	d, err := a.Distance(b)
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if d != 0 {
		t.Errorf("Expected identical frames to hash equally, got distance %d", d)
	}
	if _, err := (Fingerprint{}).Distance(a); err == nil {
		t.Error("Expected an error for an empty fingerprint")
	}
}
