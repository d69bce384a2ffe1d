package signature

import "testing"

func TestFromFloorStableUnderFraction(t *testing.T) {
	// FromFloor(sig.lat + eps, sig.lon + eps) == sig for eps in (0,1).
	sig := Signature{Lat: 41, Lon: -88}
	for _, eps := range []float64{0.01, 0.5, 0.999} {
		got := FromFloor(float64(sig.Lat)+eps, float64(sig.Lon)+eps)
		if got != sig {
			t.Errorf("FromFloor(%v+%v, %v+%v) = %v, want %v", sig.Lat, eps, sig.Lon, eps, got, sig)
		}
	}
}

func TestRelativePathQuarterRule(t *testing.T) {
	// Quarter digit and magnitudes derive from the floored signature.
	tests := []struct {
		lat, lon float64
		want     string
	}{
		{41.85, -87.65, "0/41/88.tif"},
		{-10, 20, "3/10/20.tif"},
		{10, 20, "1/10/20.tif"},
		{10, -20, "0/10/20.tif"},
		{-10, -20, "2/10/20.tif"},
	}
	for _, tc := range tests {
		sig := FromFloor(tc.lat, tc.lon)
		got := sig.RelativePath(DefaultPathTemplate, "tif")
		if got != tc.want {
			t.Errorf("RelativePath(FromFloor(%v,%v)) = %q, want %q", tc.lat, tc.lon, got, tc.want)
		}
	}
}

func TestParseRelativePathRoundTrip(t *testing.T) {
	sigs := []Signature{
		{Lat: 41, Lon: -87},
		{Lat: -10, Lon: 20},
		{Lat: 10, Lon: 20},
		{Lat: 10, Lon: -20},
		{Lat: -10, Lon: -20},
		{Lat: 0, Lon: 0},
	}
	for _, sig := range sigs {
		rel := sig.RelativePath(DefaultPathTemplate, "tif")
		got, err := ParseRelativePath(rel)
		if err != nil {
			t.Fatalf("ParseRelativePath(%q) error: %v", rel, err)
		}
		if got != sig {
			t.Errorf("round trip of %v via %q produced %v", sig, rel, got)
		}
	}
}

func TestOrdering(t *testing.T) {
	a := Signature{Lat: 10, Lon: 20}
	b := Signature{Lat: 10, Lon: 21}
	c := Signature{Lat: 11, Lon: -90}

	if !a.Less(b) {
		t.Errorf("expected %v < %v", a, b)
	}
	if !b.Less(c) {
		t.Errorf("expected %v < %v", b, c)
	}
	if a.Less(a) {
		t.Errorf("Less should be irreflexive")
	}
}

func TestGeorectangleSizeMeters(t *testing.T) {
	sig := Signature{Lat: 60, Lon: 30}
	width, height := sig.GeorectangleSizeMeters()
	if width <= 0 || height <= 0 {
		t.Errorf("expected positive tile dimensions, got width=%v height=%v", width, height)
	}
	// A 1-degree tile is roughly 111km tall everywhere, narrower in width
	// away from the equator; sanity bound rather than exact pin.
	if height < 100000 || height > 112000 {
		t.Errorf("height out of expected range: %v", height)
	}
}
