package chart

import "testing"

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func changes(pairs ...interface{}) []struct {
	Beats Triple
	Bpm   float64
} {
	var out []struct {
		Beats Triple
		Bpm   float64
	}
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, struct {
			Beats Triple
			Bpm   float64
		}{Beats: pairs[i].(Triple), Bpm: pairs[i+1].(float64)})
	}
	return out
}

func TestConstantBpm(t *testing.T) {
	bl := NewBpmList(changes(Triple{0, 0, 1}, 120.0))
	// At 120 BPM, 1 beat = 0.5s.
	if got := bl.TimeAtBeats(4); abs(got-2.0) > 1e-6 {
		t.Errorf("TimeAtBeats(4) = %v, want 2.0", got)
	}
}

func TestBpmChange(t *testing.T) {
	bl := NewBpmList(changes(Triple{0, 0, 1}, 120.0, Triple{4, 0, 1}, 60.0))
	// First 4 beats at 120bpm = 2s, then beat 6 is 2 more beats at 60bpm = 2s, total 4s.
	if got := bl.TimeAtBeats(6); abs(got-4.0) > 1e-6 {
		t.Errorf("TimeAtBeats(6) = %v, want 4.0", got)
	}
}

func TestBeatsAtTime(t *testing.T) {
	bl := NewBpmList(changes(Triple{0, 0, 1}, 120.0))
	if got := bl.BeatsAtTime(2.0); abs(got-4.0) > 1e-6 {
		t.Errorf("BeatsAtTime(2.0) = %v, want 4.0", got)
	}
}

func TestTriple(t *testing.T) {
	tr := Triple{1, 1, 2}
	if got := tr.Beats(); abs(got-1.5) > 1e-9 {
		t.Errorf("Triple{1,1,2}.Beats() = %v, want 1.5", got)
	}
}

func TestRoundTrip(t *testing.T) {
	bl := NewBpmList(changes(Triple{0, 0, 1}, 140.0, Triple{8, 0, 1}, 175.0, Triple{20, 0, 1}, 93.5))
	for _, b := range []float64{0, 3.25, 8, 12.7, 19.99, 45} {
		time := bl.TimeAtBeats(b)
		back := bl.BeatsAtTime(time)
		if abs(back-b) > 1e-4 {
			t.Errorf("round trip at beats=%v: got %v back", b, back)
		}
	}
}

func TestSeekBackward(t *testing.T) {
	bl := NewBpmList(changes(Triple{0, 0, 1}, 120.0, Triple{8, 0, 1}, 240.0))
	bl.TimeAtBeats(10)
	// Now seek backward into the first segment; cursor must rewind correctly.
	got := bl.TimeAtBeats(2)
	want := 1.0 // 2 beats @ 120bpm = 1s
	if abs(got-want) > 1e-6 {
		t.Errorf("backward TimeAtBeats(2) = %v, want %v", got, want)
	}
}
