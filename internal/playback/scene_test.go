package playback

import (
	"testing"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
)

func TestScene_AutoplaySingleNote(t *testing.T) {
	ch, info := newSingleNoteChart(1.0)
	fc := &fakeClock{}
	s := NewScene("p1", ch, info, shortTiming(), ModeAutoplay, fc.now, nil, nil, nil, nil, testLogger())
	s.Start()
	s.RenderTick() // enters at wall 0, anchoring game time to wall-elapsed

	fc.advance(1.0)
	events := s.RenderTick()

	if len(events) != 1 {
		t.Fatalf("want 1 event, got %d: %+v", len(events), events)
	}
	if events[0].Kind != EventJudged || events[0].Judgement != chart.Perfect {
		t.Fatalf("want Judged/Perfect, got %+v", events[0])
	}
}

func TestScene_AutoplayMissPastLimit(t *testing.T) {
	ch, info := newSingleNoteChart(1.0)
	fc := &fakeClock{}
	s := NewScene("p1", ch, info, shortTiming(), ModeAutoplay, fc.now, nil, nil, nil, nil, testLogger())
	s.Start()
	s.RenderTick() // enters at wall 0, anchoring game time to wall-elapsed

	fc.advance(1.0 + shortTiming().AutoplayMissLimit + 0.01)
	events := s.RenderTick()

	if len(events) != 1 || events[0].Judgement != chart.Miss {
		t.Fatalf("want a single Miss event, got %+v", events)
	}
}

// TestScene_LiveModeHasNoLocalMissSweep pins down the spec's R3 worked
// example (§8.4): in live mode, a note with no upstream judge event stays
// NotJudged past StrictMissLimit — only R3's wider UNJUDGED_LIMIT pauses
// the scene; nothing locally misses the note on a continuous sweep. If a
// sweep fired here, it would always beat R3 to the punch and the pause
// branch would be unreachable.
func TestScene_LiveModeHasNoLocalMissSweep(t *testing.T) {
	ch, info := newSingleNoteChart(1.0)
	fc := &fakeClock{}
	timing := shortTiming()
	s := NewScene("p1", ch, info, timing, ModeLive, fc.now, nil, nil, nil, nil, testLogger())
	s.Start()
	s.RenderTick() // enters at wall 0, anchoring game time to wall-elapsed

	// Advance well past StrictMissLimit but short of UNJUDGED_LIMIT.
	fc.advance(1.0 + timing.StrictMissLimit + 0.01)
	events := s.RenderTick()
	if len(events) != 0 {
		t.Fatalf("want no local miss before R3's UNJUDGED_LIMIT, got %+v", events)
	}

	s.mu.Lock()
	kind := ch.Lines[0].Notes[0].Status.Kind
	s.mu.Unlock()
	if kind != chart.NotJudged {
		t.Fatalf("want the note still NotJudged, got %v", kind)
	}
}

func TestScene_LiveModeExternalJudge(t *testing.T) {
	ch, info := newSingleNoteChart(1.0)
	fc := &fakeClock{}
	s := NewScene("p1", ch, info, shortTiming(), ModeLive, fc.now, nil, nil, nil, nil, testLogger())
	s.Start()

	s.PushJudges([]JudgeEvent{{Note: NoteRef{LineIdx: 0, NoteIdx: 0}, Time: 1.0, Kind: JudgePerfect}})

	// First tick enters and seeks (R2) to target_time - SEEK_OFFSET, which
	// lands just before the note's time; a second tick after the clock
	// has run forward drains the queued judge.
	fc.advance(1.0)
	s.RenderTick()
	fc.advance(0.3)
	events := s.RenderTick()
	if len(events) != 1 || events[0].Judgement != chart.Perfect {
		t.Fatalf("want the externally judged Perfect event, got %+v", events)
	}
}

func TestScene_HoldTickCadence(t *testing.T) {
	ch, info := newHoldChart(1.0, 2.0)
	fc := &fakeClock{}
	timing := shortTiming()
	s := NewScene("p1", ch, info, timing, ModeAutoplay, fc.now, nil, nil, nil, nil, testLogger())
	s.Start()

	var ticks, completes, starts int
	// Step in small increments so advanceHolds fires once per crossed
	// tick boundary, matching "each render where t > next_tick". Steps
	// are computed by multiplication (not repeated addition) to avoid
	// float drift around the 0.15s tick boundaries.
	const steps = 41 // 0.00 .. 2.05 in 0.05 increments
	for i := 0; i <= steps; i++ {
		fc.t = float64(i) * 0.05
		for _, e := range s.RenderTick() {
			switch e.Kind {
			case EventHoldStart:
				starts++
			case EventHoldTick:
				ticks++
			case EventHoldComplete:
				completes++
			}
		}
	}

	if starts != 1 {
		t.Fatalf("want exactly one HoldStart, got %d", starts)
	}
	if completes != 1 {
		t.Fatalf("want exactly one HoldComplete, got %d", completes)
	}
	// (2.0-1.0)/0.15 = 6.67 -> 6 full tick boundaries crossed before completion.
	if ticks != 6 {
		t.Fatalf("want 6 hold ticks, got %d", ticks)
	}
}

func TestScene_StrictPauseAndRewindResume(t *testing.T) {
	ch, info := newSingleNoteChart(1.0)
	fc := &fakeClock{}
	timing := shortTiming()
	s := NewScene("p1", ch, info, timing, ModeLive, fc.now, nil, nil, nil, nil, testLogger())
	s.Start()
	s.RenderTick() // enters at wall 0, anchoring game time to wall-elapsed

	// Let the note age well past UnjudgedLimit with no judge event: R3 pauses.
	fc.advance(1.0 + timing.UnjudgedLimit + 0.05)
	s.RenderTick()

	s.mu.Lock()
	paused := s.judgePauseTime != nil
	pausedAt := float64(0)
	if paused {
		pausedAt = *s.judgePauseTime
	}
	s.mu.Unlock()
	if !paused {
		t.Fatalf("want scene paused-for-judge after the note aged past UnjudgedLimit")
	}

	// current_time must not advance further while paused, even as wall
	// time keeps moving.
	fc.advance(1.0)
	events := s.RenderTick()
	if len(events) != 0 {
		t.Fatalf("want no judge activity while paused, got %+v", events)
	}
	s.mu.Lock()
	stillPausedAt := *s.judgePauseTime
	s.mu.Unlock()
	if stillPausedAt != pausedAt {
		t.Fatalf("paused current_time drifted: %v -> %v", pausedAt, stillPausedAt)
	}

	// R4: an external judge event arrives for the paused note itself; next
	// tick resumes with a 1.0s rewind (landing before the note's own time,
	// so clear_stale_notes does not touch it — it remains pending until the
	// rewound clock catches back up to the queued event's time).
	s.PushJudges([]JudgeEvent{{Note: NoteRef{LineIdx: 0, NoteIdx: 0}, Time: pausedAt, Kind: JudgePerfect}})
	s.RenderTick()

	s.mu.Lock()
	stillPaused := s.judgePauseTime != nil
	noteKindAfterResume := ch.Lines[0].Notes[0].Status.Kind
	s.mu.Unlock()
	if stillPaused {
		t.Fatalf("want the scene to resume on R4 signal")
	}
	if noteKindAfterResume != chart.NotJudged {
		t.Fatalf("want the note still pending immediately after rewind (rewound time precedes note.time), got %v", noteKindAfterResume)
	}

	// Advance until the rewound clock catches back up to the queued
	// event's time: the pending judge then drains normally.
	fc.advance(timing.RewindOnResume + 0.05)
	s.RenderTick()

	s.mu.Lock()
	noteKind := ch.Lines[0].Notes[0].Status.Kind
	s.mu.Unlock()
	if noteKind != chart.Judged {
		t.Fatalf("want the pending judge drained once current_time caught up, got %v", noteKind)
	}
}

func TestScene_BufferedTargetEntersOnFirstTick(t *testing.T) {
	ch, info := newSingleNoteChart(5.0)
	fc := &fakeClock{}
	timing := shortTiming()
	s := NewScene("p1", ch, info, timing, ModeAutoplay, fc.now, nil, nil, nil, nil, testLogger())

	// Simulate evidence already buffered (e.g. touch frames) before Start.
	s.PushTouches([]TouchFrame{{FingerID: 1, Time: 3.0}})
	s.Start()

	fc.t = s.startWall
	s.RenderTick() // deadline is startWall (StartDelaySecs=0), so this first tick enters

	s.mu.Lock()
	entered := s.entered
	s.mu.Unlock()
	if !entered {
		t.Fatalf("want scene entered on first tick when StartDelaySecs is 0")
	}
}
