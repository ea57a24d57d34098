package playback

import (
	"math"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
)

// resolveNote looks up a NoteRef against the scene's chart, returning nil
// if either index is out of range. Spec §7: a judge event referencing a
// non-existent (line, note) pair is silently dropped; logging records the
// mismatch (handled by the caller, which has the logger).
func (s *Scene) resolveNote(ref NoteRef) *chart.Note {
	if ref.LineIdx < 0 || ref.LineIdx >= len(s.chart.Lines) {
		return nil
	}
	line := s.chart.Lines[ref.LineIdx]
	if ref.NoteIdx < 0 || ref.NoteIdx >= len(line.Notes) {
		return nil
	}
	return line.Notes[ref.NoteIdx]
}

// updateJudges drains/derives judge transitions for the current tick and
// returns the events produced, in the order spec §4.3.5 step 5 implies:
// queued/autoplay judgements first, then hold-tick/hold-complete
// synthesis.
func (s *Scene) updateJudges(currentTime float64) []SceneEvent {
	var events []SceneEvent

	if s.mode == ModeAutoplay {
		events = append(events, s.autoplayJudge(currentTime)...)
	} else {
		// Live mode never locally misses a note on a continuous sweep: if
		// upstream goes quiet, R3 pauses the scene instead, and R4's
		// resume-with-rewind is the only path that marks stale notes Miss
		// (via chart.ClearStaleNotes). A per-tick sweep at StrictMissLimit
		// would fire before UNJUDGED_LIMIT is ever reached, making R3
		// unreachable — see the worked example in spec §8.
		events = append(events, s.drainPendingJudges(currentTime)...)
	}

	events = append(events, s.advanceHolds(currentTime)...)
	return events
}

// drainPendingJudges applies every queued external judge event whose
// time has arrived (event.Time <= currentTime), in arrival order.
func (s *Scene) drainPendingJudges(currentTime float64) []SceneEvent {
	s.mu.Lock()
	var ready []JudgeEvent
	i := 0
	for i < len(s.pendingJudges) && s.pendingJudges[i].Time <= currentTime {
		ready = append(ready, s.pendingJudges[i])
		i++
	}
	s.pendingJudges = s.pendingJudges[i:]
	s.mu.Unlock()

	var events []SceneEvent
	for _, ev := range ready {
		n := s.resolveNote(ev.Note)
		if n == nil {
			s.droppedInvariant(ev.Note)
			continue
		}
		if n.Status.Kind != chart.NotJudged {
			continue
		}

		switch ev.Kind {
		case JudgeHoldPerfect, JudgeHoldGood:
			perfect := ev.Kind == JudgeHoldPerfect
			n.Status = chart.JudgeStatus{
				Kind:         chart.Hold,
				HoldPerfect:  perfect,
				NextTickTime: ev.Time + s.timing.HoldParticleInterval,
				UpTime:       math.Inf(1),
			}
			j := chart.Good
			if perfect {
				j = chart.Perfect
			}
			events = append(events, SceneEvent{Kind: EventHoldStart, Note: ev.Note, Time: ev.Time, Judgement: j, NoteKind: n.Kind.Tag, HitSound: n.EffectiveHitSound()})
		default:
			j := judgementFor(ev.Kind)
			n.Status = chart.JudgeStatus{Kind: chart.Judged, At: ev.Time, Judgement: j}
			events = append(events, SceneEvent{Kind: EventJudged, Note: ev.Note, Time: ev.Time, Judgement: j, NoteKind: n.Kind.Tag, HitSound: n.EffectiveHitSound()})
		}
	}
	return events
}

func judgementFor(k JudgeEventKind) chart.Judgement {
	switch k {
	case JudgePerfect:
		return chart.Perfect
	case JudgeGood:
		return chart.Good
	case JudgeBad:
		return chart.Bad
	default:
		return chart.Miss
	}
}

// autoplayJudge implements the standalone-player fallback: a NotJudged
// non-fake note fires Perfect as soon as note.Time <= t, unless the gap
// has already grown past AutoplayMissLimit (a render loop with coarse
// ticks can miss the detection window entirely), in which case it is
// declared Miss instead.
func (s *Scene) autoplayJudge(t float64) []SceneEvent {
	var events []SceneEvent
	for li, line := range s.chart.Lines {
		for ni, n := range line.Notes {
			if n.Fake || n.Status.Kind != chart.NotJudged {
				continue
			}
			if t < n.Time {
				continue
			}
			ref := NoteRef{LineIdx: li, NoteIdx: ni}
			age := t - n.Time

			if age > s.timing.AutoplayMissLimit {
				n.Status = chart.JudgeStatus{Kind: chart.Judged, At: t, Judgement: chart.Miss}
				events = append(events, SceneEvent{Kind: EventJudged, Note: ref, Time: t, Judgement: chart.Miss, NoteKind: n.Kind.Tag, HitSound: n.EffectiveHitSound()})
				continue
			}

			if n.Kind.Tag == chart.KindHold {
				n.Status = chart.JudgeStatus{
					Kind:         chart.Hold,
					HoldPerfect:  true,
					NextTickTime: t + s.timing.HoldParticleInterval,
					UpTime:       math.Inf(1),
				}
				events = append(events, SceneEvent{Kind: EventHoldStart, Note: ref, Time: t, Judgement: chart.Perfect, NoteKind: n.Kind.Tag, HitSound: n.EffectiveHitSound()})
			} else {
				n.Status = chart.JudgeStatus{Kind: chart.Judged, At: t, Judgement: chart.Perfect}
				events = append(events, SceneEvent{Kind: EventJudged, Note: ref, Time: t, Judgement: chart.Perfect, NoteKind: n.Kind.Tag, HitSound: n.EffectiveHitSound()})
			}
		}
	}
	return events
}

// advanceHolds ticks every note currently in the Hold(...) state: one
// HoldTick per render call past its next tick time, or a HoldComplete
// once t reaches the note's end_time.
func (s *Scene) advanceHolds(t float64) []SceneEvent {
	var events []SceneEvent
	for li, line := range s.chart.Lines {
		for ni, n := range line.Notes {
			if n.Status.Kind != chart.Hold {
				continue
			}
			ref := NoteRef{LineIdx: li, NoteIdx: ni}
			j := chart.Good
			if n.Status.HoldPerfect {
				j = chart.Perfect
			}

			if t >= n.Kind.EndTime {
				n.Status = chart.JudgeStatus{Kind: chart.Judged, At: n.Kind.EndTime, Judgement: j}
				events = append(events, SceneEvent{Kind: EventHoldComplete, Note: ref, Time: n.Kind.EndTime, Judgement: j, NoteKind: n.Kind.Tag, HitSound: n.EffectiveHitSound()})
				continue
			}

			if t > n.Status.NextTickTime {
				n.Status.NextTickTime += s.timing.HoldParticleInterval
				events = append(events, SceneEvent{Kind: EventHoldTick, Note: ref, Time: t, Judgement: j, NoteKind: n.Kind.Tag, HitSound: n.EffectiveHitSound()})
			}
		}
	}
	return events
}
