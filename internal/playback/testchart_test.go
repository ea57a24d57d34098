package playback

import (
	"github.com/rs/zerolog"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

// newSingleNoteChart builds a one-line, one-click-note chart whose note
// fires at noteTime, for scene-level tests that don't care about render
// geometry.
func newSingleNoteChart(noteTime float64) (*chart.Chart, *chart.Info) {
	line := &chart.JudgeLine{
		Object:  chart.NewObject(),
		Ctrl:    chart.NewCtrlObject(),
		Height:  tween.Fixed[tween.Float](0),
		Incline: tween.Fixed[tween.Float](0),
		Color:   tween.Fixed[tween.Color](tween.Color{R: 1, G: 1, B: 1, A: 1}),
		Parent:  -1,
		Notes: []*chart.Note{
			{
				Object: chart.NewObject(),
				Kind:   chart.NoteKind{Tag: chart.KindClick},
				Time:   noteTime,
				Speed:  1,
			},
		},
	}
	bpm := chart.NewBpmListFromChanges([]chart.BpmChange{{Beats: 0, Bpm: 120}})
	c, err := chart.New([]*chart.JudgeLine{line}, bpm, 0, chart.Settings{})
	if err != nil {
		panic(err)
	}
	info := &chart.Info{ID: "test", AspectRatio: 16.0 / 9.0}
	return c, info
}

// newHoldChart builds a one-line, one-hold-note chart spanning
// [start, end] for hold-tick cadence tests.
func newHoldChart(start, end float64) (*chart.Chart, *chart.Info) {
	line := &chart.JudgeLine{
		Object:  chart.NewObject(),
		Ctrl:    chart.NewCtrlObject(),
		Height:  tween.Fixed[tween.Float](0),
		Incline: tween.Fixed[tween.Float](0),
		Color:   tween.Fixed[tween.Color](tween.Color{R: 1, G: 1, B: 1, A: 1}),
		Parent:  -1,
		Notes: []*chart.Note{
			{
				Object: chart.NewObject(),
				Kind:   chart.NoteKind{Tag: chart.KindHold, EndTime: end},
				Time:   start,
				Speed:  1,
			},
		},
	}
	bpm := chart.NewBpmListFromChanges([]chart.BpmChange{{Beats: 0, Bpm: 120}})
	c, err := chart.New([]*chart.JudgeLine{line}, bpm, 0, chart.Settings{})
	if err != nil {
		panic(err)
	}
	info := &chart.Info{ID: "test", AspectRatio: 16.0 / 9.0}
	return c, info
}

// fakeClock is a test-controlled wall clock: each call to now() returns
// the current value, advanced explicitly by tests via advance().
type fakeClock struct{ t float64 }

func (f *fakeClock) now() float64     { return f.t }
func (f *fakeClock) advance(dt float64) { f.t += dt }

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func shortTiming() Timing {
	return Timing{
		HoldParticleInterval: 0.15,
		UnjudgedLimit:        0.400,
		AutoplayMissLimit:    0.160,
		StrictMissLimit:      0.200,
		StaleLimit:           0.200,
		RewindOnResume:       1.000,
		StartDelaySecs:       0, // tests don't want to wait out the real countdown
		SeekOffset:           0.1,
		TouchFadeTime:        0.3,
		TouchAlpha:           0.6,
	}
}
