package httpapi

import (
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/chart"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

// syntheticTestChart builds the minimal chart served for id "test": one
// line, one click note at 1s, used by client integration tests that don't
// want to depend on a real upstream chart.
func syntheticTestChart() (*chart.Info, *chart.Chart) {
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
				Time:   1.0,
				Speed:  1,
			},
		},
	}
	bpm := chart.NewBpmListFromChanges([]chart.BpmChange{{Beats: 0, Bpm: 120}})
	c, err := chart.New([]*chart.JudgeLine{line}, bpm, 0, chart.Settings{})
	if err != nil {
		panic("synthetic test chart must always construct cleanly: " + err.Error())
	}
	info := &chart.Info{ID: "test", Name: "Test Chart", AspectRatio: 16.0 / 9.0}
	return info, c
}
