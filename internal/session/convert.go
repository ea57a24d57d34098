package session

import (
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/playback"
)

func touchFramesFromWire(in []wireTouch) []playback.TouchFrame {
	if in == nil {
		return nil
	}
	out := make([]playback.TouchFrame, len(in))
	for i, t := range in {
		out[i] = playback.TouchFrame{
			FingerID: t.FingerID,
			Time:     t.Time,
			Pos:      geom.Vector{X: t.X, Y: t.Y},
		}
	}
	return out
}

func judgeEventsFromWire(in []wireJudge) []playback.JudgeEvent {
	if in == nil {
		return nil
	}
	out := make([]playback.JudgeEvent, len(in))
	for i, j := range in {
		out[i] = playback.JudgeEvent{
			Note: playback.NoteRef{LineIdx: j.LineIdx, NoteIdx: j.NoteIdx},
			Time: j.Time,
			Kind: playback.JudgeEventKind(j.Kind),
		}
	}
	return out
}
