// Package chart implements the beat-coordinate BPM model and the
// time-parameterized chart data model: judge lines, notes, and the world
// matrix / set_time propagation passes a playing scene drives every frame.
package chart

import (
	"fmt"
	"sort"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/geom"
)

// Settings holds per-chart rendering flags that change note/hold drawing
// behavior without altering the timing model.
type Settings struct {
	PEAlphaExtension bool
	HoldPartialCover bool
}

// Info is the chart's immutable metadata, stored and transmitted
// alongside the playable Chart.
type Info struct {
	ID          string
	Name        string
	Composer    string
	Charter     string
	AspectRatio float64 // design aspect ratio, default 16/9
	ChartUpdated string // cache-invalidation key, see internal/chartcache
}

// Chart is the immutable-after-parse playable chart. Only JudgeStatus on
// notes and animation cursors mutate once a scene owns it.
type Chart struct {
	Lines    []*JudgeLine
	BpmList  *BpmList
	Music    string // clip reference (out-of-scope audio clip handle); empty if none
	Offset   float64
	Settings Settings

	// Order lists line indices in ascending z-index order, excluding
	// UI-attached lines. It is a permutation of a subset of 0..len(Lines).
	Order []int

	HitSounds map[HitSoundKind]string // clip reference (out-of-scope audio clip handle)
}

// New builds a Chart from already-constructed lines, validating the
// parent graph is acyclic and computing the render order. Returns an
// error naming the offending line index on a cycle, matching the
// teacher's diagnostic-with-location style.
func New(lines []*JudgeLine, bpmList *BpmList, offset float64, settings Settings) (*Chart, error) {
	if err := checkAcyclic(lines); err != nil {
		return nil, err
	}
	c := &Chart{
		Lines:     lines,
		BpmList:   bpmList,
		Offset:    offset,
		Settings:  settings,
		HitSounds: make(map[HitSoundKind]string),
	}
	c.Order = computeOrder(lines)
	return c, nil
}

// checkAcyclic rejects a parent graph with a cycle via DFS with an
// explicit stack (recursion is avoided per the teacher's preference for
// iterative traversal in hot paths, and per spec §9's guidance).
func checkAcyclic(lines []*JudgeLine) error {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(lines))

	for start := range lines {
		if color[start] != white {
			continue
		}
		stack := []int{start}
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			switch color[top] {
			case white:
				color[top] = gray
				p := lines[top].Parent
				if p < 0 {
					continue
				}
				if p >= len(lines) {
					return fmt.Errorf("line %d: parent index %d out of range", top, p)
				}
				if color[p] == gray {
					return fmt.Errorf("line %d: cyclic parent chain detected", top)
				}
				if color[p] == white {
					stack = append(stack, p)
					continue
				}
			case gray:
				color[top] = black
				stack = stack[:len(stack)-1]
			case black:
				stack = stack[:len(stack)-1]
			}
		}
	}
	return nil
}

func computeOrder(lines []*JudgeLine) []int {
	order := make([]int, 0, len(lines))
	for i, l := range lines {
		if l.AttachUI == AttachNone {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return lines[order[a]].ZIndex < lines[order[b]].ZIndex
	})
	return order
}

// SetTime propagates the current time to every animation reachable from
// any line: its Object, Height, Incline, Color, and every note's Object.
// This is the only side effect of SetTime; world matrices are recomputed
// separately by ComputeWorldMatrices.
func (c *Chart) SetTime(t float64) {
	for _, l := range c.Lines {
		l.SetTime(t)
		l.worldMatrixValid = false
	}
}

// AspectRatioOrDefault returns info's aspect ratio, defaulting to 16:9.
func (info *Info) AspectRatioOrDefault() float64 {
	if info.AspectRatio <= 0 {
		return 16.0 / 9.0
	}
	return info.AspectRatio
}

// ComputeWorldMatrices resolves each line's 3x3 world matrix, following
// parent chains. A line's local transform is rotate(rot deg) *
// translate(tx, ty*aspectRatio); a child's world matrix composes the
// parent's world translation with the parent's local rotation applied to
// the child's local translation, recursively. Results are memoized per
// line for the remainder of the frame (cleared by the next SetTime).
func (c *Chart) ComputeWorldMatrices(aspectRatio float64) {
	var resolve func(idx int) geom.Matrix3
	resolve = func(idx int) geom.Matrix3 {
		l := c.Lines[idx]
		if l.worldMatrixValid {
			return l.worldMatrix
		}

		tx := l.Object.Translation.Now()
		rot := float64(l.Object.Rotation.Now())
		local := geom.Rotate(rot).Mul(geom.Translate(float64(tx.X), float64(tx.Y)*aspectRatio))

		var world geom.Matrix3
		if l.Parent < 0 || l.Parent >= len(c.Lines) {
			world = local
		} else {
			parentWorld := resolve(l.Parent)
			parentRot := geom.Rotate(float64(c.Lines[l.Parent].Object.Rotation.Now()))
			pt := parentWorld.Translation()
			world = geom.Translate(pt.X, pt.Y).Mul(parentRot).Mul(local)
		}

		l.worldMatrix = world
		l.worldMatrixValid = true
		return world
	}

	for i := range c.Lines {
		resolve(i)
	}
}

// WorldMatrix returns the memoized world matrix for a line. Callers must
// have called ComputeWorldMatrices this frame first.
func (l *JudgeLine) WorldMatrix() geom.Matrix3 {
	return l.worldMatrix
}

// HasUnjudged reports whether any non-fake note on any line is still
// NotJudged and has aged past the given limit relative to currentTime —
// the test R3 evaluates every frame. Kept as a dedicated query (rather
// than inlined into the playback loop) to mirror the original's
// chart_renderer.rs separation of "does the chart have unresolved notes"
// from the pause-transition decision itself.
func (c *Chart) HasUnjudged(currentTime, limit float64) bool {
	for _, l := range c.Lines {
		for _, n := range l.Notes {
			if n.Fake {
				continue
			}
			if n.Status.Kind == NotJudged && currentTime-n.Time > limit {
				return true
			}
		}
	}
	return false
}

// ClearStaleNotes sweeps every non-fake note still NotJudged with
// playerTime - note.Time > limit and marks it Judged(playerTime, Miss).
// Called after a rewind-on-resume (R4) to prevent already-passed notes
// from immediately re-triggering R3.
func (c *Chart) ClearStaleNotes(playerTime, limit float64) {
	for _, l := range c.Lines {
		for _, n := range l.Notes {
			if n.Fake {
				continue
			}
			if n.Status.Kind == NotJudged && playerTime-n.Time > limit {
				n.Status = JudgeStatus{Kind: Judged, At: playerTime, Judgement: Miss}
			}
		}
	}
}
