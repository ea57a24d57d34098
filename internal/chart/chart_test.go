package chart

import (
	"testing"

	"github.com/HyperSynapseNetwork/phira-web-monitor/internal/tween"
)

func newTestLine(parent, zIndex int) *JudgeLine {
	return &JudgeLine{
		Object:  NewObject(),
		Ctrl:    NewCtrlObject(),
		Height:  tween.Fixed[tween.Float](0),
		Incline: tween.Fixed[tween.Float](0),
		Color:   tween.Fixed[tween.Color](tween.Color{A: 1}),
		Parent:  parent,
		ZIndex:  zIndex,
	}
}

func simpleBpmList() *BpmList {
	return NewBpmList(changes(Triple{0, 0, 1}, 120.0))
}

func TestOrderExcludesUIAttached(t *testing.T) {
	l0 := newTestLine(-1, 2)
	l1 := newTestLine(-1, 0)
	l1.AttachUI = AttachCombo
	l2 := newTestLine(-1, 1)

	c, err := New([]*JudgeLine{l0, l1, l2}, simpleBpmList(), 0, Settings{})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Order) != 2 {
		t.Fatalf("Order length = %d, want 2 (UI-attached line excluded)", len(c.Order))
	}
	if c.Order[0] != 2 || c.Order[1] != 0 {
		t.Errorf("Order = %v, want [2 0] (ascending z-index)", c.Order)
	}
}

func TestCyclicParentRejected(t *testing.T) {
	l0 := newTestLine(1, 0)
	l1 := newTestLine(0, 0)

	_, err := New([]*JudgeLine{l0, l1}, simpleBpmList(), 0, Settings{})
	if err == nil {
		t.Fatal("expected an error for cyclic parent chain, got nil")
	}
}

func TestAcyclicParentsAccepted(t *testing.T) {
	l0 := newTestLine(-1, 0)
	l1 := newTestLine(0, 1)
	l2 := newTestLine(1, 2)

	if _, err := New([]*JudgeLine{l0, l1, l2}, simpleBpmList(), 0, Settings{}); err != nil {
		t.Errorf("unexpected error for acyclic chain: %v", err)
	}
}

func TestClearStaleNotes(t *testing.T) {
	n1 := &Note{Object: NewObject(), Time: 1.0}
	n2 := &Note{Object: NewObject(), Time: 3.9}
	fake := &Note{Object: NewObject(), Time: 0.5, Fake: true}
	l := newTestLine(-1, 0)
	l.Notes = []*Note{n1, n2, fake}

	c, err := New([]*JudgeLine{l}, simpleBpmList(), 0, Settings{})
	if err != nil {
		t.Fatal(err)
	}

	c.ClearStaleNotes(4.0, 0.2)

	if n1.Status.Kind != Judged || n1.Status.Judgement != Miss {
		t.Errorf("n1 should be Judged(Miss), got %+v", n1.Status)
	}
	if n2.Status.Kind != NotJudged {
		t.Errorf("n2 (4.0-3.9=0.1 <= limit) should remain NotJudged, got %+v", n2.Status)
	}
	if fake.Status.Kind != NotJudged {
		t.Errorf("fake notes must never be judged, got %+v", fake.Status)
	}
}

func TestHasUnjudged(t *testing.T) {
	n := &Note{Object: NewObject(), Time: 1.0}
	l := newTestLine(-1, 0)
	l.Notes = []*Note{n}
	c, err := New([]*JudgeLine{l}, simpleBpmList(), 0, Settings{})
	if err != nil {
		t.Fatal(err)
	}

	if c.HasUnjudged(1.1, 0.4) {
		t.Error("HasUnjudged(1.1, 0.4) should be false (only 0.1s aged)")
	}
	if !c.HasUnjudged(1.5, 0.4) {
		t.Error("HasUnjudged(1.5, 0.4) should be true (0.5s aged)")
	}
}
