package queue

import "testing"

func titles(q *Queue) string {
	s := ""
	for _, t := range q.Tracks() {
		s += t.Title
	}
	return s
}

func newABCD() *Queue {
	return New([]Track{{Title: "a"}, {Title: "b"}, {Title: "c"}, {Title: "d"}})
}

func TestAppendSelectsFirstNewTrackOnlyWhenEmpty(t *testing.T) {
	q := New(nil)
	if q.CurrentIndex() != -1 || q.Current() != nil {
		t.Fatalf("expected empty queue with no current, got %d", q.CurrentIndex())
	}
	if !q.Append(Track{Title: "a"}, Track{Title: "b"}) {
		t.Fatal("expected first append to change current")
	}
	if q.CurrentIndex() != 0 {
		t.Fatalf("expected current 0, got %d", q.CurrentIndex())
	}
	q.Next()
	if q.Append(Track{Title: "c"}) {
		t.Fatal("expected later append to keep current")
	}
	if q.CurrentIndex() != 1 {
		t.Fatalf("expected current 1, got %d", q.CurrentIndex())
	}
}

func TestNextPreviousWrap(t *testing.T) {
	q := newABCD()
	q.Previous()
	if q.CurrentIndex() != 3 {
		t.Fatalf("expected previous from first to wrap to 3, got %d", q.CurrentIndex())
	}
	q.Next()
	if q.CurrentIndex() != 0 {
		t.Fatalf("expected next from last to wrap to 0, got %d", q.CurrentIndex())
	}
	empty := New(nil)
	if empty.Next() || empty.Previous() {
		t.Fatal("expected navigation on empty queue to fail")
	}
}

func TestSelectIgnoresOutOfRange(t *testing.T) {
	q := newABCD()
	if q.Select(9) || q.Select(-1) {
		t.Fatal("expected out-of-range select to fail")
	}
	if !q.Select(2) || q.Current().Title != "c" {
		t.Fatal("expected select 2 to make c current")
	}
}

func TestRemoveBeforeCurrentShiftsIndex(t *testing.T) {
	q := newABCD()
	q.Select(2)
	removed, changed := q.Remove(0)
	if !removed || changed {
		t.Fatalf("expected removal without current change, got %v/%v", removed, changed)
	}
	if q.CurrentIndex() != 1 || q.Current().Title != "c" {
		t.Fatalf("expected c to stay current at 1, got %d", q.CurrentIndex())
	}
}

func TestRemoveCurrentSelectsSuccessorOrLast(t *testing.T) {
	q := newABCD()
	q.Select(1)
	if _, changed := q.Remove(1); !changed {
		t.Fatal("expected removing current to report a change")
	}
	if q.Current().Title != "c" {
		t.Fatalf("expected c to take the removed slot, got %s", q.Current().Title)
	}

	q.Select(2)
	q.Remove(2)
	if q.CurrentIndex() != 1 || q.Current().Title != "c" {
		t.Fatalf("expected last remaining track c, got %d", q.CurrentIndex())
	}
}

func TestRemoveLastTrackEmptiesSelection(t *testing.T) {
	q := New([]Track{{Title: "a"}})
	_, changed := q.Remove(0)
	if !changed || q.CurrentIndex() != -1 || q.Current() != nil {
		t.Fatalf("expected no current after emptying, got %d", q.CurrentIndex())
	}
	if removed, _ := q.Remove(0); removed {
		t.Fatal("expected remove on empty queue to fail")
	}
}

func TestMoveKeepsCurrentTrack(t *testing.T) {
	q := newABCD()
	q.Select(1) // b

	q.Move(0, 3)
	if titles(q) != "bcda" || q.Current().Title != "b" {
		t.Fatalf("expected bcda with b current, got %s with %s", titles(q), q.Current().Title)
	}

	q.Move(3, 0)
	if titles(q) != "abcd" || q.Current().Title != "b" {
		t.Fatalf("expected abcd with b current, got %s with %s", titles(q), q.Current().Title)
	}

	q.Move(1, 3)
	if titles(q) != "acdb" || q.CurrentIndex() != 3 {
		t.Fatalf("expected acdb with current 3, got %s with %d", titles(q), q.CurrentIndex())
	}
}
