package schedule

import "testing"

func TestDrainConsumesOnlyMatchingHead(t *testing.T) {
	q := New([]int{5, 5, 10, 20})
	if n := q.Drain(1); n != 0 {
		t.Fatalf("expected 0 drained at step 1, got %d", n)
	}
	if n := q.Drain(5); n != 2 {
		t.Fatalf("expected 2 drained at step 5, got %d", n)
	}
	if n := q.Drain(5); n != 0 {
		t.Fatalf("expected step 5 already consumed, got %d", n)
	}
	if n := q.Drain(10); n != 1 {
		t.Fatalf("expected 1 drained at step 10, got %d", n)
	}
}

func TestNewSortsUnorderedInput(t *testing.T) {
	q := New([]int{30, 10, 20})
	step, ok := q.Peek()
	if !ok || step != 10 {
		t.Fatalf("expected sorted head 10, got %d (ok=%v)", step, ok)
	}
}

func TestEmptyAfterFullDrain(t *testing.T) {
	q := New([]int{1, 2, 3})
	q.Drain(1)
	q.Drain(2)
	q.Drain(3)
	if !q.Empty() {
		t.Fatal("expected queue to be empty after draining every entry")
	}
}

func TestMonotonicSkipOverUnmatchedSteps(t *testing.T) {
	q := New([]int{7})
	for n := 0; n < 7; n++ {
		if q.Drain(n) != 0 {
			t.Fatalf("unexpected drain at step %d", n)
		}
	}
	if q.Drain(7) != 1 {
		t.Fatal("expected drain at step 7")
	}
}
