package item

import (
	"testing"

	"pgregory.net/rapid"
)

func timed(id string, start, end int) Item {
	return Item{ID: id, Kind: KindEvent, Title: id, Span: &Span{Start: start, End: end}}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFindConflicts(t *testing.T) {
	items := []Item{
		timed("late", 720, 780),
		timed("a", 540, 600),
		{ID: "floating", Kind: KindTask, Title: "floating"},
		timed("b", 570, 630),
		timed("next", 600, 660),
	}

	tests := []struct {
		name      string
		candidate Span
		exclude   string
		want      []string
	}{
		{name: "none", candidate: Span{420, 480}, want: nil},
		{name: "sorted by start", candidate: Span{590, 730}, want: []string{"a", "b", "next", "late"}},
		{name: "back to back is not a conflict", candidate: Span{480, 540}, want: nil},
		{name: "excludes self", candidate: Span{540, 585}, exclude: "a", want: []string{"b"}},
		{name: "unscheduled never conflicts", candidate: Span{0, 1439}, exclude: "late", want: []string{"a", "b", "next"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FindConflicts(tt.candidate, items, tt.exclude))
			if len(got) != len(tt.want) {
				t.Fatalf("FindConflicts() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("FindConflicts() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestFindConflicts_SelfResize(t *testing.T) {
	a := timed("a", 540, 600)
	got := FindConflicts(Span{540, 585}, []Item{a}, "a")
	if len(got) != 0 {
		t.Errorf("resizing the only item reported conflicts: %v", ids(got))
	}
}

func TestFindConflicts_TiesKeepInputOrder(t *testing.T) {
	items := []Item{timed("first", 540, 600), timed("second", 540, 570)}
	got := ids(FindConflicts(Span{500, 560}, items, ""))
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("FindConflicts() = %v, want [first second]", got)
	}
}

func TestConflictIndex(t *testing.T) {
	items := []Item{timed("a", 540, 600), timed("b", 570, 630), timed("c", 630, 660)}
	index := ConflictIndex(items)

	if len(index) != 2 {
		t.Fatalf("expected 2 conflicting items, got %d", len(index))
	}
	if got := ids(index["a"]); len(got) != 1 || got[0] != "b" {
		t.Errorf("index[a] = %v, want [b]", got)
	}
	if _, ok := index["c"]; ok {
		t.Error("back-to-back item c should not be flagged")
	}
}

func TestDescribeConflicts(t *testing.T) {
	got := DescribeConflicts([]Item{timed("Standup", 540, 555), timed("Review", 570, 630)})
	want := "09:00-09:15 Standup, 09:30-10:30 Review"
	if got != want {
		t.Errorf("DescribeConflicts() = %q, want %q", got, want)
	}
}

func genSpan(t *rapid.T, label string) Span {
	start := rapid.IntRange(0, MinutesPerDay-2).Draw(t, label+"_start")
	end := rapid.IntRange(start+1, MinutesPerDay-1).Draw(t, label+"_end")
	return Span{Start: start, End: end}
}

func TestFindConflictsSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		x := Item{ID: "x", Span: ptr(genSpan(t, "x"))}
		y := Item{ID: "y", Span: ptr(genSpan(t, "y"))}

		xy := len(FindConflicts(*x.Span, []Item{y}, "x")) == 1
		yx := len(FindConflicts(*y.Span, []Item{x}, "y")) == 1
		if xy != yx {
			t.Fatalf("asymmetric conflict between %v and %v", x.Span, y.Span)
		}
	})
}

func TestBackToBackNeverConflicts(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.IntRange(0, MinutesPerDay-3).Draw(t, "a_start")
		a := Span{Start: start, End: rapid.IntRange(start+1, MinutesPerDay-2).Draw(t, "a_end")}
		end := rapid.IntRange(a.End+1, MinutesPerDay-1).Draw(t, "b_end")
		b := Span{Start: a.End, End: end}

		if len(FindConflicts(a, []Item{{ID: "b", Span: &b}}, "")) != 0 {
			t.Fatalf("%v and %v are back to back", a, b)
		}
		if len(FindConflicts(b, []Item{{ID: "a", Span: &a}}, "")) != 0 {
			t.Fatalf("%v and %v are back to back", b, a)
		}
	})
}

func ptr[T any](v T) *T { return &v }
