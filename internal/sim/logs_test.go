package sim

import (
	"fmt"
	"strings"
	"testing"
)

func TestThoughtLog_WrapsOldestFirst(t *testing.T) {
	tl := NewThoughtLog()
	for i := 0; i < thoughtLogSize+5; i++ {
		tl.Add(i, StateExploring, fmt.Sprintf("msg %d", i))
	}
	if tl.Len() != thoughtLogSize {
		t.Fatalf("expected %d entries, got %d", thoughtLogSize, tl.Len())
	}
	recent := tl.Recent()
	if recent[0].Tick != 5 {
		t.Fatalf("oldest kept entry should be tick 5, got %d", recent[0].Tick)
	}
	if last := recent[len(recent)-1]; last.Tick != thoughtLogSize+4 {
		t.Fatalf("newest entry should be last, got tick %d", last.Tick)
	}
}

func TestSimLog_FilterAndVerbose(t *testing.T) {
	sl := NewSimLog(false)
	sl.Add(1, "state", "change", "spawn → explore", 0)
	sl.Add(2, "nav", "path_planned", "path_planned 14 waypoints", 14)
	sl.AddVerbose(3, "move", "position", "(1,1)", 0)

	if len(sl.Entries()) != 2 {
		t.Fatalf("verbose entry should be dropped, got %d entries", len(sl.Entries()))
	}
	if sl.CountCategory("nav", "") != 1 {
		t.Fatal("expected one nav entry")
	}
	e, ok := sl.FirstOf("nav", "path_planned")
	if !ok || e.NumVal != 14 {
		t.Fatalf("FirstOf = %+v, %v", e, ok)
	}
	if !sl.HasEntry("state", "", "explore") {
		t.Fatal("HasEntry should match a value substring")
	}
	if !strings.Contains(sl.Format(), "[T=002] nav") {
		t.Fatalf("unexpected format:\n%s", sl.Format())
	}

	verbose := NewSimLog(true)
	verbose.AddVerbose(1, "move", "position", "(1,1)", 0)
	if len(verbose.Entries()) != 1 {
		t.Fatal("verbose log should keep position entries")
	}
}
