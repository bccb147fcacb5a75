package debugger_test

import (
	"testing"

	"github.com/hartsim/riscv-emulator/debugger"
)

func TestAddAndGetBreakpoint(t *testing.T) {
	bm := debugger.NewBreakpointManager()

	bp := bm.AddBreakpoint(0x100, false)
	if bp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", bp.ID)
	}
	if !bp.Enabled {
		t.Error("New breakpoint should be enabled")
	}

	got := bm.GetBreakpoint(0x100)
	if got == nil || got.ID != bp.ID {
		t.Errorf("GetBreakpoint returned %+v", got)
	}
	if bm.GetBreakpoint(0x104) != nil {
		t.Error("Expected nil for unset address")
	}
}

func TestAddDuplicateAddressReusesBreakpoint(t *testing.T) {
	bm := debugger.NewBreakpointManager()

	first := bm.AddBreakpoint(0x100, false)
	_ = bm.SetEnabled(first.ID, false)

	second := bm.AddBreakpoint(0x100, false)
	if second.ID != first.ID {
		t.Errorf("Expected reused ID %d, got %d", first.ID, second.ID)
	}
	if !second.Enabled {
		t.Error("Re-adding should re-enable the breakpoint")
	}
}

func TestDeleteBreakpoint(t *testing.T) {
	bm := debugger.NewBreakpointManager()

	bp := bm.AddBreakpoint(0x100, false)
	if err := bm.DeleteBreakpoint(bp.ID); err != nil {
		t.Fatalf("DeleteBreakpoint failed: %v", err)
	}
	if bm.GetBreakpoint(0x100) != nil {
		t.Error("Breakpoint still present after delete")
	}
	if err := bm.DeleteBreakpoint(99); err == nil {
		t.Error("Expected error for unknown ID")
	}
}

func TestListOrderedByID(t *testing.T) {
	bm := debugger.NewBreakpointManager()

	bm.AddBreakpoint(0x300, false)
	bm.AddBreakpoint(0x100, false)
	bm.AddBreakpoint(0x200, false)

	list := bm.List()
	if len(list) != 3 {
		t.Fatalf("Expected 3 breakpoints, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].ID <= list[i-1].ID {
			t.Errorf("List not ordered by ID: %d before %d", list[i-1].ID, list[i].ID)
		}
	}
}

func TestClear(t *testing.T) {
	bm := debugger.NewBreakpointManager()
	bm.AddBreakpoint(0x100, false)
	bm.AddBreakpoint(0x200, false)

	bm.Clear()
	if len(bm.List()) != 0 {
		t.Error("Expected empty list after Clear")
	}
}
