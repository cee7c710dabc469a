package domain

import (
	"testing"
)

func TestTerminalSummary_Record_KeepsTotalInvariant(t *testing.T) {
	counts := [][2]int64{{1, 2}, {0, 0}, {5, 0}, {0, 7}, {3, 3}}

	var s TerminalSummary
	for _, c := range counts {
		s = s.Record(c[0], c[1])
		if s.Total != s.Active+s.Complete {
			t.Fatalf("total %d != active %d + complete %d", s.Total, s.Active, s.Complete)
		}
	}

	if s.Active != 9 || s.Complete != 12 || s.Total != 21 {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.PercentComplete != 57.14 {
		t.Errorf("expected 57.14, got %v", s.PercentComplete)
	}
}

func TestTerminalSummary_Record_ZeroTotalLeavesPercentUnset(t *testing.T) {
	s := TerminalSummary{Name: "North"}.Record(0, 0)

	if s.Total != 0 {
		t.Fatalf("expected zero total, got %d", s.Total)
	}
	if s.PercentComplete != 0 {
		t.Errorf("expected percent 0, got %v", s.PercentComplete)
	}
}

func TestTerminalSummary_Record_DoesNotMutateReceiver(t *testing.T) {
	base := TerminalSummary{Name: "North", Active: 1, Total: 1}

	_ = base.Record(2, 2)

	if base.Active != 1 || base.Total != 1 {
		t.Errorf("receiver was modified: %+v", base)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, whole int64
		want        float64
	}{
		{2, 3, 66.67},
		{1, 3, 33.33},
		{1, 1, 100},
		{0, 5, 0},
		{3, 0, 0},
		{1, 8, 12.5},
		{1, 32, 3.12},
		{1, 160, 0.62},
		{3, 32, 9.38},
	}

	for _, tt := range tests {
		if got := Percent(tt.part, tt.whole); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.whole, got, tt.want)
		}
	}
}

func TestDriverRow_HasActivity(t *testing.T) {
	if (DriverRow{}).HasActivity() {
		t.Error("row with no orders must not be active")
	}
	if !(DriverRow{Uncompleted: 1}).HasActivity() {
		t.Error("row with an uncompleted order must be active")
	}
}

func TestReport_SortedTerminals(t *testing.T) {
	r := &Report{Terminals: map[string]TerminalSummary{
		"South": {Name: "South"},
		"East":  {Name: "East"},
		"North": {Name: "North"},
	}}

	got := r.SortedTerminals()

	want := []string{"East", "North", "South"}
	for i, s := range got {
		if s.Name != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], s.Name)
		}
	}
}

func TestOrderStatus_Bucket_Partition(t *testing.T) {
	statuses := []OrderStatus{"N", "D", "L", "C", "P", "A", "X", ""}

	for _, s := range statuses {
		b := s.Bucket()
		uncompleted := b == BucketUncompleted
		completed := b == BucketCompleted
		if uncompleted && completed {
			t.Fatalf("status %q counted in both buckets", s)
		}
		notCompleted := false
		for _, nc := range NotCompletedStatuses() {
			if string(s) == nc {
				notCompleted = true
			}
		}
		if completed == notCompleted {
			t.Errorf("status %q: completed=%v but listed as not completed=%v", s, completed, notCompleted)
		}
	}

	if OrderStatusNotStarted.Bucket() != BucketUncompleted {
		t.Error("N must be uncompleted")
	}
	if OrderStatus("C").Bucket() != BucketCompleted {
		t.Error("C must be completed")
	}
}

func TestDriver_Qualifies(t *testing.T) {
	d := Driver{Status: "A", IsDriver: "Y", DriverType: "C"}
	if !d.Qualifies() {
		t.Error("active company driver should qualify")
	}

	d.DriverType = "O"
	if d.Qualifies() {
		t.Error("owner operator should not qualify")
	}
}
