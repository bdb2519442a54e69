package model

import (
	"testing"
	"time"
)

func TestParseReason(t *testing.T) {
	cases := []struct {
		in   string
		want Reason
	}{
		{"1", ReasonPersonalEmergency},
		{"2", ReasonMedicalIssue},
		{"3", ReasonTechnicalIssues},
		{"4", ReasonUnexpectedWorkCommitment},
		{"5", ReasonOther},
		{" 2 ", ReasonMedicalIssue},
		{"0", ReasonOther},
		{"6", ReasonOther},
		{"abc", ReasonOther},
		{"", ReasonOther},
	}
	for _, c := range cases {
		if got := ParseReason(c.in); got != c.want {
			t.Fatalf("ParseReason(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestGeneralShiftWindow(t *testing.T) {
	g := ShiftCatalog[ShiftGeneral]

	if g.StartedBefore(at(8, 30)) {
		t.Fatal("08:30 is before the general shift start")
	}
	if !g.StartedBefore(at(9, 30)) {
		t.Fatal("09:30 is after the general shift start")
	}
	if g.EndedBefore(at(16, 59)) {
		t.Fatal("16:59 is before the general shift end")
	}
	if !g.EndedBefore(at(17, 1)) {
		t.Fatal("17:01 is after the general shift end")
	}
	if !g.EndsAfter(at(12, 0)) {
		t.Fatal("the general shift is still running at noon")
	}
	if g.EndsAfter(at(18, 0)) {
		t.Fatal("the general shift is over by 18:00")
	}
}

func TestNightShiftWrapsMidnight(t *testing.T) {
	n := ShiftCatalog[ShiftNight]

	// 23:00 and 05:00 both fall inside the 22:00-06:00 window.
	if n.EndedBefore(at(23, 0)) || n.EndedBefore(at(5, 0)) {
		t.Fatal("the night shift has not ended inside its window")
	}
	if !n.EndsAfter(at(23, 0)) || !n.EndsAfter(at(5, 0)) {
		t.Fatal("the night shift is still running inside its window")
	}

	// Midday sits in the gap between end and next start.
	if !n.EndedBefore(at(12, 0)) {
		t.Fatal("the night shift has ended by midday")
	}
	if n.EndsAfter(at(12, 0)) {
		t.Fatal("the night shift is not running at midday")
	}
}

func TestOpenSession(t *testing.T) {
	rec := TimeTrackingRecord{TrackID: 1, UserID: 1, LoginTime: at(9, 0)}
	if !rec.Open() {
		t.Fatal("a record without logout time is open")
	}
	logout := at(17, 0)
	rec.LogoutTime = &logout
	if rec.Open() {
		t.Fatal("a record with logout time is closed")
	}
}
