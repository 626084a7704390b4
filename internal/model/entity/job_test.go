package entity

import "testing"

func TestNextStatus(t *testing.T) {
	cases := []struct {
		from string
		want string
		ok   bool
	}{
		{JobStatusNew, JobStatusWaitingArtwork, true},
		{JobStatusWaitingArtwork, JobStatusReadyForPress, true},
		{JobStatusReadyForPress, JobStatusInPress, true},
		{JobStatusInPress, JobStatusQC, true},
		{JobStatusQC, JobStatusPacked, true},
		{JobStatusPacked, JobStatusShipped, true},
		{JobStatusShipped, "", false},
		{JobStatusHold, "", false},
		{JobStatusException, "", false},
		{"BOGUS", "", false},
	}

	for _, c := range cases {
		got, ok := NextStatus(c.from)
		if got != c.want || ok != c.ok {
			t.Errorf("NextStatus(%s) = (%q, %v), want (%q, %v)", c.from, got, ok, c.want, c.ok)
		}
	}
}

func TestCanAdvanceFrom(t *testing.T) {
	for _, s := range []string{
		JobStatusNew, JobStatusWaitingArtwork, JobStatusReadyForPress,
		JobStatusInPress, JobStatusQC, JobStatusPacked,
	} {
		if !CanAdvanceFrom(s) {
			t.Errorf("CanAdvanceFrom(%s) = false, want true", s)
		}
	}

	for _, s := range []string{JobStatusShipped, JobStatusHold, JobStatusException, "BOGUS"} {
		if CanAdvanceFrom(s) {
			t.Errorf("CanAdvanceFrom(%s) = true, want false", s)
		}
	}
}

func TestIsValidJobStatus(t *testing.T) {
	for _, s := range JobStatuses {
		if !IsValidJobStatus(s) {
			t.Errorf("IsValidJobStatus(%s) = false", s)
		}
	}
	if IsValidJobStatus("SHIPPED ") || IsValidJobStatus("shipped") || IsValidJobStatus("") {
		t.Error("IsValidJobStatus accepted a malformed status")
	}
}
