package domain

import "testing"

func TestJobStatusTerminal(t *testing.T) {
	cases := []struct {
		status JobStatus
		want   bool
	}{
		{JobStatusPending, false},
		{JobStatusProcessing, false},
		{JobStatusCompleted, true},
		{JobStatusFailed, true},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.want {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestNormalizeModelTier(t *testing.T) {
	cases := []struct {
		in   string
		want ModelTier
	}{
		{"flash", ModelTierFlash},
		{"pro", ModelTierPro},
		{"ultra", ModelTierUltra},
		{"", ModelTierFlash},
		{"mega", ModelTierFlash},
	}
	for _, tc := range cases {
		if got := NormalizeModelTier(tc.in); got != tc.want {
			t.Errorf("NormalizeModelTier(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
