package units

import "testing"

func TestIsTimezoneValid(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		expected bool
	}{
		{"UTC", "UTC", true},
		{"IANA zone", "Asia/Kolkata", true},
		{"US alias", "US/Eastern", true},
		{"nonsense", "Mars/Olympus_Mons", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimezoneValid(tt.timezone); got != tt.expected {
				t.Errorf("IsTimezoneValid(%q) = %v, want %v", tt.timezone, got, tt.expected)
			}
		})
	}
}
