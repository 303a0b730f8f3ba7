package circulardb

import "testing"

func Test_ScaleFactor_Parses_Per_Unit_Grammar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		units string
		want  float64
	}{
		{"absolute", 0},
		{"", 0},
		{"per sec", 1},
		{"per min", 60},
		{"per hour", 3600},
		{"per day", 86400},
		{"per week", 604800},
		{"per month", 2592000},
		{"per quarter", 7776000},
		{"per year", 31536000},
		{"per 5 min", 300},
		{"per 2 hour", 7200},
		{"per fortnight", 0},
		{"5 per min", 300},
		{"2 per hour", 7200},
	}

	for _, tt := range tests {
		got := scaleFactor(tt.units)
		if got != tt.want {
			t.Errorf("scaleFactor(%q) = %v, want %v", tt.units, got, tt.want)
		}
	}
}
