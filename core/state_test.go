package core

import "testing"

func TestStateAtLeast(t *testing.T) {
	tests := []struct {
		name string
		cur  State
		min  State
		want bool
	}{
		{"equal", StateRouted, StateRouted, true},
		{"greater", StateAccumulated, StateRouted, true},
		{"lesser", StateLoaded, StateRouted, false},
		{"empty vs loaded", StateEmpty, StateLoaded, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cur.AtLeast(tc.min); got != tc.want {
				t.Fatalf("%v.AtLeast(%v) = %v, want %v", tc.cur, tc.min, got, tc.want)
			}
		})
	}
}
