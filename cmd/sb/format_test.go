package main

import (
	"testing"
	"time"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is longer than ten", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestOrDash(t *testing.T) {
	empty, set := "", "value"
	if got := orDash(nil); got != "-" {
		t.Errorf("orDash(nil) = %q", got)
	}
	if got := orDash(&empty); got != "-" {
		t.Errorf("orDash(\"\") = %q", got)
	}
	if got := orDash(&set); got != "value" {
		t.Errorf("orDash(value) = %q", got)
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 2*3600))
	if got := formatTime(ts); got != "2026-03-04 03:06:07" {
		t.Errorf("formatTime = %q", got)
	}
	if got := formatTimePtr(nil); got != "-" {
		t.Errorf("formatTimePtr(nil) = %q", got)
	}
	if got := formatTimePtr(&ts); got != "2026-03-04 03:06:07" {
		t.Errorf("formatTimePtr = %q", got)
	}
}
