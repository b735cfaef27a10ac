package domain

import "testing"

func TestFormatComplaintCode(t *testing.T) {
	cases := []struct {
		prefix string
		start  int
		width  int
		id     uint
		want   string
	}{
		{"KSC", 1, 4, 1, "KSC0001"},
		{"KSC", 1, 4, 27, "KSC0027"},
		{"CMS", 1000, 4, 1, "CMS1000"},
		{"X", 1, 2, 150, "X150"},
		{"", 1, 0, 5, "5"},
	}
	for _, tc := range cases {
		if got := FormatComplaintCode(tc.prefix, tc.start, tc.width, tc.id); got != tc.want {
			t.Fatalf("FormatComplaintCode(%q, %d, %d, %d) = %q, want %q", tc.prefix, tc.start, tc.width, tc.id, got, tc.want)
		}
	}
}
