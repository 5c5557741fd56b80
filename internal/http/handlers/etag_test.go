package handlers

import "testing"

func TestMatchesETag(t *testing.T) {
	const etag = `"abc"`

	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"zzz", "abc"`, true},
		{`"zzz"`, false},
		{"*", true},
		{"abc", false},
	}

	for _, tc := range tests {
		if got := matchesETag(tc.header, etag); got != tc.want {
			t.Errorf("matchesETag(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}
