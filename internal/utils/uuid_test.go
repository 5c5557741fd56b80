package utils

import "testing"

func TestIsUUID(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"3f2504e0-4f89-11d3-9a0c-0305e82c3301", true},
		{"3F2504E0-4F89-11D3-9A0C-0305E82C3301", true},
		{"", false},
		{"42", false},
		{"not-a-uuid-at-all-not-a-uuid-at-all!", false},
		{"{3f2504e0-4f89-11d3-9a0c-0305e82c3301}", false},
		{"urn:uuid:3f2504e0-4f89-11d3-9a0c-0305e82c3301", false},
	}

	for _, tc := range cases {
		if got := IsUUID(tc.in); got != tc.want {
			t.Errorf("IsUUID(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
