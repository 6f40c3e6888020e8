package util

import "testing"

func TestContains(t *testing.T) {
	roles := []string{"111", "222", "333"}

	if !Contains("222", roles) {
		t.Errorf("expected exact match to be found")
	}
	if Contains("22", roles) {
		t.Errorf("substring of an element must not match")
	}
	if Contains("2222", roles) {
		t.Errorf("superstring of an element must not match")
	}
	if Contains("444", roles) {
		t.Errorf("absent value reported present")
	}
	if Contains("111", nil) {
		t.Errorf("nil list reported a match")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Bob  ", "Bob"},
		{"Bob   Smith", "Bob Smith"},
		{"\tBob\nSmith ", "Bob Smith"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range tests {
		if got := NormalizeName(tc.in); got != tc.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
