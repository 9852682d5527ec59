package utils

import "testing"

func TestFormatPhoneNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(02) 8123-4567", "0281234567"},
		{"+63 917 123 4567", "+639171234567"},
		{"  0917 123 4567 ", "09171234567"},
		{"+", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := FormatPhoneNumber(c.in); got != c.want {
			t.Errorf("FormatPhoneNumber(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"0917 123 4567", "+639171234567", "1234567"}
	for _, n := range valid {
		if !ValidatePhoneNumber(n) {
			t.Errorf("ValidatePhoneNumber(%q) = false, want true", n)
		}
	}
	invalid := []string{"123456", "12345678901234567", "", "phone"}
	for _, n := range invalid {
		if ValidatePhoneNumber(n) {
			t.Errorf("ValidatePhoneNumber(%q) = true, want false", n)
		}
	}
}

func TestGenerateShortToken(t *testing.T) {
	a := GenerateShortToken(8)
	b := GenerateShortToken(8)
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("token lengths %d/%d, want 16", len(a), len(b))
	}
	if a == b {
		t.Error("two generated tokens are identical")
	}
}
