package money

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Amount
		wantErr bool
	}{
		{name: "whole rupees", in: "650", want: 65000},
		{name: "two decimals", in: "123.45", want: 12345},
		{name: "one decimal", in: "12.5", want: 1250},
		{name: "zero", in: "0.00", want: 0},
		{name: "negative", in: "-10.25", want: -1025},
		{name: "sub-paisa precision rejected", in: "1.005", wantErr: true},
		{name: "not a number", in: "ten", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %d, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Amount
		want string
	}{
		{12345, "123.45"},
		{65000, "650.00"},
		{0, "0.00"},
		{-1025, "-10.25"},
		{5, "0.05"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, a := range []Amount{0, 1, 99, 100, 12345, -50} {
		got, err := Parse(Format(a))
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", a, err)
		}
		if got != a {
			t.Errorf("round trip of %d = %d", a, got)
		}
	}
}
