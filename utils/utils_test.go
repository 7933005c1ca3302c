package utils

import "testing"

func TestParseUint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint
		wantErr bool
	}{
		{name: "plain id", input: "42", want: 42},
		{name: "zero", input: "0", want: 0},
		{name: "empty", input: "", wantErr: true},
		{name: "non-numeric", input: "abc", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "trailing garbage", input: "12x", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseUint(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected parse error for %q, got %d", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q: %v", tc.input, err)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
