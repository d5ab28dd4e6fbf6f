package repository

import "testing"

func TestEncodeVector(t *testing.T) {
	cases := []struct {
		in   []float32
		want string
	}{
		{[]float32{}, "[]"},
		{[]float32{0.5}, "[0.5]"},
		{[]float32{0.1, -0.25, 3}, "[0.1,-0.25,3]"},
	}
	for _, tc := range cases {
		if got := encodeVector(tc.in); got != tc.want {
			t.Errorf("encodeVector(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
