package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 10, 10},
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		{"x", 5, 5},
		{" 42", 7, 7},
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		page, size         string
		wantPage, wantSize int
	}{
		{"", "", 1, 6},
		{"3", "10", 3, 10},
		{"0", "0", 1, 6},
		{"-2", "-5", 1, 6},
		{"abc", "x", 1, 6},
		{"2", "1000", 2, MaxPageSize},
	}
	for _, tc := range cases {
		p, s := PageParams(tc.page, tc.size, 6)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("PageParams(%q, %q) = (%d, %d); want (%d, %d)", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

func TestTotalPages(t *testing.T) {
	cases := map[[2]int64]int{
		{0, 6}:  0,
		{1, 6}:  1,
		{6, 6}:  1,
		{7, 6}:  2,
		{12, 0}: 0,
	}
	for in, want := range cases {
		if got := TotalPages(in[0], int(in[1])); got != want {
			t.Fatalf("TotalPages(%d, %d) = %d; want %d", in[0], in[1], got, want)
		}
	}
}
