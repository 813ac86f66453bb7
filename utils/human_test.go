package utils

import "testing"

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		bytes int64
		want  string
	}{
		{50, "50 B"},
		{968, "0.95 KiB"},
		{20480, "20.00 KiB"},
		{700480, "0.67 MiB"},
		{7000480, "6.68 MiB"},
		{824000480, "0.77 GiB"},
		{82400000480, "76.74 GiB"},
		{824000000480, "0.75 TiB"},
	}

	for _, tc := range cases {
		if got := HumanBytes(tc.bytes); got != tc.want {
			t.Errorf("HumanBytes(%d) = %q, want %q", tc.bytes, got, tc.want)
		}
	}
}
