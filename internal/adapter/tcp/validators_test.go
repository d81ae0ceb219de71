package tcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPPSNumber(t *testing.T) {
	cases := []struct {
		pps   string
		valid bool
	}{
		{"1234567AB", true},
		{"0000000zz", true},
		{"9876543Xy", true},
		{"", false},
		{"123456AB", false},    // too short
		{"12345678AB", false},  // too long
		{"123456A7B", false},   // letter in digit zone
		{"12345678B", false},   // digit in letter zone
		{"1234567A8", false},   // digit in letter zone
		{"ABCDEFGHI", false},   // all letters
		{"1234567Aß", false}, // non-ASCII letter
		{"1234567 B", false},
	}
	for _, tc := range cases {
		t.Run(tc.pps, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidPPSNumber(tc.pps))
		})
	}
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"a@b.com", true},
		{"alice@bank.com", true},
		{"com.@x", true}, // substring test only, order does not matter
		{"", false},
		{"a.com", false},  // missing @
		{"a@bcom", false}, // missing .
		{"a@b.co", false}, // missing com
		{"a@b.org", false},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			assert.Equal(t, tc.valid, ValidEmail(tc.email))
		})
	}
}
