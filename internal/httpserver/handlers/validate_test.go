package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"alice@example.com", true},
		{"a.b+tag@sub.example.org", true},
		{"", false},
		{"not-an-email", false},
		{"@example.com", false},
		{"alice@", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, validEmail(tc.email), "email %q", tc.email)
	}
}

func TestValidPassword(t *testing.T) {
	cases := []struct {
		pw   string
		want bool
	}{
		{"Abcdef12", true},
		{"LongerPassw0rd", true},
		{"Short1a", false},     // under 8 chars
		{"alllower1", false},   // no uppercase
		{"ALLUPPER1", false},   // no lowercase
		{"NoDigitsHere", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, validPassword(tc.pw), "password %q", tc.pw)
	}
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", normalizeEmail("  Alice@Example.COM "))
	require.Equal(t, "", normalizeEmail("   "))
}
