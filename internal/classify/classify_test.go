package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "google.com.", Normalize("Google.COM"))
	assert.Equal(t, "google.com.", Normalize(" google.com. "))
	assert.Equal(t, ".", Normalize(""))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		tld  string
		sld  string
	}{
		{"simple", "google.com", "com.", "google.com."},
		{"subdomain", "www.maps.google.com", "com.", "google.com."},
		{"uppercase unqualified", "Example.ORG", "org.", "example.org."},
		{"multi-label suffix", "amazon.co.uk", "co.uk.", "amazon.co.uk."},
		{"deep under multi-label suffix", "a.b.amazon.co.uk", "co.uk.", "amazon.co.uk."},
		{"name is a multi-label suffix", "co.uk", "uk.", "co.uk."},
		{"bare tld", "com", "com.", ""},
		{"root-qualified", "example.net.", "net.", "example.net."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comps, err := Split(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.tld, comps.TLD)
			assert.Equal(t, tt.sld, comps.SLD)
		})
	}
}

func TestSplit_Invalid(t *testing.T) {
	for _, in := range []string{"", ".", "bad..name", "a..b.com"} {
		_, err := Split(in)
		assert.ErrorIs(t, err, ErrInvalidDomainName, "input %q", in)
	}
}

func TestIsPublicSuffix(t *testing.T) {
	assert.True(t, IsPublicSuffix("com"))
	assert.True(t, IsPublicSuffix("co.uk."))
	assert.False(t, IsPublicSuffix("google.com"))
	assert.False(t, IsPublicSuffix(""))
}
