package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveK(t *testing.T) {
	cases := []struct {
		name         string
		numDocuments int
		want         int
	}{
		{name: "no documents uses default", numDocuments: 0, want: 5},
		{name: "one document", numDocuments: 1, want: 5},
		{name: "two documents", numDocuments: 2, want: 10},
		{name: "four documents hits cap exactly", numDocuments: 4, want: 20},
		{name: "five documents capped", numDocuments: 5, want: 20},
		{name: "large corpus capped", numDocuments: 30, want: 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveK(tc.numDocuments))
		})
	}
}

func TestNewRetrievalFilter(t *testing.T) {
	f := NewRetrievalFilter("owner-1", []string{"a.md", "b.md", "c.md"})
	require.Equal(t, "owner-1", f.OwnerID)
	require.Equal(t, []string{"a.md", "b.md", "c.md"}, f.AllowedDocuments)
	require.Equal(t, 15, f.K)
}

func TestNewRetrievalFilter_EmptyScope(t *testing.T) {
	f := NewRetrievalFilter("owner-1", nil)
	require.Empty(t, f.AllowedDocuments)
	require.Equal(t, 5, f.K)
}
