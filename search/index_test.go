package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"match-mate/domain"
)

func openIndex(t *testing.T) *MatchIndex {
	t.Helper()
	idx, err := OpenMatchIndex(t.TempDir(), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func Test_Match_Same_City_And_Shared_Interest(t *testing.T) {
	req := require.New(t)
	idx := openIndex(t)

	alice := domain.Profile{ID: "alice", City: "Lyon", Interests: []string{"climbing", "jazz"}}
	bob := domain.Profile{ID: "bob", City: "Lyon", Interests: []string{"jazz"}}
	carol := domain.Profile{ID: "carol", City: "Paris", Interests: []string{"jazz"}}
	dave := domain.Profile{ID: "dave", City: "Lyon", Interests: []string{"chess"}}

	for _, p := range []domain.Profile{alice, bob, carol, dave} {
		req.NoError(idx.Index(p))
	}

	ids, err := idx.Matches(context.Background(), alice, 10)
	req.NoError(err)
	// carol is in another city, dave shares no interest, alice is excluded.
	req.Equal([]string{"bob"}, ids)
}

func Test_Match_Excludes_Self_And_Is_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	idx := openIndex(t)

	alice := domain.Profile{ID: "alice", City: "LYON", Interests: []string{"Jazz"}}
	bob := domain.Profile{ID: "bob", City: "lyon", Interests: []string{"jazz", "cinema"}}

	req.NoError(idx.Index(alice))
	req.NoError(idx.Index(bob))

	ids, err := idx.Matches(context.Background(), alice, 10)
	req.NoError(err)
	req.Equal([]string{"bob"}, ids)

	ids, err = idx.Matches(context.Background(), bob, 10)
	req.NoError(err)
	req.Equal([]string{"alice"}, ids)
}

func Test_Match_No_Candidates(t *testing.T) {
	req := require.New(t)
	idx := openIndex(t)

	alice := domain.Profile{ID: "alice", City: "Lyon", Interests: []string{"jazz"}}
	req.NoError(idx.Index(alice))

	ids, err := idx.Matches(context.Background(), alice, 10)
	req.NoError(err)
	req.Empty(ids)
}

func Test_Reindex_Replaces_Previous_Document(t *testing.T) {
	req := require.New(t)
	idx := openIndex(t)

	alice := domain.Profile{ID: "alice", City: "Lyon", Interests: []string{"jazz"}}
	bob := domain.Profile{ID: "bob", City: "Lyon", Interests: []string{"jazz"}}
	req.NoError(idx.Index(alice))
	req.NoError(idx.Index(bob))

	// bob moves away; he must stop matching.
	bob.City = "Paris"
	req.NoError(idx.Index(bob))

	ids, err := idx.Matches(context.Background(), alice, 10)
	req.NoError(err)
	req.Empty(ids)
}
