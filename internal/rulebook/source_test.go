package rulebook

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreLastWriteWins(t *testing.T) {
	store := NewStore()
	store.Put(Source{Scheme: "sepa", Filename: "old.pdf", Text: "old", UploadedAt: time.Now()})
	store.Put(Source{Scheme: "SEPA", Filename: "new.pdf", Text: "new", UploadedAt: time.Now()})

	src, ok := store.Get("SEPA")
	require.True(t, ok)
	require.Equal(t, "new.pdf", src.Filename)
	require.Equal(t, 1, store.Count())
}

func TestStoreListSortedAndDelete(t *testing.T) {
	store := NewStore()
	store.Put(Source{Scheme: "SWIFT_MT103", Filename: "mt.pdf"})
	store.Put(Source{Scheme: "CHAPS", Filename: "chaps.pdf"})

	list := store.List()
	require.Len(t, list, 2)
	require.Equal(t, "CHAPS", list[0].Scheme)
	require.Equal(t, "SWIFT_MT103", list[1].Scheme)

	require.True(t, store.Delete("chaps"))
	require.False(t, store.Delete("chaps"))
	_, ok := store.Get("CHAPS")
	require.False(t, ok)
}

func TestSourceTextNeverSerialized(t *testing.T) {
	src := Source{Scheme: "SEPA", Filename: "sepa.pdf", Text: "confidential rulebook body"}

	data, err := json.Marshal(src)
	require.NoError(t, err)
	require.NotContains(t, string(data), "confidential")
}
