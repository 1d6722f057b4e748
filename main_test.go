package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"originality-bot/database"
	"originality-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReset(t *testing.T) {
	ctx := context.Background()
	store, err := database.Open(filepath.Join(t.TempDir(), "reset.sqlite"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.InsertTextHash(ctx, models.TextHashRecord{AuthorID: "a", MessageID: "1", Digest: "d", SentAt: time.Now()}))
	_, err = store.InsertImageHash(ctx, models.ImageHashRecord{StructuralHash: "00", ColorHash: "00", MessageID: "2"})
	require.NoError(t, err)

	var out strings.Builder
	printf := func(format string, a ...any) { fmt.Fprintf(&out, format, a...) }

	require.NoError(t, reset(ctx, store, true, false, printf))
	assert.Equal(t, "Removed 1 text records\n", out.String())

	n, err := store.CountImageHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	out.Reset()
	require.NoError(t, reset(ctx, store, true, true, printf))
	assert.Equal(t, "Removed 0 text records\nRemoved 1 image records\n", out.String())
}
