package storage

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLocalSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir, "/documents/files/", zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()

	url, err := store.Save(ctx, "123-handbook.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.Equal(t, "/documents/files/123-handbook.pdf", url)

	path, err := store.Path("123-handbook.pdf")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(content))

	_, err = store.Save(ctx, "123-handbook.pdf", strings.NewReader("again"))
	require.Error(t, err)

	require.NoError(t, store.Delete(ctx, "123-handbook.pdf"))
	require.NoError(t, store.Delete(ctx, "123-handbook.pdf"))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestLocalRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/files", zerolog.Nop())
	require.NoError(t, err)

	for _, name := range []string{"", "..", "../secret.pdf", "a/b.pdf", `a\b.pdf`} {
		_, err := store.Path(name)
		require.ErrorIs(t, err, ErrInvalidName, name)
	}
}
