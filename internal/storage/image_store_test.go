package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/werewolfcoder/OrderingSystem/internal/domain"
)

func TestDiskStore_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads/food-images/", 1024)
	require.NoError(t, err)
	ctx := context.Background()

	url, err := s.Save(ctx, "cafeluna", "paneer.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/food-images/cafeluna/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	full := filepath.Join(dir, "cafeluna", filepath.Base(url))
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, url))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	// second delete and foreign urls are no-ops
	assert.NoError(t, s.Delete(ctx, url))
	assert.NoError(t, s.Delete(ctx, "https://cdn.example.com/x.png"))
	assert.NoError(t, s.Delete(ctx, "/uploads/food-images/../../etc/passwd"))
}

func TestDiskStore_Rejects(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/img", 4)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Save(ctx, "cafeluna", "menu.exe", strings.NewReader("x"))
	assert.True(t, domain.IsValidation(err))

	_, err = s.Save(ctx, "../etc", "a.png", strings.NewReader("x"))
	assert.True(t, domain.IsValidation(err))

	_, err = s.Save(ctx, "cafeluna", "big.jpg", bytes.NewReader(make([]byte, 5)))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Dir, "cafeluna"))
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized upload must be removed")
}
