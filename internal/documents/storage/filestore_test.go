package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name kept", "invoice.pdf", "invoice.pdf"},
		{"spaces collapsed", "bill of lading.pdf", "bill_of_lading.pdf"},
		{"path components stripped", "../../etc/passwd", "passwd"},
		{"special characters replaced", "so#1001 (final)!.pdf", "so_1001_final_.pdf"},
		{"empty becomes file", "   ", "file"},
		{"leading dots trimmed", "..hidden", "hidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSave_CollisionSuffixCounter(t *testing.T) {
	store := newTestStore(t)

	first, _, size, err := store.Save("sales_order", "SO-1001", "invoice.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", first)
	assert.Equal(t, int64(3), size)

	second, _, _, err := store.Save("sales_order", "SO-1001", "invoice.pdf", strings.NewReader("two"))
	require.NoError(t, err)
	assert.Equal(t, "invoice_1.pdf", second)

	third, _, _, err := store.Save("sales_order", "SO-1001", "invoice.pdf", strings.NewReader("three"))
	require.NoError(t, err)
	assert.Equal(t, "invoice_2.pdf", third)

	// A different order directory starts its own counter
	other, _, _, err := store.Save("sales_order", "SO-1002", "invoice.pdf", strings.NewReader("four"))
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", other)
}

func TestSaveOpenDeleteRoundTrip(t *testing.T) {
	store := newTestStore(t)

	name, rel, _, err := store.Save("purchase_order", "PO-7", "receipt.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, "receipt.png", name)
	assert.Equal(t, "documents/purchase_order/PO-7/receipt.png", rel)
	assert.True(t, store.Exists(rel))

	rc, err := store.Open(rel)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(content))

	require.NoError(t, store.Delete(rel))
	assert.False(t, store.Exists(rel))

	// Deleting an already-removed file is not an error
	require.NoError(t, store.Delete(rel))
}

func TestOpen_RejectsEscapingPath(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Open("../outside.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes")
}
