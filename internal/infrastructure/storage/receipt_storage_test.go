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
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T) *ReceiptStorage {
	t.Helper()
	store, err := NewReceiptStorage(t.TempDir(), "/uploads/receipts", zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestSave_StoresImageAndReturnsURL(t *testing.T) {
	store := newTestStorage(t)

	url, err := store.Save(context.Background(), "lunch.PNG", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/receipts/receipt-"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	// The file landed on disk under the generated name.
	name := filepath.Base(url)
	data, err := os.ReadFile(filepath.Join(store.BaseDir(), name))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, []byte{0x89, 'P', 'N', 'G'}))
}

func TestSave_GeneratesUniqueNames(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "a.jpg", []byte{1})
	require.NoError(t, err)
	second, err := store.Save(ctx, "a.jpg", []byte{2})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSave_RejectsInvalidUploads(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"empty file", "a.jpg", nil},
		{"oversized", "a.jpg", make([]byte, MaxReceiptSize+1)},
		{"disallowed extension", "a.exe", []byte{1}},
		{"no extension", "receipt", []byte{1}},
		{"corrupt pdf", "a.pdf", []byte("not a pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(ctx, tt.filename, tt.data)
			assert.ErrorIs(t, err, ErrInvalidReceipt)
		})
	}
}

func TestSave_CancelledContext(t *testing.T) {
	store := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "a.jpg", []byte{1})
	assert.Error(t, err)
}
