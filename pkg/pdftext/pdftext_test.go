package pdftext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractRejectsEmptyInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	require.ErrorContains(t, err, "pdf is empty")
}

func TestExtractHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Extract(ctx, []byte("%PDF-1.4"))
	require.ErrorIs(t, err, context.Canceled)
}
