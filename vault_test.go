package memora

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/memora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenVault(t *testing.T) {
	t.Run("create new vault", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_vault")
		vault, err := OpenVault(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, vault)
		defer vault.Close()

		assert.NotNil(t, vault.MemoryRepository())
		assert.NotNil(t, vault.backend)
		assert.NotNil(t, vault.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		vault, err := OpenVault(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, vault)
	})
}

func TestVault_Close(t *testing.T) {
	vault, err := OpenVault(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, vault)

	err = vault.Close()
	assert.NoError(t, err)
}

func TestVault_Stats(t *testing.T) {
	vault, err := OpenVault(t.TempDir())
	require.NoError(t, err)
	defer vault.Close()

	ctx := context.Background()

	stats, err := vault.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalMemories)
	assert.Equal(t, 0, stats.HighPriority)

	now := time.Now().UTC()
	records := []*core.MemoryRecord{
		{Title: "Routine", Summary: "s", OriginalText: "a", MaskedText: "a",
			Category: core.CategoryOther, Importance: 3, Timestamp: now},
		{Title: "Urgent", Summary: "s", OriginalText: "b", MaskedText: "b",
			Category: core.CategoryHealth, Importance: 9, Timestamp: now},
		{Title: "Critical", Summary: "s", OriginalText: "c", MaskedText: "c",
			Category: core.CategoryFinance, Importance: 8, Timestamp: now},
	}
	_, err = vault.MemoryRepository().AddMemories(ctx, records...)
	require.NoError(t, err)

	stats, err = vault.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMemories)
	assert.Equal(t, 2, stats.HighPriority)
}

func TestVault_FactoryMethods(t *testing.T) {
	vault, err := OpenVault(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, vault)
	defer vault.Close()

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := vault.NewIngestionPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create retriever", func(t *testing.T) {
		retriever, err := vault.NewRetriever()
		require.NoError(t, err)
		require.NotNil(t, retriever)
		retriever.Close()
	})
}
