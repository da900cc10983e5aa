package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageKeepsPath(t *testing.T) {
	var store BackupStore = LocalStorage{}
	loc, err := store.Store(context.Background(), "/tmp/backups/x.db")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/backups/x.db", loc)
}

func TestNewS3StorageRejectsBadEndpoint(t *testing.T) {
	_, err := NewS3Storage(context.Background(), "https://bad endpoint", "a", "b", "bucket", "us-east-1", true)
	assert.Error(t, err)
}
