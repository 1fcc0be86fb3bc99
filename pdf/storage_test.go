package pdf

import (
	"fmt"
	"os"
	"testing"

	"invoicing-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupStorage(t *testing.T) (*Storage, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PdfFile{}))

	store, err := NewStorage(t.TempDir(), nil)
	require.NoError(t, err)
	return store, db
}

func TestStoreAndRead(t *testing.T) {
	store, db := setupStorage(t)

	file, err := store.Store(db, []byte("%PDF-1.7 fake"), "INV-20240315-7.pdf")
	require.NoError(t, err)
	assert.NotZero(t, file.ID)
	assert.Equal(t, "INV-20240315-7.pdf", file.FileName)
	assert.Equal(t, int64(13), file.Size)

	data, err := store.Read(file)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 fake"), data)
}

func TestStoreKeepsOldArtifactBytes(t *testing.T) {
	store, db := setupStorage(t)

	old, err := store.Store(db, []byte("old"), "invoice.pdf")
	require.NoError(t, err)
	replacement, err := store.Store(db, []byte("new"), "invoice.pdf")
	require.NoError(t, err)

	// same filename, distinct paths: storing never overwrites
	assert.NotEqual(t, old.DiskPath, replacement.DiskPath)
	data, err := store.Read(old)
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)
}

func TestDeleteRemovesBytesAndRecord(t *testing.T) {
	store, db := setupStorage(t)

	file, err := store.Store(db, []byte("gone soon"), "x.pdf")
	require.NoError(t, err)

	require.NoError(t, store.Delete(db, file))

	_, statErr := os.Stat(file.DiskPath)
	assert.True(t, os.IsNotExist(statErr))

	var count int64
	db.Model(&models.PdfFile{}).Where("id = ?", file.ID).Count(&count)
	assert.Zero(t, count)
}

func TestReadMissingArtifact(t *testing.T) {
	store, _ := setupStorage(t)

	_, err := store.Read(nil)
	assert.Error(t, err)

	var artErr *ArtifactError
	assert.ErrorAs(t, err, &artErr)
}
