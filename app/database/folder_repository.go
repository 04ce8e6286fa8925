package database

import (
	"database/sql"
	"fmt"
	"time"

	"podcastd/app/podcast"
)

var _ podcast.FolderIndexer = (*FolderRepository)(nil)

// FolderRepository records channel directories so the media library indexes
// them. Registration is idempotent.
type FolderRepository struct {
	db *DB
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(db *DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// RegisterFolder records a newly created directory, ignoring duplicates.
func (r *FolderRepository) RegisterFolder(path string) error {
	_, err := r.db.Exec(`
		INSERT INTO media_folders (path, created_at)
		VALUES (?, ?)
		ON CONFLICT(path) DO NOTHING
	`, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to register folder: %w", err)
	}
	return nil
}

// SetFolderMetadata updates the enabled flag and comment of a registered folder.
func (r *FolderRepository) SetFolderMetadata(path string, enabled bool, comment string) error {
	_, err := r.db.Exec(`
		UPDATE media_folders
		SET enabled = ?, comment = ?
		WHERE path = ?
	`, enabled, comment, path)
	if err != nil {
		return fmt.Errorf("failed to set folder metadata: %w", err)
	}
	return nil
}

// GetFolder retrieves a registered folder, returning nil if it is unknown.
func (r *FolderRepository) GetFolder(path string) (*podcast.Folder, error) {
	var folder podcast.Folder
	err := r.db.QueryRow(`
		SELECT path, enabled, comment, created_at
		FROM media_folders
		WHERE path = ?
	`, path).Scan(&folder.Path, &folder.Enabled, &folder.Comment, &folder.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return &folder, nil
}
