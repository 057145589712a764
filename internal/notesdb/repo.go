package notesdb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/models"
)

// Sort selects the list ordering.
type Sort string

const (
	SortNewest  Sort = "newest"  // created_at descending (default)
	SortOldest  Sort = "oldest"  // created_at ascending
	SortLongest Sort = "longest" // duration_seconds descending
)

// Filter narrows and orders a note listing.
type Filter struct {
	// TitleQuery keeps notes whose title contains the query,
	// case-insensitively. Empty means no title filter.
	TitleQuery string
	// OnlyWithImage keeps notes that carry a photo.
	OnlyWithImage bool
	// LongerThanSeconds keeps notes strictly longer than the given
	// duration. Zero means no duration filter.
	LongerThanSeconds int
	Sort              Sort
}

// Insert stores a new note and returns its assigned id.
func (db *DB) Insert(n *models.Note) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO notes (title, audio_name, image_name, created_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?)
	`, n.Title, n.Audio.Name, imageName(n), n.CreatedAt.UnixMilli(), n.DurationSeconds)
	if err != nil {
		return 0, fmt.Errorf("notesdb: insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("notesdb: insert id: %w", err)
	}
	return id, nil
}

// Update replaces the mutable fields of an existing note. ID and created_at
// are immutable; created_at is deliberately not written.
func (db *DB) Update(n *models.Note) error {
	res, err := db.conn.Exec(`
		UPDATE notes
		SET title = ?, audio_name = ?, image_name = ?, duration_seconds = ?
		WHERE id = ?
	`, n.Title, n.Audio.Name, imageName(n), n.DurationSeconds, n.ID)
	if err != nil {
		return fmt.Errorf("notesdb: update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("notesdb: update affected: %w", err)
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete removes a note row.
func (db *DB) Delete(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("notesdb: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("notesdb: delete affected: %w", err)
	}
	if affected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// GetByID returns a single note.
func (db *DB) GetByID(id int64) (*models.Note, error) {
	row := db.conn.QueryRow(`
		SELECT id, title, audio_name, image_name, created_at, duration_seconds
		FROM notes WHERE id = ?
	`, id)
	n, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("notesdb: get: %w", err)
	}
	return n, nil
}

// List returns notes matching the filter in the requested order.
func (db *DB) List(f Filter) ([]models.Note, error) {
	var (
		where []string
		args  []any
	)
	if q := strings.TrimSpace(f.TitleQuery); q != "" {
		where = append(where, `instr(lower(title), lower(?)) > 0`)
		args = append(args, q)
	}
	if f.OnlyWithImage {
		where = append(where, `image_name IS NOT NULL AND image_name != ''`)
	}
	if f.LongerThanSeconds > 0 {
		where = append(where, `duration_seconds > ?`)
		args = append(args, f.LongerThanSeconds)
	}

	query := `SELECT id, title, audio_name, image_name, created_at, duration_seconds FROM notes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	switch f.Sort {
	case SortOldest:
		query += ` ORDER BY created_at ASC, id ASC`
	case SortLongest:
		query += ` ORDER BY duration_seconds DESC, created_at DESC`
	default:
		query += ` ORDER BY created_at DESC, id DESC`
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("notesdb: list: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("notesdb: list scan: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func imageName(n *models.Note) any {
	if n.Image == nil || n.Image.Zero() {
		return nil
	}
	return n.Image.Name
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (*models.Note, error) {
	var (
		n         models.Note
		audioName string
		imgName   sql.NullString
		createdMs int64
	)
	if err := row.Scan(&n.ID, &n.Title, &audioName, &imgName, &createdMs, &n.DurationSeconds); err != nil {
		return nil, err
	}
	n.Audio = models.MediaReference{Category: models.CategoryAudio, Name: audioName, Owned: true}
	if imgName.Valid && imgName.String != "" {
		n.Image = &models.MediaReference{Category: models.CategoryImage, Name: imgName.String, Owned: true}
	}
	n.CreatedAt = time.UnixMilli(createdMs)
	return &n, nil
}
