package notesdb

import "github.com/soundscapelab/soundscape/internal/models"

// Store defines the interface for note metadata operations. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with mocks.
type Store interface {
	Insert(n *models.Note) (int64, error)
	Update(n *models.Note) error
	Delete(id int64) error
	GetByID(id int64) (*models.Note, error)
	List(f Filter) ([]models.Note, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
