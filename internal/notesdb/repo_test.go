package notesdb

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/soundscapelab/soundscape/internal/apperr"
	"github.com/soundscapelab/soundscape/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "soundscape-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func audioRef(name string) models.MediaReference {
	return models.MediaReference{Category: models.CategoryAudio, Name: name, Owned: true}
}

func imageRef(name string) *models.MediaReference {
	return &models.MediaReference{Category: models.CategoryImage, Name: name, Owned: true}
}

func TestInsertAndGet(t *testing.T) {
	db := testDB(t)
	created := time.UnixMilli(time.Now().UnixMilli())
	id, err := db.Insert(&models.Note{
		Title:           "Park walk",
		Audio:           audioRef("note_1.m4a"),
		CreatedAt:       created,
		DurationSeconds: 12,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	got, err := db.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Park walk" || got.Audio.Name != "note_1.m4a" || got.DurationSeconds != 12 {
		t.Errorf("note = %+v", got)
	}
	if got.Image != nil {
		t.Errorf("image should be nil, got %+v", got.Image)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, created)
	}
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	_, err := db.GetByID(42)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	db := testDB(t)
	id, _ := db.Insert(&models.Note{Title: "a", Audio: audioRef("note_1.m4a"), CreatedAt: time.Now()})

	n, _ := db.GetByID(id)
	n.Title = "b"
	n.Image = imageRef("img_1.jpg")
	if err := db.Update(n); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := db.GetByID(id)
	if got.Title != "b" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Image == nil || got.Image.Name != "img_1.jpg" {
		t.Errorf("image = %+v", got.Image)
	}

	// Clearing the image persists as NULL.
	got.Image = nil
	if err := db.Update(got); err != nil {
		t.Fatalf("Update clear image: %v", err)
	}
	got, _ = db.GetByID(id)
	if got.Image != nil {
		t.Errorf("image should be cleared, got %+v", got.Image)
	}
}

func TestUpdateMissing(t *testing.T) {
	db := testDB(t)
	err := db.Update(&models.Note{ID: 99, Title: "x", Audio: audioRef("note_9.m4a")})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	id, _ := db.Insert(&models.Note{Title: "x", Audio: audioRef("note_1.m4a"), CreatedAt: time.Now()})
	if err := db.Delete(id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.GetByID(id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := db.Delete(id); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func seedListFixture(t *testing.T, db *DB) {
	t.Helper()
	base := time.UnixMilli(1_700_000_000_000)
	fixtures := []models.Note{
		{Title: "Morning birds", Audio: audioRef("note_1.m4a"), CreatedAt: base, DurationSeconds: 10},
		{Title: "Park walk", Audio: audioRef("note_2.m4a"), Image: imageRef("img_2.jpg"), CreatedAt: base.Add(time.Minute), DurationSeconds: 45},
		{Title: "Evening rain", Audio: audioRef("note_3.m4a"), CreatedAt: base.Add(2 * time.Minute), DurationSeconds: 31},
	}
	for i := range fixtures {
		if _, err := db.Insert(&fixtures[i]); err != nil {
			t.Fatalf("seed insert: %v", err)
		}
	}
}

func TestListDefaultNewestFirst(t *testing.T) {
	db := testDB(t)
	seedListFixture(t, db)
	notes, err := db.List(Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("len = %d, want 3", len(notes))
	}
	if notes[0].Title != "Evening rain" || notes[2].Title != "Morning birds" {
		t.Errorf("order = %q, %q, %q", notes[0].Title, notes[1].Title, notes[2].Title)
	}
}

func TestListFilters(t *testing.T) {
	db := testDB(t)
	seedListFixture(t, db)

	notes, err := db.List(Filter{TitleQuery: "PARK"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "Park walk" {
		t.Errorf("title filter = %+v", notes)
	}

	notes, _ = db.List(Filter{OnlyWithImage: true})
	if len(notes) != 1 || notes[0].Title != "Park walk" {
		t.Errorf("image filter = %+v", notes)
	}

	// Strictly longer than 30 seconds: 31 and 45 qualify, 10 does not.
	notes, _ = db.List(Filter{LongerThanSeconds: 30})
	if len(notes) != 2 {
		t.Errorf("duration filter len = %d, want 2", len(notes))
	}
}

func TestListSortVariants(t *testing.T) {
	db := testDB(t)
	seedListFixture(t, db)

	notes, _ := db.List(Filter{Sort: SortOldest})
	if notes[0].Title != "Morning birds" {
		t.Errorf("oldest first = %q", notes[0].Title)
	}

	notes, _ = db.List(Filter{Sort: SortLongest})
	if notes[0].Title != "Park walk" {
		t.Errorf("longest first = %q", notes[0].Title)
	}
}
