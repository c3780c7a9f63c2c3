package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/soundstage/soundstage/internal/models"
)

// ErrLibraryNotFound is the only scan-fatal error: the scan target vanished.
var ErrLibraryNotFound = fmt.Errorf("library not found")

type LibraryRepository struct {
	db *sql.DB
}

func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

const libraryColumns = `id, name, path, type, auto_scan, created_at, last_scan`

func scanLibrary(row interface{ Scan(dest ...interface{}) error }) (*models.Library, error) {
	lib := &models.Library{}
	err := row.Scan(&lib.ID, &lib.Name, &lib.Path, &lib.Type,
		&lib.AutoScan, &lib.CreatedAt, &lib.LastScan)
	return lib, err
}

func (r *LibraryRepository) Create(lib *models.Library) error {
	if lib.ID == uuid.Nil {
		lib.ID = uuid.New()
	}
	query := `
		INSERT INTO libraries (id, name, path, type, auto_scan)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, lib.ID, lib.Name, lib.Path, lib.Type, lib.AutoScan); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("a library with path %q already exists", lib.Path)
		}
		return err
	}
	return nil
}

func (r *LibraryRepository) GetByID(id uuid.UUID) (*models.Library, error) {
	query := `SELECT ` + libraryColumns + ` FROM libraries WHERE id = ?`
	lib, err := scanLibrary(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrLibraryNotFound
	}
	if err != nil {
		return nil, err
	}
	return lib, nil
}

func (r *LibraryRepository) List() ([]*models.Library, error) {
	query := `SELECT ` + libraryColumns + ` FROM libraries ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	libraries := []*models.Library{}
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, lib)
	}
	return libraries, rows.Err()
}

// ListAutoScan returns libraries enrolled in scheduled rescans.
func (r *LibraryRepository) ListAutoScan() ([]*models.Library, error) {
	query := `SELECT ` + libraryColumns + ` FROM libraries WHERE auto_scan = 1`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	libraries := []*models.Library{}
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, lib)
	}
	return libraries, rows.Err()
}

func (r *LibraryRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM libraries WHERE id = ?`, id)
	return err
}

// UpdateLastScan stamps the completion time of a full scan.
func (r *LibraryRepository) UpdateLastScan(id uuid.UUID) error {
	_, err := r.db.Exec(`UPDATE libraries SET last_scan = ? WHERE id = ?`,
		time.Now().UTC(), id)
	return err
}
