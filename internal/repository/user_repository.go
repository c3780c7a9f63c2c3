package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/soundstage/soundstage/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, password, display_name, avatar_path, is_admin, created_at`

func scanUser(row interface{ Scan(dest ...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName,
		&u.AvatarPath, &u.IsAdmin, &u.CreatedAt)
	return u, err
}

// Create stores a user profile. An empty password means a passwordless
// profile (kid/guest profiles); otherwise the bcrypt hash is stored.
func (r *UserRepository) Create(u *models.User, password string) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	hash := ""
	if password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hash = string(h)
	}
	u.PasswordHash = hash

	query := `
		INSERT INTO users (id, username, password, display_name, avatar_path, is_admin)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.Exec(query, u.ID, u.Username, u.PasswordHash,
		u.DisplayName, u.AvatarPath, u.IsAdmin); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("username %q already exists", u.Username)
		}
		return err
	}
	return nil
}

// CheckPassword verifies a candidate password against the stored hash.
// Passwordless profiles accept only an empty candidate.
func (r *UserRepository) CheckPassword(u *models.User, password string) bool {
	if u.PasswordHash == "" {
		return password == ""
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) List() ([]*models.User, error) {
	rows, err := r.db.Query(`SELECT ` + userColumns + ` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Delete(id uuid.UUID) error {
	_, err := r.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	return err
}
