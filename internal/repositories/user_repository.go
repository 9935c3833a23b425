package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/HuseyinEmreTech/Ybs-Web-Sitesi-sub000/internal/models"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no user matches the lookup
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when the email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrLastAdmin is returned when a change would leave no admin account
	ErrLastAdmin = errors.New("cannot remove the last admin")
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation
const mysqlDuplicateEntry = 1062

const userColumns = `id, email, password_hash, name, image_url, role, created_at, updated_at`

// userRepository implements the credential store on MySQL
type userRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.ImageURL,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail retrieves a user by normalized email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? LIMIT 1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by id
func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get user by id", zap.Error(err), zap.Int("id", id))
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// List returns all users ordered by id
func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// Count returns the number of users
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// Create inserts a new user and sets its id
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name, image_url, role)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Email, user.PasswordHash, user.Name, user.ImageURL, user.Role)
	if err != nil {
		if isDuplicateEntry(err) {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to create user", zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = int(id)
	return nil
}

// Update overwrites only the columns set in changes and returns the stored row.
// The row is read and written under its lock, so concurrent writes to other
// columns are kept. Demoting the only admin fails with ErrLastAdmin.
func (r *userRepository) Update(ctx context.Context, id int, changes *models.UserChanges) (*models.User, error) {
	var updated *models.User
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		current, err := lockUser(ctx, tx, id)
		if err != nil {
			return err
		}

		if changes.Role != nil && current.Role == models.RoleAdmin && *changes.Role != models.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx); err != nil {
				return err
			}
		}

		if changes.Empty() {
			updated = current
			return nil
		}

		sets, args := updateAssignments(changes)
		query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
		if _, err := tx.ExecContext(ctx, query, append(args, id)...); err != nil {
			if isDuplicateEntry(err) {
				return ErrDuplicateEmail
			}
			return fmt.Errorf("failed to update user: %w", err)
		}

		row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
		if updated, err = scanUser(row); err != nil {
			return fmt.Errorf("failed to reload user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// updateAssignments builds the SET clauses in column order
func updateAssignments(changes *models.UserChanges) ([]string, []any) {
	var sets []string
	var args []any
	if changes.Email != nil {
		sets, args = append(sets, "email = ?"), append(args, *changes.Email)
	}
	if changes.PasswordHash != nil {
		sets, args = append(sets, "password_hash = ?"), append(args, *changes.PasswordHash)
	}
	if changes.Name != nil {
		sets, args = append(sets, "name = ?"), append(args, *changes.Name)
	}
	if changes.ImageURL != nil {
		sets, args = append(sets, "image_url = ?"), append(args, *changes.ImageURL)
	}
	if changes.Role != nil {
		sets, args = append(sets, "role = ?"), append(args, *changes.Role)
	}
	return sets, args
}

// UpdatePasswordHash replaces the stored password value of a user
func (r *userRepository) UpdatePasswordHash(ctx context.Context, id int, hash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		r.logger.Error("failed to update password hash", zap.Error(err), zap.Int("id", id))
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a user. Deleting the only admin fails with ErrLastAdmin.
func (r *userRepository) Delete(ctx context.Context, id int) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		role, err := lockUserRole(ctx, tx, id)
		if err != nil {
			return err
		}

		if role == models.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// inTx runs fn in a transaction, committing only when fn succeeds
func (r *userRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("failed to begin transaction", zap.Error(err))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lockUser reads a user and locks its row
func lockUser(ctx context.Context, tx *sql.Tx, id int) (*models.User, error) {
	user, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return user, nil
}

// lockUserRole reads the role of a user and locks its row
func lockUserRole(ctx context.Context, tx *sql.Tx, id int) (models.Role, error) {
	var role models.Role
	err := tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ? FOR UPDATE`, id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to lock user: %w", err)
	}
	return role, nil
}

// ensureAnotherAdmin locks the admin rows and fails unless more than one exists.
// Concurrent demotions or deletions serialize on these locks.
func ensureAnotherAdmin(ctx context.Context, tx *sql.Tx) error {
	var admins int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ? FOR UPDATE`, models.RoleAdmin).Scan(&admins)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
