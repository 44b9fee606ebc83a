package accounts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/beverageshop/internal/domain"
	"github.com/joao-fontenele/beverageshop/internal/store"
)

var errDuplicateUsername = domain.Conflict("Tên đăng nhập đã tồn tại")

const userColumns = `id, username, email, password_hash, full_name, phone, address, role, created_date, is_active`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.Address,
		&u.Role, &u.CreatedDate, &u.IsActive)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	u, err := scanUser(store.Conn(ctx, r.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByIDForUpdate locks the user row until the surrounding transaction ends.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

// GetByUsername matches the username case-insensitively.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower($1)`, username)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, full_name, phone, address, role, is_active, created_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_date
	`, u.Username, u.Email, u.PasswordHash, u.FullName, u.Phone, u.Address, u.Role, u.IsActive,
	).Scan(&u.ID, &u.CreatedDate)
	if store.IsUniqueViolation(err) {
		return errDuplicateUsername
	}
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	return err
}

// UpdateProfile writes the contact details, role and active flag of u.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE users
		SET email = $2, full_name = $3, phone = $4, address = $5, role = $6, is_active = $7
		WHERE id = $1
	`, u.ID, u.Email, u.FullName, u.Phone, u.Address, u.Role, u.IsActive)
	return err
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *UserRepository) HasOrders(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := store.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE user_id = $1)`, id).Scan(&exists)
	return exists, err
}

// CountActiveAdmins counts active admins with their rows locked, so two concurrent
// demotions cannot both observe a second admin. It must run inside a transaction.
func (r *UserRepository) CountActiveAdmins(ctx context.Context) (int, error) {
	if !store.InTransaction(ctx) {
		return 0, errors.New("count active admins: no transaction open")
	}

	rows, err := store.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT id FROM users WHERE role = $1 AND is_active ORDER BY id FOR UPDATE`, domain.RoleAdmin)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}
