package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/swarnim921/Smart-Resume/internal/model"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlDuplicateEntry = 1062

const userColumns = "id,email,name,password_hash,role,verified,verification_code,verification_code_expires_at,version,created_at,updated_at"

// UserRepo is the MySQL implementation of UserStore. Row-level locking
// (SELECT ... FOR UPDATE) serialises concurrent writers on one email.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var _ UserStore = (*UserRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u       model.User
		role    string
		code    sql.NullString
		expires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &u.Verified,
		&code, &expires, &u.Version, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.Role = model.RoleOrDefault(role)
	if code.Valid {
		c := code.String
		u.VerificationCode = &c
	}
	if expires.Valid {
		t := expires.Time.UTC()
		u.VerificationCodeExpiresAt = &t
	}
	return u, nil
}

func nullCode(u *model.User) sql.NullString {
	if u.VerificationCode == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *u.VerificationCode, Valid: true}
}

func nullExpiry(u *model.User) sql.NullTime {
	if u.VerificationCodeExpiresAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: u.VerificationCodeExpiresAt.UTC(), Valid: true}
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func prepareInsert(u *model.User) {
	now := time.Now().UTC()
	u.Email = normalizeEmail(u.Email)
	u.ID = uuid.NewString()
	u.Version = 1
	u.CreatedAt = now
	u.UpdatedAt = now
}

func insertArgs(u *model.User) []any {
	return []any{u.ID, u.Email, u.Name, u.PasswordHash, string(u.Role), u.Verified,
		nullCode(u), nullExpiry(u), u.Version, u.CreatedAt, u.UpdatedAt}
}

// Create inserts the user and fills in its generated fields.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	prepareInsert(u)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?)",
		insertArgs(u)...)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by exact email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns every user ordered by creation time.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Update locks the row, applies fn and writes the mutable columns back in
// the same transaction.
func (r *UserRepo) Update(ctx context.Context, email string, fn func(*model.User) error) (model.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := scanUser(tx.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1 FOR UPDATE", normalizeEmail(email)))
	if err != nil {
		return model.User{}, err
	}
	next := cloneUser(cur)
	if err := fn(&next); err != nil {
		return cur, err
	}
	next.Version = cur.Version + 1
	next.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		"UPDATE users SET name=?,password_hash=?,role=?,verified=?,verification_code=?,verification_code_expires_at=?,version=?,updated_at=? WHERE id=?",
		next.Name, next.PasswordHash, string(next.Role), next.Verified,
		nullCode(&next), nullExpiry(&next), next.Version, next.UpdatedAt, cur.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	next.ID, next.Email, next.CreatedAt = cur.ID, cur.Email, cur.CreatedAt
	return next, nil
}

// Delete removes the user with the given email.
func (r *UserRepo) Delete(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE email=?", normalizeEmail(email))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePending removes the user with id if it is still unverified.
func (r *UserRepo) DeletePending(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=? AND verified=0", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateFirstAdmin claims the fixed bootstrap row and inserts u in one
// transaction. The row is never removed, so the bootstrap stays closed even
// after every admin is gone.
func (r *UserRepo) CreateFirstAdmin(ctx context.Context, u *model.User) error {
	prepareInsert(u)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO bootstrap (id, email, created_at) VALUES (?,?,?)",
		firstAdminGuardID, u.Email, u.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrAdminExists
		}
		return fmt.Errorf("claim bootstrap: %w", err)
	}

	args := append(insertArgs(u), string(model.RoleAdmin))
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") SELECT ?,?,?,?,?,?,?,?,?,?,? FROM DUAL WHERE NOT EXISTS (SELECT 1 FROM users WHERE role=?)",
		args...)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAdminExists
	}
	return tx.Commit()
}

// SweepExpired deletes unverified users whose code expired at or before now.
func (r *UserRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM users WHERE verified=0 AND verification_code_expires_at IS NOT NULL AND verification_code_expires_at<=?",
		now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *UserRepo) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }
