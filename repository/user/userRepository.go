// repository/user/repo.go
package userrepo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
)

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	ByIndexNo(ctx context.Context, indexNo string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	TouchLastSeen(ctx context.Context, id int64) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	// HasOpenRequests reports whether the user still holds a request in a
	// non-terminal state (Pending, Approved, Out or Overdue).
	HasOpenRequests(ctx context.Context, userID int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const userCols = `id, index_no, surname, first_name, other_name, date_of_birth,
	password_hash, role, status, last_seen, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	var role string
	err := row.Scan(&u.ID, &u.IndexNo, &u.Surname, &u.FirstName, &u.OtherName,
		&u.DateOfBirth, &u.PasswordHash, &role, &u.Status, &u.LastSeen,
		&u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = model.ParseRole(role)
	return u, nil
}

func (r *repo) Create(ctx context.Context, u *model.User) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO users(index_no, surname, first_name, other_name, date_of_birth, password_hash, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		u.IndexNo, u.Surname, u.FirstName, u.OtherName, u.DateOfBirth, u.PasswordHash, string(u.Role),
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE id = $1`, id))
}

func (r *repo) ByIndexNo(ctx context.Context, indexNo string) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `
		SELECT `+userCols+`
		FROM users
		WHERE lower(index_no) = lower($1)`, indexNo))
}

func (r *repo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userCols+`
		FROM users
		ORDER BY surname, first_name
		LIMIT $1 OFFSET $2`, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		var role string
		if err := rows.Scan(&u.ID, &u.IndexNo, &u.Surname, &u.FirstName, &u.OtherName,
			&u.DateOfBirth, &u.PasswordHash, &role, &u.Status, &u.LastSeen,
			&u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		u.Role = model.ParseRole(role)
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *repo) TouchLastSeen(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET last_seen = NOW(),
			updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

func (r *repo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2,
			updated_at = NOW()
		WHERE id = $1`, id, passwordHash)
	return err
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (r *repo) HasOpenRequests(ctx context.Context, userID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM requests
		WHERE user_id = $1
		AND status IN ('Pending', 'Approved', 'Out', 'Overdue')`, userID).Scan(&n)
	return n > 0, err
}
