// repository/request/repo.go
package requestrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
)

// Guard failures from the conditional updates. Callers decide how to
// surface them; the repository only distinguishes them.
var (
	ErrNotFound   = errors.New("request not found")
	ErrWrongState = errors.New("request not in an eligible state")
	ErrNoStock    = errors.New("no available stock")
	ErrDuplicate  = errors.New("pending request already exists")
	// ErrStockDrift means a check-in found available_stock already at
	// total_stock. The stock counter can only get there through a write
	// that bypassed the ledger.
	ErrStockDrift = errors.New("stock counter out of sync with ledger")
)

type Repo interface {
	PendingExists(ctx context.Context, userID, bookID int64) (bool, error)
	ByID(ctx context.Context, id int64) (*model.Request, error)
	Insert(ctx context.Context, req *model.Request) error

	// InsertCheckedOut creates a request already in the Out state and
	// decrements the book's available stock, as one transaction.
	InsertCheckedOut(ctx context.Context, req *model.Request) error

	// Approve moves Pending -> Approved. Stock is untouched; it is
	// decremented at checkout, not at approval.
	Approve(ctx context.Context, id, approvedBy int64, at time.Time) (*model.Request, error)

	// CheckOut moves Approved -> Out and decrements the book's available
	// stock, as one transaction. The decrement re-checks availability so
	// two approved requests racing for the last copy cannot both win.
	CheckOut(ctx context.Context, id, approvedBy int64, due, at time.Time) (*model.Request, error)

	// CheckIn moves Out or Overdue -> In and increments the book's
	// available stock, as one transaction.
	CheckIn(ctx context.Context, id int64, at time.Time) (*model.Request, error)

	ByUser(ctx context.Context, userID int64) ([]model.RequestDetail, error)
	ByPatron(ctx context.Context, patronID int64) ([]model.RequestDetail, error)
	ByStatus(ctx context.Context, status model.RequestStatus) ([]model.RequestDetail, error)
	All(ctx context.Context) ([]model.RequestDetail, error)

	// OverdueCandidates returns loans whose due date has passed and that
	// have not been checked back in. Overdue rows are included so each
	// reconciler pass recomputes the fine from the due date.
	OverdueCandidates(ctx context.Context, now time.Time) ([]model.Request, error)

	// MarkOverdue writes the recomputed fine, conditional on the request
	// still being on loan. Returns false when the guard lost (the request
	// was checked in between scan and write).
	MarkOverdue(ctx context.Context, id int64, fine float64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const reqCols = `id, user_id, book_id, approved_by, request_date, approve_date,
	out_date, in_date, in_prev_date, fine, status, created_at, updated_at`

func scanRequest(scan func(dest ...any) error) (*model.Request, error) {
	var q model.Request
	var status string
	err := scan(&q.ID, &q.UserID, &q.BookID, &q.ApprovedBy, &q.RequestDate,
		&q.ApproveDate, &q.OutDate, &q.InDate, &q.InPrevDate, &q.Fine,
		&status, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	q.Status = model.RequestStatus(status)
	return &q, nil
}

func (r *repo) PendingExists(ctx context.Context, userID, bookID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM requests
		WHERE user_id = $1
		AND book_id = $2
		AND status = 'Pending'`, userID, bookID).Scan(&n)
	return n > 0, err
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Request, error) {
	q, err := scanRequest(r.db.QueryRowContext(ctx, `
		SELECT `+reqCols+`
		FROM requests
		WHERE id = $1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

func (r *repo) Insert(ctx context.Context, req *model.Request) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO requests (user_id, book_id, request_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		req.UserID, req.BookID, req.RequestDate, string(req.Status),
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if isUniquePending(err) {
		return ErrDuplicate
	}
	return err
}

// isUniquePending matches the partial unique index guarding one pending
// request per (user, book).
func isUniquePending(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func (r *repo) InsertCheckedOut(ctx context.Context, req *model.Request) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO requests (user_id, book_id, approved_by, request_date,
			approve_date, out_date, in_prev_date, status)
		VALUES ($1, $2, $3, $4, $4, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		req.UserID, req.BookID, req.ApprovedBy, req.RequestDate,
		req.InPrevDate, string(req.Status),
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return err
	}

	if err = decrementStock(ctx, tx, req.BookID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *repo) Approve(ctx context.Context, id, approvedBy int64, at time.Time) (*model.Request, error) {
	q, err := scanRequest(r.db.QueryRowContext(ctx, `
		UPDATE requests
		SET status = 'Approved',
			approve_date = $2,
			approved_by = $3,
			updated_at = NOW()
		WHERE id = $1
		AND status = 'Pending'
		RETURNING `+reqCols, id, at, approvedBy).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyGuardMiss(ctx, id)
	}
	return q, err
}

func (r *repo) CheckOut(ctx context.Context, id, approvedBy int64, due, at time.Time) (q *model.Request, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q, err = scanRequest(tx.QueryRowContext(ctx, `
		UPDATE requests
		SET status = 'Out',
			out_date = $2,
			in_prev_date = $3,
			approved_by = $4,
			updated_at = NOW()
		WHERE id = $1
		AND status = 'Approved'
		RETURNING `+reqCols, id, at, due, approvedBy).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyGuardMiss(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	if err = decrementStock(ctx, tx, q.BookID); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return q, nil
}

func (r *repo) CheckIn(ctx context.Context, id int64, at time.Time) (q *model.Request, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q, err = scanRequest(tx.QueryRowContext(ctx, `
		UPDATE requests
		SET status = 'In',
			in_date = $2,
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('Out', 'Overdue')
		RETURNING `+reqCols, id, at).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyGuardMiss(ctx, id)
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET available_stock = available_stock + 1,
			updated_at = NOW()
		WHERE id = $1
		AND available_stock < total_stock`, q.BookID)
	if err != nil {
		return nil, err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return nil, ErrStockDrift
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return q, nil
}

// decrementStock takes one copy off the shelf, guarded so the last copy
// cannot be handed out twice.
func decrementStock(ctx context.Context, tx *sql.Tx, bookID int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE books
		SET available_stock = available_stock - 1,
			updated_at = NOW()
		WHERE id = $1
		AND available_stock > 0`, bookID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return ErrNoStock
	}
	return nil
}

// classifyGuardMiss tells a missing row apart from a row in the wrong state
// after a conditional update matched nothing.
func (r *repo) classifyGuardMiss(ctx context.Context, id int64) error {
	q, err := r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if q == nil {
		return ErrNotFound
	}
	return ErrWrongState
}

const detailQuery = `
	SELECT r.id, r.user_id, r.book_id, r.approved_by, r.request_date,
		r.approve_date, r.out_date, r.in_date, r.in_prev_date, r.fine,
		r.status, r.created_at, r.updated_at,
		u.index_no, u.surname, u.first_name, b.title
	FROM requests r
	JOIN users u ON u.id = r.user_id
	JOIN books b ON b.id = r.book_id`

func (r *repo) listDetailed(ctx context.Context, where string, args ...any) ([]model.RequestDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailQuery+where+`
		ORDER BY r.created_at DESC, r.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RequestDetail
	for rows.Next() {
		var d model.RequestDetail
		var status string
		if err := rows.Scan(&d.ID, &d.UserID, &d.BookID, &d.ApprovedBy,
			&d.RequestDate, &d.ApproveDate, &d.OutDate, &d.InDate,
			&d.InPrevDate, &d.Fine, &status, &d.CreatedAt, &d.UpdatedAt,
			&d.IndexNo, &d.Surname, &d.FirstName, &d.BookTitle); err != nil {
			return nil, err
		}
		d.Status = model.RequestStatus(status)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repo) ByUser(ctx context.Context, userID int64) ([]model.RequestDetail, error) {
	return r.listDetailed(ctx, ` WHERE r.user_id = $1`, userID)
}

func (r *repo) ByPatron(ctx context.Context, patronID int64) ([]model.RequestDetail, error) {
	return r.listDetailed(ctx, ` WHERE r.approved_by = $1`, patronID)
}

func (r *repo) ByStatus(ctx context.Context, status model.RequestStatus) ([]model.RequestDetail, error) {
	return r.listDetailed(ctx, ` WHERE r.status = $1`, string(status))
}

func (r *repo) All(ctx context.Context) ([]model.RequestDetail, error) {
	return r.listDetailed(ctx, ``)
}

func (r *repo) OverdueCandidates(ctx context.Context, now time.Time) ([]model.Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reqCols+`
		FROM requests
		WHERE status IN ('Out', 'Overdue')
		AND in_prev_date < $1
		ORDER BY id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Request
	for rows.Next() {
		q, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (r *repo) MarkOverdue(ctx context.Context, id int64, fine float64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE requests
		SET status = 'Overdue',
			fine = $2,
			updated_at = NOW()
		WHERE id = $1
		AND status IN ('Out', 'Overdue')`, id, fine)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff > 0, nil
}
