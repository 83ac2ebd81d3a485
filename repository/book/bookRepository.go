package bookrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
)

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Book, int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	// HasOpenRequests reports whether any request for the book is still in a
	// non-terminal state (Pending, Approved, Out or Overdue).
	HasOpenRequests(ctx context.Context, bookID int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db} }

const bookCols = `id, cover, title, authors, description, publication_date,
	publisher, pages, category, total_stock, available_stock, patron_id,
	created_at, updated_at`

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	authors, err := json.Marshal(b.Authors)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO books (cover, title, authors, description, publication_date,
			publisher, pages, category, total_stock, available_stock, patron_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`,
		b.Cover, b.Title, authors, b.Description, b.PublicationDate,
		b.Publisher, b.Pages, b.Category, b.TotalStock, b.AvailableStock, b.PatronID,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func scanBook(scan func(dest ...any) error) (*model.Book, error) {
	b := &model.Book{}
	var authors []byte
	err := scan(&b.ID, &b.Cover, &b.Title, &authors, &b.Description,
		&b.PublicationDate, &b.Publisher, &b.Pages, &b.Category,
		&b.TotalStock, &b.AvailableStock, &b.PatronID, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(authors) > 0 {
		if err := json.Unmarshal(authors, &b.Authors); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+bookCols+`
		FROM books
		WHERE id = $1`, id)
	return scanBook(row.Scan)
}

func (r *repo) List(ctx context.Context, search string, page, limit int) ([]model.Book, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	pattern := "%" + strings.TrimSpace(search) + "%"

	var total int64
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM books
		WHERE title ILIKE $1 OR category ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+bookCols+`
		FROM books
		WHERE title ILIKE $1 OR category ILIKE $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, pattern, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		b, err := scanBook(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

// Update rewrites the catalog row. A total_stock change carries its delta
// over to available_stock in the same statement (SET expressions read the
// old row), so copies out on loan stay accounted for and the stock bounds
// constraint rejects a shrink below them.
func (r *repo) Update(ctx context.Context, b *model.Book) error {
	authors, err := json.Marshal(b.Authors)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE books
		SET cover = $2,
			title = $3,
			authors = $4,
			description = $5,
			publication_date = $6,
			publisher = $7,
			pages = $8,
			category = $9,
			available_stock = available_stock + $10 - total_stock,
			total_stock = $10,
			updated_at = NOW()
		WHERE id = $1`,
		b.ID, b.Cover, b.Title, authors, b.Description, b.PublicationDate,
		b.Publisher, b.Pages, b.Category, b.TotalStock)
	return err
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	return err
}

func (r *repo) HasOpenRequests(ctx context.Context, bookID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM requests
		WHERE book_id = $1
		AND status IN ('Pending', 'Approved', 'Out', 'Overdue')`, bookID).Scan(&n)
	return n > 0, err
}
