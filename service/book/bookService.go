package book

import (
	"context"
	"errors"
	"strings"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
)

type ErrCode string

const (
	ErrBadInput       ErrCode = "BAD_INPUT"
	ErrNotFound       ErrCode = "NOT_FOUND"
	ErrLoansOpen      ErrCode = "LOANS_OPEN"
	ErrStockImmutable ErrCode = "STOCK_IMMUTABLE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Book, int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	HasOpenRequests(ctx context.Context, bookID int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) error
	List(ctx context.Context, search string, page, limit int) ([]model.Book, int64, error)
	Detail(ctx context.Context, id int64) (*model.Book, error)

	// Update rewrites catalog metadata. TotalStock may change only while
	// no request for the book is open; a zero value keeps the current
	// count.
	Update(ctx context.Context, b *model.Book) (*model.Book, error)

	// Delete refuses while any request for the book is still open, so the
	// ledger never holds references to a vanished book.
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) error {
	if strings.TrimSpace(b.Title) == "" || b.TotalStock < 0 || b.PatronID <= 0 {
		return makeErr(ErrBadInput)
	}
	b.AvailableStock = b.TotalStock
	return s.r.Create(ctx, b)
}

func (s *service) List(ctx context.Context, search string, page, limit int) ([]model.Book, int64, error) {
	return s.r.List(ctx, search, page, limit)
}

func (s *service) Detail(ctx context.Context, id int64) (*model.Book, error) {
	if id <= 0 {
		return nil, makeErr(ErrBadInput)
	}
	return s.r.ByID(ctx, id)
}

func (s *service) Update(ctx context.Context, b *model.Book) (*model.Book, error) {
	if b.ID <= 0 || strings.TrimSpace(b.Title) == "" {
		return nil, makeErr(ErrBadInput)
	}
	cur, err := s.r.ByID(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, makeErr(ErrNotFound)
	}
	if b.TotalStock == 0 {
		// absent from the payload; keep the current count
		b.TotalStock = cur.TotalStock
	}
	if b.TotalStock != cur.TotalStock {
		open, err := s.r.HasOpenRequests(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		if open {
			return nil, makeErr(ErrStockImmutable)
		}
	}
	if err := s.r.Update(ctx, b); err != nil {
		return nil, err
	}
	return s.r.ByID(ctx, b.ID)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return makeErr(ErrBadInput)
	}
	cur, err := s.r.ByID(ctx, id)
	if err != nil {
		return err
	}
	if cur == nil {
		return makeErr(ErrNotFound)
	}
	open, err := s.r.HasOpenRequests(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return makeErr(ErrLoansOpen)
	}
	return s.r.Delete(ctx, id)
}
