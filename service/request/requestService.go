package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
	requestrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/request"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrConflict     ErrCode = "CONFLICT"
	ErrUnavailable  ErrCode = "UNAVAILABLE"
	ErrForbidden    ErrCode = "FORBIDDEN"
	ErrInvalidState ErrCode = "INVALID_STATE"
	ErrValidation   ErrCode = "VALIDATION"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Ledger is the request store. Operations that pair a status transition
// with a stock change are single atomic calls.
type Ledger interface {
	PendingExists(ctx context.Context, userID, bookID int64) (bool, error)
	ByID(ctx context.Context, id int64) (*model.Request, error)
	Insert(ctx context.Context, req *model.Request) error
	InsertCheckedOut(ctx context.Context, req *model.Request) error
	Approve(ctx context.Context, id, approvedBy int64, at time.Time) (*model.Request, error)
	CheckOut(ctx context.Context, id, approvedBy int64, due, at time.Time) (*model.Request, error)
	CheckIn(ctx context.Context, id int64, at time.Time) (*model.Request, error)
	ByUser(ctx context.Context, userID int64) ([]model.RequestDetail, error)
	ByPatron(ctx context.Context, patronID int64) ([]model.RequestDetail, error)
	ByStatus(ctx context.Context, status model.RequestStatus) ([]model.RequestDetail, error)
	All(ctx context.Context) ([]model.RequestDetail, error)
	OverdueCandidates(ctx context.Context, now time.Time) ([]model.Request, error)
	MarkOverdue(ctx context.Context, id int64, fine float64) (bool, error)
}

// Catalog resolves books. Lookups return (nil, nil) when absent.
type Catalog interface {
	ByID(ctx context.Context, id int64) (*model.Book, error)
}

// Directory resolves users. Lookups return (nil, nil) when absent.
type Directory interface {
	ByID(ctx context.Context, id int64) (*model.User, error)
}

// Notifier is the append-only notification sink.
type Notifier interface {
	Insert(ctx context.Context, userID int64, message string) (*model.Notification, error)
}

type Service interface {
	// Submit creates a Pending borrow request and notifies the book's patron.
	Submit(ctx context.Context, userID, bookID int64) (*model.Request, error)

	// Approve moves Pending -> Approved and notifies the requester.
	Approve(ctx context.Context, requestID, approverID int64) (*model.Request, error)

	// Checkout moves Approved -> Out, committing to the given due date and
	// taking one copy off the shelf.
	Checkout(ctx context.Context, requestID, approverID int64, due time.Time) (*model.Request, error)

	// ApproveAndCheckout is the walk-in fast path: creates the request
	// already checked out, decrementing stock in the same unit of work.
	ApproveAndCheckout(ctx context.Context, studentID, approverID, bookID int64, due time.Time) (*model.Request, error)

	// CheckIn moves Out or Overdue -> In and returns the copy to the shelf.
	CheckIn(ctx context.Context, requestID, approverID int64) (*model.Request, error)

	ByUser(ctx context.Context, userID int64) ([]model.RequestDetail, error)
	ByPatron(ctx context.Context, patronID int64) ([]model.RequestDetail, error)
	ByStatus(ctx context.Context, callerID int64, status model.RequestStatus) ([]model.RequestDetail, error)
	All(ctx context.Context, callerID int64) ([]model.RequestDetail, error)

	// Export renders the requests in the given status as an xlsx workbook.
	Export(ctx context.Context, callerID int64, status model.RequestStatus) ([]byte, error)
}

// ----- Service implementation -----

type service struct {
	ledger Ledger
	books  Catalog
	users  Directory
	sink   Notifier
	log    *slog.Logger
	now    func() time.Time
}

func New(l Ledger, b Catalog, u Directory, n Notifier, log *slog.Logger) Service {
	return &service{ledger: l, books: b, users: u, sink: n, log: log, now: time.Now}
}

func (s *service) Submit(ctx context.Context, userID, bookID int64) (*model.Request, error) {
	if userID <= 0 || bookID <= 0 {
		return nil, makeErr(ErrValidation)
	}
	user, err := s.users.ByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, makeErr(ErrNotFound)
	}
	book, err := s.books.ByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, makeErr(ErrNotFound)
	}

	dup, err := s.ledger.PendingExists(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, makeErr(ErrConflict)
	}
	if book.AvailableStock <= 0 {
		return nil, makeErr(ErrUnavailable)
	}

	req := &model.Request{
		UserID:      userID,
		BookID:      bookID,
		RequestDate: s.now().UTC(),
		Status:      model.RequestPending,
	}
	if err := s.ledger.Insert(ctx, req); err != nil {
		return nil, mapLedgerErr(err)
	}

	s.notify(ctx, book.PatronID, fmt.Sprintf("%s-%s %s has requested to borrow %s",
		user.IndexNo, user.Surname, user.FirstName, book.Title))
	return req, nil
}

func (s *service) Approve(ctx context.Context, requestID, approverID int64) (*model.Request, error) {
	if requestID <= 0 {
		return nil, makeErr(ErrValidation)
	}
	if _, err := s.approver(ctx, approverID); err != nil {
		return nil, err
	}

	req, err := s.ledger.Approve(ctx, requestID, approverID, s.now().UTC())
	if err != nil {
		return nil, mapLedgerErr(err)
	}

	if book, berr := s.books.ByID(ctx, req.BookID); berr == nil && book != nil {
		s.notify(ctx, req.UserID, fmt.Sprintf("Your request for %s has been approved", book.Title))
	}
	return req, nil
}

func (s *service) Checkout(ctx context.Context, requestID, approverID int64, due time.Time) (*model.Request, error) {
	if requestID <= 0 || due.IsZero() {
		return nil, makeErr(ErrValidation)
	}
	if _, err := s.approver(ctx, approverID); err != nil {
		return nil, err
	}

	req, err := s.ledger.CheckOut(ctx, requestID, approverID, due.UTC(), s.now().UTC())
	if err != nil {
		return nil, mapLedgerErr(err)
	}
	return req, nil
}

func (s *service) ApproveAndCheckout(ctx context.Context, studentID, approverID, bookID int64, due time.Time) (*model.Request, error) {
	if studentID <= 0 || bookID <= 0 || due.IsZero() {
		return nil, makeErr(ErrValidation)
	}
	if _, err := s.approver(ctx, approverID); err != nil {
		return nil, err
	}
	student, err := s.users.ByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, makeErr(ErrNotFound)
	}
	book, err := s.books.ByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, makeErr(ErrNotFound)
	}

	now := s.now().UTC()
	d := due.UTC()
	req := &model.Request{
		UserID:      studentID,
		BookID:      bookID,
		ApprovedBy:  &approverID,
		RequestDate: now,
		ApproveDate: &now,
		OutDate:     &now,
		InPrevDate:  &d,
		Status:      model.RequestOut,
	}
	if err := s.ledger.InsertCheckedOut(ctx, req); err != nil {
		return nil, mapLedgerErr(err)
	}
	return req, nil
}

func (s *service) CheckIn(ctx context.Context, requestID, approverID int64) (*model.Request, error) {
	if requestID <= 0 {
		return nil, makeErr(ErrValidation)
	}
	if _, err := s.approver(ctx, approverID); err != nil {
		return nil, err
	}

	req, err := s.ledger.CheckIn(ctx, requestID, s.now().UTC())
	if err != nil {
		return nil, mapLedgerErr(err)
	}
	return req, nil
}

func (s *service) ByUser(ctx context.Context, userID int64) ([]model.RequestDetail, error) {
	if userID <= 0 {
		return nil, makeErr(ErrValidation)
	}
	return s.ledger.ByUser(ctx, userID)
}

func (s *service) ByPatron(ctx context.Context, patronID int64) ([]model.RequestDetail, error) {
	if patronID <= 0 {
		return nil, makeErr(ErrValidation)
	}
	return s.ledger.ByPatron(ctx, patronID)
}

func (s *service) ByStatus(ctx context.Context, callerID int64, status model.RequestStatus) ([]model.RequestDetail, error) {
	if !status.Valid() {
		return nil, makeErr(ErrValidation)
	}
	if err := s.staff(ctx, callerID); err != nil {
		return nil, err
	}
	return s.ledger.ByStatus(ctx, status)
}

func (s *service) All(ctx context.Context, callerID int64) ([]model.RequestDetail, error) {
	if err := s.staff(ctx, callerID); err != nil {
		return nil, err
	}
	return s.ledger.All(ctx)
}

// approver resolves the acting identity and enforces the librarian role on
// every state-changing operation.
func (s *service) approver(ctx context.Context, id int64) (*model.User, error) {
	if id <= 0 {
		return nil, makeErr(ErrValidation)
	}
	u, err := s.users.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, makeErr(ErrNotFound)
	}
	if !u.Role.CanApprove() {
		return nil, makeErr(ErrForbidden)
	}
	return u, nil
}

// staff allows librarians and admins for read-side listings.
func (s *service) staff(ctx context.Context, id int64) error {
	if id <= 0 {
		return makeErr(ErrValidation)
	}
	u, err := s.users.ByID(ctx, id)
	if err != nil {
		return err
	}
	if u == nil {
		return makeErr(ErrNotFound)
	}
	if u.Role != model.RoleLibrarian && u.Role != model.RoleAdmin {
		return makeErr(ErrForbidden)
	}
	return nil
}

// notify writes to the sink best-effort. The lifecycle transition has
// already committed; a failed notification is logged, not propagated.
func (s *service) notify(ctx context.Context, userID int64, message string) {
	if _, err := s.sink.Insert(ctx, userID, message); err != nil {
		s.log.Error("notification write failed", "user_id", userID, "err", err)
	}
}

func mapLedgerErr(err error) error {
	switch {
	case errors.Is(err, requestrepo.ErrNotFound):
		return makeErr(ErrNotFound)
	case errors.Is(err, requestrepo.ErrWrongState):
		return makeErr(ErrInvalidState)
	case errors.Is(err, requestrepo.ErrNoStock):
		return makeErr(ErrUnavailable)
	case errors.Is(err, requestrepo.ErrDuplicate):
		return makeErr(ErrConflict)
	}
	return err
}
