package request_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
	requestsvc "github.com/euroclydon611/lmsf-fyp-backend/service/request"
)

func newEngine(s *memStore) requestsvc.Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return requestsvc.New(memLedger{s}, memCatalog{s}, s, s, log)
}

const (
	studentID = int64(1)
	patronID  = int64(2)
	bookID    = int64(10)
)

func fixture(available int) *memStore {
	s := newMemStore()
	s.addUser(studentID, model.RoleStudent)
	s.addUser(patronID, model.RoleLibrarian)
	s.addBook(bookID, "The Go Programming Language", patronID, 2, available)
	return s
}

func TestSubmit_CreatesPendingAndNotifiesPatron(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)

	req, err := svc.Submit(context.Background(), studentID, bookID)
	require.NoError(t, err)
	require.Equal(t, model.RequestPending, req.Status)
	require.False(t, req.RequestDate.IsZero())

	// stock untouched until checkout
	require.Equal(t, 2, s.book(bookID).AvailableStock)

	require.Len(t, s.notes, 1)
	require.Equal(t, patronID, s.notes[0].UserID)
	require.Contains(t, s.notes[0].Message, "IDX-Doe Jo has requested to borrow The Go Programming Language")
}

func TestSubmit_UnknownUserOrBook(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)

	_, err := svc.Submit(context.Background(), 99, bookID)
	require.Equal(t, requestsvc.ErrNotFound, requestsvc.Code(err))

	_, err = svc.Submit(context.Background(), studentID, 99)
	require.Equal(t, requestsvc.ErrNotFound, requestsvc.Code(err))
}

func TestSubmit_DuplicatePendingConflicts(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)

	_, err := svc.Submit(context.Background(), studentID, bookID)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), studentID, bookID)
	require.Equal(t, requestsvc.ErrConflict, requestsvc.Code(err))
}

func TestSubmit_ZeroStockUnavailable(t *testing.T) {
	s := fixture(0)
	svc := newEngine(s)

	_, err := svc.Submit(context.Background(), studentID, bookID)
	require.Equal(t, requestsvc.ErrUnavailable, requestsvc.Code(err))
}

func TestApprove_RoleEnforced(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)

	req, err := svc.Submit(context.Background(), studentID, bookID)
	require.NoError(t, err)

	// a student cannot approve
	_, err = svc.Approve(context.Background(), req.ID, studentID)
	require.Equal(t, requestsvc.ErrForbidden, requestsvc.Code(err))

	// unknown approver
	_, err = svc.Approve(context.Background(), req.ID, 99)
	require.Equal(t, requestsvc.ErrNotFound, requestsvc.Code(err))

	out, err := svc.Approve(context.Background(), req.ID, patronID)
	require.NoError(t, err)
	require.Equal(t, model.RequestApproved, out.Status)
	require.NotNil(t, out.ApproveDate)
	require.Equal(t, patronID, *out.ApprovedBy)

	// approval does not reserve stock
	require.Equal(t, 2, s.book(bookID).AvailableStock)

	// requester notified
	last := s.notes[len(s.notes)-1]
	require.Equal(t, studentID, last.UserID)
	require.Contains(t, last.Message, "has been approved")
}

func TestApprove_WrongStateRejected(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)

	req, _ := svc.Submit(context.Background(), studentID, bookID)
	_, err := svc.Approve(context.Background(), req.ID, patronID)
	require.NoError(t, err)

	_, err = svc.Approve(context.Background(), req.ID, patronID)
	require.Equal(t, requestsvc.ErrInvalidState, requestsvc.Code(err))
}

func TestCheckout_DecrementsStock(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	req, _ := svc.Submit(context.Background(), studentID, bookID)
	_, err := svc.Approve(context.Background(), req.ID, patronID)
	require.NoError(t, err)

	out, err := svc.Checkout(context.Background(), req.ID, patronID, due)
	require.NoError(t, err)
	require.Equal(t, model.RequestOut, out.Status)
	require.NotNil(t, out.OutDate)
	require.NotNil(t, out.InPrevDate)
	require.Equal(t, 1, s.book(bookID).AvailableStock)
}

func TestCheckout_RequiresApprovedState(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	req, _ := svc.Submit(context.Background(), studentID, bookID)

	// straight from Pending is rejected
	_, err := svc.Checkout(context.Background(), req.ID, patronID, due)
	require.Equal(t, requestsvc.ErrInvalidState, requestsvc.Code(err))
	require.Equal(t, model.RequestPending, s.request(req.ID).Status)
	require.Equal(t, 2, s.book(bookID).AvailableStock)
}

func TestCheckout_ZeroStockLeavesRequestUnchanged(t *testing.T) {
	s := fixture(1)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	req, _ := svc.Submit(context.Background(), studentID, bookID)
	_, err := svc.Approve(context.Background(), req.ID, patronID)
	require.NoError(t, err)

	// drain the last copy behind this request's back
	s.mu.Lock()
	s.books[bookID].AvailableStock = 0
	s.mu.Unlock()

	_, err = svc.Checkout(context.Background(), req.ID, patronID, due)
	require.Equal(t, requestsvc.ErrUnavailable, requestsvc.Code(err))
	require.Equal(t, model.RequestApproved, s.request(req.ID).Status)
}

func TestCheckout_ConcurrentLastCopy(t *testing.T) {
	s := newMemStore()
	s.addUser(patronID, model.RoleLibrarian)
	u1 := s.addUser(100, model.RoleStudent)
	u2 := s.addUser(101, model.RoleStudent)
	s.addBook(bookID, "Single Copy", patronID, 1, 1)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	r1, err := svc.Submit(context.Background(), u1.ID, bookID)
	require.NoError(t, err)
	r2, err := svc.Submit(context.Background(), u2.ID, bookID)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), r1.ID, patronID)
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), r2.ID, patronID)
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	for i, id := range []int64{r1.ID, r2.ID} {
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), id, patronID, due)
		}(i, id)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else if requestsvc.Code(err) == requestsvc.ErrUnavailable {
			lost++
		}
	}
	require.Equal(t, 1, won, "exactly one checkout must win the last copy")
	require.Equal(t, 1, lost, "the other must fail with UNAVAILABLE")
	require.Equal(t, 0, s.book(bookID).AvailableStock)
}

func TestCheckIn_RoundTripRestoresStock(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	req, _ := svc.Submit(context.Background(), studentID, bookID)
	_, err := svc.Approve(context.Background(), req.ID, patronID)
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), req.ID, patronID, due)
	require.NoError(t, err)
	require.Equal(t, 1, s.book(bookID).AvailableStock)

	in, err := svc.CheckIn(context.Background(), req.ID, patronID)
	require.NoError(t, err)
	require.Equal(t, model.RequestIn, in.Status)
	require.NotNil(t, in.InDate)
	require.Equal(t, 2, s.book(bookID).AvailableStock)
}

func TestCheckIn_FromOverdue(t *testing.T) {
	s := fixture(1)
	svc := newEngine(s)
	due := time.Now().Add(-48 * time.Hour)

	req, _ := svc.Submit(context.Background(), studentID, bookID)
	_, err := svc.Approve(context.Background(), req.ID, patronID)
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), req.ID, patronID, due)
	require.NoError(t, err)

	rec := requestsvc.NewReconciler(memLedger{s}, 10, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Equal(t, 1, rec.RunOnce(context.Background()))
	require.Equal(t, model.RequestOverdue, s.request(req.ID).Status)

	in, err := svc.CheckIn(context.Background(), req.ID, patronID)
	require.NoError(t, err)
	require.Equal(t, model.RequestIn, in.Status)
	require.Equal(t, 1, s.book(bookID).AvailableStock)
}

func TestCheckIn_WrongState(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)

	req, _ := svc.Submit(context.Background(), studentID, bookID)
	_, err := svc.CheckIn(context.Background(), req.ID, patronID)
	require.Equal(t, requestsvc.ErrInvalidState, requestsvc.Code(err))
}

func TestApproveAndCheckout_FastPath(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	req, err := svc.ApproveAndCheckout(context.Background(), studentID, patronID, bookID, due)
	require.NoError(t, err)
	require.Equal(t, model.RequestOut, req.Status)
	require.NotNil(t, req.ApproveDate)
	require.NotNil(t, req.OutDate)
	require.NotNil(t, req.InPrevDate)
	require.Equal(t, patronID, *req.ApprovedBy)
	require.Equal(t, 1, s.book(bookID).AvailableStock)
}

func TestApproveAndCheckout_StudentCannotAct(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	_, err := svc.ApproveAndCheckout(context.Background(), studentID, studentID, bookID, due)
	require.Equal(t, requestsvc.ErrForbidden, requestsvc.Code(err))
	require.Equal(t, 2, s.book(bookID).AvailableStock)
}

func TestApproveAndCheckout_ZeroStock(t *testing.T) {
	s := fixture(0)
	svc := newEngine(s)
	due := time.Now().Add(7 * 24 * time.Hour)

	_, err := svc.ApproveAndCheckout(context.Background(), studentID, patronID, bookID, due)
	require.Equal(t, requestsvc.ErrUnavailable, requestsvc.Code(err))
}

func TestListings_RoleChecks(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)

	_, err := svc.ByStatus(context.Background(), studentID, model.RequestPending)
	require.Equal(t, requestsvc.ErrForbidden, requestsvc.Code(err))

	_, err = svc.All(context.Background(), studentID)
	require.Equal(t, requestsvc.ErrForbidden, requestsvc.Code(err))

	_, err = svc.ByStatus(context.Background(), patronID, model.RequestStatus("Bogus"))
	require.Equal(t, requestsvc.ErrValidation, requestsvc.Code(err))

	rows, err := svc.ByStatus(context.Background(), patronID, model.RequestPending)
	require.NoError(t, err)
	require.Empty(t, rows)
}

// Full lifecycle: submit -> approve -> checkout -> overdue -> checkin.
func TestLifecycle_EndToEnd(t *testing.T) {
	s := fixture(2)
	svc := newEngine(s)
	ctx := context.Background()

	req, err := svc.Submit(ctx, studentID, bookID)
	require.NoError(t, err)
	require.Equal(t, model.RequestPending, req.Status)

	_, err = svc.Approve(ctx, req.ID, patronID)
	require.NoError(t, err)
	require.Equal(t, 2, s.book(bookID).AvailableStock)

	due := time.Now().Add(-49 * time.Hour) // already past due
	outReq, err := svc.Checkout(ctx, req.ID, patronID, due)
	require.NoError(t, err)
	require.Equal(t, model.RequestOut, outReq.Status)
	require.Equal(t, 1, s.book(bookID).AvailableStock)

	rec := requestsvc.NewReconciler(memLedger{s}, 10, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Equal(t, 1, rec.RunOnce(ctx))

	over := s.request(req.ID)
	require.Equal(t, model.RequestOverdue, over.Status)
	require.NotNil(t, over.Fine)
	require.Equal(t, 3*10.0, *over.Fine) // 49h late rounds up to 3 days

	in, err := svc.CheckIn(ctx, req.ID, patronID)
	require.NoError(t, err)
	require.Equal(t, model.RequestIn, in.Status)
	require.Equal(t, 2, s.book(bookID).AvailableStock)
}
