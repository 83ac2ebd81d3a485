package request_test

import (
	"context"
	"sync"
	"time"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
	requestrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/request"
)

// memStore is an in-memory stand-in for the postgres repositories. It
// applies the same conditional-update guards under one mutex, so the
// concurrency tests exercise the same win-or-lose semantics as the real
// store.
type memStore struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	books  map[int64]*model.Book
	reqs   map[int64]*model.Request
	notes  []model.Notification
	nextID int64

	markOverdueErr map[int64]error
}

func newMemStore() *memStore {
	return &memStore{
		users:          make(map[int64]*model.User),
		books:          make(map[int64]*model.Book),
		reqs:           make(map[int64]*model.Request),
		markOverdueErr: make(map[int64]error),
	}
}

func (m *memStore) addUser(id int64, role model.Role) *model.User {
	u := &model.User{ID: id, IndexNo: "IDX", Surname: "Doe", FirstName: "Jo", Role: role, Status: true}
	m.users[id] = u
	return u
}

func (m *memStore) addBook(id int64, title string, patronID int64, total, available int) *model.Book {
	b := &model.Book{ID: id, Title: title, PatronID: patronID, TotalStock: total, AvailableStock: available}
	m.books[id] = b
	return b
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// Directory

func (m *memStore) ByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// Catalog (separate type so both ByID signatures can coexist)

type memCatalog struct{ s *memStore }

func (c memCatalog) ByID(ctx context.Context, id int64) (*model.Book, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	b, ok := c.s.books[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) book(id int64) model.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.books[id]
}

func (m *memStore) request(id int64) model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.reqs[id]
}

// Notifier

func (m *memStore) Insert(ctx context.Context, userID int64, message string) (*model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := model.Notification{ID: m.id(), UserID: userID, Message: message, Status: model.NotificationPending}
	m.notes = append(m.notes, n)
	return &n, nil
}

// Ledger

type memLedger struct{ s *memStore }

func (l memLedger) PendingExists(ctx context.Context, userID, bookID int64) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	for _, q := range l.s.reqs {
		if q.UserID == userID && q.BookID == bookID && q.Status == model.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (l memLedger) ByID(ctx context.Context, id int64) (*model.Request, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	q, ok := l.s.reqs[id]
	if !ok {
		return nil, nil
	}
	cp := *q
	return &cp, nil
}

func (l memLedger) Insert(ctx context.Context, req *model.Request) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	for _, q := range l.s.reqs {
		if q.UserID == req.UserID && q.BookID == req.BookID && q.Status == model.RequestPending {
			return requestrepo.ErrDuplicate
		}
	}
	req.ID = l.s.id()
	cp := *req
	l.s.reqs[req.ID] = &cp
	return nil
}

func (l memLedger) InsertCheckedOut(ctx context.Context, req *model.Request) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	b, ok := l.s.books[req.BookID]
	if !ok || b.AvailableStock <= 0 {
		return requestrepo.ErrNoStock
	}
	b.AvailableStock--
	req.ID = l.s.id()
	cp := *req
	l.s.reqs[req.ID] = &cp
	return nil
}

func (l memLedger) Approve(ctx context.Context, id, approvedBy int64, at time.Time) (*model.Request, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	q, ok := l.s.reqs[id]
	if !ok {
		return nil, requestrepo.ErrNotFound
	}
	if q.Status != model.RequestPending {
		return nil, requestrepo.ErrWrongState
	}
	q.Status = model.RequestApproved
	q.ApproveDate = &at
	q.ApprovedBy = &approvedBy
	cp := *q
	return &cp, nil
}

func (l memLedger) CheckOut(ctx context.Context, id, approvedBy int64, due, at time.Time) (*model.Request, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	q, ok := l.s.reqs[id]
	if !ok {
		return nil, requestrepo.ErrNotFound
	}
	if q.Status != model.RequestApproved {
		return nil, requestrepo.ErrWrongState
	}
	b := l.s.books[q.BookID]
	if b == nil || b.AvailableStock <= 0 {
		return nil, requestrepo.ErrNoStock
	}
	b.AvailableStock--
	q.Status = model.RequestOut
	q.OutDate = &at
	q.InPrevDate = &due
	q.ApprovedBy = &approvedBy
	cp := *q
	return &cp, nil
}

func (l memLedger) CheckIn(ctx context.Context, id int64, at time.Time) (*model.Request, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	q, ok := l.s.reqs[id]
	if !ok {
		return nil, requestrepo.ErrNotFound
	}
	if q.Status != model.RequestOut && q.Status != model.RequestOverdue {
		return nil, requestrepo.ErrWrongState
	}
	b := l.s.books[q.BookID]
	if b == nil || b.AvailableStock >= b.TotalStock {
		return nil, requestrepo.ErrStockDrift
	}
	b.AvailableStock++
	q.Status = model.RequestIn
	q.InDate = &at
	cp := *q
	return &cp, nil
}

func (l memLedger) detail(q *model.Request) model.RequestDetail {
	d := model.RequestDetail{Request: *q}
	if u := l.s.users[q.UserID]; u != nil {
		d.IndexNo, d.Surname, d.FirstName = u.IndexNo, u.Surname, u.FirstName
	}
	if b := l.s.books[q.BookID]; b != nil {
		d.BookTitle = b.Title
	}
	return d
}

func (l memLedger) ByUser(ctx context.Context, userID int64) ([]model.RequestDetail, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []model.RequestDetail
	for _, q := range l.s.reqs {
		if q.UserID == userID {
			out = append(out, l.detail(q))
		}
	}
	return out, nil
}

func (l memLedger) ByPatron(ctx context.Context, patronID int64) ([]model.RequestDetail, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []model.RequestDetail
	for _, q := range l.s.reqs {
		if q.ApprovedBy != nil && *q.ApprovedBy == patronID {
			out = append(out, l.detail(q))
		}
	}
	return out, nil
}

func (l memLedger) ByStatus(ctx context.Context, status model.RequestStatus) ([]model.RequestDetail, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []model.RequestDetail
	for _, q := range l.s.reqs {
		if q.Status == status {
			out = append(out, l.detail(q))
		}
	}
	return out, nil
}

func (l memLedger) All(ctx context.Context) ([]model.RequestDetail, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []model.RequestDetail
	for _, q := range l.s.reqs {
		out = append(out, l.detail(q))
	}
	return out, nil
}

func (l memLedger) OverdueCandidates(ctx context.Context, now time.Time) ([]model.Request, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	var out []model.Request
	for _, q := range l.s.reqs {
		if (q.Status == model.RequestOut || q.Status == model.RequestOverdue) &&
			q.InPrevDate != nil && q.InPrevDate.Before(now) {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (l memLedger) MarkOverdue(ctx context.Context, id int64, fine float64) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if err := l.s.markOverdueErr[id]; err != nil {
		return false, err
	}
	q, ok := l.s.reqs[id]
	if !ok {
		return false, nil
	}
	if q.Status != model.RequestOut && q.Status != model.RequestOverdue {
		return false, nil
	}
	q.Status = model.RequestOverdue
	q.Fine = &fine
	return true, nil
}
