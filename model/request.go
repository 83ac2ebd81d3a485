// model/request.go
package model

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "Pending"
	RequestApproved RequestStatus = "Approved"
	RequestOut      RequestStatus = "Out"
	RequestIn       RequestStatus = "In"
	RequestOverdue  RequestStatus = "Overdue"
)

// Valid reports whether s is one of the known lifecycle states.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestOut, RequestIn, RequestOverdue:
		return true
	}
	return false
}

// Request is a borrow request. It is never deleted; the row is the audit
// trail of the loan.
type Request struct {
	ID          int64         `json:"id"`
	UserID      int64         `json:"user_id"`
	BookID      int64         `json:"book_id"`
	ApprovedBy  *int64        `json:"approved_by,omitempty"`
	RequestDate time.Time     `json:"request_date"`
	ApproveDate *time.Time    `json:"approve_date,omitempty"`
	OutDate     *time.Time    `json:"out_date,omitempty"`
	InDate      *time.Time    `json:"in_date,omitempty"`
	InPrevDate  *time.Time    `json:"in_prev_date,omitempty"`
	Fine        *float64      `json:"fine,omitempty"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// RequestDetail is a Request joined with borrower and book columns, the
// shape listings and the export need.
type RequestDetail struct {
	Request
	IndexNo   string `json:"index_no"`
	Surname   string `json:"surname"`
	FirstName string `json:"first_name"`
	BookTitle string `json:"book_title"`
}
