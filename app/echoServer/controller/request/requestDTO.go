package request

type SubmitReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}

type CheckoutReq struct {
	DueDate string `json:"due_date" validate:"required"`
}

type DirectCheckoutReq struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	BookID    int64  `json:"book_id" validate:"required,gt=0"`
	DueDate   string `json:"due_date" validate:"required"`
}
