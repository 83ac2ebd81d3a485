package request

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/euroclydon611/lmsf-fyp-backend/model"
	reqsvc "github.com/euroclydon611/lmsf-fyp-backend/service/request"
)

type Controller struct {
	Svc reqsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func (h *Controller) fail(c echo.Context, op string, err error) error {
	h.Log.Error(op, "err", err)
	switch reqsvc.Code(err) {
	case reqsvc.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	case reqsvc.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"message": "a pending request for this book already exists"})
	case reqsvc.ErrUnavailable:
		return c.JSON(http.StatusConflict, echo.Map{"message": "no copies available"})
	case reqsvc.ErrForbidden:
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	case reqsvc.ErrInvalidState:
		return c.JSON(http.StatusConflict, echo.Map{"message": "request is not in an eligible state"})
	case reqsvc.ErrValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid entries"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func pathID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func parseDue(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// POST /v1/requests
func (h *Controller) Submit(c echo.Context) error {
	var req SubmitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	out, err := h.Svc.Submit(c.Request().Context(), uid, req.BookID)
	if err != nil {
		return h.fail(c, "request submit", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Your request to borrow this book has been successfully submitted and is pending approval.",
		"request": out,
	})
}

// POST /v1/requests/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	out, err := h.Svc.Approve(c.Request().Context(), id, uid)
	if err != nil {
		return h.fail(c, "request approve", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Request approved successfully", "request": out})
}

// POST /v1/requests/:id/checkout
func (h *Controller) Checkout(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req CheckoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	due, ok := parseDue(req.DueDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid due_date"})
	}
	uid, _ := c.Get("user_id").(int64)

	out, err := h.Svc.Checkout(c.Request().Context(), id, uid, due)
	if err != nil {
		return h.fail(c, "request checkout", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Request checked out successfully", "request": out})
}

// POST /v1/requests/direct-checkout
func (h *Controller) DirectCheckout(c echo.Context) error {
	var req DirectCheckoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	due, ok := parseDue(req.DueDate)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid due_date"})
	}
	uid, _ := c.Get("user_id").(int64)

	out, err := h.Svc.ApproveAndCheckout(c.Request().Context(), req.StudentID, uid, req.BookID, due)
	if err != nil {
		return h.fail(c, "request direct checkout", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Request approved and checked out successfully", "request": out})
}

// POST /v1/requests/:id/checkin
func (h *Controller) CheckIn(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	out, err := h.Svc.CheckIn(c.Request().Context(), id, uid)
	if err != nil {
		return h.fail(c, "request checkin", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Request checked in successfully", "request": out})
}

// GET /v1/requests/my
func (h *Controller) My(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ByUser(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, "request history", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/requests/approved-by-me
func (h *Controller) ByPatron(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ByPatron(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, "request by patron", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/requests/status/:status
func (h *Controller) ByStatus(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.ByStatus(c.Request().Context(), uid, model.RequestStatus(c.Param("status")))
	if err != nil {
		return h.fail(c, "request by status", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/requests
func (h *Controller) All(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	rows, err := h.Svc.All(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, "request list", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/requests/export?status=Out
func (h *Controller) Export(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	buf, err := h.Svc.Export(c.Request().Context(), uid, model.RequestStatus(c.QueryParam("status")))
	if err != nil {
		return h.fail(c, "request export", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename=requests.xlsx`)
	return c.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf)
}
