package book

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/jwtx"
	"github.com/euroclydon611/lmsf-fyp-backend/model"
	booksvc "github.com/euroclydon611/lmsf-fyp-backend/service/book"
)

type Controller struct {
	Svc booksvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func isStaff(c echo.Context) bool {
	role, err := jwtx.RoleFromContext(c)
	if err != nil {
		return false
	}
	return role == model.RoleLibrarian || role == model.RoleAdmin
}

func (h *Controller) bindBook(c echo.Context) (*model.Book, error) {
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if err := h.V.Struct(req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "validation error")
	}
	b := &model.Book{
		Cover:       req.Cover,
		Title:       req.Title,
		Authors:     req.Authors,
		Description: req.Description,
		Publisher:   req.Publisher,
		Pages:       req.Pages,
		Category:    req.Category,
		TotalStock:  req.TotalStock,
	}
	if req.PublicationDate != "" {
		d, err := time.Parse("2006-01-02", req.PublicationDate)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid publication_date")
		}
		b.PublicationDate = &d
	}
	return b, nil
}

// POST /v1/books  (librarian/admin)
func (h *Controller) Create(c echo.Context) error {
	if !isStaff(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	b, err := h.bindBook(c)
	if err != nil {
		return err
	}
	uid, _ := c.Get("user_id").(int64)
	b.PatronID = uid

	if err := h.Svc.Create(c.Request().Context(), b); err != nil {
		h.Log.Error("book create", "err", err)
		if booksvc.Code(err) == booksvc.ErrBadInput {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusCreated, b)
}

// GET /v1/books
func (h *Controller) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	rows, total, err := h.Svc.List(c.Request().Context(), c.QueryParam("search"), page, limit)
	if err != nil {
		h.Log.Error("book list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows, "total": total})
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	row, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("book detail", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if row == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	return c.JSON(http.StatusOK, row)
}

// PUT /v1/books/:id  (librarian/admin)
func (h *Controller) Update(c echo.Context) error {
	if !isStaff(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.bindBook(c)
	if err != nil {
		return err
	}
	b.ID = id

	updated, err := h.Svc.Update(c.Request().Context(), b)
	if err != nil {
		h.Log.Error("book update", "err", err)
		switch booksvc.Code(err) {
		case booksvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
		case booksvc.ErrBadInput:
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "bad input"})
		case booksvc.ErrStockImmutable:
			return c.JSON(http.StatusConflict, echo.Map{"message": "stock cannot change while loans are outstanding"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, updated)
}

// DELETE /v1/books/:id  (librarian/admin)
func (h *Controller) Delete(c echo.Context) error {
	if !isStaff(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("book delete", "err", err)
		switch booksvc.Code(err) {
		case booksvc.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
		case booksvc.ErrLoansOpen:
			return c.JSON(http.StatusConflict, echo.Map{"message": "book has open requests"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
