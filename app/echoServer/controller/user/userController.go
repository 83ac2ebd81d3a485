package user

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/euroclydon611/lmsf-fyp-backend/app/echoServer/jwtx"
	"github.com/euroclydon611/lmsf-fyp-backend/model"
	userrepo "github.com/euroclydon611/lmsf-fyp-backend/repository/user"
)

type Controller struct {
	Repo userrepo.Repo
	Log  *slog.Logger
}

// GET /v1/users  (librarian/admin)
func (h *Controller) List(c echo.Context) error {
	role, err := jwtx.RoleFromContext(c)
	if err != nil || (role != model.RoleLibrarian && role != model.RoleAdmin) {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	rows, total, err := h.Repo.List(c.Request().Context(), page, limit)
	if err != nil {
		h.Log.Error("user list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows, "total": total, "page": page, "limit": limit})
}

// GET /v1/users/me
func (h *Controller) Me(c echo.Context) error {
	uid, _ := c.Get("user_id").(int64)
	u, err := h.Repo.ByID(c.Request().Context(), uid)
	if err != nil {
		h.Log.Error("load user", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if u == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}
	return c.JSON(http.StatusOK, u)
}

// DELETE /v1/users/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	role, err := jwtx.RoleFromContext(c)
	if err != nil || role != model.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}

	u, err := h.Repo.ByID(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("load user", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if u == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "not found"})
	}

	open, err := h.Repo.HasOpenRequests(c.Request().Context(), id)
	if err != nil {
		h.Log.Error("user delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	if open {
		return c.JSON(http.StatusConflict, echo.Map{"message": "user has open borrow requests"})
	}

	if err := h.Repo.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("user delete", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
