package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/yatube/backend/internal/feed"
	"github.com/anonto42/yatube/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LoginURL is where LoginRequired sends anonymous visitors
const LoginURL = "/auth/login/"

// pageNumber reads ?page=
func pageNumber(c echo.Context) int {
	return feed.ParsePageNumber(c.QueryParam("page"))
}

// idParam parses a numeric path parameter. Anything else is a 404, the same
// as a row that does not exist.
func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound)
	}
	return uint(id), nil
}

// httpError turns lookup failures into 404 and leaves the rest to the
// error handler as 500.
func httpError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, feed.ErrPageOutOfRange) {
		return echo.NewHTTPError(http.StatusNotFound).SetInternal(err)
	}
	return err
}
