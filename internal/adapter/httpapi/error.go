package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eslsoft/wordpace/internal/entity"
)

// toHTTPError maps domain sentinel errors onto HTTP status codes. Unknown
// errors become 500 and keep their message out of the response body.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, entity.ErrItemNotFound), errors.Is(err, entity.ErrProgressNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, entity.ErrConflict), errors.Is(err, entity.ErrDuplicateItem):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, entity.ErrInvalidAttempt),
		errors.Is(err, entity.ErrInvalidLearnerID),
		errors.Is(err, entity.ErrInvalidItemTerm),
		errors.Is(err, entity.ErrInvalidFilter),
		errors.Is(err, entity.ErrInvalidConfiguration):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
