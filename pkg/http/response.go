package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SuccessResponse writes the success envelope.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// ErrorResponse writes the failure envelope with the given status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// BadRequestResponse writes a 400 failure; data may be validation details.
func BadRequestResponse(c echo.Context, detail interface{}) error {
	return c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Error:   "invalid request",
		Data:    detail,
	})
}

// AppErrorResponse maps an AppError to the failure envelope.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return ErrorResponse(c, http.StatusInternalServerError, "something went wrong")
}
