package http

import "github.com/labstack/echo/v4"

// Handler defines HTTP route registration interface.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

type handlerGroup []Handler

func (g handlerGroup) RegisterRoutes(e *echo.Echo) {
	for _, h := range g {
		h.RegisterRoutes(e)
	}
}

// Handlers combines several route registrars into one Handler.
func Handlers(hs ...Handler) Handler {
	return handlerGroup(hs)
}
