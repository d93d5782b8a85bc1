package api

import (
	"Chenex/internal/domain/models"
	"Chenex/internal/usecase"
	xhttp "Chenex/pkg/http"
	xlogger "Chenex/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler exposes the market data and forecast endpoints.
type MarketHandler struct {
	logger *xlogger.Logger
	market *usecase.MarketService
}

func NewMarketHandler(logger *xlogger.Logger, market *usecase.MarketService) *MarketHandler {
	return &MarketHandler{logger: logger, market: market}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/prices", h.Prices)
	g.GET("/coin/:id", h.Coin)
	g.GET("/chart/:id", h.Chart)
	g.GET("/predict/:id", h.Predict)
}

func (h *MarketHandler) Prices(c echo.Context) error {
	req := &models.PricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.market.Prices(c.Request().Context(), req.Page)
	if err != nil {
		h.logger.Error("prices usecase error", xlogger.Error(err), xlogger.Int("page", req.Page))
		return xhttp.AppErrorResponse(c, marketAppError(err))
	}
	return xhttp.SuccessResponse(c, rows)
}

func (h *MarketHandler) Coin(c echo.Context) error {
	req := &models.CoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	detail, err := h.market.CoinDetail(c.Request().Context(), req.CoinID)
	if err != nil {
		h.logger.Error("coin detail usecase error", xlogger.Error(err), xlogger.String("coin", req.CoinID))
		return xhttp.AppErrorResponse(c, marketAppError(err))
	}
	return xhttp.SuccessResponse(c, detail)
}

func (h *MarketHandler) Chart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	data, err := h.market.Chart(c.Request().Context(), req.CoinID, req.Days)
	if err != nil {
		h.logger.Error("chart usecase error", xlogger.Error(err), xlogger.String("coin", req.CoinID))
		return xhttp.AppErrorResponse(c, marketAppError(err))
	}
	return xhttp.SuccessResponse(c, data)
}

func (h *MarketHandler) Predict(c echo.Context) error {
	req := &models.CoinRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	result, err := h.market.Predict(c.Request().Context(), req.CoinID)
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.Error(err), xlogger.String("coin", req.CoinID))
		return xhttp.AppErrorResponse(c, marketAppError(err))
	}
	return xhttp.SuccessResponse(c, result)
}

// marketAppError translates domain error kinds into HTTP-level errors.
// Callers can tell "upstream is down" (502/429) apart from "upstream has
// too little data" (422) and "no such resource" (404).
func marketAppError(err error) error {
	switch models.KindOf(err) {
	case models.KindRateLimited:
		return xhttp.TooManyRequestsError("upstream request budget exhausted, try again shortly").WithError(err)
	case models.KindUpstreamUnavailable:
		return xhttp.UnavailableError("market data provider unavailable").WithError(err)
	case models.KindMalformedUpstreamResponse:
		return xhttp.UnavailableError("market data provider returned an unreadable response").WithError(err)
	case models.KindBadUpstreamRequest:
		return xhttp.NotFoundError("unknown coin or unsupported request").WithError(err)
	case models.KindInsufficientHistory:
		return xhttp.UnprocessableError("not enough price history to compute a forecast").WithError(err)
	default:
		return err
	}
}
