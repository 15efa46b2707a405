package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"gw-price-converter/internal/api/middlew"
	"gw-price-converter/internal/custom_err"
	"gw-price-converter/internal/models"
	"gw-price-converter/internal/service"
	"gw-price-converter/pkg/response"
)

type ConversionHandler struct {
	service        service.Converter
	defaultBase    string
	defaultTargets []string
}

func NewConversionHandler(service service.Converter, defaultBase string, defaultTargets []string) *ConversionHandler {
	return &ConversionHandler{
		service:        service,
		defaultBase:    defaultBase,
		defaultTargets: defaultTargets,
	}
}

// Convert godoc
// @Summary      Пересчитать цену объявления
// @Description  Переводит сумму из базовой валюты во все запрошенные валюты
// @Tags         currency
// @Produce      json
// @Param        amount query number true  "Сумма в базовой валюте"
// @Param        from   query string false "Базовая валюта" default(USD)
// @Param        to     query string false "Целевые валюты через запятую" default(RUB,AMD)
// @Success      200 {object} models.ConversionResponse
// @Failure      400 {object} response.ErrorResponse
// @Failure      500 {object} response.ErrorResponse
// @Router       /currency/convert [get]
func (h *ConversionHandler) Convert(w http.ResponseWriter, r *http.Request) {
	const op = "handler.Convert"
	log := middlew.GetLogger(r.Context())

	query := r.URL.Query()

	rawAmount := strings.TrimSpace(query.Get("amount"))
	if rawAmount == "" {
		log.Warn("amount is missing", slog.String("op", op))
		response.WriteJSONError(w, log, http.StatusBadRequest, "amount is required")
		return
	}

	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		log.Warn("amount is not a number", slog.String("op", op), slog.String("amount", rawAmount))
		response.WriteJSONError(w, log, http.StatusBadRequest, "amount must be a number")
		return
	}

	base := strings.TrimSpace(query.Get("from"))
	if base == "" {
		base = h.defaultBase
	}

	targets := models.ParseCurrencyList(query.Get("to"))
	if len(targets) == 0 {
		targets = h.defaultTargets
	}

	log.Info("запрос на конвертацию",
		slog.String("op", op),
		slog.Float64("amount", amount),
		slog.String("from", base),
		slog.String("to", strings.Join(targets, ",")))

	result, err := h.service.Convert(r.Context(), amount, base, targets)
	if err != nil {
		switch {
		case errors.Is(err, custom_err.ErrInvalidAmount):
			log.Warn("invalid amount", slog.String("op", op), slog.Float64("amount", amount))
			response.WriteJSONError(w, log, http.StatusBadRequest, "amount must be greater than zero")
		case errors.Is(err, custom_err.ErrInvalidCurrency):
			log.Warn("invalid currency", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusBadRequest, "invalid currency code")
		case errors.Is(err, custom_err.ErrInvalidInput):
			log.Warn("invalid input", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusBadRequest, "at least one target currency is required")
		default:
			log.Error("failed to convert", slog.String("op", op), slog.String("error", err.Error()))
			response.WriteJSONError(w, log, http.StatusInternalServerError, "failed to convert currency")
		}
		return
	}

	if result.Error != "" {
		log.Warn("conversion served with fallback rates", slog.String("op", op), slog.String("detail", result.Error))
	}

	response.WriteJSONSuccess(w, log, http.StatusOK, result)
}
