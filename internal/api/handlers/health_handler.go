package handlers

import (
	"net/http"

	"gw-price-converter/internal/api/middlew"
	"gw-price-converter/pkg/response"
)

// Health godoc
// @Summary      Проверка готовности
// @Tags         health
// @Produce      json
// @Success      200 {object} response.StatusResponse
// @Router       /healthz [get]
func Health(w http.ResponseWriter, r *http.Request) {
	response.WriteJSONSuccess(w, middlew.GetLogger(r.Context()), http.StatusOK, response.StatusResponse{Status: "ok"})
}
