package handler

import (
	"net/http"

	"slotkeeper/internal/holds/service"
	httputil "slotkeeper/pkg/http"
	"slotkeeper/pkg/logger"
	"slotkeeper/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ConfirmResponse struct {
	Appointment *model.Appointment `json:"appointment"`
}

type ReleaseResponse struct {
	HoldID   string `json:"hold_id"`
	Released bool   `json:"released"`
}

type ActiveHoldsResponse struct {
	Holds []model.ActiveHold `json:"holds"`
}

type HoldHandler struct {
	service service.HoldService
	log     *logger.Logger
}

func NewHoldHandler(service service.HoldService, log *logger.Logger) *HoldHandler {
	return &HoldHandler{
		service: service,
		log:     log,
	}
}

func (h *HoldHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReserveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	result, err := h.service.Reserve(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *HoldHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ConfirmRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	appointment, err := h.service.Confirm(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	if err := httputil.WriteCreated(w, ConfirmResponse{Appointment: appointment}); err != nil {
		h.log.Error("failed to write created response", "handler", "Confirm", "operation", "WriteCreated", "error", err)
	}
}

func (h *HoldHandler) Release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.OwnerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Release", err)
		return
	}

	id := ps.ByName("id")
	if err := h.service.Release(r.Context(), id, &req); err != nil {
		h.writeError(w, "Release", err)
		return
	}

	if err := httputil.WriteSuccess(w, ReleaseResponse{HoldID: id, Released: true}); err != nil {
		h.log.Error("failed to write success response", "handler", "Release", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) Extend(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ExtendRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Extend", err)
		return
	}

	result, err := h.service.Extend(r.Context(), ps.ByName("id"), &req)
	if err != nil {
		h.writeError(w, "Extend", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Extend", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) ListActive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params, err := httputil.RequiredQuery(r, "doctor_id", "date")
	if err != nil {
		h.writeError(w, "ListActive", err)
		return
	}

	holds, err := h.service.ListActive(r.Context(), params["doctor_id"], params["date"])
	if err != nil {
		h.writeError(w, "ListActive", err)
		return
	}

	if err := httputil.WriteSuccess(w, ActiveHoldsResponse{Holds: holds}); err != nil {
		h.log.Error("failed to write success response", "handler", "ListActive", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	hold, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, hold); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HoldHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *HoldHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/holds", h.Reserve)
	router.GET("/api/v1/holds/active", h.ListActive)
	router.GET("/api/v1/holds/id/:id", h.GetByID)
	router.POST("/api/v1/holds/id/:id/confirm", h.Confirm)
	router.PUT("/api/v1/holds/id/:id/extend", h.Extend)
	router.DELETE("/api/v1/holds/id/:id", h.Release)
}
