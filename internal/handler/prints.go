package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/orderapi"
	"github.com/kiwari-pos/printer/internal/service"
)

const maxBodyBytes = 1 << 20

// PrintServicer defines the service methods needed by print handlers.
// Satisfied by *service.PrintService; narrow interface for testability.
type PrintServicer interface {
	PrintKitchenOrder(ctx context.Context, o order.Order) (*service.KitchenResult, error)
	PrintCustomerCheck(ctx context.Context, c order.Check) (*service.CheckResult, error)
}

// OrderFetcher loads an order snapshot by id.
// Satisfied by *orderapi.Client.
type OrderFetcher interface {
	GetOrder(ctx context.Context, orderID int64) (*order.Order, error)
}

// PrintHandler handles print endpoints.
type PrintHandler struct {
	svc    PrintServicer
	orders OrderFetcher
}

// NewPrintHandler creates a new PrintHandler.
func NewPrintHandler(svc PrintServicer, orders OrderFetcher) *PrintHandler {
	return &PrintHandler{svc: svc, orders: orders}
}

// RegisterRoutes registers print endpoints. Expected to be mounted at /print.
func (h *PrintHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.PrintOrder)
	r.Post("/orders/{id}", h.PrintOrderByID)
	r.Post("/checks", h.PrintCheck)
}

// PrintOrder prints the kitchen tickets of the order snapshot in the body.
func (h *PrintHandler) PrintOrder(w http.ResponseWriter, r *http.Request) {
	var o order.Order
	if err := decodeBody(w, r, &o); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	h.printKitchen(w, r, o)
}

// PrintOrderByID fetches the order from the order API and prints it.
func (h *PrintHandler) PrintOrderByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	o, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, orderapi.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		slog.Error("fetch order", "order_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "order API unavailable"})
		return
	}
	h.printKitchen(w, r, *o)
}

func (h *PrintHandler) printKitchen(w http.ResponseWriter, r *http.Request, o order.Order) {
	result, err := h.svc.PrintKitchenOrder(r.Context(), o)
	if err != nil {
		slog.Error("print kitchen order", "order_id", o.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to print order"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PrintCheck prints the customer bill in the body.
func (h *PrintHandler) PrintCheck(w http.ResponseWriter, r *http.Request) {
	var c order.Check
	if err := decodeBody(w, r, &c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.svc.PrintCustomerCheck(r.Context(), c)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCheck):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrNoCustomerPrinter):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		default:
			slog.Error("print check", "order_id", c.OrderID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to print check"})
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode JSON response", "error", err)
	}
}
