package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"laundry/internal/model"
	"laundry/internal/mw"
	"laundry/internal/service"
)

type createOrderRequest struct {
	ClientID   string       `json:"clientId"`
	Items      []model.Item `json:"items"`
	TotalItems int          `json:"totalItems"`
}

func CreateOrderHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		err := orderSvc.Create(r.Context(), service.CreateOrderInput{
			ClientID:   req.ClientID,
			Items:      req.Items,
			TotalItems: req.TotalItems,
		})
		if err != nil {
			writeServiceError(w, r, err, "failed to create order")
			return
		}

		writeMessage(w, http.StatusCreated, "order created successfully")
	}
}

func ListOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := orderSvc.ListAll(r.Context(), mw.SessionToken(r.Context()))
		if err != nil {
			writeServiceError(w, r, err, "failed to fetch orders")
			return
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

func ListClientOrdersHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orders, err := orderSvc.ListByClient(r.Context(), chi.URLParam(r, "clientID"))
		if err != nil {
			writeServiceError(w, r, err, "failed to fetch client orders")
			return
		}

		writeJSON(w, http.StatusOK, orders)
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func UpdateOrderStatusHandler(orderSvc *service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid order id")
			return
		}

		// Authorization is decided before the body is judged.
		var req updateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if !orderSvc.CanManage(r.Context(), mw.SessionToken(r.Context())) {
				writeError(w, http.StatusUnauthorized, "unauthorized access")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		err = orderSvc.UpdateStatus(r.Context(), mw.SessionToken(r.Context()), orderID, req.Status)
		if err != nil {
			writeServiceError(w, r, err, "failed to update order status")
			return
		}

		writeMessage(w, http.StatusOK, "order status updated successfully")
	}
}
