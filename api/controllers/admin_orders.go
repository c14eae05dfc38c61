package controllers

import (
	"net/http"
	"strings"

	"github.com/ridegearhq/ridegear-backend/api/responses"
	"github.com/ridegearhq/ridegear-backend/api/validators"
	"github.com/ridegearhq/ridegear-backend/internal/orders"
	"github.com/ridegearhq/ridegear-backend/pkg/enums"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
)

// AdminOrdersList filters all orders by status and payment status.
func AdminOrdersList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params := orders.AdminListParams{
			Status:        enums.OrderStatus(strings.TrimSpace(r.URL.Query().Get("status"))),
			PaymentStatus: enums.PaymentStatus(strings.TrimSpace(r.URL.Query().Get("payment_status"))),
			Cursor:        strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:         limit,
		}

		page, err := svc.ListAll(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// AdminOrderGet returns any order without an ownership check.
func AdminOrderGet(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.Get(ctx, orders.Actor{IsAdmin: true}, orderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// AdminOrderUpdateStatus transitions an order and records a tracking event.
func AdminOrderUpdateStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body orders.UpdateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		order, err := svc.UpdateStatus(ctx, orderID, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
