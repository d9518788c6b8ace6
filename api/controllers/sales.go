package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dlemaitre/sales-analytics-backend/api/responses"
	"github.com/dlemaitre/sales-analytics-backend/api/validators"
	sale "github.com/dlemaitre/sales-analytics-backend/internal/sales"
	pkgerrors "github.com/dlemaitre/sales-analytics-backend/pkg/errors"
	"github.com/dlemaitre/sales-analytics-backend/pkg/logger"
	"github.com/dlemaitre/sales-analytics-backend/pkg/pagination"
)

// ListSales handles GET /api/sales with pagination and equality filters.
func ListSales(svc sale.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale query service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", pagination.DefaultPage, 1, 1000000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListSales(r.Context(), sale.ListSalesInput{
			Pagination: pagination.Params{Page: page, Limit: limit},
			Filters: sale.ListFilters{
				Category: validators.ParseQueryString(r, "category"),
				Region:   validators.ParseQueryString(r, "region"),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WritePage(w, result.Sales, result.Pagination)
	}
}

// GetSaleByID handles GET /api/sales/{id}.
func GetSaleByID(svc sale.QueryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale query service unavailable"))
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sale id"))
			return
		}

		record, err := svc.GetSaleByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, record)
	}
}

// GetSalesStats handles GET /api/sales/stats.
func GetSalesStats(svc sale.StatsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale stats service unavailable"))
			return
		}

		stats, err := svc.GetStats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// CreateSale handles POST /api/sales.
func CreateSale(svc sale.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "sale ingestion service unavailable"))
			return
		}

		var payload sale.CreateSaleInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateSale(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			ctx := logg.WithSaleID(r.Context(), record.ID)
			logg.Info(ctx, "sale created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}
