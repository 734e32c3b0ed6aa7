// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/massa-polls/amm"
	"github.com/danielhkuo/massa-polls/cliparse"
	"github.com/danielhkuo/massa-polls/db"
	"github.com/danielhkuo/massa-polls/eventlog"
	"github.com/danielhkuo/massa-polls/middleware"
	"github.com/danielhkuo/massa-polls/models"
)

// Swap directions accepted by GET /swap/quote
const (
	DirectionMassaToToken = "massa_to_token"
	DirectionTokenToMassa = "token_to_massa"
)

// massaDecimals is fixed by the chain; the token's comes from config
const massaDecimals = amm.DefaultDecimals

type SwapHandler struct {
	store *db.Store
	cfg   cliparse.Config
}

func NewSwapHandler(store *db.Store, cfg cliparse.Config) *SwapHandler {
	return &SwapHandler{store: store, cfg: cfg}
}

// GetBalance handles GET /balances/{address}
// An address the log never mentioned has a zero balance.
func (h *SwapHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	if !eventlog.IsAddress(address) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "address is not a Massa address")
		return
	}

	amount, err := h.store.GetBalance(r.Context(), address)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		slog.Error("failed to get balance", "error", err, "address", address)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BalanceResponse{
		Address: address,
		Amount:  amount,
		Display: amm.FromBaseUnits(amount, h.cfg.TokenDecimals),
	})
}

// GetReserves handles GET /swap/reserves
func (h *SwapHandler) GetReserves(w http.ResponseWriter, r *http.Request) {
	reserves, err := h.store.GetReserves(r.Context())
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "No reserves recorded yet")
		return
	}
	if err != nil {
		slog.Error("failed to get reserves", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, reserves)
}

// GetQuote handles GET /swap/quote?amount=&direction=
// With output= instead of amount=, it returns the input needed to receive
// that output.
func (h *SwapHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	direction := q.Get("direction")
	if direction == "" {
		direction = DirectionMassaToToken
	}

	var inDecimals, outDecimals uint8
	switch direction {
	case DirectionMassaToToken:
		inDecimals, outDecimals = massaDecimals, h.cfg.TokenDecimals
	case DirectionTokenToMassa:
		inDecimals, outDecimals = h.cfg.TokenDecimals, massaDecimals
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "direction must be massa_to_token or token_to_massa")
		return
	}

	amount, wanted := q.Get("amount"), q.Get("output")
	if (amount == "") == (wanted == "") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "exactly one of amount or output is required")
		return
	}

	var (
		input, output uint64
		err           error
	)
	if amount != "" {
		input, err = amm.ToBaseUnits(amount, inDecimals)
	} else {
		output, err = amm.ToBaseUnits(wanted, outDecimals)
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	reserves, err := h.store.GetReserves(r.Context())
	if errors.Is(err, db.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "No reserves recorded yet")
		return
	}
	if err != nil {
		slog.Error("failed to get reserves", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	inReserve, outReserve := reserves.Massa, reserves.Token
	if direction == DirectionTokenToMassa {
		inReserve, outReserve = reserves.Token, reserves.Massa
	}

	if amount != "" {
		output, err = amm.Quote(inReserve, outReserve, input, h.cfg.SpreadBps)
	} else {
		input, err = amm.RequiredInput(inReserve, outReserve, output, h.cfg.SpreadBps)
	}
	switch {
	case errors.Is(err, amm.ErrZeroInput):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, amm.ErrInsufficientOut), errors.Is(err, amm.ErrOverflow):
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, amm.ErrEmptyPool):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		slog.Error("failed to quote swap", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to quote swap")
		return
	}

	rate, err := amm.UnitRate(inReserve, outReserve, inDecimals, outDecimals, h.cfg.SpreadBps)
	if err != nil {
		slog.Error("failed to compute swap rate", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to quote swap")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.QuoteResponse{
		Direction: direction,
		Input:     amm.FromBaseUnits(input, inDecimals),
		Output:    amm.FromBaseUnits(output, outDecimals),
		OutputRaw: output,
		Rate:      rate,
		SpreadBps: h.cfg.SpreadBps,
		Reserves:  reserves,
	})
}
