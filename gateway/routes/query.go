package routes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"mountbreed/crypto"
	"mountbreed/gateway/middleware"
	"mountbreed/native/metadata"
	"mountbreed/native/mountbreed"
	"mountbreed/native/token"
)

// Queryer is the read-only view of a mount-breed runtime.
type Queryer interface {
	Addresses() mountbreed.Addresses
	Params() mountbreed.Params
	Escrow() (*mountbreed.EscrowRecord, error)
	VaultBalance() (uint64, error)
	Cooldown(mint crypto.Address) (*mountbreed.CooldownRecord, error)
	Cooldowns() ([]*mountbreed.CooldownRecord, error)
	Account(addr crypto.Address) (*token.Account, error)
	Mint(addr crypto.Address) (*token.Mint, error)
	Metadata(mint crypto.Address) (*metadata.Metadata, crypto.Address, error)
}

type queryRoutes struct {
	q      Queryer
	logger *slog.Logger
}

type escrowResponse struct {
	Addresses    mountbreed.Addresses     `json:"addresses"`
	Active       bool                     `json:"active"`
	Escrow       *mountbreed.EscrowRecord `json:"escrow,omitempty"`
	VaultBalance string                   `json:"vaultBalance,omitempty"`
}

type metadataResponse struct {
	Address  crypto.Address     `json:"address"`
	Metadata *metadata.Metadata `json:"metadata"`
}

func (qr *queryRoutes) mount(r chi.Router) {
	r.Get("/addresses", qr.addresses)
	r.Get("/params", qr.params)
	r.Get("/escrow", qr.escrow)
	r.Get("/cooldowns", qr.cooldowns)
	r.Get("/cooldowns/{mint}", qr.cooldown)
	r.Get("/accounts/{address}", qr.account)
	r.Get("/mints/{address}", qr.mint)
	r.Get("/metadata/{mint}", qr.metadata)
}

func (qr *queryRoutes) addresses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, qr.q.Addresses())
}

func (qr *queryRoutes) params(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, qr.q.Params())
}

func (qr *queryRoutes) escrow(w http.ResponseWriter, r *http.Request) {
	resp := escrowResponse{Addresses: qr.q.Addresses()}
	record, err := qr.q.Escrow()
	if errors.Is(err, mountbreed.ErrEscrowNotFound) {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		qr.fail(w, r, err)
		return
	}
	balance, err := qr.q.VaultBalance()
	if err != nil {
		qr.fail(w, r, err)
		return
	}
	resp.Active = true
	resp.Escrow = record
	resp.VaultBalance = strconv.FormatUint(balance, 10)
	writeJSON(w, http.StatusOK, resp)
}

func (qr *queryRoutes) cooldowns(w http.ResponseWriter, r *http.Request) {
	records, err := qr.q.Cooldowns()
	if err != nil {
		qr.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (qr *queryRoutes) cooldown(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathAddress(w, r, "mint")
	if !ok {
		return
	}
	record, err := qr.q.Cooldown(mint)
	if err != nil {
		qr.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (qr *queryRoutes) account(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	acc, err := qr.q.Account(addr)
	if err != nil {
		qr.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (qr *queryRoutes) mint(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	mint, err := qr.q.Mint(addr)
	if err != nil {
		qr.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mint)
}

func (qr *queryRoutes) metadata(w http.ResponseWriter, r *http.Request) {
	mint, ok := pathAddress(w, r, "mint")
	if !ok {
		return
	}
	md, addr, err := qr.q.Metadata(mint)
	if err != nil {
		qr.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, metadataResponse{Address: addr, Metadata: md})
}

func (qr *queryRoutes) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		qr.logger.Error("query failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteError(w, status, code, "internal error")
		return
	}
	middleware.WriteError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, token.ErrAccountNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, token.ErrMintNotFound):
		return http.StatusNotFound, "mint_not_found"
	case errors.Is(err, metadata.ErrMetadataNotFound):
		return http.StatusNotFound, "metadata_not_found"
	case errors.Is(err, metadata.ErrForeignAccount):
		return http.StatusConflict, "foreign_account"
	}
	code := mountbreed.ErrorCode(err)
	switch code {
	case "escrow_not_found", "cooldown_not_initialized":
		return http.StatusNotFound, code
	case "internal":
		return http.StatusInternalServerError, code
	default:
		return http.StatusBadRequest, code
	}
}

func pathAddress(w http.ResponseWriter, r *http.Request, param string) (crypto.Address, bool) {
	addr, err := crypto.DecodeAddress(chi.URLParam(r, param))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid_address", err.Error())
		return crypto.Address{}, false
	}
	return addr, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
