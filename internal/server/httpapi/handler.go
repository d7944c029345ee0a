// Package httpapi exposes the store's wire contract: append one signed
// ciphertext, read pages, probe head. Routing beyond method and path
// dispatch is out of scope; the handlers stay a thin JSON layer over the
// events service.
package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/skylog-app/skylog/internal/common"
	"github.com/skylog-app/skylog/internal/logging"
	"github.com/skylog-app/skylog/internal/server/events"
)

// SignatureHeader carries the base64 detached append signature.
const SignatureHeader = "X-Signature"

// maxAppendBody caps the request body; base64 plus JSON framing stays well
// inside 4/3 of the ciphertext cap.
const maxAppendBody = 2 * events.MaxCiphertextBytes

type Handler struct {
	svc *events.Service
	log logging.Logger
}

func NewHandler(svc *events.Service, log logging.Logger) *Handler {
	return &Handler{svc: svc, log: log.With("module", "httpapi")}
}

// Mux returns the route table for the store API.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/events/{pub}", h.append)
	mux.HandleFunc("GET /api/events/{pub}", h.read)
	mux.HandleFunc("GET /api/events/{pub}/head", h.head)
	return mux
}

type appendRequest struct {
	Ciphertext string `json:"ciphertext"`
}

type eventResponse struct {
	Seq        int64  `json:"seq"`
	Ciphertext string `json:"ciphertext,omitempty"`
	CreatedAt  int64  `json:"created_at"`
}

type pageResponse struct {
	Events  []eventResponse `json:"events"`
	HasMore bool            `json:"has_more"`
}

type headResponse struct {
	Count     int64 `json:"count"`
	LatestSeq int64 `json:"latest_seq"`
}

func (h *Handler) append(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("pub")

	var req appendRequest
	body := http.MaxBytesReader(w, r.Body, maxAppendBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, r, common.ErrBadRequest)
		return
	}

	ev, err := h.svc.Append(r.Context(), addr, req.Ciphertext, r.Header.Get(SignatureHeader))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, eventResponse{
		Seq:       ev.Seq,
		CreatedAt: ev.CreatedAt.Unix(),
	})
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("pub")

	after, err := queryInt64(r, "after", 0)
	if err != nil {
		h.writeError(w, r, common.ErrBadRequest)
		return
	}
	limit, err := queryInt64(r, "limit", 0)
	if err != nil {
		h.writeError(w, r, common.ErrBadRequest)
		return
	}

	list, hasMore, err := h.svc.List(r.Context(), addr, after, int(limit))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page := pageResponse{Events: make([]eventResponse, 0, len(list)), HasMore: hasMore}
	for _, ev := range list {
		page.Events = append(page.Events, eventResponse{
			Seq:        ev.Seq,
			Ciphertext: base64.StdEncoding.EncodeToString(ev.Ciphertext),
			CreatedAt:  ev.CreatedAt.Unix(),
		})
	}
	h.writeJSON(w, http.StatusOK, page)
}

func (h *Handler) head(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("pub")

	count, latest, err := h.svc.Head(r.Context(), addr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, headResponse{Count: count, LatestSeq: latest})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, common.ErrInvalidPublicKey), errors.Is(err, common.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrInvalidSignature):
		status = http.StatusUnauthorized
	case errors.Is(err, common.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	default:
		status = http.StatusInternalServerError
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	http.Error(w, err.Error(), status)
}

func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
