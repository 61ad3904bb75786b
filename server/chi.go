package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func newChi(h *Handlers) Server {
	r := chi.NewRouter()

	r.Get(PathJSON1K, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.JSON1K())
	})
	r.Get(PathJSON10K, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.JSON10K())
	})
	r.Get(PathDB, func(w http.ResponseWriter, r *http.Request) {
		users, err := h.Users(r.Context())
		if err != nil {
			h.logError(PathDB, err)
			writeJSON(w, http.StatusInternalServerError, errorBody(err))

			return
		}

		writeJSON(w, http.StatusOK, users)
	})
	r.Get(PathSlow, func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.Slow(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody(err))

			return
		}

		writeJSON(w, http.StatusOK, resp)
	})
	r.Get(PathNPlus1, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.NPlus1())
	})
	r.Post(PathItems, func(w http.ResponseWriter, r *http.Request) {
		createItem(h, w, r)
	})
	r.Get(PathVersions, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.Versions())
	})
	r.Get(PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.Health())
	})

	return newHTTPServer(r)
}
