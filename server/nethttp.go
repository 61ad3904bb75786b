package server

import (
	"net/http"
)

func newNetHTTP(h *Handlers) Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+PathJSON1K, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.JSON1K())
	})
	mux.HandleFunc("GET "+PathJSON10K, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.JSON10K())
	})
	mux.HandleFunc("GET "+PathDB, func(w http.ResponseWriter, r *http.Request) {
		users, err := h.Users(r.Context())
		if err != nil {
			h.logError(PathDB, err)
			writeJSON(w, http.StatusInternalServerError, errorBody(err))

			return
		}

		writeJSON(w, http.StatusOK, users)
	})
	mux.HandleFunc("GET "+PathSlow, func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.Slow(r.Context())
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody(err))

			return
		}

		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("GET "+PathNPlus1, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.NPlus1())
	})
	mux.HandleFunc("POST "+PathItems, func(w http.ResponseWriter, r *http.Request) {
		createItem(h, w, r)
	})
	mux.HandleFunc("GET "+PathVersions, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.Versions())
	})
	mux.HandleFunc("GET "+PathHealth, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, h.Health())
	})

	return newHTTPServer(mux)
}
