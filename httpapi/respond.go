package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

const maxBodyBytes = 1 << 20

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func decodeBody(w http.ResponseWriter, r *http.Request, target any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.Join(ErrMalformedBody, err)
	}

	if len(body) == 0 {
		return nil
	}

	if err = json.Unmarshal(body, target); err != nil {
		return errors.Join(ErrMalformedBody, err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, response := errorStatus(err)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}

	s.logger.Log(r.Context(), level, logMsgRequestFailed,
		logAttrPath, r.URL.Path,
		logAttrStatus, status,
		logAttrError, err.Error(),
	)

	writeJSON(w, status, response)
}
