package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/logview/pkg/api"
	"github.com/vanderheijden86/logview/pkg/logstore"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func writeJSON[T any](w http.ResponseWriter, code int, data T, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(api.Envelope[T]{Code: code, Data: data, Message: msg})
}

func writeData[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, data, "")
}

// statusFor maps store errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, logstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, logstore.ErrOutsideRoot),
		errors.Is(err, logstore.ErrNotFile),
		errors.Is(err, logstore.ErrNotDirectory),
		errors.Is(err, logstore.ErrRoot):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	writeJSON[any](w, code, nil, msg)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
