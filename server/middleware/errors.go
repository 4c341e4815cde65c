package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/kbukum/taskflow/errors"
)

// writeError writes err's standard JSON body with its HTTP status.
func writeError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
