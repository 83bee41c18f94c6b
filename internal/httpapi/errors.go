package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rayhunter-go/rayhunter/internal/rherr"
)

// writeError writes a {"error": msg} JSON body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeJSON encodes v as the response body with a 200 status.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeStoreErr maps a store error to the status codes spec §7 assigns:
// not-found → 404, deleting the current entry → 409, anything else → 500.
// rherr.Error.Is only compares Code/Hdlc, not the sentinel's message, so a
// substring check on the rendered text is what actually distinguishes the
// store's sentinel reasons here.
func writeStoreErr(w http.ResponseWriter, err error) {
	switch {
	case rherr.IsCode(err, rherr.CodeStoreError) && strings.Contains(err.Error(), rherr.ErrStoreEntryNotFound.Msg):
		writeError(w, http.StatusNotFound, err.Error())
	case rherr.IsCode(err, rherr.CodeStoreError) && strings.Contains(err.Error(), rherr.ErrStoreCurrentEntry.Msg):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
