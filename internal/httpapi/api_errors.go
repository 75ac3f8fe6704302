package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/openinglab/chesstrail/pkg/gamedto"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeAPIError writes the standardized error envelope with the given
// HTTP status, machine-readable code, and human-readable detail.
func writeAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := gamedto.APIErrorResponse{
		Errors: []gamedto.APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}
