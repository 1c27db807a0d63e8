package controllers

import (
	"encoding/json"
	"net/http"

	"go-marketplace/models"
)

const maxBody = 1 << 20

// decodeJSON decodes a request body, reporting any failure as a malformed request
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return models.MalformedRequest(err.Error())
	}
	return nil
}
