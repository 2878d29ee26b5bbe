// Package request decodes JSON request bodies.
package request

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodyBytes caps a JSON body at 100kb.
const MaxBodyBytes = 100 << 10

// DecodeJSON reads the body of r into dst. A missing or empty body leaves
// dst untouched and is not an error: required-field validation reports it.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}

	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	err := json.NewDecoder(body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
