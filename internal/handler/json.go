// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/menu-cleaner/internal/cleaner"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// envelope is the response shape of every cleaner endpoint.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// writeJSONSuccess writes {"success":true,"data":data}.
func writeJSONSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: data})
}

// writeJSONError writes {"success":false,"data":{"message":...}}.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(envelope{Data: map[string]string{"message": message}})
}

// writeServiceError maps cleaner sentinel errors to HTTP statuses. Store
// failures are logged and reported without internals.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, cleaner.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cleaner.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error("cleaner request failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "An internal error occurred.")
	}
}

// decodeRequest fills dst from a JSON body, or from form values when the
// request is form encoded. An empty body leaves dst untouched.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("parsing form: %w", err)
		}
		return decodeForm(r, dst)
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}
	return nil
}

// decodeForm re-encodes single form values as a JSON object so the same
// lenient field types apply. items[] becomes a list.
func decodeForm(r *http.Request, dst any) error {
	obj := make(map[string]any, len(r.Form))
	for k, vs := range r.Form {
		key := strings.TrimSuffix(k, "[]")
		if key != k || len(vs) > 1 {
			obj[key] = vs
			continue
		}
		obj[key] = vs[0]
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// flexInt accepts a JSON number or a numeric string. Anything else leaves
// it unset rather than failing the request.
type flexInt struct {
	Value int64
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	*f = flexInt{}
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = flexInt{Value: v, Set: true}
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v == float64(int64(v)) {
		*f = flexInt{Value: int64(v), Set: true}
	}
	return nil
}

// Or returns the value, or def when unset.
func (f flexInt) Or(def int64) int64 {
	if !f.Set {
		return def
	}
	return f.Value
}

// flexBool accepts true/false, 1/0 and their string forms.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes":
		*f = true
	default:
		*f = false
	}
	return nil
}

// restoreItems is either the string "all" or a list of history record ids.
type restoreItems struct {
	All bool
	IDs []int64
}

func (ri *restoreItems) UnmarshalJSON(b []byte) error {
	*ri = restoreItems{}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "all" {
			ri.All = true
			return nil
		}
		if s == "" {
			return nil
		}
		for _, part := range strings.Split(s, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", part)
			}
			ri.IDs = append(ri.IDs, id)
		}
		return nil
	}

	var list []flexInt
	if err := json.Unmarshal(b, &list); err != nil {
		return errors.New(`items must be "all" or a list of ids`)
	}
	for _, v := range list {
		if !v.Set || v.Value <= 0 {
			return errors.New("items contains an invalid id")
		}
		ri.IDs = append(ri.IDs, v.Value)
	}
	return nil
}
