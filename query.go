package duckhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

var ErrEmptyRequest = errors.New("empty request")

type Request struct {
	Query string `json:"query"`
	Args  []any  `json:"args,omitempty"`
}

type Response struct {
	Data  []map[string]any `json:"data,omitempty"`
	Error string           `json:"error,omitempty"`
}

func errResponse(err error) Response {
	return Response{Error: err.Error()}
}

func (s *Service) queryHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Content-Type", "application/json")

	req, err := parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := Response{}
	res.Data, err = s.Query(r.Context(), req.Query, req.Args...)
	if err != nil {
		res = errResponse(err)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}

	err = json.NewEncoder(w).Encode(res)
	if err != nil {
		s.logger.Error("encode query response", zap.Error(err))
	}
}

func parseRequest(r *http.Request) (req Request, err error) {
	switch r.Method {
	case http.MethodGet:
		query := r.URL.Query()
		req = Request{
			Query: query.Get("query"),
		}
		args := query.Get("args")
		if args != "" {
			err = json.Unmarshal([]byte(args), &req.Args)
			if err != nil {
				return Request{}, fmt.Errorf("unmarshal args: %w", err)
			}
		}
	case http.MethodPost:
		err = json.NewDecoder(r.Body).Decode(&req)
	default:
		err = fmt.Errorf("unsupported method: %s", r.Method)
	}
	if err == nil && req.Query == "" {
		err = ErrEmptyRequest
	}
	return req, err
}

// Query runs a SQL statement and returns its rows as column name to value maps.
func (s *Service) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if s.config.Debug {
		s.logger.Debug("query", zap.String("sql", query), zap.Int("args", len(args)))
	}
	return s.db.QueryRows(ctx, query, args...)
}
