package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductInventory/pkg/kit"
)

const (
	ServiceName    = "Product Demo REST API Service"
	ServiceVersion = "1.0"

	maxBodyBytes = 1 << 20
	readyTimeout = 1 * time.Second
)

type Server struct {
	Store   Store
	Log     *zap.Logger
	Metrics *InventoryMetrics
	// Limiter throttles write routes when set.
	Limiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/", s.index)

	r.Route("/Products", func(r chi.Router) {
		r.Get("/", s.list)
		r.Get("/available", s.listAvailable)
		r.Get("/{id}", s.get)

		r.Group(func(w chi.Router) {
			if s.Limiter != nil {
				w.Use(s.Limiter.Middleware)
			}
			w.Post("/", s.create)
			w.Put("/{id}", s.update)
			w.Delete("/{id}", s.delete)
			w.Put("/add_unit/{id}", s.addUnit)
			w.Put("/sell_products/{id}", s.sellProducts)
		})
	})

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.log().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, map[string]string{
		"name":    ServiceName,
		"version": ServiceVersion,
		"url":     baseURL(r) + "/Products",
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	var (
		products []Product
		err      error
	)
	if f, value, ok := queryFilter(r.URL.Query()); ok {
		products, err = s.Store.FindBy(r.Context(), f, value)
	} else {
		products, err = s.Store.List(r.Context())
	}
	if err != nil {
		s.writeStoreError(w, r, err, "list products failed", 0)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) listAvailable(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListAvailable(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err, "list available products failed", 0)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(r)
	if !ok {
		writeNotFound(w, r)
		return
	}

	p, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, "get product failed", id)
		return
	}
	if !found {
		writeNotFound(w, r)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	p, err := s.Store.Create(r.Context(), req.toProduct(0))
	if err != nil {
		s.writeStoreError(w, r, err, "create product failed", 0)
		return
	}
	s.Metrics.observe(opCreate)

	w.Header().Set("Location", fmt.Sprintf("%s/Products/%d", baseURL(r), p.ID))
	kit.WriteJSON(w, http.StatusCreated, p)
}

// update validates the body before resolving the id, so a nameless body is a
// 400 even for unknown ids.
func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeProduct(w, r)
	if !ok {
		return
	}

	id, ok := productID(r)
	if !ok {
		writeNotFound(w, r)
		return
	}

	p, err := s.Store.Update(r.Context(), req.toProduct(id))
	if err != nil {
		s.writeStoreError(w, r, err, "update product failed", id)
		return
	}
	s.Metrics.observe(opUpdate)
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	if id, ok := productID(r); ok {
		if err := s.Store.Delete(r.Context(), id); err != nil {
			s.writeStoreError(w, r, err, "delete product failed", id)
			return
		}
		s.Metrics.observe(opDelete)
	}
	kit.NoContent(w)
}

func (s *Server) addUnit(w http.ResponseWriter, r *http.Request) {
	s.adjust(w, r, opAddUnit, s.Store.AddUnit)
}

func (s *Server) sellProducts(w http.ResponseWriter, r *http.Request) {
	s.adjust(w, r, opSellUnit, s.Store.SellUnit)
}

func (s *Server) adjust(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, int) (Product, error)) {
	id, ok := productID(r)
	if !ok {
		writeNotFound(w, r)
		return
	}

	p, err := fn(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, err, op+" failed", id)
		return
	}
	s.Metrics.observe(op)
	kit.WriteJSON(w, http.StatusOK, p)
}

func decodeProduct(w http.ResponseWriter, r *http.Request) (productReq, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req productReq
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return productReq{}, false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": "extra data after json object"})
		return productReq{}, false
	}

	if errs := validateProduct(&req); errs != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", errs)
		return productReq{}, false
	}
	return req, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, msg string, id int) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeNotFound(w, r)
	case errors.Is(err, ErrInvalidCount):
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", map[string]string{"count": err.Error()})
	case errors.Is(err, ErrInvalidName):
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", map[string]string{"name": err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.log().Error(msg, zap.Error(err), zap.Int("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func writeNotFound(w http.ResponseWriter, r *http.Request) {
	kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": chi.URLParam(r, "id")})
}

// productID parses the {id} path segment. Non-integer ids cannot name a
// product and are treated as not found.
func productID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// queryFilter picks the first filterable field present in the query string.
func queryFilter(q url.Values) (Field, string, bool) {
	for _, f := range QueryFields {
		if q.Has(string(f)) {
			return f, q.Get(string(f)), true
		}
	}
	return "", "", false
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}
