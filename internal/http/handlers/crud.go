// Package handlers holds the HTTP layer: a generic CRUD handler factory
// parameterized over a storage accessor, and the resource-specific handlers
// built around it.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/response"
	"github.com/roamtrails/tours-api/internal/store"
)

// CrudStore is the storage accessor a resource must provide to get the five
// standard handlers.
type CrudStore[T any] interface {
	Create(ctx context.Context, doc *T) (*T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	FindMany(ctx context.Context, scope bson.D, f *store.Features) ([]T, error)
	Count(ctx context.Context, scope bson.D) (int64, error)
	UpdateByID(ctx context.Context, id string, patch bson.M) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

// CrudConfig parameterizes the factory for one resource.
type CrudConfig[T any] struct {
	Store CrudStore[T]

	// Decode reads and validates the create payload. Required for Create.
	Decode func(r *http.Request) (*T, error)

	// Patch reads and validates the update payload into a whitelisted field
	// set. Required for Update.
	Patch func(r *http.Request) (bson.M, error)

	// Scope optionally restricts list queries, e.g. to a parent resource id
	// on nested routes.
	Scope func(r *http.Request) (bson.D, error)

	// Expand optionally follows declared relations on single reads,
	// returning the expanded response shape.
	Expand func(ctx context.Context, doc *T) (interface{}, error)
}

// Crud bundles the five standard handlers for one resource. All of them
// return the uniform envelope and signal typed errors to the shared
// translation layer.
type Crud[T any] struct {
	cfg CrudConfig[T]
}

func NewCrud[T any](cfg CrudConfig[T]) *Crud[T] {
	return &Crud[T]{cfg: cfg}
}

func (c *Crud[T]) Create(w http.ResponseWriter, r *http.Request) {
	doc, err := c.cfg.Decode(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	created, err := c.cfg.Store.Create(r.Context(), doc)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.Data(w, http.StatusCreated, created)
}

func (c *Crud[T]) GetOne(w http.ResponseWriter, r *http.Request) {
	doc, err := c.cfg.Store.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if c.cfg.Expand != nil {
		expanded, err := c.cfg.Expand(r.Context(), doc)
		if err != nil {
			response.Error(w, r, err)
			return
		}
		response.Data(w, http.StatusOK, expanded)
		return
	}

	response.Data(w, http.StatusOK, doc)
}

func (c *Crud[T]) GetAll(w http.ResponseWriter, r *http.Request) {
	scope := bson.D{}
	if c.cfg.Scope != nil {
		var err error
		if scope, err = c.cfg.Scope(r); err != nil {
			response.Error(w, r, err)
			return
		}
	}

	features := store.ParseFeatures(r.URL.Query())

	docs, err := c.cfg.Store.FindMany(r.Context(), scope, features)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	// separate count query for total-result metadata
	total, err := c.cfg.Store.Count(r.Context(), scope)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.List(w, docs, total, store.TotalPages(total, features.Limit))
}

func (c *Crud[T]) Update(w http.ResponseWriter, r *http.Request) {
	patch, err := c.cfg.Patch(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	updated, err := c.cfg.Store.UpdateByID(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	response.Data(w, http.StatusOK, updated)
}

func (c *Crud[T]) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.cfg.Store.DeleteByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.Error(w, r, err)
		return
	}

	response.NoContent(w)
}

// maxBodyBytes caps request payloads at 10kb.
const maxBodyBytes = 10 << 10

func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		verr := domain.NewValidationError()
		verr.Add("body", "invalid JSON payload")
		return verr
	}
	return nil
}
