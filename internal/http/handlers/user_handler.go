package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/middleware"
	"github.com/roamtrails/tours-api/internal/http/response"
)

// UserAdminStore is the user storage surface the handlers use on top of the
// generic CRUD accessor.
type UserAdminStore interface {
	CrudStore[domain.User]
	Deactivate(ctx context.Context, id bson.ObjectID) error
}

type UserHandlers struct {
	crud  *Crud[domain.User]
	users UserAdminStore
}

func NewUserHandlers(users UserAdminStore) *UserHandlers {
	h := &UserHandlers{users: users}
	h.crud = NewCrud(CrudConfig[domain.User]{
		Store: users,
		Patch: patchUser,
	})
	return h
}

// Admin surface. Creating users through here is not supported; signup is the
// only way in.
func (h *UserHandlers) GetOne(w http.ResponseWriter, r *http.Request) { h.crud.GetOne(w, r) }
func (h *UserHandlers) GetAll(w http.ResponseWriter, r *http.Request) { h.crud.GetAll(w, r) }
func (h *UserHandlers) Update(w http.ResponseWriter, r *http.Request) { h.crud.Update(w, r) }
func (h *UserHandlers) Delete(w http.ResponseWriter, r *http.Request) { h.crud.Delete(w, r) }

// GetGuides presets the list query to users who can lead a tour.
func (h *UserHandlers) GetGuides(w http.ResponseWriter, r *http.Request) {
	preset := url.Values{
		"role":   {domain.RoleGuide},
		"sort":   {"name"},
		"fields": {"name,email,photo,role"},
	}
	r2 := r.Clone(r.Context())
	r2.URL = &url.URL{Path: r.URL.Path, RawQuery: preset.Encode()}
	h.crud.GetAll(w, r2)
}

func (h *UserHandlers) GetMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}
	response.Data(w, http.StatusOK, user)
}

func (h *UserHandlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	var req domain.UpdateMeRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(w, r, err)
		return
	}

	patch := bson.M{}
	if req.Name != nil {
		patch["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		patch["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Photo != nil {
		patch["photo"] = *req.Photo
	}
	if len(patch) == 0 {
		response.Data(w, http.StatusOK, user)
		return
	}

	updated, err := h.users.UpdateByID(r.Context(), user.ID.Hex(), patch)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, updated)
}

// DeleteMe soft-deletes the account; the document stays behind an active flag.
func (h *UserHandlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		response.Error(w, r, domain.ErrTokenInvalid)
		return
	}

	if err := h.users.Deactivate(r.Context(), user.ID); err != nil {
		response.Error(w, r, err)
		return
	}
	response.NoContent(w)
}

func patchUser(r *http.Request) (bson.M, error) {
	var req domain.UpdateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	patch := bson.M{}
	if req.Name != nil {
		patch["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		patch["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		patch["role"] = *req.Role
	}
	if len(patch) == 0 {
		verr := domain.NewValidationError()
		verr.Add("body", "no updatable fields in payload")
		return nil, verr
	}
	return patch, nil
}
