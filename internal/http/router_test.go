package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/roamtrails/tours-api/internal/domain"
	"github.com/roamtrails/tours-api/internal/http/handlers"
	"github.com/roamtrails/tours-api/internal/store"
	"github.com/roamtrails/tours-api/pkg/config"
)

// stubCrud satisfies the generic storage accessor with benign responses so
// route-tier tests can assert on status codes alone.
type stubCrud[T any] struct{}

func (stubCrud[T]) Create(ctx context.Context, doc *T) (*T, error) { return doc, nil }
func (stubCrud[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return new(T), nil
}
func (stubCrud[T]) FindMany(ctx context.Context, scope bson.D, f *store.Features) ([]T, error) {
	return []T{}, nil
}
func (stubCrud[T]) Count(ctx context.Context, scope bson.D) (int64, error) { return 0, nil }
func (stubCrud[T]) UpdateByID(ctx context.Context, id string, patch bson.M) (*T, error) {
	return new(T), nil
}
func (stubCrud[T]) DeleteByID(ctx context.Context, id string) error { return nil }

type stubTours struct{ stubCrud[domain.Tour] }

func (stubTours) FindBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	return &domain.Tour{}, nil
}
func (stubTours) Stats(ctx context.Context) ([]domain.TourStats, error) {
	return []domain.TourStats{}, nil
}
func (stubTours) MonthlyPlan(ctx context.Context, year int) ([]domain.MonthPlan, error) {
	return []domain.MonthPlan{}, nil
}

type stubUsers struct{ stubCrud[domain.User] }

func (stubUsers) Deactivate(ctx context.Context, id bson.ObjectID) error { return nil }

type stubLister struct{}

func (stubLister) ListByTour(ctx context.Context, tourID bson.ObjectID) ([]domain.Review, error) {
	return []domain.Review{}, nil
}

type stubResolver struct{}

func (stubResolver) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]domain.User, error) {
	return []domain.User{}, nil
}

// stubAuth resolves any bearer token to its fixed user.
type stubAuth struct {
	user *domain.User
}

func (s *stubAuth) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if s.user == nil {
		return nil, domain.ErrTokenInvalid
	}
	return s.user, nil
}

func (s *stubAuth) SignUp(ctx context.Context, req *domain.SignupRequest) (*domain.User, string, error) {
	return nil, "", domain.ErrInvalidCredentials
}

func (s *stubAuth) Login(ctx context.Context, req *domain.LoginRequest) (*domain.User, string, error) {
	return nil, "", domain.ErrInvalidCredentials
}

func (s *stubAuth) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest, origin string) error {
	return nil
}

func (s *stubAuth) ResetPassword(ctx context.Context, token string, req *domain.ResetPasswordRequest) (*domain.User, string, error) {
	return nil, "", domain.ErrTokenInvalid
}

func (s *stubAuth) UpdatePassword(ctx context.Context, user *domain.User, req *domain.UpdatePasswordRequest) (string, error) {
	return "", domain.ErrInvalidCredentials
}

type stubReviews struct{}

func (stubReviews) Create(ctx context.Context, author *domain.User, tourID string, req *domain.CreateReviewRequest) (*domain.Review, error) {
	return &domain.Review{}, nil
}
func (stubReviews) Update(ctx context.Context, actor *domain.User, id string, req *domain.UpdateReviewRequest) (*domain.Review, error) {
	return &domain.Review{}, nil
}
func (stubReviews) Delete(ctx context.Context, actor *domain.User, id string) error { return nil }
func (stubReviews) RecomputeTourRatings(ctx context.Context, tourID string) error   { return nil }

type stubBookings struct{}

func (stubBookings) CheckoutSession(ctx context.Context, user *domain.User, tourID, origin string) (*domain.CheckoutSession, error) {
	return &domain.CheckoutSession{}, nil
}
func (stubBookings) Create(ctx context.Context, req *domain.CreateBookingRequest) (*domain.Booking, error) {
	return &domain.Booking{}, nil
}

// routeStatus runs one request through the assembled route tree. An empty
// role means an anonymous request with no token.
func routeStatus(t *testing.T, role, method, target string) int {
	t.Helper()

	auth := &stubAuth{}
	if role != "" {
		auth.user = &domain.User{ID: bson.NewObjectID(), Role: role, Active: true}
	}

	cfg := config.Load()
	router := NewRouter(RouterConfig{
		Auth:     auth,
		Tours:    handlers.NewTourHandlers(stubTours{}, stubLister{}, stubResolver{}),
		Users:    handlers.NewUserHandlers(stubUsers{}),
		AuthH:    handlers.NewAuthHandlers(auth, cfg),
		Reviews:  handlers.NewReviewHandlers(stubReviews{}, stubCrud[domain.Review]{}),
		Bookings: handlers.NewBookingHandlers(stubBookings{}, stubCrud[domain.Booking]{}, cfg),
	})

	req := httptest.NewRequest(method, target, nil)
	if role != "" {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRouter_UserAdminRoutesAllowLeadGuide(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{domain.RoleAdmin, http.StatusOK},
		{domain.RoleLeadGuide, http.StatusOK},
		{domain.RoleGuide, http.StatusForbidden},
		{domain.RoleUser, http.StatusForbidden},
	}

	for _, tt := range tests {
		if got := routeStatus(t, tt.role, http.MethodGet, "/api/v1/users/"); got != tt.want {
			t.Errorf("GET /users as %s: expected %d, got %d", tt.role, tt.want, got)
		}
	}

	id := bson.NewObjectID().Hex()
	if got := routeStatus(t, domain.RoleLeadGuide, http.MethodDelete, "/api/v1/users/"+id); got != http.StatusNoContent {
		t.Errorf("DELETE /users/{id} as lead-guide: expected 204, got %d", got)
	}
}

func TestRouter_GuidesListRequiresOnlyLogin(t *testing.T) {
	if got := routeStatus(t, domain.RoleUser, http.MethodGet, "/api/v1/users/guides"); got != http.StatusOK {
		t.Errorf("GET /users/guides as user: expected 200, got %d", got)
	}
	if got := routeStatus(t, "", http.MethodGet, "/api/v1/users/guides"); got != http.StatusUnauthorized {
		t.Errorf("GET /users/guides anonymously: expected 401, got %d", got)
	}
}

func TestRouter_LogoutIsAuthenticatedPost(t *testing.T) {
	if got := routeStatus(t, domain.RoleUser, http.MethodPost, "/api/v1/users/logout"); got != http.StatusOK {
		t.Errorf("POST /users/logout as user: expected 200, got %d", got)
	}
	if got := routeStatus(t, "", http.MethodPost, "/api/v1/users/logout"); got != http.StatusUnauthorized {
		t.Errorf("POST /users/logout anonymously: expected 401, got %d", got)
	}
	if got := routeStatus(t, domain.RoleUser, http.MethodGet, "/api/v1/users/logout"); got != http.StatusMethodNotAllowed {
		t.Errorf("GET /users/logout: expected 405, got %d", got)
	}
}
