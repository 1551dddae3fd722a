package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/slotwise/booking-engine/internal/catalog"
	"github.com/slotwise/booking-engine/internal/identity"
	"github.com/slotwise/booking-engine/internal/schedule"
)

type fakeCatalog struct {
	providers map[uuid.UUID]uuid.UUID // workerID -> providerID
}

func (f *fakeCatalog) GetService(_ context.Context, _ uuid.UUID) (*catalog.Service, error) {
	return nil, catalog.ErrServiceNotFound
}

func (f *fakeCatalog) WorkerOffersService(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeCatalog) GetWorkerProvider(_ context.Context, workerID uuid.UUID) (uuid.UUID, error) {
	p, ok := f.providers[workerID]
	if !ok {
		return uuid.Nil, catalog.ErrWorkerNotFound
	}
	return p, nil
}

// fakeScheduleRepo records template upserts; the remaining Repository
// methods are unused by the handler under test.
type fakeScheduleRepo struct {
	templates []schedule.WeeklyTemplate
}

func (f *fakeScheduleRepo) GetOverride(_ context.Context, _ uuid.UUID, _ time.Time) (*schedule.DateOverride, error) {
	return nil, schedule.ErrOverrideNotFound
}

func (f *fakeScheduleRepo) GetTemplate(_ context.Context, _ uuid.UUID, _ time.Weekday) (*schedule.WeeklyTemplate, error) {
	return nil, schedule.ErrTemplateNotFound
}

func (f *fakeScheduleRepo) ListBreaks(_ context.Context, _ uuid.UUID, _ time.Time) ([]schedule.Break, error) {
	return nil, nil
}

func (f *fakeScheduleRepo) UpsertTemplate(_ context.Context, tpl schedule.WeeklyTemplate) (*schedule.WeeklyTemplate, error) {
	f.templates = append(f.templates, tpl)
	return &tpl, nil
}

func (f *fakeScheduleRepo) UpsertOverride(_ context.Context, o schedule.DateOverride) (*schedule.DateOverride, error) {
	return &o, nil
}

func (f *fakeScheduleRepo) DeleteOverride(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakeScheduleRepo) CreateBreak(_ context.Context, b schedule.Break) (*schedule.Break, error) {
	return &b, nil
}

func (f *fakeScheduleRepo) DeleteBreak(_ context.Context, _, _ uuid.UUID) error {
	return nil
}

func putTemplate(t *testing.T, h http.HandlerFunc, workerID uuid.UUID, p identity.Principal) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(SetTemplateRequest{
		Weekday:       1,
		Start:         "09:00",
		End:           "17:00",
		BufferMinutes: 10,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/workers/"+workerID.String()+"/template", bytes.NewReader(body))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("workerID", workerID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, principalKey, p)

	rec := httptest.NewRecorder()
	h(rec, req.WithContext(ctx))
	return rec
}

// Staff may only administer schedules of workers their own provider owns.
func TestScheduleAdminTenancy(t *testing.T) {
	workerID := uuid.New()
	owningProvider := uuid.New()

	repo := &fakeScheduleRepo{}
	admin := schedule.NewAdmin(repo)
	cat := &fakeCatalog{providers: map[uuid.UUID]uuid.UUID{workerID: owningProvider}}
	handler := setTemplateHandler(admin, cat)

	t.Run("staff of another provider is rejected", func(t *testing.T) {
		p := identity.Principal{UserID: uuid.New(), ProviderID: uuid.New(), Role: identity.RoleReceptionist}
		rec := putTemplate(t, handler, workerID, p)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if len(repo.templates) != 0 {
			t.Fatalf("template written despite foreign provider: %+v", repo.templates)
		}
	})

	t.Run("non-staff role is rejected", func(t *testing.T) {
		p := identity.Principal{UserID: uuid.New(), ProviderID: owningProvider, Role: identity.RoleCustomer}
		rec := putTemplate(t, handler, workerID, p)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if len(repo.templates) != 0 {
			t.Fatalf("template written despite non-staff role: %+v", repo.templates)
		}
	})

	t.Run("unknown worker is a 404", func(t *testing.T) {
		p := identity.Principal{UserID: uuid.New(), ProviderID: owningProvider, Role: identity.RoleOwner}
		rec := putTemplate(t, handler, uuid.New(), p)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("staff of the owning provider succeeds", func(t *testing.T) {
		p := identity.Principal{UserID: uuid.New(), ProviderID: owningProvider, Role: identity.RoleOwner}
		rec := putTemplate(t, handler, workerID, p)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
		}
		if len(repo.templates) != 1 || repo.templates[0].WorkerID != workerID {
			t.Fatalf("expected one template for the worker, got %+v", repo.templates)
		}
	})
}
