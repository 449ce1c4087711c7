package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type memStore struct {
	mu         sync.Mutex
	leads      map[string]*entity.Lead
	activities map[string][]*entity.LeadActivity
}

func newMemStore() *memStore {
	return &memStore{
		leads:      make(map[string]*entity.Lead),
		activities: make(map[string][]*entity.LeadActivity),
	}
}

func (s *memStore) Create(ctx context.Context, lead *entity.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead.Clone()
	return nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lead, ok := s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return lead.Clone(), nil
}

func (s *memStore) Update(ctx context.Context, lead *entity.Lead, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.leads[lead.ID]
	if !ok {
		return entity.ErrLeadNotFound
	}
	if stored.Version != expectedVersion {
		return entity.ErrConcurrencyConflict
	}
	s.leads[lead.ID] = lead.Clone()
	return nil
}

func (s *memStore) FindDeadlineCandidates(ctx context.Context, deadlineBefore time.Time) ([]*entity.Lead, error) {
	return nil, nil
}

func (s *memStore) FindPreClaimCreatedBefore(ctx context.Context, createdBefore time.Time) ([]*entity.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Lead
	for _, l := range s.leads {
		if l.PreClaim() && l.CreatedAt.Before(createdBefore) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

type memActivities struct {
	store *memStore
}

func (a memActivities) Create(ctx context.Context, activity *entity.LeadActivity) error {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	a.store.activities[activity.LeadID] = append(a.store.activities[activity.LeadID], activity)
	return nil
}

func (a memActivities) FindByLeadID(ctx context.Context, leadID string) ([]*entity.LeadActivity, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	return append([]*entity.LeadActivity(nil), a.store.activities[leadID]...), nil
}

func (a memActivities) CountProgressByLeadID(ctx context.Context, leadID string) (int, error) {
	a.store.mu.Lock()
	defer a.store.mu.Unlock()
	n := 0
	for _, act := range a.store.activities[leadID] {
		if act.CountsAsProgress() {
			n++
		}
	}
	return n, nil
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func newTestRouter(t *testing.T, clock *stepClock) http.Handler {
	t.Helper()
	store := newMemStore()
	activities := memActivities{store: store}
	logger := zap.NewNop()
	weights := entity.ScoringWeights{}

	h := NewLeadHandler(testContext(t), LeadUseCases{
		CreateLead:           usecase.NewCreateLeadUseCase(store, clock, weights, logger),
		GetLead:              usecase.NewGetLeadUseCase(store, clock, logger),
		DocumentFirstContact: usecase.NewDocumentFirstContactUseCase(store, clock, weights, logger),
		LogActivity:          usecase.NewLogActivityUseCase(store, activities, clock, weights, logger),
		ListActivities:       usecase.NewListActivitiesUseCase(store, activities),
		UpdateEngagement:     usecase.NewUpdateEngagementUseCase(store, activities, clock, weights, logger),
		ChangeStatus:         usecase.NewChangeStatusUseCase(store, clock, logger),
		DeleteLead:           usecase.NewDeleteLeadUseCase(store, clock, logger),
		ListOverduePreClaim:  usecase.NewListOverduePreClaimUseCase(store, clock),
	}, logger)

	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, ifMatch string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if ifMatch != "" {
		req.Header.Set("If-Match", ifMatch)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type viewBody struct {
	Lead struct {
		ID               string     `json:"id"`
		Version          int        `json:"version"`
		ProgressDeadline *time.Time `json:"progress_deadline"`
	} `json:"lead"`
	EffectiveStatus string `json:"effective_status"`
	Deleted         bool   `json:"deleted"`
	Protection      struct {
		Status          string `json:"status"`
		DaysUntilExpiry *int   `json:"days_until_expiry"`
		WarningMessage  string `json:"warning_message"`
	} `json:"protection"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) viewBody {
	t.Helper()
	var v viewBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e.Code
}

func createRegisteredLead(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/leads", "", map[string]any{
		"owner_id":     "user-1",
		"owner_email":  "owner@example.com",
		"company_name": "ACME GmbH",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, `"1"`, rec.Header().Get("ETag"))
	id := decodeView(t, rec).Lead.ID

	rec = do(t, h, http.MethodPost, "/leads/"+id+"/first-contact", `"1"`, map[string]any{"contact_person": "Erika Mustermann"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `"2"`, rec.Header().Get("ETag"))
	return id
}

func TestLeadLifecycle(t *testing.T) {
	clock := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	h := newTestRouter(t, clock)
	id := createRegisteredLead(t, h)

	rec := do(t, h, http.MethodPost, "/leads/"+id+"/first-contact", `"2"`, map[string]any{"contact_person": "Someone Else"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, usecase.CodeAlreadyRegistered, errorCode(t, rec))

	clock.now = time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC)
	rec = do(t, h, http.MethodGet, "/leads/"+id+"/protection", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var protection ProtectionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &protection))
	assert.Equal(t, entity.ProtectionWarning, protection.Protection.Status)
	assert.Equal(t, 5, *protection.Protection.DaysUntilExpiry)

	rec = do(t, h, http.MethodPost, "/leads/"+id+"/activities", `"2"`, map[string]any{
		"user_id":       "user-1",
		"activity_type": "DEMO",
		"activity_date": "2025-02-25",
		"summary":       "demo for purchasing",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var logged struct {
		Activity struct {
			CountsAsProgress bool `json:"counts_as_progress"`
		} `json:"activity"`
		View viewBody `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logged))
	assert.True(t, logged.Activity.CountsAsProgress)
	assert.Equal(t, time.Date(2025, 4, 26, 0, 0, 0, 0, time.UTC), logged.View.Lead.ProgressDeadline.UTC())
	assert.Equal(t, "protected", logged.View.Protection.Status)

	rec = do(t, h, http.MethodGet, "/leads/"+id+"/activities", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Len(t, history, 1)

	rec = do(t, h, http.MethodDelete, "/leads/"+id, `"3"`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var deleted struct {
		State struct {
			Visibility string `json:"visibility"`
			Status     string `json:"status"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &deleted))
	assert.Equal(t, string(entity.VisibilityDeleted), deleted.State.Visibility)
	assert.Equal(t, "REGISTERED", deleted.State.Status)

	for _, path := range []string{"/leads/" + id, "/leads/" + id + "/protection", "/leads/" + id + "/activities"} {
		rec = do(t, h, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusGone, rec.Code, path)
		assert.Equal(t, usecase.CodeLeadDeleted, errorCode(t, rec), path)
	}

	rec = do(t, h, http.MethodPost, "/leads/"+id+"/status", `"4"`, map[string]any{"status": "QUALIFIED"})
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestMutationsRequirePrecondition(t *testing.T) {
	h := newTestRouter(t, &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	id := createRegisteredLead(t, h)

	rec := do(t, h, http.MethodDelete, "/leads/"+id, "", nil)
	assert.Equal(t, http.StatusPreconditionRequired, rec.Code)

	rec = do(t, h, http.MethodDelete, "/leads/"+id, `"1"`, nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, usecase.CodeConcurrencyConflict, errorCode(t, rec))

	rec = do(t, h, http.MethodDelete, "/leads/"+id, "abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/leads/"+id+"?version=2", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogActivity_UnknownTypeIsUnprocessable(t *testing.T) {
	h := newTestRouter(t, &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
	id := createRegisteredLead(t, h)

	rec := do(t, h, http.MethodPost, "/leads/"+id+"/activities", `W/"2"`, map[string]any{
		"user_id":       "user-1",
		"activity_type": "WEBINAR",
		"activity_date": "2025-01-01",
		"summary":       "x",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, usecase.CodeUnknownActivityType, errorCode(t, rec))
}

func TestGetLead_NotFound(t *testing.T) {
	h := newTestRouter(t, &stepClock{now: time.Now()})

	rec := do(t, h, http.MethodGet, "/leads/does-not-exist", "", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, usecase.CodeLeadNotFound, errorCode(t, rec))
}

func TestCreateLead_InvalidBody(t *testing.T) {
	h := newTestRouter(t, &stepClock{now: time.Now()})

	req := httptest.NewRequest(http.MethodPost, "/leads", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/leads", "", map[string]any{"owner_id": "user-1", "company_name": "A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, usecase.CodeValidation, errorCode(t, rec))
}

func TestListOverduePreClaim(t *testing.T) {
	clock := &stepClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	h := newTestRouter(t, clock)
	rec := do(t, h, http.MethodPost, "/leads", "", map[string]any{"owner_id": "user-1", "company_name": "Slow Corp"})
	require.Equal(t, http.StatusCreated, rec.Code)

	clock.now = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	rec = do(t, h, http.MethodGet, "/leads/pre-claim/overdue", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []viewBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "PRE_CLAIM", views[0].EffectiveStatus)
}

func TestExpectedVersion(t *testing.T) {
	cases := map[string]int{`"7"`: 7, `W/"7"`: 7, "7": 7}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodDelete, "/leads/x", nil)
		req.Header.Set("If-Match", header)
		got, present, err := expectedVersion(req)
		require.NoError(t, err)
		assert.True(t, present)
		assert.Equal(t, want, got)
	}

	_, present, _ := expectedVersion(httptest.NewRequest(http.MethodDelete, "/leads/x", nil))
	assert.False(t, present)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(testContext(t), 2, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_SweepDropsIdleVisitors(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	now := start
	rl := NewRateLimiter(testContext(t), 2, time.Minute)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = start.Add(90 * time.Second)
	rl.Allow("10.0.0.2")
	now = start.Add(3 * time.Minute)
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.visitors, "10.0.0.1")
	assert.Contains(t, rl.visitors, "10.0.0.2")
}

func TestRateLimiter_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, 2, time.Minute)

	cancel()

	select {
	case <-rl.stopped:
	case <-time.After(time.Second):
		t.Fatal("cleanup goroutine still running after cancel")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}

func TestHealth_NothingConfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(nil, nil, nil).Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not configured", body.Dependencies["redis"])
}

// testContext mirrors testing.T.Context (Go 1.24+): the context is canceled
// when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
