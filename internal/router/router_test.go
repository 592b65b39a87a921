package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-household-go/internal/board/entity"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/page"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-household-go/internal/testutil"
)

const secret = "test-secret"

func newServer(t *testing.T, db *sqlx.DB) http.Handler {
	t.Helper()
	logger := zap.NewNop().Sugar()
	sessions, err := session.NewJWTResolver(session.Config{Secret: secret, Cookie: "sb-access-token"}, logger)
	require.NoError(t, err)
	return router.RegisterRoutes(logger, db, sessions)
}

func token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := session.Sign(secret, session.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)
	return tok
}

func do(h http.Handler, method, target, tok string, form url.Values) *httptest.ResponseRecorder {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := newServer(t, testutil.NewDB(t))
	rec := do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMiddlewareHeaders(t *testing.T) {
	h := newServer(t, testutil.NewDB(t))

	rec := do(h, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-1", rec.Header().Get("X-Request-ID"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req = httptest.NewRequest(http.MethodGet, "https://example.test/health", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=2592000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}

func TestAnonymousRequests(t *testing.T) {
	h := newServer(t, testutil.NewDB(t))

	rec := do(h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, page.LoginPath, rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/onboarding", "", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, page.LoginPath, rec.Header().Get("Location"))

	rec = do(h, http.MethodPost, "/?/createTask", "", url.Values{"title": {"x"}, "columnId": {"c"}, "householdId": {"h"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authenticated"}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/onboarding", "", url.Values{"householdName": {"a"}, "memberName": {"b"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnonymousMalformedBodyIsUnauthorized(t *testing.T) {
	db := testutil.NewDB(t)
	hh := testutil.SeedHousehold(t, db, "Maple St", "Ana")
	h := newServer(t, db)

	post := func(target, tok string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader("a=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for _, target := range []string{"/?/createTask", "/onboarding"} {
		rec := post(target, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		assert.JSONEq(t, `{"message":"Not authenticated"}`, rec.Body.String(), target)

		rec = post(target, token(t, hh.UserID))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.JSONEq(t, `{"message":"Invalid form data"}`, rec.Body.String(), target)
	}
}

func TestForgedTokenIsAnonymous(t *testing.T) {
	h := newServer(t, testutil.NewDB(t))
	forged, err := session.Sign("other-secret", session.Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/", forged, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, page.LoginPath, rec.Header().Get("Location"))
}

func TestOnboardingThenBoard(t *testing.T) {
	h := newServer(t, testutil.NewDB(t))
	tok := token(t, uuid.New())

	rec := do(h, http.MethodGet, "/", tok, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, page.OnboardingPath, rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/onboarding", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/onboarding", tok, url.Values{"householdName": {"Maple"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Please fill in all fields"}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/onboarding", tok, url.Values{"householdName": {"Maple St"}, "memberName": {"Ana"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/onboarding", tok, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var b entity.Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, "Maple St", b.Household.Name)
	assert.Equal(t, "Ana", b.Member.Name)
	assert.Len(t, b.Columns, 3)
	assert.Empty(t, b.Tasks)
	require.Len(t, b.Members, 1)
	assert.Equal(t, "Ana", b.Members[0].Name)
}

func TestCreateTaskAppendsToColumn(t *testing.T) {
	db := testutil.NewDB(t)
	hh := testutil.SeedHousehold(t, db, "Maple St", "Ana")
	testutil.AddTask(t, db, hh.ID, testutil.Task{Title: "Dishes", ColumnID: hh.Columns[0], Position: 5})
	h := newServer(t, db)
	tok := token(t, hh.UserID)

	rec := do(h, http.MethodPost, "/?/createTask", tok, url.Values{
		"title": {"Laundry"}, "columnId": {hh.Columns[0]}, "householdId": {hh.ID},
		"assigneeId": {hh.MemberID}, "dueDate": {"2026-11-01"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/?/createTask", tok, url.Values{
		"title": {"Mop"}, "columnId": {hh.Columns[1]}, "householdId": {hh.ID}, "assigneeId": {""},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodGet, "/", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var b entity.Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))

	byTitle := map[string]entity.Task{}
	for _, task := range b.Tasks {
		byTitle[task.Title] = task
	}
	require.Contains(t, byTitle, "Laundry")
	assert.Equal(t, 6, byTitle["Laundry"].Position)
	require.NotNil(t, byTitle["Laundry"].Assignee)
	assert.Equal(t, "Ana", byTitle["Laundry"].Assignee.Name)
	require.NotNil(t, byTitle["Laundry"].DueDate)
	assert.Equal(t, "2026-11-01", *byTitle["Laundry"].DueDate)

	require.Contains(t, byTitle, "Mop")
	assert.Equal(t, 1, byTitle["Mop"].Position)
	assert.Nil(t, byTitle["Mop"].AssigneeID)
	assert.Nil(t, byTitle["Mop"].Assignee)
	assert.Nil(t, byTitle["Mop"].DueDate)
}

func TestCreateTaskRejections(t *testing.T) {
	db := testutil.NewDB(t)
	hh := testutil.SeedHousehold(t, db, "Maple St", "Ana")
	other := testutil.SeedHousehold(t, db, "Oak Ave", "Ben")
	h := newServer(t, db)
	tok := token(t, hh.UserID)

	rec := do(h, http.MethodPost, "/?/createTask", tok, url.Values{"title": {"x"}, "columnId": {hh.Columns[0]}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Missing required fields"}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/?/createTask", tok, url.Values{
		"title": {"x"}, "columnId": {other.Columns[0]}, "householdId": {other.ID},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to create task"}`, rec.Body.String())

	rec = do(h, http.MethodPost, "/?/nope", tok, url.Values{"title": {"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPost, "/", tok, url.Values{"title": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownMethod(t *testing.T) {
	h := newServer(t, testutil.NewDB(t))
	rec := do(h, http.MethodDelete, "/", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTracingWrapsPageSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	h := newServer(t, testutil.NewDB(t))
	rec := do(h, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	load, server := spans[0], spans[1]
	assert.Equal(t, "page.load", load.Name)
	assert.Equal(t, "GET /", server.Name)
	assert.Equal(t, trace.SpanKindServer, server.SpanKind)
	assert.Equal(t, server.SpanContext.SpanID(), load.Parent.SpanID())
	assert.Contains(t, server.Attributes, attribute.Int("http.response.status_code", http.StatusSeeOther))
	assert.Contains(t, load.Attributes, attribute.String("page.result", "redirect"))
}
