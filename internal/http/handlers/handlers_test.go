package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/riplabs/annotdb-backend/internal/data/repos"
	"github.com/riplabs/annotdb-backend/internal/data/repos/testutil"
	"github.com/riplabs/annotdb-backend/internal/http/handlers"
	"github.com/riplabs/annotdb-backend/internal/middleware"
	"github.com/riplabs/annotdb-backend/internal/server"
	"github.com/riplabs/annotdb-backend/internal/services"
)

func newTestRouter(t *testing.T, requireAuth bool) (*gin.Engine, services.ClientService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.DB(t)
	logg := testutil.Logger(t)

	accountRepo := repos.NewAccountRepo(db, logg)
	keyRepo := repos.NewAnnotationKeyRepo(db, logg)
	valueRepo := repos.NewAnnotationValueRepo(db, logg)
	batchRepo := repos.NewAnnotationBatchRepo(db, logg)
	annotationRepo := repos.NewAnnotationRepo(db, logg)
	currentRepo := repos.NewCurrentAnnotationRepo(db, logg)
	templateRepo := repos.NewAnnotationTemplateRepo(db, logg)
	clientRepo := repos.NewClientRepo(db, logg)

	annotationService := services.NewAnnotationService(db, logg, nil, accountRepo, keyRepo, valueRepo, batchRepo, annotationRepo, currentRepo)
	queryService := services.NewQueryService(db, logg, nil, accountRepo, batchRepo, annotationRepo, currentRepo)
	searchService := services.NewSearchService(db, logg, accountRepo, keyRepo, annotationRepo, currentRepo)
	templateService := services.NewTemplateService(db, logg, templateRepo, keyRepo)
	clientService := services.NewClientService(db, logg, clientRepo)

	router := server.NewRouter(server.RouterConfig{
		HealthHandler:     handlers.NewHealthHandler(),
		AnnotationHandler: handlers.NewAnnotationHandler(logg, annotationService),
		BatchHandler:      handlers.NewBatchHandler(logg, queryService),
		AccountHandler:    handlers.NewAccountHandler(logg, queryService),
		SearchHandler:     handlers.NewSearchHandler(logg, searchService),
		TemplateHandler:   handlers.NewTemplateHandler(logg, templateService),
		ClientHandler:     handlers.NewClientHandler(logg, clientService),
		AuthMiddleware:    middleware.NewAuthMiddleware(logg, clientService),
		RequireAuth:       requireAuth,
	})
	return router, clientService
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rec.Body.String(), err)
	}
	return rec, payload
}

func TestAddAndGetBatch(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rec, payload := doJSON(t, router, http.MethodPost, "/add", `{
		"user_id": "tester",
		"annotations": [
			{"account": "acct-1", "key": "owner", "value": "alice"}
		]
	}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	if payload["success"] != true {
		t.Fatalf("expected a success envelope, got %v", payload)
	}
	batchNum, ok := payload["batch_num"].(float64)
	if !ok || batchNum == 0 {
		t.Fatalf("expected a batch number, got %v", payload)
	}

	rec, payload = doJSON(t, router, http.MethodGet, "/get/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	if payload["batch_number"].(float64) != 1 {
		t.Fatalf("expected batch_number in batch detail, got %v", payload)
	}
	if _, ok := payload["timestamp"].(float64); !ok {
		t.Fatalf("expected timestamp in batch detail, got %v", payload)
	}
	if payload["user_id"] != "tester" {
		t.Fatalf("expected user_id in batch detail, got %v", payload)
	}
	annotations, ok := payload["annotations"].([]any)
	if !ok || len(annotations) != 1 {
		t.Fatalf("expected 1 annotation, got %v", payload)
	}
}

func TestAccountHistoryEnvelope(t *testing.T) {
	router, _ := newTestRouter(t, false)

	if rec, _ := doJSON(t, router, http.MethodPost, "/add", `{
		"user_id": "tester",
		"annotations": [{"account": "acct-1", "key": "owner", "value": "alice"}]
	}`); rec.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", rec.Code)
	}

	rec, payload := doJSON(t, router, http.MethodGet, "/account_history/acct-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	annotations, ok := payload["annotations"].([]any)
	if !ok || len(annotations) != 1 {
		t.Fatalf("expected the history under 'annotations', got %v", payload)
	}
}

func TestAddRejectsBadPayload(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rec, payload := doJSON(t, router, http.MethodPost, "/add", `{"user_id": "tester"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if payload["success"] != false || payload["error"] == "" {
		t.Fatalf("expected an error envelope, got %v", payload)
	}
}

func TestHideEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, false)

	if rec, _ := doJSON(t, router, http.MethodPost, "/add", `{
		"user_id": "tester",
		"annotations": [{"account": "acct-1", "key": "owner", "value": "alice"}]
	}`); rec.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", rec.Code)
	}

	rec, payload := doJSON(t, router, http.MethodGet, "/hide?user_id=tester&batch_num=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}

	rec, payload = doJSON(t, router, http.MethodGet, "/hide?user_id=tester&batch_num=999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown batch, got %d: %v", rec.Code, payload)
	}
	if payload["error"] != "no such batch" {
		t.Fatalf("expected 'no such batch', got %v", payload["error"])
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/hide?batch_num=1", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing user_id, got %d", rec.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, false)

	if rec, _ := doJSON(t, router, http.MethodPost, "/add", `{
		"user_id": "tester",
		"annotations": [
			{"account": "acct-1", "key": "color", "value": "red"},
			{"account": "acct-2", "key": "color", "value": "blue"}
		]
	}`); rec.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", rec.Code)
	}

	rec, payload := doJSON(t, router, http.MethodGet, "/search?query="+url.QueryEscape("color = 'red'"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	if payload["num_matches"].(float64) != 1 {
		t.Fatalf("expected 1 match, got %v", payload)
	}

	rec, payload = doJSON(t, router, http.MethodGet, "/search?totals_only=true&query="+url.QueryEscape("color = 'red'"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	if _, present := payload["accounts"]; present {
		t.Fatalf("expected no account list with totals_only, got %v", payload)
	}

	// totals_only=false is not a request for totals.
	rec, payload = doJSON(t, router, http.MethodGet, "/search?totals_only=false&query="+url.QueryEscape("color = 'red'"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	if _, present := payload["accounts"]; !present {
		t.Fatalf("expected the account list with totals_only=false, got %v", payload)
	}

	rec, payload = doJSON(t, router, http.MethodGet, "/search?query=color+%3D+red", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed query, got %d: %v", rec.Code, payload)
	}

	rec, _ = doJSON(t, router, http.MethodGet, "/search", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a missing query, got %d", rec.Code)
	}
}

func TestSearchDownloadEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, false)

	if rec, _ := doJSON(t, router, http.MethodPost, "/add", `{
		"user_id": "tester",
		"annotations": [{"account": "acct-1", "key": "color", "value": "red"}]
	}`); rec.Code != http.StatusOK {
		t.Fatalf("seed add failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/search/download?query=color+%3D+%27red%27", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("expected text/csv, got %q", got)
	}
	if !strings.Contains(rec.Body.String(), "Matching Accounts,acct-1") {
		t.Fatalf("expected csv rows, got %q", rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	router, clients := newTestRouter(t, true)

	rec, payload := doJSON(t, router, http.MethodGet, "/list", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d: %v", rec.Code, payload)
	}
	if payload["success"] != false {
		t.Fatalf("expected an error envelope, got %v", payload)
	}

	client, err := clients.Register(context.Background(), "tester")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set("X-Auth-Token", client.AuthToken)
	okRec := httptest.NewRecorder()
	router.ServeHTTP(okRec, req)
	if okRec.Code != http.StatusOK {
		t.Fatalf("expected 200 with a valid token, got %d: %s", okRec.Code, okRec.Body.String())
	}

	// Healthcheck stays open.
	healthRec := httptest.NewRecorder()
	router.ServeHTTP(healthRec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if healthRec.Code != http.StatusOK {
		t.Fatalf("expected the healthcheck to stay open, got %d", healthRec.Code)
	}
}

func TestClientEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, false)

	rec, payload := doJSON(t, router, http.MethodPost, "/clients", `{"name": "reporting"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	token, _ := payload["auth_token"].(string)
	if token == "" {
		t.Fatalf("expected the auth token in the registration response, got %v", payload)
	}

	rec, payload = doJSON(t, router, http.MethodPost, "/clients", `{"name": "reporting"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a duplicate, got %d: %v", rec.Code, payload)
	}

	rec, payload = doJSON(t, router, http.MethodGet, "/clients", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", rec.Code, payload)
	}
	names, ok := payload["clients"].([]any)
	if !ok || len(names) != 1 || names[0] != "reporting" {
		t.Fatalf("expected [reporting], got %v", payload)
	}

	rec, _ = doJSON(t, router, http.MethodDelete, "/clients/reporting", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec, _ = doJSON(t, router, http.MethodDelete, "/clients/reporting", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for a deleted client, got %d", rec.Code)
	}
}
