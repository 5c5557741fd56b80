package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/rxtrack/internal/auth"
	"github.com/geocoder89/rxtrack/internal/config"
	"github.com/geocoder89/rxtrack/internal/db"
	"github.com/geocoder89/rxtrack/internal/domain/user"
	apphttp "github.com/geocoder89/rxtrack/internal/http"
	"github.com/geocoder89/rxtrack/internal/observability"
	"github.com/geocoder89/rxtrack/internal/repo/memory"
	"github.com/geocoder89/rxtrack/internal/security"
	"github.com/geocoder89/rxtrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// today for every service in these tests
var fixedNow = time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

func testConfig() config.Config {
	return config.Config{
		Env:                    "test",
		AdminUsername:          "admin",
		AdminPassword:          "admin",
		JWTSecret:              "test-secret-key-that-is-long-enough-32",
		JWTAccessTTLMinutes:    60,
		LoginRateLimit:         100,
		LoginRateWindowSeconds: 60,
		CORSAllowedOrigins:     []string{"http://localhost:5173"},
		MaxBodyBytes:           1 << 20,
	}
}

type testApp struct {
	router http.Handler
	users  *memory.UsersRepo
	tokens *auth.Manager
}

func setupApp(t *testing.T, cfg config.Config) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memory.NewUsersRepo()
	store := memory.NewPrescriptionsRepo()

	if _, err := db.EnsureAdminUser(context.Background(), users, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	clock := func() time.Time { return fixedNow }
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL())

	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := apphttp.NewRouter(logger, apphttp.Deps{
		Config:        cfg,
		Auth:          service.NewAuthService(users, tokens),
		Prescriptions: service.NewPrescriptionService(store, clock),
		Reports:       service.NewReportService(store, clock),
		Prom:          observability.NewProm(reg),
		Gatherer:      reg,
	})

	return &testApp{router: router, users: users, tokens: tokens}
}

func (a *testApp) addUser(t *testing.T, username, password string, enabled bool) user.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	u := user.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Enabled:      enabled,
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
	if err := a.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (a *testApp) do(method, path, body, token string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, r)
	if method == http.MethodPost || method == http.MethodPut {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) login(t *testing.T, username, password string) string {
	t.Helper()

	w := a.do(http.MethodPost, "/api/auth/login", `{"username":"`+username+`","password":"`+password+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: got %d, body=%s", username, w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	mustReadJSON(t, w, &resp)
	return resp.Token
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	err := json.Unmarshal(w.Body.Bytes(), out)
	if err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details struct {
		Fields []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"fields"`
	} `json:"details"`
}

type prescriptionBody struct {
	ID               string  `json:"id"`
	PrescriptionDate string  `json:"prescriptionDate"`
	PatientName      string  `json:"patientName"`
	PatientAge       int     `json:"patientAge"`
	PatientGender    string  `json:"patientGender"`
	Diagnosis        string  `json:"diagnosis"`
	Medicines        string  `json:"medicines"`
	NextVisitDate    *string `json:"nextVisitDate"`
}

func draftJSON(date string, age int, nextVisit string) string {
	next := "null"
	if nextVisit != "" {
		next = `"` + nextVisit + `"`
	}
	b, _ := json.Marshal(map[string]any{
		"prescriptionDate": date,
		"patientName":      "Jane Doe",
		"patientAge":       age,
		"patientGender":    "FEMALE",
		"diagnosis":        "Seasonal flu",
		"medicines":        "Paracetamol 500mg",
		"nextVisitDate":    json.RawMessage(next),
	})
	return string(b)
}
