package integration_test

import (
	"net/http"
	"strings"
	"testing"
)

func TestAuthIntegration_LoginAndMe(t *testing.T) {
	app := setupApp(t, testConfig())

	token := app.login(t, "admin", "admin")
	if strings.Count(token, ".") != 2 {
		t.Fatalf("token does not look like a JWT: %q", token)
	}

	w := app.do(http.MethodGet, "/api/auth/me", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("me got %d, body=%s", w.Code, w.Body.String())
	}

	var me struct {
		Username string `json:"username"`
	}
	mustReadJSON(t, w, &me)
	if me.Username != "admin" {
		t.Fatalf("me username = %q", me.Username)
	}
}

func TestAuthIntegration_LoginResponseShape(t *testing.T) {
	app := setupApp(t, testConfig())

	w := app.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"admin"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login got %d", w.Code)
	}

	var resp map[string]any
	mustReadJSON(t, w, &resp)

	if resp["message"] != "Login successful" || resp["username"] != "admin" || resp["tokenType"] != "Bearer" {
		t.Fatalf("unexpected login body: %v", resp)
	}
}

func TestAuthIntegration_LoginFailures(t *testing.T) {
	app := setupApp(t, testConfig())
	app.addUser(t, "disabled", "pw-disabled", false)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"wrong password", `{"username":"admin","password":"nope"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"unknown user", `{"username":"ghost","password":"admin"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"disabled user", `{"username":"disabled","password":"pw-disabled"}`, http.StatusUnauthorized, "Invalid username or password"},
		{"missing password", `{"username":"admin"}`, http.StatusBadRequest, "Username and password are required"},
		{"missing username", `{"password":"admin"}`, http.StatusBadRequest, "Username and password are required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := app.do(http.MethodPost, "/api/auth/login", tc.body, "")
			if w.Code != tc.wantStatus {
				t.Fatalf("got %d, want %d, body=%s", w.Code, tc.wantStatus, w.Body.String())
			}

			var body errorBody
			mustReadJSON(t, w, &body)
			if body.Error != tc.wantError {
				t.Fatalf("error = %q, want %q", body.Error, tc.wantError)
			}
		})
	}
}

func TestAuthIntegration_ProtectedRoutesRejectBadTokens(t *testing.T) {
	app := setupApp(t, testConfig())
	carol := app.addUser(t, "carol", "pw-carol", true)

	token := app.login(t, "carol", "pw-carol")

	// disabling the account invalidates tokens already handed out
	disabled := carol
	disabled.Enabled = false
	other := setupApp(t, testConfig())
	if err := other.users.Create(t.Context(), disabled); err != nil {
		t.Fatalf("create: %v", err)
	}
	staleToken, _, err := other.tokens.GenerateAccessToken(disabled.ID, disabled.Username)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name  string
		app   *testApp
		token string
		want  int
	}{
		{"no token", app, "", http.StatusUnauthorized},
		{"garbage", app, "abc.def.ghi", http.StatusUnauthorized},
		{"valid", app, token, http.StatusOK},
		{"disabled account", other, staleToken, http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, path := range []string{"/api/auth/me", "/api/v1/prescription", "/api/v1/report/day-wise"} {
				w := tc.app.do(http.MethodGet, path, "", tc.token)
				if w.Code != tc.want {
					t.Fatalf("%s: got %d, want %d, body=%s", path, w.Code, tc.want, w.Body.String())
				}
			}
		})
	}
}

func TestAuthIntegration_LoginRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.LoginRateLimit = 2
	app := setupApp(t, cfg)

	for i := 0; i < 2; i++ {
		if w := app.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`, ""); w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: got %d", i, w.Code)
		}
	}

	w := app.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"admin"}`, "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("got %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
}
