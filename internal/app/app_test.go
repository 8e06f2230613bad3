package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"healthinsure/internal/config"
	"healthinsure/internal/domain"
	"healthinsure/internal/modules/auth"
	"healthinsure/internal/repository"
	"healthinsure/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(mode string) *config.Config {
	return &config.Config{
		AppEnv:      "test",
		HTTPAddr:    ":0",
		DatabaseURL: ":memory:",
		JWTSecret:   "test-secret-value",
		JWTTTL:      time.Hour,
		LogLevel:    "warn",
		Dispatch: config.DispatchConfig{
			Mode:         mode,
			RedisKey:     "test:notifications",
			PollInterval: 10 * time.Millisecond,
			BatchSize:    10,
			MaxAttempts:  3,
		},
		Policy:       config.PolicyConfig{ExpiryInterval: time.Hour},
		Notification: config.NotificationConfig{RetentionDays: 30},
	}
}

type harness struct {
	t        *testing.T
	handler  http.Handler
	db       *gorm.DB
	hospital int64
	plan     int64
}

func newHarness(t *testing.T, mode string) *harness {
	t.Helper()
	db := testutil.NewDB(t)

	a, err := New(testConfig(mode), db, testutil.Logger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	wait := a.Start(ctx)
	t.Cleanup(func() {
		cancel()
		wait()
	})

	h := &harness{t: t, handler: a.Handler(), db: db}
	h.seed()
	return h
}

func (h *harness) seed() {
	ctx := context.Background()
	hospital := &domain.Hospital{Name: "Riverside General", City: "Almaty", IsNetwork: true}
	require.NoError(h.t, repository.NewHospitalRepository(h.db).Create(ctx, hospital))
	plan := &domain.InsurancePlan{Name: "Silver", CoverageLimit: 5000, PremiumAmount: 300, DurationMonths: 12, IsActive: true}
	require.NoError(h.t, repository.NewPlanRepository(h.db).Create(ctx, plan))
	h.hospital, h.plan = hospital.ID, plan.ID

	hash, err := auth.HashPassword("password123")
	require.NoError(h.t, err)
	users := repository.NewUserRepository(h.db)
	for _, u := range []*domain.User{
		{Email: "staff@example.com", Name: "Staff", Role: domain.RoleHospitalStaff, HospitalID: &hospital.ID},
		{Email: "officer@example.com", Name: "Officer", Role: domain.RoleClaimsOfficer},
	} {
		u.PasswordHash = hash
		u.IsActive = true
		require.NoError(h.t, users.Create(ctx, u))
	}
}

func (h *harness) call(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func (h *harness) login(email string) string {
	h.t.Helper()
	code, body := h.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "password123"})
	require.Equal(h.t, http.StatusOK, code, body)
	return data(body)["access_token"].(string)
}

func data(body map[string]any) map[string]any {
	return body["data"].(map[string]any)
}

func id(obj any) int64 {
	return int64(obj.(map[string]any)["id"].(float64))
}

func (h *harness) notificationTypes(token string) []string {
	_, body := h.call(http.MethodGet, "/api/v1/notifications?limit=100", token, nil)
	var kinds []string
	for _, n := range data(body)["notifications"].([]any) {
		kinds = append(kinds, n.(map[string]any)["type"].(string))
	}
	return kinds
}

func TestClaimLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t, config.DispatchMemory)

	code, body := h.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Aida", "email": "aida@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, code, body)

	holder := h.login("aida@example.com")
	staff := h.login("staff@example.com")
	officer := h.login("officer@example.com")

	code, body = h.call(http.MethodPost, "/api/v1/policies", holder, gin.H{"plan_id": h.plan})
	require.Equal(t, http.StatusCreated, code, body)
	policyID := id(data(body)["policy"])

	code, body = h.call(http.MethodPost, "/api/v1/claims", holder, gin.H{
		"policy_id": policyID, "hospital_id": h.hospital, "claim_amount": 1200, "description": "MRI scan",
	})
	require.Equal(t, http.StatusCreated, code, body)
	claim := data(body)["claim"].(map[string]any)
	claimID := id(claim)
	assert.Equal(t, "submitted", claim["status"])

	code, body = h.call(http.MethodPost, fmt.Sprintf("/api/v1/claims/%d/review", claimID), officer, gin.H{
		"decision": "approved", "approved_amount": 1000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code, body)

	code, body = h.call(http.MethodPost, fmt.Sprintf("/api/v1/claims/%d/medical-notes", claimID), staff, gin.H{
		"medical_notes": "Scan confirms ligament tear",
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "in_review", data(body)["claim"].(map[string]any)["status"])

	code, body = h.call(http.MethodPost, fmt.Sprintf("/api/v1/claims/%d/review", claimID), officer, gin.H{
		"decision": "approved", "approved_amount": 1000,
	})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "approved", data(body)["claim"].(map[string]any)["status"])

	code, body = h.call(http.MethodPost, fmt.Sprintf("/api/v1/claims/%d/pay", claimID), holder, nil)
	assert.Equal(t, http.StatusForbidden, code, body)

	code, body = h.call(http.MethodPost, fmt.Sprintf("/api/v1/claims/%d/pay", claimID), officer, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "paid", data(body)["claim"].(map[string]any)["status"])

	code, body = h.call(http.MethodGet, fmt.Sprintf("/api/v1/policies/%d", policyID), holder, nil)
	require.Equal(t, http.StatusOK, code, body)
	assert.EqualValues(t, 4000, data(body)["policy"].(map[string]any)["remaining_coverage"])

	require.Eventually(t, func() bool {
		return len(h.notificationTypes(holder)) == 4
	}, 2*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t,
		[]string{"policy.issued", "claim.submitted", "claim.approved", "claim.paid"},
		h.notificationTypes(holder))

	code, body = h.call(http.MethodPatch, "/api/v1/notifications/read-all", holder, nil)
	require.Equal(t, http.StatusOK, code, body)
	_, body = h.call(http.MethodGet, "/api/v1/notifications/unread-count", holder, nil)
	assert.EqualValues(t, 0, data(body)["unread_count"])
}

func TestOutboxModeDeliversAfterCommit(t *testing.T) {
	h := newHarness(t, config.DispatchOutbox)

	code, _ := h.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Marat", "email": "marat@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, code)
	holder := h.login("marat@example.com")

	code, body := h.call(http.MethodPost, "/api/v1/policies", holder, gin.H{"plan_id": h.plan})
	require.Equal(t, http.StatusCreated, code, body)

	require.Eventually(t, func() bool {
		kinds := h.notificationTypes(holder)
		return len(kinds) == 1 && kinds[0] == "policy.issued"
	}, 2*time.Second, 20*time.Millisecond)

	var pending int64
	require.NoError(t, h.db.Model(&domain.NotificationOutbox{}).Count(&pending).Error)
	assert.Zero(t, pending)
}

func TestAuthAndHealth(t *testing.T) {
	h := newHarness(t, config.DispatchMemory)

	code, body := h.call(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", data(body)["status"])
	assert.Equal(t, "memory", data(body)["dispatch"])

	code, _ = h.call(http.MethodGet, "/api/v1/claims", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = h.call(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "officer@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_CREDENTIALS", body["error"].(map[string]any)["code"])

	code, _ = h.call(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Dup", "email": "officer@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, code)

	officer := h.login("officer@example.com")
	code, body = h.call(http.MethodGet, "/api/v1/users/me", officer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "claims_officer", data(body)["user"].(map[string]any)["role"])

	code, _ = h.call(http.MethodPost, "/api/v1/claims", officer, gin.H{
		"policy_id": 1, "hospital_id": h.hospital, "claim_amount": 10,
	})
	assert.Equal(t, http.StatusForbidden, code)
}
