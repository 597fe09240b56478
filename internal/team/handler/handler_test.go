package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"cheerconnect/internal/platform/middleware"
	"cheerconnect/internal/team/models"
	"cheerconnect/internal/team/service"
	"cheerconnect/internal/team/store"
	id "cheerconnect/pkg/domain"
)

// stubValidator maps bearer tokens directly to user IDs.
type stubValidator struct {
	users map[string]id.UserID
}

func (v *stubValidator) ValidateToken(_ context.Context, token string) (*middleware.SessionClaims, error) {
	userID, ok := v.users[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &middleware.SessionClaims{UserID: userID, SessionID: "sess-" + token}, nil
}

type fixture struct {
	router    chi.Router
	store     *store.InMemory
	validator *stubValidator
	team      models.Team
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := store.NewInMemory()
	svc := service.New(st, service.NewLockedTx(st), nil, nil)
	validator := &stubValidator{users: map[string]id.UserID{}}

	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	router := chi.NewRouter()
	New(svc, logger, nil, validator).Register(router)

	team := models.Team{ID: id.NewTeamID(), Slug: "tumble-cats", Name: "Tumble Cats"}
	if err := st.CreateTeam(context.Background(), team); err != nil {
		t.Fatalf("seed team: %v", err)
	}

	return &fixture{router: router, store: st, validator: validator, team: team}
}

func (f *fixture) addUser(token string) id.UserID {
	userID := id.NewUserID()
	f.validator.users[token] = userID
	return userID
}

func (f *fixture) addInvite(t *testing.T, userID id.UserID, mutate ...func(*models.Invite)) models.Invite {
	t.Helper()
	inv := models.Invite{
		ID:        id.NewInviteID(),
		TeamID:    f.team.ID,
		UserID:    userID,
		Status:    models.InviteStatusPending,
		Role:      models.RoleMember,
		CreatedAt: time.Now(),
	}
	for _, m := range mutate {
		m(&inv)
	}
	if err := f.store.CreateInvite(context.Background(), inv); err != nil {
		t.Fatalf("seed invite: %v", err)
	}
	return inv
}

func TestAcceptInviteRequiresAuth(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvite(t, f.addUser("target-token"))

	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.ID.String()+"/accept", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestAcceptInviteReturnsTeamSummary(t *testing.T) {
	f := newFixture(t)
	target := f.addUser("target-token")
	inv := f.addInvite(t, target, func(i *models.Invite) { i.Role = models.RoleCoach })

	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.ID.String()+"/accept", nil)
	req.Header.Set("Authorization", "Bearer target-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 accepting invite, got %d: %s", rec.Code, rec.Body.String())
	}

	var team struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&team); err != nil {
		t.Fatalf("decode team summary: %v", err)
	}
	if team.Slug != "tumble-cats" || team.Name != "Tumble Cats" {
		t.Fatalf("unexpected team summary: %+v", team)
	}
}

func TestAcceptInviteWrongCallerIs403(t *testing.T) {
	f := newFixture(t)
	inv := f.addInvite(t, f.addUser("target-token"))
	f.addUser("intruder-token")

	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.ID.String()+"/accept", nil)
	req.Header.Set("Authorization", "Bearer intruder-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-target caller, got %d", rec.Code)
	}
}

func TestAcceptInviteStatusMapping(t *testing.T) {
	f := newFixture(t)
	target := f.addUser("target-token")

	t.Run("unknown invite is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/invites/"+id.NewInviteID().String()+"/accept", nil)
		req.Header.Set("Authorization", "Bearer target-token")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed invite id is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/invites/not-a-uuid/accept", nil)
		req.Header.Set("Authorization", "Bearer target-token")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("already-accepted invite is 409", func(t *testing.T) {
		inv := f.addInvite(t, target, func(i *models.Invite) { i.Status = models.InviteStatusAccepted })
		req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.ID.String()+"/accept", nil)
		req.Header.Set("Authorization", "Bearer target-token")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("expired invite is 410", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		inv := f.addInvite(t, target, func(i *models.Invite) { i.ExpiresAt = &past })
		req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.ID.String()+"/accept", nil)
		req.Header.Set("Authorization", "Bearer target-token")
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusGone {
			t.Fatalf("expected 410, got %d", rec.Code)
		}
	})
}

func TestRejectInvite(t *testing.T) {
	f := newFixture(t)
	target := f.addUser("target-token")
	inv := f.addInvite(t, target)

	req := httptest.NewRequest(http.MethodPost, "/invites/"+inv.ID.String()+"/reject", nil)
	req.Header.Set("Authorization", "Bearer target-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 rejecting invite, got %d", rec.Code)
	}
}

func TestListMembersAnonymous(t *testing.T) {
	f := newFixture(t)
	member := id.NewUserID()
	if err := f.store.PutMembership(context.Background(), models.Membership{
		UserID: member, TeamID: f.team.ID, Role: models.RoleMember,
		IsActive: true, JoinedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/teams/tumble-cats/members", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing members anonymously, got %d", rec.Code)
	}

	var list struct {
		Members             []json.RawMessage `json:"members"`
		CallerIsAdmin       bool              `json:"caller_is_admin"`
		CallerHasPermission bool              `json:"caller_has_permission"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode member list: %v", err)
	}
	if len(list.Members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(list.Members))
	}
	if list.CallerIsAdmin || list.CallerHasPermission {
		t.Fatalf("anonymous caller must get false flags")
	}
}

func TestListMembersDerivesCallerFlags(t *testing.T) {
	f := newFixture(t)
	admin := f.addUser("admin-token")
	if err := f.store.PutMembership(context.Background(), models.Membership{
		UserID: admin, TeamID: f.team.ID, Role: models.RoleAdmin,
		IsAdmin: true, IsActive: true, JoinedAt: time.Now(),
	}); err != nil {
		t.Fatalf("seed membership: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/teams/tumble-cats/members", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var list struct {
		CallerIsAdmin bool `json:"caller_is_admin"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode member list: %v", err)
	}
	if !list.CallerIsAdmin {
		t.Fatalf("expected caller_is_admin true for admin caller")
	}
}

func TestListMembersUnknownTeamIs404(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/teams/nobody-home/members", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown team, got %d", rec.Code)
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
