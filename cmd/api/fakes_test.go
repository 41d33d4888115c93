package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portal/internal/auth"
	"portal/internal/domain/accesscontrol"
	"portal/internal/domain/inventory"
	"portal/internal/domain/locations"
	"portal/internal/domain/reports"
	"portal/internal/domain/schedules"
	"portal/internal/domain/storage"
	"portal/internal/domain/users"
	"portal/internal/health"
	"portal/internal/identity"
	"portal/internal/ratelimiter"
)

type fakeResolver struct {
	ids map[string]identity.Identity
}

func (f *fakeResolver) Resolve(_ context.Context, token string) identity.Identity {
	if id, ok := f.ids[token]; ok {
		return id
	}
	return identity.Anonymous{}
}

type fakeAuth struct {
	mu sync.Mutex

	signIn      func(email, password string) (*auth.TokenResponse, error)
	refresh     func(token string) (*auth.TokenResponse, error)
	verify      func(tokenHash, otpType string) (*auth.TokenResponse, error)
	invite      func(email, redirectTo string) (*auth.GeneratedLink, error)
	signUpErr   error
	recoverErr  error
	passwordErr error

	signInCalls   int
	recoveredFor  string
	loggedOut     string
	passwordToken string
	newPassword   string
}

func (f *fakeAuth) SignInWithPassword(_ context.Context, email, password string) (*auth.TokenResponse, error) {
	f.mu.Lock()
	f.signInCalls++
	f.mu.Unlock()
	return f.signIn(email, password)
}

func (f *fakeAuth) RefreshSession(_ context.Context, refreshToken string) (*auth.TokenResponse, error) {
	if f.refresh == nil {
		return nil, &auth.APIError{Status: http.StatusBadRequest, Message: "invalid refresh token"}
	}
	return f.refresh(refreshToken)
}

func (f *fakeAuth) SignUp(_ context.Context, _, _, _ string) error {
	return f.signUpErr
}

func (f *fakeAuth) Recover(_ context.Context, email, _ string) error {
	f.recoveredFor = email
	return f.recoverErr
}

func (f *fakeAuth) VerifyOTP(_ context.Context, tokenHash, otpType string) (*auth.TokenResponse, error) {
	return f.verify(tokenHash, otpType)
}

func (f *fakeAuth) UpdatePassword(_ context.Context, accessToken, password string) error {
	f.passwordToken, f.newPassword = accessToken, password
	return f.passwordErr
}

func (f *fakeAuth) Logout(_ context.Context, accessToken string) error {
	f.loggedOut = accessToken
	return nil
}

func (f *fakeAuth) GenerateInviteLink(_ context.Context, email, redirectTo string) (*auth.GeneratedLink, error) {
	return f.invite(email, redirectTo)
}

type fakeUsers struct {
	profiles  map[uuid.UUID]*users.Profile
	list      []users.Profile
	listScope accesscontrol.Scope
	upserted  []*users.Profile
	linked    map[uuid.UUID]uuid.UUID
	photo     *string
	upsertErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{profiles: map[uuid.UUID]*users.Profile{}, linked: map[uuid.UUID]uuid.UUID{}}
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*users.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return p, nil
}

func (f *fakeUsers) List(_ context.Context, scope accesscontrol.Scope, _ users.ListFilters, _, _ int) ([]users.Profile, int, error) {
	f.listScope = scope
	return f.list, len(f.list), nil
}

func (f *fakeUsers) Upsert(_ context.Context, p *users.Profile) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, p)
	f.profiles[p.ID] = p
	return nil
}

func (f *fakeUsers) UpdateDetails(_ context.Context, id uuid.UUID, firstName, lastName string, phone *string) error {
	p, ok := f.profiles[id]
	if !ok {
		return users.ErrNotFound
	}
	p.FirstName, p.LastName, p.Phone = firstName, lastName, phone
	return nil
}

func (f *fakeUsers) SetPhoto(_ context.Context, id uuid.UUID, url string) (*string, error) {
	if _, ok := f.profiles[id]; !ok {
		return nil, users.ErrNotFound
	}
	previous := f.photo
	f.photo = &url
	return previous, nil
}

func (f *fakeUsers) AddLocation(_ context.Context, userID, locationID uuid.UUID) error {
	f.linked[userID] = locationID
	return nil
}

type fakeAssignments struct {
	upserted []*accesscontrol.Assignment
}

func (f *fakeAssignments) GetAssignment(_ context.Context, _ uuid.UUID) (*accesscontrol.Assignment, error) {
	return nil, accesscontrol.ErrNotFound
}

func (f *fakeAssignments) Upsert(_ context.Context, a *accesscontrol.Assignment) error {
	f.upserted = append(f.upserted, a)
	return nil
}

// fakeAccounts runs the callback against the fake repos; an error from the
// callback leaves nothing behind in a real transaction, which the fakes do
// not model.
type fakeAccounts struct {
	users *fakeUsers
	roles *fakeAssignments
}

func (f *fakeAccounts) WithAccountTx(_ context.Context, fn func(s *storage.AccountTx) error) error {
	return fn(&storage.AccountTx{Users: f.users, AccessControl: f.roles})
}

type fakeInventory struct {
	items      []inventory.Item
	listScope  accesscontrol.Scope
	adjustedID int64
	delta      int
	adjustErr  error
}

func (f *fakeInventory) List(_ context.Context, scope accesscontrol.Scope, _ inventory.ListFilters, _, _ int) ([]inventory.Item, int, error) {
	f.listScope = scope
	out := make([]inventory.Item, len(f.items))
	copy(out, f.items)
	return out, len(out), nil
}

func (f *fakeInventory) Adjust(_ context.Context, _ accesscontrol.Scope, id int64, delta int) (*inventory.Item, error) {
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	f.adjustedID, f.delta = id, delta
	return &inventory.Item{ID: id, Quantity: 10 + delta}, nil
}

type fakeLocations struct {
	created []*locations.Location
}

func (f *fakeLocations) List(_ context.Context, _, _ int) ([]locations.Location, int, error) {
	return nil, 0, nil
}

func (f *fakeLocations) Create(_ context.Context, l *locations.Location) error {
	l.ID = uuid.New()
	f.created = append(f.created, l)
	return nil
}

func (f *fakeLocations) SetActive(_ context.Context, _ uuid.UUID, _ bool) error {
	return nil
}

func (f *fakeLocations) ListRetailers(_ context.Context) ([]locations.Retailer, error) {
	return nil, nil
}

type fakeSchedules struct {
	shifts []schedules.Shift
}

func (f *fakeSchedules) ListBetween(_ context.Context, _ accesscontrol.Scope, _, _ time.Time) ([]schedules.Shift, error) {
	return f.shifts, nil
}

func (f *fakeSchedules) ListForUser(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]schedules.Shift, error) {
	return nil, nil
}

type fakeReports struct{}

func (fakeReports) GetSummary(_ context.Context, _ accesscontrol.Scope, now time.Time) (*reports.Summary, error) {
	return &reports.Summary{ActiveLocations: 3, LowStockItems: 2, GeneratedAt: now}, nil
}

func (fakeReports) ByLocation(_ context.Context, _ accesscontrol.Scope, _ time.Time) ([]reports.LocationRow, error) {
	return []reports.LocationRow{{Location: "North Clinic", Staff: 4}}, nil
}

type stubHealth struct {
	report health.Report
}

func (s stubHealth) Run(_ context.Context) health.Report {
	return s.report
}

type sentMail struct {
	template string
	email    string
	data     any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(templateFile, _, email string, data any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{template: templateFile, email: email, data: data})
	return 1, nil
}

type fakeMedia struct {
	mu       sync.Mutex
	uploaded int
	deleted  []string
}

func (f *fakeMedia) UploadProfilePhoto(_ context.Context, file io.Reader, userID uuid.UUID) (string, error) {
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded++
	return "https://res.cloudinary.com/demo/image/upload/v2/profile_photos/" + userID.String() + ".png", nil
}

func (f *fakeMedia) Delete(_ context.Context, photoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, photoURL)
	return nil
}

type testEnv struct {
	app       *application
	resolver  *fakeResolver
	auth      *fakeAuth
	users     *fakeUsers
	roles     *fakeAssignments
	inventory *fakeInventory
	locations *fakeLocations
	schedules *fakeSchedules
	mailer    *fakeMailer
	handler   http.Handler
}

var (
	nurseID   = uuid.MustParse("6f1c2a4e-1111-4a55-8b2e-000000000001")
	adminID   = uuid.MustParse("6f1c2a4e-1111-4a55-8b2e-000000000002")
	pendingID = uuid.MustParse("6f1c2a4e-1111-4a55-8b2e-000000000003")
	clinicID  = uuid.MustParse("6f1c2a4e-2222-4a55-8b2e-000000000001")
)

func assigned(id uuid.UUID, role accesscontrol.RoleName) identity.Assigned {
	return identity.Assigned{
		User:       identity.User{ID: id, Email: string(role) + "@portal.test"},
		Assignment: accesscontrol.Assignment{UserID: id, Role: role},
	}
}

// newTestEnv wires an application with fakes. Session tokens are named
// after the identity they resolve to.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	policy, err := accesscontrol.NewPolicy(accesscontrol.RoutePolicy)
	require.NoError(t, err)

	refs, err := inventory.NewRefs("test-salt")
	require.NoError(t, err)

	templates, err := newTemplateCache()
	require.NoError(t, err)

	nurse := assigned(nurseID, accesscontrol.RoleNurse)
	nurse.Assignment.LocationID = &clinicID

	ids := map[string]identity.Identity{
		"nurse":   nurse,
		"admin":   assigned(adminID, accesscontrol.RoleAdmin),
		"pending": identity.Unassigned{User: identity.User{ID: pendingID, Email: "pending@portal.test"}},
	}
	for _, role := range accesscontrol.Roles {
		if _, ok := ids[string(role)]; !ok {
			ids[string(role)] = assigned(uuid.New(), role)
		}
	}

	env := &testEnv{
		resolver:  &fakeResolver{ids: ids},
		auth:      &fakeAuth{},
		users:     newFakeUsers(),
		roles:     &fakeAssignments{},
		inventory: &fakeInventory{},
		locations: &fakeLocations{},
		schedules: &fakeSchedules{},
		mailer:    &fakeMailer{},
	}
	env.users.profiles[nurseID] = &users.Profile{ID: nurseID, Email: "nurse@portal.test", FirstName: "Nia", LastName: "Okafor"}

	store := &storage.Container{
		AccessControl: env.roles,
		Users:         env.users,
		Locations:     env.locations,
		Inventory:     env.inventory,
		Schedules:     env.schedules,
		Reports:       fakeReports{},
	}

	env.app = &application{
		config: config{
			env:     "test",
			version: "test",
			siteURL: "https://portal.test",
			auth:    authConfig{basic: basicConfig{user: "ops", pass: "secret"}},
			rateLimiter: ratelimiter.Config{
				RequestsPerTimeFrame: 1,
				TimeFrame:            time.Minute,
				Enabled:              false,
			},
		},
		logger:    zap.NewNop().Sugar(),
		identity:  env.resolver,
		auth:      env.auth,
		policy:    policy,
		store:     store,
		accounts:  &fakeAccounts{users: env.users, roles: env.roles},
		health:    stubHealth{report: health.Report{Status: health.StatusHealthy}},
		refs:      refs,
		mailer:    env.mailer,
		templates: templates,
	}
	env.handler = env.app.mount()

	return env
}

func (e *testEnv) do(t *testing.T, method, target, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: accessTokenCookie, Value: token})
	}

	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
