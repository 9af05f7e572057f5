package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffsync/client"
	"staffsync/config"
	"staffsync/handlers"
	"staffsync/middleware"
	"staffsync/models"
	"staffsync/store"
	"staffsync/timesheet"
)

func TestMain(m *testing.M) {
	middleware.SetJWTSecret("test-secret")
	m.Run()
}

func newTestServerWith(t *testing.T, st store.Store) *httptest.Server {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", JWTExpiration: time.Hour}
	srv := httptest.NewServer(handlers.NewRouter(cfg, st))
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return newTestServerWith(t, st), st
}

// faultStore wraps the in-memory store and fails chosen operations, standing
// in for a database that errors mid-request.
type faultStore struct {
	store.Store
	createCompanyErr  error
	pendingRequestErr error
	companyByIDErr    error
}

func (s *faultStore) CreateCompanyWithOwner(ctx context.Context, c *models.Company, owner *models.User) error {
	if s.createCompanyErr != nil {
		return s.createCompanyErr
	}
	return s.Store.CreateCompanyWithOwner(ctx, c, owner)
}

func (s *faultStore) CreatePendingRequest(ctx context.Context, r *models.JoinRequest) error {
	if s.pendingRequestErr != nil {
		return s.pendingRequestErr
	}
	return s.Store.CreatePendingRequest(ctx, r)
}

func (s *faultStore) CompanyByID(ctx context.Context, id uint) (*models.Company, error) {
	if s.companyByIDErr != nil {
		return nil, s.companyByIDErr
	}
	return s.Store.CompanyByID(ctx, id)
}

func signup(t *testing.T, srv *httptest.Server, name, email string) *client.Client {
	t.Helper()
	c := client.New(srv.URL)
	_, err := c.Signup(context.Background(), name, email, "secret123")
	require.NoError(t, err)
	return c
}

// newOwner signs up a user and makes them the owner of a fresh company.
func newOwner(t *testing.T, srv *httptest.Server, name, email, companyName string, rate float64) (*client.Client, *models.Company) {
	t.Helper()
	c := signup(t, srv, name, email)
	resp, err := c.CreateCompany(context.Background(), companyName, rate)
	require.NoError(t, err)
	return c, resp.Company
}

// newApprovedStaff signs a user up, submits the join code and has the owner
// approve the request.
func newApprovedStaff(t *testing.T, srv *httptest.Server, owner *client.Client, code, name, email string) *client.Client {
	t.Helper()
	ctx := context.Background()

	c := signup(t, srv, name, email)
	_, err := c.JoinCompany(ctx, code)
	require.NoError(t, err)

	pending, err := owner.ListRequests(ctx)
	require.NoError(t, err)
	for _, req := range pending.Requests {
		if req.User != nil && req.User.Email == email {
			require.NoError(t, owner.RespondRequest(ctx, req.ID, "approve"))
			return c
		}
	}
	t.Fatalf("no pending request found for %s", email)
	return nil
}

func TestSignupValidation(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	_, err := c.Signup(ctx, "", "ann@example.com", "secret123")
	assert.Error(t, err)

	_, err = c.Signup(ctx, "Ann", "not-an-email", "secret123")
	assert.Error(t, err)

	_, err = c.Signup(ctx, "Ann", "ann@example.com", "1234")
	assert.Error(t, err)

	_, err = c.Signup(ctx, "Ann", "Ann@Example.com ", "secret123")
	require.NoError(t, err)

	_, err = c.Signup(ctx, "Ann Again", "ann@example.com", "secret123")
	assert.True(t, client.IsConflict(err, "EMAIL_TAKEN"), "got %v", err)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	signup(t, srv, "Ann", "ann@example.com")

	c := client.New(srv.URL)
	_, err := c.Login(ctx, "ann@example.com", "wrong-password")
	assert.Error(t, err)

	resp, err := c.Login(ctx, "ANN@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "Ann", resp.User.Name)
	assert.NotEmpty(t, resp.Token)
	assert.Nil(t, resp.Company)
	assert.Nil(t, resp.JoinRequest)
}

func TestCreateCompany(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)
	assert.NotEmpty(t, company.Code)
	assert.InDelta(t, 10.00, company.HourlyRate, 1e-9)

	// Caller became the owner.
	status, err := owner.ClockStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, status.User.Role)
	require.NotNil(t, status.Company)
	assert.Equal(t, company.ID, status.Company.ID)

	// Codes are unique across companies.
	_, second := newOwner(t, srv, "Pete", "pete@example.com", "Globex", 15.00)
	assert.NotEmpty(t, second.Code)
	assert.NotEqual(t, company.Code, second.Code)

	// An owner cannot create another company.
	_, err = owner.CreateCompany(ctx, "Acme Two", 11.00)
	assert.True(t, client.IsConflict(err, "ALREADY_MEMBER"), "got %v", err)
}

func TestUpdateSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	owner, _ := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)

	resp, err := owner.UpdateSettings(ctx, "Acme Ltd", 12.50)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", resp.Company.Name)
	assert.InDelta(t, 12.50, resp.Company.HourlyRate, 1e-9)

	status, err := owner.ClockStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.Company)
	assert.InDelta(t, 12.50, status.Company.HourlyRate, 1e-9)

	_, err = owner.UpdateSettings(ctx, "", 12.50)
	assert.Error(t, err)
	_, err = owner.UpdateSettings(ctx, "Acme Ltd", -1)
	assert.Error(t, err)
}

func TestJoinApproveFlow(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)

	staff := signup(t, srv, "Ann", "ann@example.com")

	// Approved staff may not clock in before approval.
	_, err := staff.ClockIn(ctx)
	assert.True(t, client.IsConflict(err, "NOT_APPROVED"), "got %v", err)

	join, err := staff.JoinCompany(ctx, company.Code)
	require.NoError(t, err)
	assert.Equal(t, "Acme", join.CompanyName)

	status, err := staff.CheckRequestStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status.Status)

	// One pending request per user.
	_, err = staff.JoinCompany(ctx, company.Code)
	assert.True(t, client.IsConflict(err, "ALREADY_PENDING"), "got %v", err)

	pending, err := owner.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending.Requests, 1)
	require.NotNil(t, pending.Requests[0].User)
	assert.Equal(t, "Ann", pending.Requests[0].User.Name)
	requestID := pending.Requests[0].ID

	require.NoError(t, owner.RespondRequest(ctx, requestID, "approve"))

	// Read-after-write: the request left the pending set, the staff member
	// is visible.
	pending, err = owner.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending.Requests)

	staffList, err := owner.StaffList(ctx)
	require.NoError(t, err)
	require.Len(t, staffList.Staff, 1)
	assert.Equal(t, "Ann", staffList.Staff[0].Name)
	assert.False(t, staffList.Staff[0].ClockedIn)

	status, err = staff.CheckRequestStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, status.Status)

	clockStatus, err := staff.ClockStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, clockStatus.User.Status)
	require.NotNil(t, clockStatus.Company)
	assert.Equal(t, company.ID, clockStatus.Company.ID)

	// Resolve exactly once.
	err = owner.RespondRequest(ctx, requestID, "reject")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestRejectAndResubmit(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)

	staff := signup(t, srv, "Ann", "ann@example.com")
	_, err := staff.JoinCompany(ctx, company.Code)
	require.NoError(t, err)

	pending, err := owner.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending.Requests, 1)
	require.NoError(t, owner.RespondRequest(ctx, pending.Requests[0].ID, "reject"))

	status, err := staff.CheckRequestStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, status.Status)

	_, err = staff.ClockIn(ctx)
	assert.True(t, client.IsConflict(err, "NOT_APPROVED"), "got %v", err)

	// Rejection is terminal for the request, not the user: a fresh code
	// submission re-enters PENDING.
	_, err = staff.JoinCompany(ctx, company.Code)
	require.NoError(t, err)

	status, err = staff.CheckRequestStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, status.Status)
}

func TestJoinInvalidCode(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	staff := signup(t, srv, "Ann", "ann@example.com")

	_, err := staff.JoinCompany(ctx, "ZZZZZZ")
	assert.True(t, client.IsConflict(err, "INVALID_CODE"), "got %v", err)
}

func TestRespondForeignRequestForbidden(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)
	rival, _ := newOwner(t, srv, "Pete", "pete@example.com", "Globex", 15.00)

	staff := signup(t, srv, "Ann", "ann@example.com")
	_, err := staff.JoinCompany(ctx, company.Code)
	require.NoError(t, err)

	// The rival owner cannot see Acme's request...
	pending, err := rival.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending.Requests)

	// ...nor resolve it.
	pending, err = owner.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending.Requests, 1)

	err = rival.RespondRequest(ctx, pending.Requests[0].ID, "approve")
	assert.ErrorIs(t, err, client.ErrForbidden)
}

func TestOwnerEndpointsForbiddenForStaff(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	staff := signup(t, srv, "Ann", "ann@example.com")

	_, err := staff.ListRequests(ctx)
	assert.ErrorIs(t, err, client.ErrForbidden)
	_, err = staff.StaffList(ctx)
	assert.ErrorIs(t, err, client.ErrForbidden)
	_, err = staff.SalaryReport(ctx, "weekly")
	assert.ErrorIs(t, err, client.ErrForbidden)
	_, err = staff.UpdateSettings(ctx, "Acme", 10)
	assert.ErrorIs(t, err, client.ErrForbidden)
	err = staff.RespondRequest(ctx, 1, "approve")
	assert.ErrorIs(t, err, client.ErrForbidden)
}

func TestClockSessionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)
	staff := newApprovedStaff(t, srv, owner, company.Code, "Ann", "ann@example.com")

	err := staff.ClockOut(ctx)
	assert.True(t, client.IsConflict(err, "NOT_CLOCKED_IN"), "got %v", err)

	in, err := staff.ClockIn(ctx)
	require.NoError(t, err)
	require.NotNil(t, in.Entry)
	assert.Nil(t, in.Entry.ClockOut)

	_, err = staff.ClockIn(ctx)
	assert.True(t, client.IsConflict(err, "ALREADY_CLOCKED_IN"), "got %v", err)

	status, err := staff.ClockStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.Active)
	assert.Equal(t, in.Entry.ID, status.Active.ID)
	require.Len(t, status.TodayEntries, 1)

	staffList, err := owner.StaffList(ctx)
	require.NoError(t, err)
	require.Len(t, staffList.Staff, 1)
	assert.True(t, staffList.Staff[0].ClockedIn)

	require.NoError(t, staff.ClockOut(ctx))

	err = staff.ClockOut(ctx)
	assert.True(t, client.IsConflict(err, "NOT_CLOCKED_IN"), "got %v", err)

	status, err = staff.ClockStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, status.Active)
	require.Len(t, status.TodayEntries, 1)
	assert.NotNil(t, status.TodayEntries[0].ClockOut)

	// The cycle may repeat.
	_, err = staff.ClockIn(ctx)
	assert.NoError(t, err)
}

// seedSession writes a closed entry directly into the store at chosen
// timestamps, the way a past workday would have left it.
func seedSession(t *testing.T, st *store.Memory, userID uint, in time.Time, d time.Duration) {
	t.Helper()
	ctx := context.Background()
	_, err := st.OpenClockEntry(ctx, userID, in)
	require.NoError(t, err)
	_, err = st.CloseClockEntry(ctx, userID, in.Add(d))
	require.NoError(t, err)
}

func TestHoursSummary(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)
	staff := newApprovedStaff(t, srv, owner, company.Code, "Ann", "ann@example.com")

	status, err := staff.ClockStatus(ctx)
	require.NoError(t, err)
	staffID := status.User.ID

	day := timesheet.DayStart(time.Now())
	seedSession(t, st, staffID, day.Add(9*time.Hour), 2*time.Hour)
	seedSession(t, st, staffID, day.Add(13*time.Hour), 30*time.Minute)

	hours, err := staff.Hours(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9000000), hours.Today.Ms)
	assert.InDelta(t, 25.00, hours.Today.Earnings, 1e-9)
	assert.InDelta(t, 10.00, hours.HourlyRate, 1e-9)
	assert.GreaterOrEqual(t, hours.Week.Ms, hours.Today.Ms)
	assert.GreaterOrEqual(t, hours.Month.Ms, hours.Today.Ms)
	require.Len(t, hours.History, 2)
	assert.True(t, hours.History[0].ClockIn.After(hours.History[1].ClockIn))

	// A running session is reported live, never in completed buckets.
	_, err = staff.ClockIn(ctx)
	require.NoError(t, err)
	hours, err = staff.Hours(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(9000000), hours.Today.Ms)
}

func TestSalaryReport(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()
	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 12.00)

	alice := newApprovedStaff(t, srv, owner, company.Code, "Alice", "alice@example.com")
	_ = newApprovedStaff(t, srv, owner, company.Code, "bob", "bob@example.com")

	aliceStatus, err := alice.ClockStatus(ctx)
	require.NoError(t, err)
	bobUser, err := st.UserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)

	day := timesheet.DayStart(time.Now())
	// Alice: 09:00–17:30 (8.5h). Bob: two hours.
	seedSession(t, st, aliceStatus.User.ID, day.Add(9*time.Hour), 8*time.Hour+30*time.Minute)
	seedSession(t, st, bobUser.ID, day.Add(10*time.Hour), 2*time.Hour)

	report, err := owner.SalaryReport(ctx, "weekly")
	require.NoError(t, err)
	require.Len(t, report.Report, 2)

	// Ordered by name, case-insensitively.
	assert.Equal(t, "Alice", report.Report[0].Name)
	assert.Equal(t, "bob", report.Report[1].Name)

	assert.Equal(t, int64(30600000), report.Report[0].HoursMs)
	assert.InDelta(t, 102.00, report.Report[0].Earnings, 1e-9)
	assert.Equal(t, int64(7200000), report.Report[1].HoursMs)
	assert.InDelta(t, 24.00, report.Report[1].Earnings, 1e-9)

	assert.InDelta(t, 12.00, report.HourlyRate, 1e-9)
	assert.InDelta(t, 126.00, report.TotalEarnings, 1e-9)

	// Daily and weekly agree while all entries are from today.
	daily, err := owner.SalaryReport(ctx, "daily")
	require.NoError(t, err)
	assert.InDelta(t, report.TotalEarnings, daily.TotalEarnings, 1e-9)

	_, err = owner.SalaryReport(ctx, "yearly")
	assert.Error(t, err)
}

func TestJoinStoreFailureLeavesNoPartialState(t *testing.T) {
	fs := &faultStore{Store: store.NewMemory()}
	srv := newTestServerWith(t, fs)
	ctx := context.Background()

	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)
	staff := signup(t, srv, "Ann", "ann@example.com")

	fs.pendingRequestErr = errors.New("write failed")
	_, err := staff.JoinCompany(ctx, company.Code)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	fs.pendingRequestErr = nil

	// Nothing of the failed join is visible on either side.
	pending, err := owner.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending.Requests)

	status, err := staff.CheckRequestStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusNone, status.Status)

	// The user is free to go the other way and create a company instead,
	// and no stale request is left behind for the owner to approve.
	_, err = staff.CreateCompany(ctx, "AnnCo", 20.00)
	require.NoError(t, err)

	pending, err = owner.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending.Requests)
}

func TestCreateCompanyStoreFailureDoesNotBlockRetry(t *testing.T) {
	fs := &faultStore{Store: store.NewMemory()}
	srv := newTestServerWith(t, fs)
	ctx := context.Background()

	c := signup(t, srv, "Olive", "olive@example.com")

	fs.createCompanyErr = errors.New("write failed")
	_, err := c.CreateCompany(ctx, "Acme", 10.00)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	fs.createCompanyErr = nil

	// The failed attempt stranded nothing: no ownerless company exists and
	// the user kept no role, so the retry succeeds.
	created, err := c.CreateCompany(ctx, "Acme", 10.00)
	require.NoError(t, err)
	assert.NotEmpty(t, created.Company.Code)

	status, err := c.ClockStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, status.User.Role)
	require.NotNil(t, status.Company)
	assert.Equal(t, created.Company.ID, status.Company.ID)
}

func TestHoursSurfacesCompanyLookupError(t *testing.T) {
	fs := &faultStore{Store: store.NewMemory()}
	srv := newTestServerWith(t, fs)
	ctx := context.Background()

	owner, company := newOwner(t, srv, "Olive", "olive@example.com", "Acme", 10.00)
	staff := newApprovedStaff(t, srv, owner, company.Code, "Ann", "ann@example.com")

	// A failing company lookup must not masquerade as a zero hourly rate.
	fs.companyByIDErr = errors.New("read failed")
	_, err := staff.Hours(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	_, err := c.ClockStatus(ctx)
	assert.ErrorIs(t, err, client.ErrAuthExpired)
	_, err = c.ClockIn(ctx)
	assert.ErrorIs(t, err, client.ErrAuthExpired)
}
