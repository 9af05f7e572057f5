package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"staffsync/models"
)

// Memory is an in-process Store used by tests. A single mutex serializes
// every operation, which trivially satisfies the atomicity the interface
// demands of transition methods.
type Memory struct {
	mu        sync.Mutex
	users     map[uint]*models.User
	companies map[uint]*models.Company
	requests  map[uint]*models.JoinRequest
	entries   map[uint]*models.ClockEntry
	nextID    uint
}

func NewMemory() *Memory {
	return &Memory{
		users:     make(map[uint]*models.User),
		companies: make(map[uint]*models.Company),
		requests:  make(map[uint]*models.JoinRequest),
		entries:   make(map[uint]*models.ClockEntry),
		nextID:    1,
	}
}

func (s *Memory) allocID() uint {
	id := s.nextID
	s.nextID++
	return id
}

func copyUser(u *models.User) *models.User {
	out := *u
	if u.CompanyID != nil {
		id := *u.CompanyID
		out.CompanyID = &id
	}
	return &out
}

func copyCompany(c *models.Company) *models.Company {
	out := *c
	return &out
}

func copyRequest(r *models.JoinRequest) *models.JoinRequest {
	out := *r
	out.User = nil
	out.Company = nil
	return &out
}

func copyEntry(e *models.ClockEntry) *models.ClockEntry {
	out := *e
	if e.ClockOut != nil {
		t := *e.ClockOut
		out.ClockOut = &t
	}
	return &out
}

func (s *Memory) CreateUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicate
		}
	}
	u.ID = s.allocID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *Memory) UserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (s *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) SaveUser(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

// CreateCompany inserts a company without touching any user; tests use it
// to seed fixtures.
func (s *Memory) CreateCompany(ctx context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCompany(c)
}

func (s *Memory) insertCompany(c *models.Company) error {
	for _, existing := range s.companies {
		if existing.Code == c.Code {
			return ErrDuplicate
		}
	}
	c.ID = s.allocID()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.companies[c.ID] = copyCompany(c)
	return nil
}

func (s *Memory) CreateCompanyWithOwner(ctx context.Context, c *models.Company, owner *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.users[owner.ID]
	if !ok {
		return ErrNotFound
	}
	if err := s.insertCompany(c); err != nil {
		return err
	}
	storedID := c.ID
	stored.Role = models.RoleOwner
	stored.CompanyID = &storedID
	ownerID := c.ID
	owner.Role = models.RoleOwner
	owner.CompanyID = &ownerID
	return nil
}

func (s *Memory) CompanyByID(ctx context.Context, id uint) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyCompany(c), nil
}

func (s *Memory) CompanyByCode(ctx context.Context, code string) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Code == code {
			return copyCompany(c), nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) CompanyByOwner(ctx context.Context, ownerID uint) (*models.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.OwnerID == ownerID {
			return copyCompany(c), nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) SaveCompany(ctx context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[c.ID]; !ok {
		return ErrNotFound
	}
	s.companies[c.ID] = copyCompany(c)
	return nil
}

func (s *Memory) ApprovedStaff(ctx context.Context, companyID uint) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.Role == models.RoleStaff && u.Status == models.StatusApproved &&
			u.CompanyID != nil && *u.CompanyID == companyID {
			out = append(out, *copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Memory) CreatePendingRequest(ctx context.Context, r *models.JoinRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[r.UserID]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range s.requests {
		if existing.UserID == r.UserID && existing.Status == models.StatusPending {
			return ErrPendingRequest
		}
	}
	r.ID = s.allocID()
	r.Status = models.StatusPending
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.requests[r.ID] = copyRequest(r)
	user.Role = models.RoleStaff
	user.Status = models.StatusPending
	user.CompanyID = nil
	return nil
}

func (s *Memory) JoinRequestByID(ctx context.Context, id uint) (*models.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyRequest(r)
	if u, ok := s.users[r.UserID]; ok {
		out.User = copyUser(u)
	}
	return out, nil
}

func (s *Memory) PendingRequestsByCompany(ctx context.Context, companyID uint) ([]models.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.JoinRequest
	for _, r := range s.requests {
		if r.CompanyID != companyID || r.Status != models.StatusPending {
			continue
		}
		req := *copyRequest(r)
		if u, ok := s.users[r.UserID]; ok {
			req.User = copyUser(u)
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Memory) LatestRequestByUser(ctx context.Context, userID uint) (*models.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.JoinRequest
	for _, r := range s.requests {
		if r.UserID != userID {
			continue
		}
		if latest == nil || r.ID > latest.ID {
			latest = r
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return copyRequest(latest), nil
}

func (s *Memory) ResolveRequest(ctx context.Context, id uint, approve bool) (*models.JoinRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.Status != models.StatusPending {
		return nil, ErrNotFound
	}
	user, ok := s.users[r.UserID]
	if !ok {
		return nil, ErrNotFound
	}
	if approve {
		r.Status = models.StatusApproved
		user.Status = models.StatusApproved
		companyID := r.CompanyID
		user.CompanyID = &companyID
	} else {
		r.Status = models.StatusRejected
		user.Status = models.StatusRejected
		user.CompanyID = nil
	}
	return copyRequest(r), nil
}

func (s *Memory) OpenClockEntry(ctx context.Context, userID uint, at time.Time) (*models.ClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.UserID == userID && e.ClockOut == nil {
			return nil, ErrOpenEntry
		}
	}
	entry := &models.ClockEntry{UserID: userID, ClockIn: at}
	entry.ID = s.allocID()
	s.entries[entry.ID] = copyEntry(entry)
	return entry, nil
}

func (s *Memory) CloseClockEntry(ctx context.Context, userID uint, at time.Time) (*models.ClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.UserID == userID && e.ClockOut == nil {
			t := at
			e.ClockOut = &t
			return copyEntry(e), nil
		}
	}
	return nil, ErrNoOpenEntry
}

func (s *Memory) ActiveEntry(ctx context.Context, userID uint) (*models.ClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.UserID == userID && e.ClockOut == nil {
			return copyEntry(e), nil
		}
	}
	return nil, nil
}

func (s *Memory) EntriesBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.ClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ClockEntry
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		if e.ClockIn.Before(from) || !e.ClockIn.Before(to) {
			continue
		}
		out = append(out, *copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClockIn.Equal(out[j].ClockIn) {
			return out[i].ID < out[j].ID
		}
		return out[i].ClockIn.Before(out[j].ClockIn)
	})
	return out, nil
}

func (s *Memory) ClosedEntries(ctx context.Context, userID uint, limit int) ([]models.ClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ClockEntry
	for _, e := range s.entries {
		if e.UserID == userID && e.ClockOut != nil {
			out = append(out, *copyEntry(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ClockIn.Equal(out[j].ClockIn) {
			return out[i].ID > out[j].ID
		}
		return out[i].ClockIn.After(out[j].ClockIn)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
