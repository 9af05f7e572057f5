// Package store defines the persistence boundary for users, companies,
// join requests and clock entries. The mutating transition methods
// (OpenClockEntry, CloseClockEntry, CreateCompanyWithOwner,
// CreatePendingRequest, ResolveRequest) are the serialization points for
// the state-machine invariants: each implementation must make them atomic,
// so a failure mid-transition never leaves a partial write visible.
package store

import (
	"context"
	"errors"
	"time"

	"staffsync/models"
)

var (
	ErrNotFound       = errors.New("store: record not found")
	ErrDuplicate      = errors.New("store: duplicate record")
	ErrOpenEntry      = errors.New("store: open clock entry exists")
	ErrNoOpenEntry    = errors.New("store: no open clock entry")
	ErrPendingRequest = errors.New("store: pending join request exists")
)

type Store interface {
	// Users. CreateUser fails with ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	SaveUser(ctx context.Context, u *models.User) error

	// Companies. CreateCompanyWithOwner creates the company and promotes
	// the owning user (role, company binding) in the same transaction; it
	// fails with ErrDuplicate when the join code collides, in which case
	// callers regenerate the code and retry.
	CreateCompanyWithOwner(ctx context.Context, c *models.Company, owner *models.User) error
	CompanyByID(ctx context.Context, id uint) (*models.Company, error)
	CompanyByCode(ctx context.Context, code string) (*models.Company, error)
	CompanyByOwner(ctx context.Context, ownerID uint) (*models.Company, error)
	SaveCompany(ctx context.Context, c *models.Company) error

	// ApprovedStaff lists the company's approved staff members.
	ApprovedStaff(ctx context.Context, companyID uint) ([]models.User, error)

	// Join requests. CreatePendingRequest enforces at most one pending
	// request per user and marks the requesting user's membership PENDING
	// (staff role, no company binding) in the same transaction.
	// ResolveRequest transitions a PENDING request to
	// APPROVED or REJECTED and updates the requesting user's membership in
	// the same transaction; a request that is absent or already resolved
	// yields ErrNotFound.
	CreatePendingRequest(ctx context.Context, r *models.JoinRequest) error
	JoinRequestByID(ctx context.Context, id uint) (*models.JoinRequest, error)
	PendingRequestsByCompany(ctx context.Context, companyID uint) ([]models.JoinRequest, error)
	LatestRequestByUser(ctx context.Context, userID uint) (*models.JoinRequest, error)
	ResolveRequest(ctx context.Context, id uint, approve bool) (*models.JoinRequest, error)

	// Clock entries. OpenClockEntry enforces at most one open entry per
	// user (ErrOpenEntry); CloseClockEntry fails with ErrNoOpenEntry when
	// the user is not clocked in. ActiveEntry returns (nil, nil) when no
	// session is open.
	OpenClockEntry(ctx context.Context, userID uint, at time.Time) (*models.ClockEntry, error)
	CloseClockEntry(ctx context.Context, userID uint, at time.Time) (*models.ClockEntry, error)
	ActiveEntry(ctx context.Context, userID uint) (*models.ClockEntry, error)

	// EntriesBetween returns entries (open included) clocked in within
	// [from, to), oldest first. ClosedEntries returns recent closed
	// entries, newest first.
	EntriesBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.ClockEntry, error)
	ClosedEntries(ctx context.Context, userID uint, limit int) ([]models.ClockEntry, error)
}
