package client

import (
	"context"
	"errors"

	"staffsync/models"
)

// EntryPoint is the screen a restored session should land on.
type EntryPoint string

const (
	EntryLogin          EntryPoint = "login"
	EntryChooseRole     EntryPoint = "choose-role"
	EntryOwnerDashboard EntryPoint = "owner-dashboard"
	EntryStaffDashboard EntryPoint = "staff-dashboard"
	EntryWaiting        EntryPoint = "waiting"
	EntryRejected       EntryPoint = "rejected"
)

// Decide maps the authoritative role and membership status to an entry
// point. It covers every combination: owners always land on the owner
// dashboard (an owner with a membership status is impossible, the status is
// ignored defensively), and a user with no role yet picks one.
func Decide(role models.Role, status models.MembershipStatus) EntryPoint {
	switch role {
	case models.RoleOwner:
		return EntryOwnerDashboard
	case models.RoleStaff:
		switch status {
		case models.StatusApproved:
			return EntryStaffDashboard
		case models.StatusRejected:
			return EntryRejected
		case models.StatusPending:
			return EntryWaiting
		default:
			return EntryChooseRole
		}
	default:
		return EntryChooseRole
	}
}

// RestoredSession is the outcome of session restoration: the entry point
// plus the authoritative snapshot that produced it.
type RestoredSession struct {
	Entry        EntryPoint
	User         *models.User
	Company      *models.Company
	Active       *models.ClockEntry
	TodayEntries []models.ClockEntry
}

// Restore reconciles the cached session against the server. A missing or
// unreadable cache routes to login. A cached credential is validated with
// one clock-status call: rejection discards the cache (the only local
// invalidation path), success overwrites the cached snapshots and routes by
// the returned role and status. Transport failures change nothing locally;
// the caller decides whether to retry.
func Restore(ctx context.Context, c *Client, cache *Cache) (*RestoredSession, error) {
	session, err := cache.Load()
	if err != nil {
		_ = cache.Clear()
		return &RestoredSession{Entry: EntryLogin}, nil
	}
	if session == nil || session.Token == "" {
		return &RestoredSession{Entry: EntryLogin}, nil
	}

	c.SetToken(session.Token)
	status, err := c.ClockStatus(ctx)
	if errors.Is(err, ErrAuthExpired) {
		c.SetToken("")
		if clearErr := cache.Clear(); clearErr != nil {
			return nil, clearErr
		}
		return &RestoredSession{Entry: EntryLogin}, nil
	}
	if err != nil {
		return nil, err
	}

	_ = cache.Save(&Session{
		Token:   session.Token,
		User:    status.User,
		Company: status.Company,
	})

	return &RestoredSession{
		Entry:        Decide(status.User.Role, status.User.Status),
		User:         status.User,
		Company:      status.Company,
		Active:       status.Active,
		TodayEntries: status.TodayEntries,
	}, nil
}
