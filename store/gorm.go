package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"staffsync/models"
)

// Gorm is the postgres-backed Store. Transition methods run inside
// transactions with row locks so the per-user and per-request invariants
// hold under concurrent requests.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}

func (s *Gorm) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", u.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		return translate(tx.Create(u).Error)
	})
}

func (s *Gorm) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Gorm) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Gorm) SaveUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Save(u).Error)
}

func (s *Gorm) CreateCompanyWithOwner(ctx context.Context, c *models.Company, owner *models.User) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := translate(tx.Create(c).Error); err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", owner.ID).
			Updates(map[string]interface{}{"role": models.RoleOwner, "company_id": c.ID}).Error
	})
	if err != nil {
		return err
	}
	companyID := c.ID
	owner.Role = models.RoleOwner
	owner.CompanyID = &companyID
	return nil
}

func (s *Gorm) CompanyByID(ctx context.Context, id uint) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Gorm) CompanyByCode(ctx context.Context, code string) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Gorm) CompanyByOwner(ctx context.Context, ownerID uint) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *Gorm) SaveCompany(ctx context.Context, c *models.Company) error {
	return translate(s.db.WithContext(ctx).Save(c).Error)
}

func (s *Gorm) ApprovedStaff(ctx context.Context, companyID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND role = ? AND status = ?", companyID, models.RoleStaff, models.StatusApproved).
		Order("id asc").
		Find(&users).Error
	return users, err
}

func (s *Gorm) CreatePendingRequest(ctx context.Context, r *models.JoinRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.JoinRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND status = ?", r.UserID, models.StatusPending).
			First(&existing).Error
		if err == nil {
			return ErrPendingRequest
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		r.Status = models.StatusPending
		if err := tx.Create(r).Error; err != nil {
			return err
		}
		// The membership transition commits with the request or not at all.
		return tx.Model(&models.User{}).Where("id = ?", r.UserID).
			Updates(map[string]interface{}{"role": models.RoleStaff, "status": models.StatusPending, "company_id": nil}).Error
	})
}

func (s *Gorm) JoinRequestByID(ctx context.Context, id uint) (*models.JoinRequest, error) {
	var r models.JoinRequest
	if err := s.db.WithContext(ctx).Preload("User").First(&r, id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Gorm) PendingRequestsByCompany(ctx context.Context, companyID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := s.db.WithContext(ctx).Preload("User").
		Where("company_id = ? AND status = ?", companyID, models.StatusPending).
		Order("created_at asc, id asc").
		Find(&requests).Error
	return requests, err
}

func (s *Gorm) LatestRequestByUser(ctx context.Context, userID uint) (*models.JoinRequest, error) {
	var r models.JoinRequest
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		First(&r).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Gorm) ResolveRequest(ctx context.Context, id uint, approve bool) (*models.JoinRequest, error) {
	var r models.JoinRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&r, id).Error; err != nil {
			return translate(err)
		}
		if !r.IsPending() {
			// Resolved exactly once; a second attempt sees no pending request.
			return ErrNotFound
		}

		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, r.UserID).Error; err != nil {
			return translate(err)
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

		if err := tx.Save(&r).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).
			Updates(map[string]interface{}{"status": user.Status, "company_id": user.CompanyID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Gorm) OpenClockEntry(ctx context.Context, userID uint, at time.Time) (*models.ClockEntry, error) {
	entry := &models.ClockEntry{UserID: userID, ClockIn: at}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open models.ClockEntry
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND clock_out IS NULL", userID).
			First(&open).Error
		if err == nil {
			return ErrOpenEntry
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(entry).Error
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Gorm) CloseClockEntry(ctx context.Context, userID uint, at time.Time) (*models.ClockEntry, error) {
	var open models.ClockEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND clock_out IS NULL", userID).
			First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoOpenEntry
		}
		if err != nil {
			return err
		}
		open.ClockOut = &at
		return tx.Save(&open).Error
	})
	if err != nil {
		return nil, err
	}
	return &open, nil
}

func (s *Gorm) ActiveEntry(ctx context.Context, userID uint) (*models.ClockEntry, error) {
	var open models.ClockEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND clock_out IS NULL", userID).
		First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &open, nil
}

func (s *Gorm) EntriesBetween(ctx context.Context, userID uint, from, to time.Time) ([]models.ClockEntry, error) {
	var entries []models.ClockEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND clock_in >= ? AND clock_in < ?", userID, from, to).
		Order("clock_in asc, id asc").
		Find(&entries).Error
	return entries, err
}

func (s *Gorm) ClosedEntries(ctx context.Context, userID uint, limit int) ([]models.ClockEntry, error) {
	var entries []models.ClockEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND clock_out IS NOT NULL", userID).
		Order("clock_in desc, id desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
