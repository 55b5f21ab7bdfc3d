package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired   = errors.New("user: id is required")
	ErrInvalidRole  = errors.New("user: invalid role")
	ErrNotFound     = errors.New("user: not found")
	ErrNotMember    = errors.New("user: membership is not active")
	ErrInvalidTerm  = errors.New("user: membership term must end in the future")
)

type ID string

type Role string

const (
	RoleTraveller Role = "traveller"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// FreeCancellationsPerMonth is the monthly no-fee cancellation allowance
// for active members.
const FreeCancellationsPerMonth = 2

// User holds the identity facts the money engine consumes: role,
// membership, and the monthly free-cancellation counter. Authentication
// itself happens upstream; this aggregate only trusts what the identity
// collaborator supplied at registration time.
type User struct {
	ID                    ID
	Email                 string
	Name                  string
	Role                  Role
	IsMember              bool
	MembershipExpiresAt   time.Time
	FreeCancellationsUsed int
	QuotaMonth            string
	CreatedAt             time.Time
	UpdatedAt             time.Time
	Version               int64
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID        ID
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

func NewUser(params CreateParams) (*User, error) {
	id := strings.TrimSpace(string(params.ID))
	if id == "" {
		return nil, ErrIDRequired
	}
	role, err := normalizeRole(params.Role)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:        ID(id),
		Email:     strings.ToLower(strings.TrimSpace(params.Email)),
		Name:      strings.TrimSpace(params.Name),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MembershipActive reports whether the member flag is backed by an
// unexpired term. An expired flag alone never counts.
func (u *User) MembershipActive(now time.Time) bool {
	return u.IsMember && u.MembershipExpiresAt.After(now.UTC())
}

// ActivateMembership sets the flag and expiry together so the flag can
// never outlive its term silently.
func (u *User) ActivateMembership(expiresAt, now time.Time) error {
	if !expiresAt.After(now) {
		return ErrInvalidTerm
	}
	u.IsMember = true
	u.MembershipExpiresAt = expiresAt.UTC()
	u.touch(now)
	return nil
}

// FreeCancellationsRemaining returns the unused part of this month's
// quota, rolling the counter when the calendar month changed.
func (u *User) FreeCancellationsRemaining(now time.Time) int {
	u.rollQuota(now)
	remaining := FreeCancellationsPerMonth - u.FreeCancellationsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ConsumeFreeCancellation burns one quota slot for the current month.
func (u *User) ConsumeFreeCancellation(now time.Time) bool {
	u.rollQuota(now)
	if u.FreeCancellationsUsed >= FreeCancellationsPerMonth {
		return false
	}
	u.FreeCancellationsUsed++
	u.touch(now)
	return true
}

func (u *User) rollQuota(now time.Time) {
	key := quotaMonthKey(now)
	if u.QuotaMonth != key {
		u.QuotaMonth = key
		u.FreeCancellationsUsed = 0
	}
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func quotaMonthKey(now time.Time) string {
	return now.UTC().Format("2006-01")
}

func normalizeRole(role Role) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(string(role)))) {
	case RoleTraveller, "":
		return RoleTraveller, nil
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}
