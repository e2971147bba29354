package domain

import (
	"time"

	"github.com/google/uuid"
)

// RotationPolicy schedules automatic rotation for a secret name.
// The scheduler rotates the secret when NextRotationAt passes; the previous
// active version stays readable for GracePeriod before being revoked.
type RotationPolicy struct {
	ID             uuid.UUID
	SecretName     string
	Interval       time.Duration
	GracePeriod    time.Duration
	LastRotatedAt  *time.Time
	NextRotationAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Due reports whether the policy should be rotated at the given time.
func (p *RotationPolicy) Due(now time.Time) bool {
	return !p.NextRotationAt.After(now)
}

// Advance records a completed rotation and schedules the next one.
func (p *RotationPolicy) Advance(now time.Time) {
	rotated := now
	p.LastRotatedAt = &rotated
	p.NextRotationAt = now.Add(p.Interval)
	p.UpdatedAt = now
}
