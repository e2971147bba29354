package domain

import (
	"time"
)

// Lease is a coarse database lease used to ensure a single scheduler instance
// runs rotations at a time. A lease is held by one holder until it expires or
// is released; competing instances retry on the next tick.
type Lease struct {
	Name      string
	Holder    string
	ExpiresAt time.Time
}

// Lease names used by the vault background workers.
const (
	RotationLeaseName = "vault-rotation"
	SweepLeaseName    = "vault-sweep"
)
