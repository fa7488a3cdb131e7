package models

import "time"

// UpdateLockName is the single logical lock record guarding the
// history refresh job.
const UpdateLockName = "players_update"

// LockRecord is the refresh lock state. IsUpdating is true for at most
// one holder system-wide.
type LockRecord struct {
	LockName       string    `json:"lock_name"`
	IsUpdating     bool      `json:"is_updating"`
	LastUpdateTime time.Time `json:"last_update_time"`
}
