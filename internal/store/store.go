package store

import (
	"time"

	"gamestats/internal/models"
)

// StoreInterface is the durable table access used by the services:
// metadata keyed by appid, per-title history series, the quarantine set
// and the refresh lock record. All methods are safe for concurrent use.
type StoreInterface interface {
	GetMetadata(appid int) (*models.MetadataRow, bool, error)
	// PutMetadata upserts. Concurrent duplicate writes for the same
	// appid are tolerated, last write wins.
	PutMetadata(row *models.MetadataRow) error
	// GetAllMetadata returns every stored row ascending by appid.
	GetAllMetadata() ([]*models.MetadataRow, error)
	GetAllKnownTitles() ([]models.KnownTitle, error)

	GetHistory(appid int) (*models.HistoryRecord, bool, error)
	GetLatestSample(appid int) (models.PlayerCountSample, bool, error)
	GetAllHistory() ([]*models.HistoryRecord, error)
	// ReplaceHistory drops the whole history table and writes the given
	// records as the new snapshot.
	ReplaceHistory(records []*models.HistoryRecord) error

	IsQuarantined(appid int) bool
	Quarantine(appid int) error
	QuarantineSize() int

	// AcquireUpdateLock atomically transitions the lock record from idle
	// to updating, only when idle and the cooldown has elapsed since the
	// last update. Any store failure reads as "not acquired".
	AcquireUpdateLock(cooldown time.Duration) bool
	// ReleaseUpdateLock transitions back to idle and stamps
	// last_update_time, unconditionally.
	ReleaseUpdateLock() error

	Close() error
}
