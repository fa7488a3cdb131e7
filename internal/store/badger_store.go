package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"gamestats/internal/models"
	"gamestats/internal/providers"
	"gamestats/internal/structures"
)

const (
	metaPrefix = "meta/"
	histPrefix = "hist/"
	quarPrefix = "quar/"
	lockPrefix = "lock/"
)

var errLockNotDue = errors.New("lock busy or cooldown not elapsed")

// BadgerStore implements StoreInterface on an embedded BadgerDB.
// Metadata keys are zero-padded so a prefix scan yields ascending appid
// order. The quarantine set is mirrored in memory as a fast-reject gate;
// the on-disk copy is the source of truth across restarts.
type BadgerStore struct {
	db     *badger.DB
	logger providers.Logger

	quarMu      sync.RWMutex
	quarantined map[int]struct{}
}

func metaKey(appid int) []byte { return []byte(fmt.Sprintf("%s%010d", metaPrefix, appid)) }
func histKey(appid int) []byte { return []byte(fmt.Sprintf("%s%010d", histPrefix, appid)) }
func quarKey(appid int) []byte { return []byte(fmt.Sprintf("%s%010d", quarPrefix, appid)) }
func lockKey() []byte          { return []byte(lockPrefix + models.UpdateLockName) }

func NewBadgerStore(conf *structures.Config, logger providers.Logger) (StoreInterface, error) {
	opts := badger.DefaultOptions(conf.Store.Dir).
		WithSyncWrites(conf.Store.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", conf.Store.Dir, err)
	}

	s := &BadgerStore{
		db:          db,
		logger:      logger,
		quarantined: make(map[int]struct{}),
	}
	if err := s.loadQuarantine(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Infof(providers.TypeApp, "Store opened at %s, %d quarantined appids", conf.Store.Dir, s.QuarantineSize())
	return s, nil
}

func (s *BadgerStore) loadQuarantine() error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(quarPrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			appid, err := strconv.Atoi(strings.TrimLeft(strings.TrimPrefix(key, quarPrefix), "0"))
			if err != nil {
				continue
			}
			s.quarantined[appid] = struct{}{}
		}
		return nil
	})
}

func (s *BadgerStore) GetMetadata(appid int) (*models.MetadataRow, bool, error) {
	var row models.MetadataRow
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(appid))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

func (s *BadgerStore) PutMetadata(row *models.MetadataRow) error {
	data, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(metaKey(row.AppID), data)
	})
}

func (s *BadgerStore) GetAllMetadata() ([]*models.MetadataRow, error) {
	var rows []*models.MetadataRow
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(metaPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var row models.MetadataRow
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &row)
			})
			if err != nil {
				return err
			}
			rows = append(rows, &row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *BadgerStore) GetAllKnownTitles() ([]models.KnownTitle, error) {
	rows, err := s.GetAllMetadata()
	if err != nil {
		return nil, err
	}
	titles := make([]models.KnownTitle, 0, len(rows))
	for _, row := range rows {
		titles = append(titles, models.KnownTitle{AppID: row.AppID, Name: row.Name})
	}
	return titles, nil
}

func (s *BadgerStore) GetHistory(appid int) (*models.HistoryRecord, bool, error) {
	var rec models.HistoryRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(histKey(appid))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &rec, true, nil
}

func (s *BadgerStore) GetLatestSample(appid int) (models.PlayerCountSample, bool, error) {
	rec, ok, err := s.GetHistory(appid)
	if err != nil || !ok {
		return models.PlayerCountSample{}, false, err
	}
	sample, ok := rec.Latest()
	return sample, ok, nil
}

func (s *BadgerStore) GetAllHistory() ([]*models.HistoryRecord, error) {
	var records []*models.HistoryRecord
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(histPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var rec models.HistoryRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *BadgerStore) ReplaceHistory(records []*models.HistoryRecord) error {
	if err := s.db.DropPrefix([]byte(histPrefix)); err != nil {
		return fmt.Errorf("truncate history: %w", err)
	}
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		if err := wb.Set(histKey(rec.AppID), data); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *BadgerStore) IsQuarantined(appid int) bool {
	s.quarMu.RLock()
	defer s.quarMu.RUnlock()
	_, ok := s.quarantined[appid]
	return ok
}

func (s *BadgerStore) Quarantine(appid int) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(quarKey(appid), nil)
	})
	if err != nil {
		return err
	}
	s.quarMu.Lock()
	s.quarantined[appid] = struct{}{}
	s.quarMu.Unlock()
	return nil
}

func (s *BadgerStore) QuarantineSize() int {
	s.quarMu.RLock()
	defer s.quarMu.RUnlock()
	return len(s.quarantined)
}

// AcquireUpdateLock is a single conditional transaction. Two concurrent
// acquirers both read the same lock record; badger's conflict detection
// aborts the second commit, so at most one caller observes true.
func (s *BadgerStore) AcquireUpdateLock(cooldown time.Duration) bool {
	err := s.db.Update(func(txn *badger.Txn) error {
		var rec models.LockRecord
		item, err := txn.Get(lockKey())
		if err == nil {
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if rec.IsUpdating || time.Since(rec.LastUpdateTime) <= cooldown {
			return errLockNotDue
		}

		rec.LockName = models.UpdateLockName
		rec.IsUpdating = true
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(lockKey(), data)
	})
	if err != nil {
		if !errors.Is(err, errLockNotDue) && !errors.Is(err, badger.ErrConflict) {
			s.logger.Errorf(providers.TypeApp, "Lock acquire failed: %s", err)
		}
		return false
	}
	return true
}

func (s *BadgerStore) ReleaseUpdateLock() error {
	return s.db.Update(func(txn *badger.Txn) error {
		rec := models.LockRecord{
			LockName:       models.UpdateLockName,
			IsUpdating:     false,
			LastUpdateTime: time.Now(),
		}
		data, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(lockKey(), data)
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
