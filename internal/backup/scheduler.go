package backup

import (
	"context"
	"sync"

	"github.com/roylee0704/gron"

	"gamestats/internal/backup/interfaces"
	"gamestats/internal/providers"
	"gamestats/internal/services"
	"gamestats/internal/structures"
)

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	refresh     services.RefreshServiceInterface
	fileManager *FileManager
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		s.opsMu.Lock()
		defer s.opsMu.Unlock()

		err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
			return
		}
		s.logger.Infof(providers.TypeApp, "Persisted data to file %s", s.config.Persistence.FilePath)
	})

	// Refresh attempts are cheap when not due: the lock record turns
	// them away before any network call.
	s.cron.AddFunc(gron.Every(s.config.Refresh.Interval), func() {
		status, err := s.refresh.TriggerRefresh(context.Background())
		if err != nil {
			s.logger.Errorf(providers.TypeApp, "Scheduled refresh failed: %s", err)
			return
		}
		s.logger.Infof(providers.TypeApp, "Scheduled refresh: %s", status)
	})

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

func (s *Scheduler) Persist() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	s.logger.Infof(providers.TypeApp, "Persisting snapshot to file...")
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, refresh services.RefreshServiceInterface, fileManager *FileManager) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		refresh:     refresh,
		fileManager: fileManager,
	}
}
