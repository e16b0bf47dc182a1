package scheduler

import (
	"github.com/azure/hn-reader/internal/config"
	"github.com/azure/hn-reader/internal/navigation"
	"github.com/azure/hn-reader/internal/translation"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service logs a periodic heartbeat of the reader's caches and navigation state
type Service struct {
	config    *config.Config
	gateway   *translation.Gateway
	navigator *navigation.Navigator
	cron      *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, gateway *translation.Gateway, navigator *navigation.Navigator) *Service {
	return &Service{
		config:    cfg,
		gateway:   gateway,
		navigator: navigator,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Start schedules the heartbeat on the configured cron expression
func (s *Service) Start() error {
	if _, err := s.cron.AddFunc(s.config.StatsSchedule, s.Report); err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %s stats schedule", s.config.StatsSchedule)
	return nil
}

// Report logs one heartbeat
func (s *Service) Report() {
	stats := s.gateway.Stats()
	snap := s.navigator.Snapshot()

	fields := logrus.Fields{
		"provider":     stats.Provider,
		"translations": stats.Cache.Translations,
		"summaries":    stats.Cache.Summaries,
		"requests":     stats.Requests,
		"failures":     stats.Failures,
		"feed":         snap.Feed.Feed,
		"feed_status":  snap.Feed.Status,
		"items":        len(snap.Feed.Items),
		"selection":    snap.Selection,
		"favorites":    len(snap.Favorites),
	}
	if snap.Story != nil {
		fields["story"] = snap.Story.Story.ID
	}
	if snap.Profile != nil {
		fields["user"] = snap.Profile.Handle
	}

	logrus.WithFields(fields).Info("Reader stats")
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
