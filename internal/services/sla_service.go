package services

import (
	"context"
	"fmt"
	"time"

	"lifeline/internal/config"
	"lifeline/internal/events"
	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SLAService interface {
	// CheckStatus returns the live countdown for one emergency.
	CheckStatus(ctx context.Context, emergencyID primitive.ObjectID) (*models.SLAStatus, error)

	// GetTimeline returns the append-only event history, oldest first.
	GetTimeline(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.SLAEvent, error)

	// GetOverdue lists live emergencies past their deadline.
	GetOverdue(ctx context.Context) ([]*models.Emergency, error)

	// ExpireOverdue closes unanswered emergencies past their deadline and
	// flags breached ones that are still being worked. Returns the number
	// of emergencies expired.
	ExpireOverdue(ctx context.Context) (int, error)

	// StartMonitor runs ExpireOverdue on a fixed interval until the
	// context is cancelled.
	StartMonitor(ctx context.Context)
}

type slaService struct {
	emergencyRepo interfaces.EmergencyRepository
	broadcastRepo interfaces.BroadcastRepository
	slaEventRepo  interfaces.SLAEventRepository
	publisher     *events.Publisher
	config        *config.DispatchConfig
	logger        *logger.Logger
}

func NewSLAService(
	config *config.DispatchConfig,
	emergencyRepo interfaces.EmergencyRepository,
	broadcastRepo interfaces.BroadcastRepository,
	slaEventRepo interfaces.SLAEventRepository,
	publisher *events.Publisher,
	log *logger.Logger,
) SLAService {
	return &slaService{
		emergencyRepo: emergencyRepo,
		broadcastRepo: broadcastRepo,
		slaEventRepo:  slaEventRepo,
		publisher:     publisher,
		config:        config,
		logger:        log,
	}
}

func (s *slaService) CheckStatus(ctx context.Context, emergencyID primitive.ObjectID) (*models.SLAStatus, error) {
	emergency, err := s.emergencyRepo.GetByID(ctx, emergencyID)
	if err != nil {
		return nil, fmt.Errorf("%w: emergency %s", ErrNotFound, emergencyID.Hex())
	}

	now := time.Now()
	remaining := emergency.SLADeadline.Sub(now)

	status := &models.SLAStatus{
		EmergencyID: emergency.ID,
		Priority:    emergency.Priority,
		SLADeadline: emergency.SLADeadline,
		Status:      emergency.Status,
	}

	status.Urgency = urgencyFor(remaining)
	if status.Urgency == models.SLAUrgencyBreached {
		status.IsBreached = true
		status.RemainingMinutes = 0
		return status, nil
	}

	status.RemainingMinutes = int(remaining.Minutes())

	return status, nil
}

func (s *slaService) GetTimeline(ctx context.Context, emergencyID primitive.ObjectID) ([]*models.SLAEvent, error) {
	return s.slaEventRepo.GetByEmergency(ctx, emergencyID)
}

func (s *slaService) GetOverdue(ctx context.Context) ([]*models.Emergency, error) {
	return s.emergencyRepo.GetOverdue(ctx, time.Now())
}

func (s *slaService) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.emergencyRepo.GetOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, emergency := range overdue {
		if emergency.IsOpen() {
			if err := s.expireEmergency(ctx, emergency); err != nil {
				s.logger.WithError(err).WithEmergencyID(emergency.ID).Error("Failed to expire emergency")
				continue
			}
			expired++
			continue
		}

		// Accepted or in progress past the deadline: the rescue continues,
		// but watchers get the breach signal.
		s.publisher.NotifySLAWarning(ctx, emergency, models.SLAUrgencyBreached, 0)
	}

	return expired, nil
}

func (s *slaService) StartMonitor(ctx context.Context) {
	interval := s.config.SLACheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Infof("SLA monitor started, interval %s", interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SLA monitor stopped")
			return
		case <-ticker.C:
			if count, err := s.ExpireOverdue(ctx); err != nil {
				s.logger.WithError(err).Error("SLA sweep failed")
			} else if count > 0 {
				s.logger.Infof("SLA sweep expired %d emergencies", count)
			}
		}
	}
}

// expireEmergency closes one unanswered emergency: offers expire first,
// then the status flips, so a dispatching emergency never outlives its
// offers.
func (s *slaService) expireEmergency(ctx context.Context, emergency *models.Emergency) error {
	if err := s.broadcastRepo.ExpirePending(ctx, emergency.ID); err != nil {
		return err
	}

	if err := s.emergencyRepo.UpdateStatus(ctx, emergency.ID, models.EmergencyStatusExpired); err != nil {
		return err
	}

	event := &models.SLAEvent{
		EmergencyID: emergency.ID,
		EventType:   models.SLAEventExpired,
		Details: map[string]interface{}{
			"sla_deadline":   emergency.SLADeadline.UTC(),
			"last_radius_km": emergency.LastRadiusKM,
		},
	}
	if err := s.slaEventRepo.Append(ctx, event); err != nil {
		s.logger.WithError(err).WithEmergencyID(emergency.ID).Error("Failed to append expiry event")
	}

	s.logger.LogSLAEvent(emergency.ID, string(models.SLAEventExpired), emergency.SLADeadline, true)
	s.publisher.NotifyExpired(ctx, emergency)

	return nil
}

// urgencyFor grades how close the clock is to the deadline: under a
// minute is critical, under two is a warning. The deadline instant
// itself still counts as in time, matching the completion check.
func urgencyFor(remaining time.Duration) models.SLAUrgency {
	switch {
	case remaining < 0:
		return models.SLAUrgencyBreached
	case remaining <= time.Minute:
		return models.SLAUrgencyCritical
	case remaining <= 2*time.Minute:
		return models.SLAUrgencyWarning
	default:
		return models.SLAUrgencyNormal
	}
}
