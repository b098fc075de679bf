package events

import (
	"context"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/utils"
	"lifeline/pkg/cache"
	"lifeline/pkg/logger"
	"lifeline/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	EventBroadcastCreated    = "broadcast_created"
	EventAssignmentLocked    = "assignment_locked"
	EventBroadcastRejected   = "broadcast_rejected"
	EventEmergencyReassigned = "emergency_reassigned"
	EventEmergencyCompleted  = "emergency_completed"
	EventEmergencyExpired    = "emergency_expired"
	EventSLAWarning          = "sla_warning"
)

// Publisher fans dispatch events out to responder sockets and to the
// redis channels other services subscribe to. Publishing is best effort;
// a down broker never fails the dispatch write path.
type Publisher struct {
	cache     *cache.RedisCache
	wsHandler *websocket.Handler
	logger    *logger.Logger
}

func NewPublisher(cache *cache.RedisCache, wsHandler *websocket.Handler, log *logger.Logger) *Publisher {
	return &Publisher{
		cache:     cache,
		wsHandler: wsHandler,
		logger:    log,
	}
}

// NotifyBroadcast alerts each offered responder about a new emergency.
func (p *Publisher) NotifyBroadcast(ctx context.Context, emergency *models.Emergency, broadcasts []*models.Broadcast) {
	for _, broadcast := range broadcasts {
		payload := map[string]interface{}{
			"emergency_id":   emergency.ID.Hex(),
			"emergency_type": emergency.Type,
			"priority":       emergency.Priority,
			"distance_km":    broadcast.DistanceKM,
			"eta_minutes":    broadcast.ETAMinutes,
			"round":          broadcast.Round,
			"sla_deadline":   emergency.SLADeadline.UTC(),
		}

		p.toResponder(ctx, broadcast.ResponderID, EventBroadcastCreated, payload)
	}

	p.toEmergency(ctx, emergency.ID, EventBroadcastCreated, map[string]interface{}{
		"offer_count": len(broadcasts),
		"radius_km":   emergency.LastRadiusKM,
	})
}

// NotifyAssignmentLocked tells the winner and everyone watching that the
// emergency is taken, and tells the losers their offer expired.
func (p *Publisher) NotifyAssignmentLocked(ctx context.Context, emergency *models.Emergency, assignment *models.Assignment, losers []primitive.ObjectID) {
	payload := map[string]interface{}{
		"emergency_id": emergency.ID.Hex(),
		"responder_id": assignment.ResponderID.Hex(),
		"eta_minutes":  assignment.ETAMinutes,
	}

	p.toResponder(ctx, assignment.ResponderID, EventAssignmentLocked, payload)
	p.toEmergency(ctx, emergency.ID, EventAssignmentLocked, payload)

	for _, loserID := range losers {
		p.toResponder(ctx, loserID, EventEmergencyExpired, map[string]interface{}{
			"emergency_id": emergency.ID.Hex(),
			"reason":       "accepted_by_another_responder",
		})
	}
}

func (p *Publisher) NotifyReassigned(ctx context.Context, emergency *models.Emergency, reason models.ReassignmentReason, newOfferCount int) {
	p.toEmergency(ctx, emergency.ID, EventEmergencyReassigned, map[string]interface{}{
		"emergency_id":    emergency.ID.Hex(),
		"reason":          reason,
		"new_offer_count": newOfferCount,
	})
}

func (p *Publisher) NotifyCompleted(ctx context.Context, emergency *models.Emergency, withinSLA bool) {
	p.toEmergency(ctx, emergency.ID, EventEmergencyCompleted, map[string]interface{}{
		"emergency_id": emergency.ID.Hex(),
		"within_sla":   withinSLA,
		"completed_at": time.Now().UTC(),
	})
}

func (p *Publisher) NotifyExpired(ctx context.Context, emergency *models.Emergency) {
	p.toEmergency(ctx, emergency.ID, EventEmergencyExpired, map[string]interface{}{
		"emergency_id": emergency.ID.Hex(),
	})
}

func (p *Publisher) NotifySLAWarning(ctx context.Context, emergency *models.Emergency, urgency models.SLAUrgency, remainingMinutes int) {
	p.toEmergency(ctx, emergency.ID, EventSLAWarning, map[string]interface{}{
		"emergency_id":      emergency.ID.Hex(),
		"urgency":           urgency,
		"remaining_minutes": remainingMinutes,
	})
}

func (p *Publisher) toResponder(ctx context.Context, responderID primitive.ObjectID, eventType string, payload map[string]interface{}) {
	if p.wsHandler != nil {
		p.wsHandler.SendDispatchAlert(responderID, eventType, payload)
	}

	if p.cache != nil {
		channel := utils.ChannelResponderPrefix + responderID.Hex()
		if err := p.cache.Publish(ctx, channel, map[string]interface{}{
			"type": eventType,
			"data": payload,
		}); err != nil && p.logger != nil {
			p.logger.WithError(err).WithResponderID(responderID).Warn("Failed to publish responder event")
		}
	}
}

func (p *Publisher) toEmergency(ctx context.Context, emergencyID primitive.ObjectID, eventType string, payload map[string]interface{}) {
	if p.wsHandler != nil {
		p.wsHandler.SendEmergencyUpdate(emergencyID, eventType, payload)
	}

	if p.cache != nil {
		channel := utils.ChannelEmergencyPrefix + emergencyID.Hex()
		if err := p.cache.Publish(ctx, channel, map[string]interface{}{
			"type": eventType,
			"data": payload,
		}); err != nil && p.logger != nil {
			p.logger.WithError(err).WithEmergencyID(emergencyID).Warn("Failed to publish emergency event")
		}
	}
}
