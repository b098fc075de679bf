package services

import (
	"context"
	"fmt"
	"time"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
	"lifeline/pkg/cache"
	"lifeline/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ResponderService interface {
	// Registration and lookups
	Register(ctx context.Context, request *models.RegisterResponderRequest) (*models.Responder, error)
	GetResponder(ctx context.Context, id primitive.ObjectID) (*models.Responder, error)
	ListResponders(ctx context.Context, params *utils.PaginationParams) ([]*models.Responder, int64, error)

	// Duty and profile
	SetDuty(ctx context.Context, id primitive.ObjectID, onDuty bool) error
	SetVehicle(ctx context.Context, id primitive.ObjectID, vehicleType models.VehicleType) error
	UpsertShift(ctx context.Context, id primitive.ObjectID, window models.ShiftWindow) error

	// UpdateLocation records a GPS ping. Pings are idempotent; while an
	// assignment is active the ping also refreshes its distance and ETA.
	UpdateLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64) error
}

type responderService struct {
	responderRepo  interfaces.ResponderRepository
	assignmentRepo interfaces.AssignmentRepository
	emergencyRepo  interfaces.EmergencyRepository
	cache          *cache.RedisCache
	logger         *logger.Logger
}

func NewResponderService(
	responderRepo interfaces.ResponderRepository,
	assignmentRepo interfaces.AssignmentRepository,
	emergencyRepo interfaces.EmergencyRepository,
	redisCache *cache.RedisCache,
	log *logger.Logger,
) ResponderService {
	return &responderService{
		responderRepo:  responderRepo,
		assignmentRepo: assignmentRepo,
		emergencyRepo:  emergencyRepo,
		cache:          redisCache,
		logger:         log,
	}
}

func (s *responderService) Register(ctx context.Context, request *models.RegisterResponderRequest) (*models.Responder, error) {
	vehicleType := request.VehicleType
	if vehicleType == "" {
		vehicleType = models.VehicleTypeBike
	}
	if !models.ValidVehicleType(vehicleType) {
		return nil, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidState, vehicleType)
	}

	responder := &models.Responder{
		Name:        request.Name,
		Phone:       request.Phone,
		Status:      models.ResponderStatusOffline,
		VehicleType: vehicleType,
		MaxRangeKM:  request.MaxRangeKM,
	}

	if err := s.responderRepo.Create(ctx, responder); err != nil {
		return nil, fmt.Errorf("failed to register responder: %w", err)
	}

	s.logger.LogResponderAction(responder.ID, "registered", map[string]interface{}{
		"vehicle_type": vehicleType,
	})

	return responder, nil
}

func (s *responderService) GetResponder(ctx context.Context, id primitive.ObjectID) (*models.Responder, error) {
	responder, err := s.responderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: responder %s", ErrNotFound, id.Hex())
	}
	return responder, nil
}

func (s *responderService) ListResponders(ctx context.Context, params *utils.PaginationParams) ([]*models.Responder, int64, error) {
	return s.responderRepo.List(ctx, params)
}

func (s *responderService) SetDuty(ctx context.Context, id primitive.ObjectID, onDuty bool) error {
	if _, err := s.GetResponder(ctx, id); err != nil {
		return err
	}

	if !onDuty {
		assignment, err := s.assignmentRepo.GetActiveByResponder(ctx, id)
		if err != nil {
			return err
		}
		if assignment != nil {
			return fmt.Errorf("%w: responder has an active assignment", ErrInvalidState)
		}
	}

	if err := s.responderRepo.SetDuty(ctx, id, onDuty); err != nil {
		return err
	}

	s.logger.LogResponderAction(id, "duty_changed", map[string]interface{}{
		"on_duty": onDuty,
	})

	return nil
}

func (s *responderService) SetVehicle(ctx context.Context, id primitive.ObjectID, vehicleType models.VehicleType) error {
	if !models.ValidVehicleType(vehicleType) {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidState, vehicleType)
	}

	if _, err := s.GetResponder(ctx, id); err != nil {
		return err
	}

	return s.responderRepo.Update(ctx, id, map[string]interface{}{
		"vehicle_type": vehicleType,
	})
}

func (s *responderService) UpsertShift(ctx context.Context, id primitive.ObjectID, window models.ShiftWindow) error {
	if window.DayOfWeek < 0 || window.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week must be 0-6", ErrInvalidState)
	}
	if _, err := time.Parse("15:04", window.ShiftStart); err != nil {
		return fmt.Errorf("%w: shift_start must be HH:MM", ErrInvalidState)
	}
	if _, err := time.Parse("15:04", window.ShiftEnd); err != nil {
		return fmt.Errorf("%w: shift_end must be HH:MM", ErrInvalidState)
	}
	if window.ShiftEnd <= window.ShiftStart {
		return fmt.Errorf("%w: shift_end must be after shift_start", ErrInvalidState)
	}

	if _, err := s.GetResponder(ctx, id); err != nil {
		return err
	}

	return s.responderRepo.UpsertShift(ctx, id, window)
}

func (s *responderService) UpdateLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64) error {
	if !utils.IsValidCoordinates(lat, lng) {
		return fmt.Errorf("%w: invalid coordinates", ErrInvalidState)
	}

	responder, err := s.GetResponder(ctx, id)
	if err != nil {
		return err
	}

	location := models.NewLocation(lat, lng)
	if err := s.responderRepo.UpdateLocation(ctx, id, &location); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.GeoAdd(ctx, utils.CacheResponderGeoKey, &redis.GeoLocation{
			Name:      id.Hex(),
			Latitude:  lat,
			Longitude: lng,
		}); err != nil {
			s.logger.WithError(err).WithResponderID(id).Warn("Failed to update responder geo index")
		}
	}

	// Opportunistic ETA refresh while en route.
	assignment, err := s.assignmentRepo.GetActiveByResponder(ctx, id)
	if err != nil || assignment == nil {
		return nil
	}

	emergency, err := s.emergencyRepo.GetByID(ctx, assignment.EmergencyID)
	if err != nil {
		return nil
	}

	distance := utils.CalculateDistance(
		emergency.PatientLocation.Latitude(), emergency.PatientLocation.Longitude(),
		lat, lng,
	)
	eta := EstimateResponderETA(responder, distance, emergency.Priority, time.Now())

	if err := s.assignmentRepo.UpdateProgress(ctx, assignment.ID, distance, eta); err != nil {
		s.logger.WithError(err).WithResponderID(id).Warn("Failed to refresh assignment progress")
	}

	return nil
}
