package models

import "time"

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// SLA response windows per priority.
const (
	SLACriticalMinutes = 3
	SLAHighMinutes     = 5
	SLAMediumMinutes   = 10
	SLALowMinutes      = 15
)

var emergencyTypePriority = map[EmergencyType]Priority{
	EmergencyTypeHeartAttack:         PriorityCritical,
	EmergencyTypeStroke:              PriorityCritical,
	EmergencyTypeCardiacArrest:       PriorityCritical,
	EmergencyTypeSevereTrauma:        PriorityCritical,
	EmergencyTypeAccident:            PriorityHigh,
	EmergencyTypeSevereBleeding:      PriorityHigh,
	EmergencyTypeFracture:            PriorityHigh,
	EmergencyTypeBreathingDifficulty: PriorityHigh,
	EmergencyTypeMinorInjury:         PriorityMedium,
	EmergencyTypeFall:                PriorityMedium,
	EmergencyTypeGeneral:             PriorityMedium,
	EmergencyTypeNonUrgent:           PriorityLow,
	EmergencyTypeAssistance:          PriorityLow,
}

// ClassifyEmergencyType maps an emergency type to its dispatch priority.
// Unknown types classify as medium rather than failing.
func ClassifyEmergencyType(emergencyType EmergencyType) Priority {
	if priority, ok := emergencyTypePriority[emergencyType]; ok {
		return priority
	}
	return PriorityMedium
}

// SLAMinutes returns the response window for a priority in minutes.
func (p Priority) SLAMinutes() int {
	switch p {
	case PriorityCritical:
		return SLACriticalMinutes
	case PriorityHigh:
		return SLAHighMinutes
	case PriorityLow:
		return SLALowMinutes
	default:
		return SLAMediumMinutes
	}
}

// SLAWindow returns the response window as a duration.
func (p Priority) SLAWindow() time.Duration {
	return time.Duration(p.SLAMinutes()) * time.Minute
}
