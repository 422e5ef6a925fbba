package events

const (
	EventTypeAnalysisCompleted = "inspection.analysis_completed"
	EventTypeAnalysisFailed    = "inspection.analysis_failed"
	EventTypeHazardAdded       = "hazard.added"
	EventTypeHazardOverridden  = "hazard.overridden"
	EventTypeInspectionDeleted = "inspection.deleted"
	EventTypeInspectionsSwept  = "inspection.swept"
)

type AnalysisCompletedEvent struct {
	BaseEvent
	InspectionID     int64    `json:"inspection_id"`
	UserID           int64    `json:"user_id"`
	OverallRiskLevel string   `json:"overall_risk_level"`
	HazardLevels     []string `json:"hazard_levels"`
	DurationSeconds  float64  `json:"duration_seconds"`
}

func NewAnalysisCompletedEvent(inspectionID, userID int64, overall string, hazardLevels []string, durationSeconds float64) *AnalysisCompletedEvent {
	return &AnalysisCompletedEvent{
		BaseEvent: NewBaseEvent(EventTypeAnalysisCompleted, map[string]interface{}{
			"inspection_id":      inspectionID,
			"user_id":            userID,
			"overall_risk_level": overall,
			"hazard_count":       len(hazardLevels),
		}),
		InspectionID:     inspectionID,
		UserID:           userID,
		OverallRiskLevel: overall,
		HazardLevels:     hazardLevels,
		DurationSeconds:  durationSeconds,
	}
}

type AnalysisFailedEvent struct {
	BaseEvent
	InspectionID    int64   `json:"inspection_id"`
	UserID          int64   `json:"user_id"`
	Stage           string  `json:"stage"`
	Reason          string  `json:"reason"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func NewAnalysisFailedEvent(inspectionID, userID int64, stage, reason string, durationSeconds float64) *AnalysisFailedEvent {
	return &AnalysisFailedEvent{
		BaseEvent: NewBaseEvent(EventTypeAnalysisFailed, map[string]interface{}{
			"inspection_id": inspectionID,
			"user_id":       userID,
			"stage":         stage,
			"reason":        reason,
		}),
		InspectionID:    inspectionID,
		UserID:          userID,
		Stage:           stage,
		Reason:          reason,
		DurationSeconds: durationSeconds,
	}
}

type HazardChangedEvent struct {
	BaseEvent
	InspectionID     int64  `json:"inspection_id"`
	HazardID         int64  `json:"hazard_id"`
	PreviousLevel    string `json:"previous_level,omitempty"`
	RiskLevel        string `json:"risk_level"`
	OverallRiskLevel string `json:"overall_risk_level"`
}

func NewHazardAddedEvent(inspectionID, hazardID int64, level, overall string) *HazardChangedEvent {
	return newHazardChangedEvent(EventTypeHazardAdded, inspectionID, hazardID, "", level, overall)
}

func NewHazardOverriddenEvent(inspectionID, hazardID int64, previous, level, overall string) *HazardChangedEvent {
	return newHazardChangedEvent(EventTypeHazardOverridden, inspectionID, hazardID, previous, level, overall)
}

func newHazardChangedEvent(eventType string, inspectionID, hazardID int64, previous, level, overall string) *HazardChangedEvent {
	return &HazardChangedEvent{
		BaseEvent: NewBaseEvent(eventType, map[string]interface{}{
			"inspection_id":      inspectionID,
			"hazard_id":          hazardID,
			"previous_level":     previous,
			"risk_level":         level,
			"overall_risk_level": overall,
		}),
		InspectionID:     inspectionID,
		HazardID:         hazardID,
		PreviousLevel:    previous,
		RiskLevel:        level,
		OverallRiskLevel: overall,
	}
}

type InspectionDeletedEvent struct {
	BaseEvent
	InspectionID int64 `json:"inspection_id"`
	UserID       int64 `json:"user_id"`
}

func NewInspectionDeletedEvent(inspectionID, userID int64) *InspectionDeletedEvent {
	return &InspectionDeletedEvent{
		BaseEvent: NewBaseEvent(EventTypeInspectionDeleted, map[string]interface{}{
			"inspection_id": inspectionID,
			"user_id":       userID,
		}),
		InspectionID: inspectionID,
		UserID:       userID,
	}
}

type InspectionsSweptEvent struct {
	BaseEvent
	Count int64 `json:"count"`
}

func NewInspectionsSweptEvent(count int64) *InspectionsSweptEvent {
	return &InspectionsSweptEvent{
		BaseEvent: NewBaseEvent(EventTypeInspectionsSwept, map[string]interface{}{"count": count}),
		Count:     count,
	}
}
