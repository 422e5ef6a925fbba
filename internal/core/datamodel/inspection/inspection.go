package inspection

import "time"

type Inspection struct {
	ID               int64     `gorm:"primaryKey"`
	UserID           int64     `gorm:"column:user_id;not null;index"`
	ProjectName      string    `gorm:"column:project_name;not null"`
	Location         *string   `gorm:"column:location"`
	Latitude         *float64  `gorm:"column:latitude"`
	Longitude        *float64  `gorm:"column:longitude"`
	LocationAccuracy *float64  `gorm:"column:location_accuracy"`
	InspectionDate   string    `gorm:"column:inspection_date;not null"`
	InspectorName    *string   `gorm:"column:inspector_name"`
	Department       *string   `gorm:"column:department"`
	Notes            *string   `gorm:"column:notes"`
	ImagePath        string    `gorm:"column:image_path;not null"`
	ImageFilename    *string   `gorm:"column:image_filename"`
	Status           string    `gorm:"column:status;not null;index"`
	OverallRiskLevel *string   `gorm:"column:overall_risk_level"`
	AISummary        *string   `gorm:"column:ai_summary"`
	CreatedAt        time.Time `gorm:"column:created_at;index"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`

	Hazards []Hazard `gorm:"foreignKey:InspectionID;constraint:OnDelete:CASCADE"`
}

func (Inspection) TableName() string {
	return "inspections"
}

type Hazard struct {
	ID                    int64     `gorm:"primaryKey"`
	InspectionID          int64     `gorm:"column:inspection_id;not null;index"`
	Description           string    `gorm:"column:description;not null"`
	Category              string    `gorm:"column:category;not null"`
	HazardType            *string   `gorm:"column:hazard_type"`
	Severity              int       `gorm:"column:severity;not null;check:chk_hazards_severity,severity BETWEEN 1 AND 5"`
	Likelihood            int       `gorm:"column:likelihood;not null;check:chk_hazards_likelihood,likelihood BETWEEN 1 AND 5"`
	RiskScore             int       `gorm:"column:risk_score;not null"`
	RiskLevel             string    `gorm:"column:risk_level;not null"`
	EngineeringControl    *string   `gorm:"column:engineering_control"`
	AdministrativeControl *string   `gorm:"column:administrative_control"`
	PPEControl            *string   `gorm:"column:ppe_control"`
	ImmediateAction       *string   `gorm:"column:immediate_action"`
	Confidence            *float64  `gorm:"column:confidence"`
	CreatedAt             time.Time `gorm:"column:created_at"`
}

func (Hazard) TableName() string {
	return "hazards"
}
