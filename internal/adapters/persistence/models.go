package persistence

import (
	"time"
)

// RunModel represents the runs table
type RunModel struct {
	ID          string     `gorm:"column:id;primaryKey;not null"`
	Preset      string     `gorm:"column:preset;not null"`
	Params      string     `gorm:"column:params;type:text"` // JSON as text
	StartedAt   time.Time  `gorm:"column:started_at;not null;index"`
	FinishedAt  *time.Time `gorm:"column:finished_at"`
	EndReason   string     `gorm:"column:end_reason"`
	DaysElapsed int        `gorm:"column:days_elapsed;default:0"`
	Final       string     `gorm:"column:final;type:text"` // JSON snapshot as text
}

func (RunModel) TableName() string {
	return "runs"
}

// DaySnapshotModel represents the day_snapshots table
// Totals are denormalized next to the JSON so they can be queried directly
type DaySnapshotModel struct {
	ID               int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID            string    `gorm:"column:run_id;not null;index:idx_run_day"`
	Run              *RunModel `gorm:"foreignKey:RunID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Day              int       `gorm:"column:day;not null;index:idx_run_day"`
	AvailableInPorts int       `gorm:"column:available_in_ports;not null;default:0"`
	OnShips          int       `gorm:"column:on_ships;not null;default:0"`
	Delivered        int       `gorm:"column:delivered;not null;default:0"`
	ExpiredInPorts   int       `gorm:"column:expired_in_ports;not null;default:0"`
	ExpiredOnShips   int       `gorm:"column:expired_on_ships;not null;default:0"`
	ShipsEmpty       int       `gorm:"column:ships_empty;not null;default:0"`
	ShipsLoaded      int       `gorm:"column:ships_loaded;not null;default:0"`
	ShipsInPort      int       `gorm:"column:ships_in_port;not null;default:0"`
	Snapshot         string    `gorm:"column:snapshot;type:text"` // JSON as text
	RecordedAt       time.Time `gorm:"column:recorded_at;not null"`
}

func (DaySnapshotModel) TableName() string {
	return "day_snapshots"
}

// EventLogModel represents the event_logs table
type EventLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	RunID     string    `gorm:"column:run_id;index"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON as text
}

func (EventLogModel) TableName() string {
	return "event_logs"
}

// AllModels lists every model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&RunModel{},
		&DaySnapshotModel{},
		&EventLogModel{},
	}
}
