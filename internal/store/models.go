package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (UserModel) TableName() string { return "users" }

type CaseModel struct {
	ID        string    `gorm:"primaryKey"`
	UserID    string    `gorm:"not null;index"`
	Complaint string    `gorm:"not null"`
	Symptoms  string
	Vitals    string
	Labs      string
	CreatedAt time.Time `gorm:"not null;index"`
}

func (CaseModel) TableName() string { return "cases" }

type OutputModel struct {
	ID      string         `gorm:"primaryKey"`
	CaseID  string         `gorm:"not null;index"`
	Content datatypes.JSON `gorm:"not null"`
}

func (OutputModel) TableName() string { return "outputs" }
