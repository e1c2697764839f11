package gormstore

import (
	"time"

	"gorm.io/gorm"
)

// Reservation mirrors the reservations table.
type Reservation struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	CustomerName    string    `gorm:"not null;index:idx_reservations_contact,priority:1"`
	PhoneNumber     string    `gorm:"type:varchar(12);not null;index:idx_reservations_contact,priority:2;index:idx_reservations_phone"`
	PartySize       int       `gorm:"not null"`
	ReservationDate string    `gorm:"type:varchar(10);not null;index:uniq_reservations_slot,unique,priority:1"`
	ReservationTime string    `gorm:"type:varchar(5);not null;index:uniq_reservations_slot,unique,priority:2"`
	SpecialRequests string    `gorm:"not null;default:''"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (Reservation) TableName() string { return "reservations" }

// WaitlistEntry mirrors the waitlist table.
type WaitlistEntry struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	CustomerName string    `gorm:"not null;index:idx_waitlist_contact,priority:1"`
	PhoneNumber  string    `gorm:"type:varchar(12);not null;index:idx_waitlist_contact,priority:2"`
	PartySize    int       `gorm:"not null"`
	Position     int       `gorm:"not null;index:idx_waitlist_position"`
	AddedAt      time.Time `gorm:"not null"`
}

func (WaitlistEntry) TableName() string { return "waitlist" }

// Manager mirrors the managers table.
type Manager struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	LoginID      string    `gorm:"not null;uniqueIndex:uniq_managers_login"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (Manager) TableName() string { return "managers" }

// Migrate creates or updates the tables used by Store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Reservation{}, &WaitlistEntry{}, &Manager{})
}
