package reservation

import "time"

// SlotStatus classifies a slot for display.
type SlotStatus string

const (
	SlotStatusPast      SlotStatus = "past"
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusBooked    SlotStatus = "booked"
)

// Slot is one entry of a day's availability grid.
type Slot struct {
	Time   SlotTime
	Status SlotStatus
}

// GenerateSlots returns the day's grid, in order, classified against now
// (in now's location) and the already-booked times of that date.
// Past wins over Booked.
func GenerateSlots(date ReservationDate, now time.Time, booked []SlotTime) []Slot {
	bookedSet := make(map[int]struct{}, len(booked))
	for _, slotTime := range booked {
		bookedSet[slotTime.minutes] = struct{}{}
	}
	allSlots := AllSlotTimes()
	slots := make([]Slot, 0, len(allSlots))
	for _, slotTime := range allSlots {
		_, isBooked := bookedSet[slotTime.minutes]
		slots = append(slots, Slot{Time: slotTime, Status: classifySlot(date, slotTime, now, isBooked)})
	}
	return slots
}

func classifySlot(date ReservationDate, slotTime SlotTime, now time.Time, isBooked bool) SlotStatus {
	if date.At(slotTime.minutes, now.Location()).Before(now) {
		return SlotStatusPast
	}
	if isBooked {
		return SlotStatusBooked
	}
	return SlotStatusAvailable
}
