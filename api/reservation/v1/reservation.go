// Package reservationv1 defines the ReservationService wire contract.
// Messages travel as JSON through the codec registered in codec.go.
package reservationv1

type Slot struct {
	Time   string `json:"time"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

type Reservation struct {
	Id              int64  `json:"id"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	PartySize       int32  `json:"party_size"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	TimeLabel       string `json:"time_label"`
	SpecialRequests string `json:"special_requests"`
}

type WaitlistEntry struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	PartySize      int32  `json:"party_size"`
	Position       int32  `json:"position"`
	AddedAtUnixUtc int64  `json:"added_at_unix_utc"`
}

type SlotsRequest struct {
	Date string `json:"date"`
}

func (request *SlotsRequest) GetDate() string {
	if request == nil {
		return ""
	}
	return request.Date
}

type SlotsResponse struct {
	Date  string  `json:"date"`
	Slots []*Slot `json:"slots"`
}

// Contact identifies a customer by name and phone.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (contact *Contact) GetName() string {
	if contact == nil {
		return ""
	}
	return contact.Name
}

func (contact *Contact) GetPhone() string {
	if contact == nil {
		return ""
	}
	return contact.Phone
}

type BookRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	PartySize       int32  `json:"party_size"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	SpecialRequests string `json:"special_requests"`
	JoinWaitlist    bool   `json:"join_waitlist"`
}

func (request *BookRequest) GetJoinWaitlist() bool {
	if request == nil {
		return false
	}
	return request.JoinWaitlist
}

// BookResponse carries a reservation when Status is "booked" and a waitlist entry when it is "waitlisted".
type BookResponse struct {
	Status        string         `json:"status"`
	Reservation   *Reservation   `json:"reservation,omitempty"`
	WaitlistEntry *WaitlistEntry `json:"waitlist_entry,omitempty"`
}

type SearchResponse struct {
	Status        string         `json:"status"`
	Reservation   *Reservation   `json:"reservation,omitempty"`
	WaitlistEntry *WaitlistEntry `json:"waitlist_entry,omitempty"`
}

// UpdateRequest replaces the reservation fields; Owner must match the current holder.
type UpdateRequest struct {
	Id              int64    `json:"id"`
	Owner           *Contact `json:"owner"`
	Name            string   `json:"name"`
	Phone           string   `json:"phone"`
	PartySize       int32    `json:"party_size"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	SpecialRequests string   `json:"special_requests"`
}

func (request *UpdateRequest) GetId() int64 {
	if request == nil {
		return 0
	}
	return request.Id
}

func (request *UpdateRequest) GetOwner() *Contact {
	if request == nil {
		return nil
	}
	return request.Owner
}

type UpdateResponse struct {
	Reservation *Reservation `json:"reservation"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type HistoryResponse struct {
	Reservations []*Reservation `json:"reservations"`
}

type JoinWaitlistRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	PartySize int32  `json:"party_size"`
}

type JoinWaitlistResponse struct {
	WaitlistEntry *WaitlistEntry `json:"waitlist_entry"`
}

type WaitlistPositionResponse struct {
	Position int32 `json:"position"`
}

type LeaveWaitlistRequest struct {
	Phone string `json:"phone"`
}

func (request *LeaveWaitlistRequest) GetPhone() string {
	if request == nil {
		return ""
	}
	return request.Phone
}

type LeaveWaitlistResponse struct {
	Removed bool `json:"removed"`
}
