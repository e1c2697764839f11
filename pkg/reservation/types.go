package reservation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	messageEmptyName     = "Customer name cannot be empty."
	messageInvalidPhone  = "Please enter a valid phone number (e.g., 123-456-7890)."
	messageInvalidGuests = "Please enter a valid guest count."
	messageMissingDate   = "Please select a reservation date."
	messageInvalidDate   = "Please enter the date as YYYY-MM-DD."
	messageMissingTime   = "Please select a reservation time."
	messageInvalidTime   = "Please select a time between 11:30 AM and 08:30 PM on the half hour."
	messagePastDateTime  = "Please select a future date and time."
	messageEmptyLoginID  = "Login ID cannot be empty."
	messageEmptyPassword = "Password cannot be empty."
)

var phoneNumberPattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{4}$`)

var slotTimeLayouts = []string{"3:04 PM", "3:04PM", "15:04"}

// CustomerName is a trimmed, non-empty customer name.
type CustomerName struct {
	value string
}

// NewCustomerName validates and normalizes a customer name.
func NewCustomerName(raw string) (CustomerName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CustomerName{}, newValidationError(fieldName, messageEmptyName, ErrInvalidCustomerName)
	}
	return CustomerName{value: trimmed}, nil
}

// String returns the normalized name.
func (name CustomerName) String() string {
	return name.value
}

// IsZero reports whether the name was never set.
func (name CustomerName) IsZero() bool {
	return name.value == ""
}

// PhoneNumber is a phone number in the NNN-NNN-NNNN form.
type PhoneNumber struct {
	value string
}

// NewPhoneNumber validates a phone number.
func NewPhoneNumber(raw string) (PhoneNumber, error) {
	trimmed := strings.TrimSpace(raw)
	if !phoneNumberPattern.MatchString(trimmed) {
		return PhoneNumber{}, newValidationError(fieldPhone, messageInvalidPhone, ErrInvalidPhoneNumber)
	}
	return PhoneNumber{value: trimmed}, nil
}

// String returns the phone number.
func (phone PhoneNumber) String() string {
	return phone.value
}

// IsZero reports whether the phone number was never set.
func (phone PhoneNumber) IsZero() bool {
	return phone.value == ""
}

// Contact identifies a customer by name and phone.
type Contact struct {
	name  CustomerName
	phone PhoneNumber
}

// NewContact validates both halves of a contact.
func NewContact(rawName string, rawPhone string) (Contact, error) {
	name, err := NewCustomerName(rawName)
	if err != nil {
		return Contact{}, err
	}
	phone, err := NewPhoneNumber(rawPhone)
	if err != nil {
		return Contact{}, err
	}
	return Contact{name: name, phone: phone}, nil
}

// Name returns the customer name.
func (contact Contact) Name() CustomerName {
	return contact.name
}

// Phone returns the phone number.
func (contact Contact) Phone() PhoneNumber {
	return contact.phone
}

// IsZero reports whether the contact was never set.
func (contact Contact) IsZero() bool {
	return contact.name.IsZero() && contact.phone.IsZero()
}

func (contact Contact) validate() error {
	if contact.name.IsZero() {
		return newValidationError(fieldName, messageEmptyName, ErrInvalidCustomerName)
	}
	if contact.phone.IsZero() {
		return newValidationError(fieldPhone, messageInvalidPhone, ErrInvalidPhoneNumber)
	}
	return nil
}

// PartySize is the number of guests, at least one.
type PartySize struct {
	value int
}

// NewPartySize validates a guest count.
func NewPartySize(raw int) (PartySize, error) {
	if raw < minimumPartySize {
		return PartySize{}, newValidationError(fieldPartySize, messageInvalidGuests, ErrInvalidPartySize)
	}
	return PartySize{value: raw}, nil
}

// ParsePartySize parses a guest count as typed by a customer.
func ParsePartySize(raw string) (PartySize, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return PartySize{}, newValidationError(fieldPartySize, messageInvalidGuests, ErrInvalidPartySize)
	}
	return NewPartySize(parsed)
}

// Int returns the guest count.
func (size PartySize) Int() int {
	return size.value
}

// IsZero reports whether the party size was never set.
func (size PartySize) IsZero() bool {
	return size.value == 0
}

// ReservationDate is a civil calendar date in the restaurant's time zone.
type ReservationDate struct {
	year  int
	month time.Month
	day   int
}

// NewReservationDate validates a calendar date.
func NewReservationDate(year int, month time.Month, day int) (ReservationDate, error) {
	normalized := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if normalized.Year() != year || normalized.Month() != month || normalized.Day() != day {
		return ReservationDate{}, newValidationError(fieldDate, messageInvalidDate, ErrInvalidDate)
	}
	return ReservationDate{year: year, month: month, day: day}, nil
}

// ReservationDateOf returns the civil date of moment in moment's location.
func ReservationDateOf(moment time.Time) ReservationDate {
	year, month, day := moment.Date()
	return ReservationDate{year: year, month: month, day: day}
}

// ParseReservationDate parses a YYYY-MM-DD date.
func ParseReservationDate(raw string) (ReservationDate, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ReservationDate{}, newValidationError(fieldDate, messageMissingDate, ErrMissingDate)
	}
	parsed, err := time.Parse(dateLayout, trimmed)
	if err != nil {
		return ReservationDate{}, newValidationError(fieldDate, messageInvalidDate, ErrInvalidDate)
	}
	return ReservationDateOf(parsed), nil
}

// String returns the date as YYYY-MM-DD.
func (date ReservationDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", date.year, int(date.month), date.day)
}

// IsZero reports whether the date was never set.
func (date ReservationDate) IsZero() bool {
	return date.year == 0 && date.month == 0 && date.day == 0
}

// At returns the moment the given minute-of-day starts on this date.
func (date ReservationDate) At(minutes int, location *time.Location) time.Time {
	return time.Date(date.year, date.month, date.day, minutes/60, minutes%60, 0, 0, location)
}

// Before reports whether date precedes other.
func (date ReservationDate) Before(other ReservationDate) bool {
	return date.String() < other.String()
}

// SlotTime is one of the bookable half-hour starts between 11:30 and 20:30.
type SlotTime struct {
	minutes int
}

// NewSlotTime validates an hour and minute against the slot grid.
func NewSlotTime(hour int, minute int) (SlotTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return SlotTime{}, newValidationError(fieldTime, messageInvalidTime, ErrInvalidSlotTime)
	}
	minutes := hour*60 + minute
	if minutes < firstSlotMinutes || minutes > lastSlotMinutes || minutes%slotStepMinutes != 0 {
		return SlotTime{}, newValidationError(fieldTime, messageInvalidTime, ErrInvalidSlotTime)
	}
	return SlotTime{minutes: minutes}, nil
}

// ParseSlotTime accepts "12:00 PM" or "12:00" style input.
func ParseSlotTime(raw string) (SlotTime, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return SlotTime{}, newValidationError(fieldTime, messageMissingTime, ErrMissingTime)
	}
	for _, layout := range slotTimeLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return NewSlotTime(parsed.Hour(), parsed.Minute())
		}
	}
	return SlotTime{}, newValidationError(fieldTime, messageInvalidTime, ErrInvalidSlotTime)
}

// AllSlotTimes lists the daily slot grid in order.
func AllSlotTimes() []SlotTime {
	slots := make([]SlotTime, 0, (lastSlotMinutes-firstSlotMinutes)/slotStepMinutes+1)
	for minutes := firstSlotMinutes; minutes <= lastSlotMinutes; minutes += slotStepMinutes {
		slots = append(slots, SlotTime{minutes: minutes})
	}
	return slots
}

// String returns the 24-hour HH:MM form used for storage.
func (slot SlotTime) String() string {
	return fmt.Sprintf("%02d:%02d", slot.minutes/60, slot.minutes%60)
}

// Label returns the hh:mm AM/PM form used for display.
func (slot SlotTime) Label() string {
	return time.Date(0, 1, 1, slot.minutes/60, slot.minutes%60, 0, 0, time.UTC).Format(slotLabelLayout)
}

// Minutes returns minutes since midnight.
func (slot SlotTime) Minutes() int {
	return slot.minutes
}

// IsZero reports whether the slot was never set.
func (slot SlotTime) IsZero() bool {
	return slot.minutes == 0
}

// SlotKey orders reservations by date and minute of day.
type SlotKey struct {
	date    ReservationDate
	minutes int
}

// NewSlotKey keys a reservation slot.
func NewSlotKey(date ReservationDate, slot SlotTime) SlotKey {
	return SlotKey{date: date, minutes: slot.minutes}
}

// SlotKeyAt keys an arbitrary moment at minute precision in its own location.
func SlotKeyAt(moment time.Time) SlotKey {
	return SlotKey{date: ReservationDateOf(moment), minutes: moment.Hour()*60 + moment.Minute()}
}

// Date returns the date half of the key.
func (key SlotKey) Date() ReservationDate {
	return key.date
}

// Clock returns the HH:MM half of the key.
func (key SlotKey) Clock() string {
	return fmt.Sprintf("%02d:%02d", key.minutes/60, key.minutes%60)
}

// String returns "YYYY-MM-DD HH:MM".
func (key SlotKey) String() string {
	return key.date.String() + " " + key.Clock()
}

// Before reports whether key sorts strictly before other.
func (key SlotKey) Before(other SlotKey) bool {
	return key.String() < other.String()
}

// IsZero reports whether the key was never set.
func (key SlotKey) IsZero() bool {
	return key.date.IsZero() && key.minutes == 0
}

// ReservationID identifies a stored reservation.
type ReservationID struct {
	value int64
}

// NewReservationID validates a store-assigned identifier.
func NewReservationID(raw int64) (ReservationID, error) {
	if raw <= 0 {
		return ReservationID{}, fmt.Errorf("%w: must be positive", ErrInvalidReservationID)
	}
	return ReservationID{value: raw}, nil
}

// ParseReservationID parses a decimal identifier.
func ParseReservationID(raw string) (ReservationID, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return ReservationID{}, fmt.Errorf("%w: %q is not a number", ErrInvalidReservationID, raw)
	}
	return NewReservationID(parsed)
}

// Int64 returns the raw identifier.
func (id ReservationID) Int64() int64 {
	return id.value
}

// String returns the decimal identifier.
func (id ReservationID) String() string {
	return strconv.FormatInt(id.value, 10)
}

// IsZero reports whether the identifier was never set.
func (id ReservationID) IsZero() bool {
	return id.value == 0
}

// ReservationDetails carries every customer-editable field of a reservation.
type ReservationDetails struct {
	Contact         Contact
	PartySize       PartySize
	Date            ReservationDate
	Time            SlotTime
	SpecialRequests string
}

// Slot returns the slot key the details occupy.
func (details ReservationDetails) Slot() SlotKey {
	return NewSlotKey(details.Date, details.Time)
}

func (details ReservationDetails) validate() error {
	if err := details.Contact.validate(); err != nil {
		return err
	}
	if details.PartySize.IsZero() {
		return newValidationError(fieldPartySize, messageInvalidGuests, ErrInvalidPartySize)
	}
	if details.Date.IsZero() {
		return newValidationError(fieldDate, messageMissingDate, ErrMissingDate)
	}
	if details.Time.IsZero() {
		return newValidationError(fieldTime, messageMissingTime, ErrMissingTime)
	}
	return nil
}

// BookingForm is a booking request as entered, before validation.
type BookingForm struct {
	Name            string
	Phone           string
	PartySize       string
	Date            string
	Time            string
	SpecialRequests string
}

// Parse validates fields in entry order and stops at the first failure.
func (form BookingForm) Parse() (ReservationDetails, error) {
	contact, err := NewContact(form.Name, form.Phone)
	if err != nil {
		return ReservationDetails{}, err
	}
	partySize, err := ParsePartySize(form.PartySize)
	if err != nil {
		return ReservationDetails{}, err
	}
	date, err := ParseReservationDate(form.Date)
	if err != nil {
		return ReservationDetails{}, err
	}
	slotTime, err := ParseSlotTime(form.Time)
	if err != nil {
		return ReservationDetails{}, err
	}
	return ReservationDetails{
		Contact:         contact,
		PartySize:       partySize,
		Date:            date,
		Time:            slotTime,
		SpecialRequests: strings.TrimSpace(form.SpecialRequests),
	}, nil
}

// Reservation is a stored table booking.
type Reservation struct {
	id      ReservationID
	details ReservationDetails
}

// NewReservation validates a stored reservation record.
func NewReservation(id ReservationID, details ReservationDetails) (Reservation, error) {
	if id.IsZero() {
		return Reservation{}, fmt.Errorf("%w: missing", ErrInvalidReservationID)
	}
	if err := details.validate(); err != nil {
		return Reservation{}, err
	}
	return Reservation{id: id, details: details}, nil
}

// ID returns the store-assigned identifier.
func (reservation Reservation) ID() ReservationID {
	return reservation.id
}

// Contact returns who made the booking.
func (reservation Reservation) Contact() Contact {
	return reservation.details.Contact
}

// PartySize returns the guest count.
func (reservation Reservation) PartySize() PartySize {
	return reservation.details.PartySize
}

// Date returns the reservation date.
func (reservation Reservation) Date() ReservationDate {
	return reservation.details.Date
}

// Time returns the slot start.
func (reservation Reservation) Time() SlotTime {
	return reservation.details.Time
}

// SpecialRequests returns free-form notes.
func (reservation Reservation) SpecialRequests() string {
	return reservation.details.SpecialRequests
}

// Details returns the editable fields.
func (reservation Reservation) Details() ReservationDetails {
	return reservation.details
}

// Slot returns the occupied slot key.
func (reservation Reservation) Slot() SlotKey {
	return reservation.details.Slot()
}

// WaitlistEntry is a customer queued for any opening.
type WaitlistEntry struct {
	contact   Contact
	partySize PartySize
	position  int
	addedAt   time.Time
}

// NewWaitlistEntry validates a stored waitlist entry.
func NewWaitlistEntry(contact Contact, partySize PartySize, position int, addedAt time.Time) (WaitlistEntry, error) {
	if err := contact.validate(); err != nil {
		return WaitlistEntry{}, err
	}
	if partySize.IsZero() {
		return WaitlistEntry{}, newValidationError(fieldPartySize, messageInvalidGuests, ErrInvalidPartySize)
	}
	if position < firstPosition {
		return WaitlistEntry{}, fmt.Errorf("%w: %d", ErrInvalidWaitlistPosition, position)
	}
	return WaitlistEntry{contact: contact, partySize: partySize, position: position, addedAt: addedAt}, nil
}

// Contact returns who is waiting.
func (entry WaitlistEntry) Contact() Contact {
	return entry.contact
}

// PartySize returns the guest count.
func (entry WaitlistEntry) PartySize() PartySize {
	return entry.partySize
}

// Position returns the 1-based queue position.
func (entry WaitlistEntry) Position() int {
	return entry.position
}

// AddedAt returns when the entry joined the queue.
func (entry WaitlistEntry) AddedAt() time.Time {
	return entry.addedAt
}

// LoginID identifies a manager account.
type LoginID struct {
	value string
}

// NewLoginID validates a manager login.
func NewLoginID(raw string) (LoginID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return LoginID{}, newValidationError(fieldLoginID, messageEmptyLoginID, ErrInvalidLoginID)
	}
	return LoginID{value: trimmed}, nil
}

// String returns the login.
func (loginID LoginID) String() string {
	return loginID.value
}

// ManagerCredential is a stored manager login with its password hash.
type ManagerCredential struct {
	loginID      LoginID
	passwordHash string
}

// NewManagerCredential validates a stored credential.
func NewManagerCredential(loginID LoginID, passwordHash string) (ManagerCredential, error) {
	if loginID.value == "" {
		return ManagerCredential{}, newValidationError(fieldLoginID, messageEmptyLoginID, ErrInvalidLoginID)
	}
	if passwordHash == "" {
		return ManagerCredential{}, fmt.Errorf("%w: empty hash", ErrInvalidPassword)
	}
	return ManagerCredential{loginID: loginID, passwordHash: passwordHash}, nil
}

// LoginID returns the login.
func (credential ManagerCredential) LoginID() LoginID {
	return credential.loginID
}

// PasswordHash returns the stored hash.
func (credential ManagerCredential) PasswordHash() string {
	return credential.passwordHash
}
