package gormstore

import (
	"context"
	"errors"
	"strings"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgUniqueViolationCode     = "23505"
	sqliteConstraintCode      = 19
	sqliteUniqueViolationCode = 2067
	errorSubjectReservation   = "reservation"
	errorSubjectWaitlist      = "waitlist"
	errorSubjectManager       = "manager"
	errorCodeCreate           = "create"
	errorCodeDelete           = "delete"
	errorCodeDuplicate        = "duplicate"
	errorCodeGet              = "get"
	errorCodeInsert           = "insert"
	errorCodeInvalid          = "invalid"
	errorCodeList             = "list"
	errorCodeMax              = "max_position"
	errorCodeShift            = "shift"
	errorCodeUpdate           = "update"
	orderBySlot               = "reservation_date ASC, reservation_time ASC"
	orderByPosition           = "position ASC"
	whereContact              = "customer_name = ? AND phone_number = ?"
	wherePhone                = "phone_number = ?"
	whereSlot                 = "reservation_date = ? AND reservation_time = ?"
	whereSlotBefore           = "(reservation_date < ? OR (reservation_date = ? AND reservation_time < ?))"
	whereSlotNotBefore        = "(reservation_date > ? OR (reservation_date = ? AND reservation_time >= ?))"
)

// Store implements reservation.Store and reservation.ManagerStore using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore reservation.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) InsertReservation(ctx context.Context, details reservation.ReservationDetails) (reservation.Reservation, error) {
	model := reservationModel(0, details)
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueConflict(err, constraintReservationSlot) {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeDuplicate, reservation.ErrSlotTaken)
	}
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInsert, err)
	}
	return mapReservation(model)
}

func (store *Store) GetReservation(ctx context.Context, id reservation.ReservationID) (reservation.Reservation, error) {
	var model Reservation
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id.Int64()).
		Take(&model).Error
	if err != nil {
		return reservation.Reservation{}, notFoundOr(errorSubjectReservation, err, reservation.ErrReservationNotFound)
	}
	return mapReservation(model)
}

func (store *Store) FindReservationAt(ctx context.Context, slot reservation.SlotKey) (reservation.Reservation, error) {
	var model Reservation
	err := store.db.WithContext(ctx).
		Where(whereSlot, slot.Date().String(), slot.Clock()).
		Take(&model).Error
	if err != nil {
		return reservation.Reservation{}, notFoundOr(errorSubjectReservation, err, reservation.ErrReservationNotFound)
	}
	return mapReservation(model)
}

func (store *Store) UpdateReservation(ctx context.Context, updated reservation.Reservation) error {
	model := reservationModel(updated.ID().Int64(), updated.Details())
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"customer_name":    model.CustomerName,
			"phone_number":     model.PhoneNumber,
			"party_size":       model.PartySize,
			"reservation_date": model.ReservationDate,
			"reservation_time": model.ReservationTime,
			"special_requests": model.SpecialRequests,
		})
	if isUniqueConflict(result.Error, constraintReservationSlot) {
		return wrapStoreError(errorSubjectReservation, errorCodeDuplicate, reservation.ErrSlotTaken)
	}
	if result.Error != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, reservation.ErrReservationNotFound)
	}
	return nil
}

func (store *Store) ListBookedTimes(ctx context.Context, date reservation.ReservationDate) ([]reservation.SlotTime, error) {
	var clocks []string
	err := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("reservation_date = ?", date.String()).
		Order("reservation_time ASC").
		Pluck("reservation_time", &clocks).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	booked := make([]reservation.SlotTime, 0, len(clocks))
	for _, clock := range clocks {
		slotTime, err := reservation.ParseSlotTime(clock)
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		booked = append(booked, slotTime)
	}
	return booked, nil
}

func (store *Store) FindReservationsByContact(ctx context.Context, contact reservation.Contact) ([]reservation.Reservation, error) {
	return store.listReservations(store.db.WithContext(ctx).
		Where(whereContact, contact.Name().String(), contact.Phone().String()))
}

func (store *Store) ListReservationsBefore(ctx context.Context, contact reservation.Contact, cutoff reservation.SlotKey) ([]reservation.Reservation, error) {
	cutoffDate := cutoff.Date().String()
	return store.listReservations(store.db.WithContext(ctx).
		Where(whereContact, contact.Name().String(), contact.Phone().String()).
		Where(whereSlotBefore, cutoffDate, cutoffDate, cutoff.Clock()))
}

func (store *Store) DeleteReservationsByContact(ctx context.Context, contact reservation.Contact, notBefore reservation.SlotKey) (int64, error) {
	return store.deleteReservations(store.db.WithContext(ctx).
		Where(whereContact, contact.Name().String(), contact.Phone().String()), notBefore)
}

func (store *Store) DeleteReservationsByPhone(ctx context.Context, phone reservation.PhoneNumber, notBefore reservation.SlotKey) (int64, error) {
	return store.deleteReservations(store.db.WithContext(ctx).Where(wherePhone, phone.String()), notBefore)
}

func (store *Store) ListReservations(ctx context.Context) ([]reservation.Reservation, error) {
	return store.listReservations(store.db.WithContext(ctx))
}

func (store *Store) MaxWaitlistPosition(ctx context.Context) (int, error) {
	var highest sqlMax
	err := store.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Select("coalesce(max(position),0) as highest").
		Scan(&highest).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectWaitlist, errorCodeMax, err)
	}
	return highest.Highest, nil
}

func (store *Store) InsertWaitlistEntry(ctx context.Context, input reservation.WaitlistEntryInput) (reservation.WaitlistEntry, error) {
	model := WaitlistEntry{
		CustomerName: input.Contact.Name().String(),
		PhoneNumber:  input.Contact.Phone().String(),
		PartySize:    input.PartySize.Int(),
		Position:     input.Position,
		AddedAt:      input.AddedAt,
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeInsert, err)
	}
	return mapWaitlistEntry(model)
}

func (store *Store) FindWaitlistEntry(ctx context.Context, contact reservation.Contact) (reservation.WaitlistEntry, error) {
	var model WaitlistEntry
	err := store.db.WithContext(ctx).
		Where(whereContact, contact.Name().String(), contact.Phone().String()).
		Order(orderByPosition).
		Take(&model).Error
	if err != nil {
		return reservation.WaitlistEntry{}, notFoundOr(errorSubjectWaitlist, err, reservation.ErrWaitlistEntryNotFound)
	}
	return mapWaitlistEntry(model)
}

func (store *Store) DeleteWaitlistEntriesByPhone(ctx context.Context, phone reservation.PhoneNumber) ([]int, error) {
	var positions []int
	err := store.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(wherePhone, phone.String()).
		Pluck("position", &positions).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeDelete, err)
	}
	if len(positions) == 0 {
		return nil, nil
	}
	if err := store.db.WithContext(ctx).Where(wherePhone, phone.String()).Delete(&WaitlistEntry{}).Error; err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeDelete, err)
	}
	return positions, nil
}

func (store *Store) ShiftWaitlistPositions(ctx context.Context, above int) error {
	err := store.db.WithContext(ctx).
		Model(&WaitlistEntry{}).
		Where("position > ?", above).
		Update("position", gorm.Expr("position - 1")).Error
	if err != nil {
		return wrapStoreError(errorSubjectWaitlist, errorCodeShift, err)
	}
	return nil
}

func (store *Store) ListWaitlist(ctx context.Context) ([]reservation.WaitlistEntry, error) {
	var rows []WaitlistEntry
	if err := store.db.WithContext(ctx).Order(orderByPosition).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeList, err)
	}
	entries := make([]reservation.WaitlistEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := mapWaitlistEntry(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (store *Store) CreateManager(ctx context.Context, credential reservation.ManagerCredential) error {
	model := Manager{
		LoginID:      credential.LoginID().String(),
		PasswordHash: credential.PasswordHash(),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueConflict(err, constraintManagerLogin) {
		return wrapStoreError(errorSubjectManager, errorCodeDuplicate, reservation.ErrManagerExists)
	}
	if err != nil {
		return wrapStoreError(errorSubjectManager, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetManager(ctx context.Context, loginID reservation.LoginID) (reservation.ManagerCredential, error) {
	var model Manager
	err := store.db.WithContext(ctx).Where("login_id = ?", loginID.String()).Take(&model).Error
	if err != nil {
		return reservation.ManagerCredential{}, notFoundOr(errorSubjectManager, err, reservation.ErrManagerNotFound)
	}
	credential, err := reservation.NewManagerCredential(loginID, model.PasswordHash)
	if err != nil {
		return reservation.ManagerCredential{}, wrapStoreError(errorSubjectManager, errorCodeInvalid, err)
	}
	return credential, nil
}

func (store *Store) listReservations(query *gorm.DB) ([]reservation.Reservation, error) {
	var rows []Reservation
	if err := query.Order(orderBySlot).Find(&rows).Error; err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	reservations := make([]reservation.Reservation, 0, len(rows))
	for _, row := range rows {
		mapped, err := mapReservation(row)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, mapped)
	}
	return reservations, nil
}

func (store *Store) deleteReservations(query *gorm.DB, notBefore reservation.SlotKey) (int64, error) {
	cutoffDate := notBefore.Date().String()
	result := query.Where(whereSlotNotBefore, cutoffDate, cutoffDate, notBefore.Clock()).Delete(&Reservation{})
	if result.Error != nil {
		return 0, wrapStoreError(errorSubjectReservation, errorCodeDelete, result.Error)
	}
	return result.RowsAffected, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return reservation.WrapStorageError(subject, code, err)
}

func notFoundOr(subject string, err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return wrapStoreError(subject, errorCodeGet, notFound)
	}
	return wrapStoreError(subject, errorCodeGet, err)
}

type sqlMax struct {
	Highest int
}

func reservationModel(id int64, details reservation.ReservationDetails) Reservation {
	return Reservation{
		ID:              id,
		CustomerName:    details.Contact.Name().String(),
		PhoneNumber:     details.Contact.Phone().String(),
		PartySize:       details.PartySize.Int(),
		ReservationDate: details.Date.String(),
		ReservationTime: details.Time.String(),
		SpecialRequests: details.SpecialRequests,
	}
}

func mapReservation(row Reservation) (reservation.Reservation, error) {
	id, err := reservation.NewReservationID(row.ID)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	contact, err := reservation.NewContact(row.CustomerName, row.PhoneNumber)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	partySize, err := reservation.NewPartySize(row.PartySize)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	date, err := reservation.ParseReservationDate(row.ReservationDate)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	slotTime, err := reservation.ParseSlotTime(row.ReservationTime)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	details := reservation.ReservationDetails{
		Contact:         contact,
		PartySize:       partySize,
		Date:            date,
		Time:            slotTime,
		SpecialRequests: row.SpecialRequests,
	}
	mapped, err := reservation.NewReservation(id, details)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	return mapped, nil
}

func mapWaitlistEntry(row WaitlistEntry) (reservation.WaitlistEntry, error) {
	contact, err := reservation.NewContact(row.CustomerName, row.PhoneNumber)
	if err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeInvalid, err)
	}
	partySize, err := reservation.NewPartySize(row.PartySize)
	if err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeInvalid, err)
	}
	entry, err := reservation.NewWaitlistEntry(contact, partySize, row.Position, row.AddedAt)
	if err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeInvalid, err)
	}
	return entry, nil
}

// uniqueConstraint names a unique constraint the way each driver reports it.
// Postgres reports the constraint name; SQLite lists the constrained columns.
type uniqueConstraint struct {
	name    string
	columns string
}

var (
	constraintReservationSlot = uniqueConstraint{
		name:    "uniq_reservations_slot",
		columns: "reservations.reservation_date, reservations.reservation_time",
	}
	constraintManagerLogin = uniqueConstraint{
		name:    "uniq_managers_login",
		columns: "managers.login_id",
	}
)

func isUniqueConflict(err error, constraint uniqueConstraint) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint.name
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		if code != sqliteUniqueViolationCode && code != sqliteConstraintCode {
			return false
		}
		return uniqueViolationColumns(sqliteErr.Error()) == constraint.columns
	}
	return false
}

// uniqueViolationColumns extracts the column list from "UNIQUE constraint failed: t.a, t.b (2067)".
func uniqueViolationColumns(message string) string {
	_, columns, found := strings.Cut(message, "UNIQUE constraint failed: ")
	if !found {
		return ""
	}
	if open := strings.LastIndex(columns, " ("); open >= 0 {
		columns = columns[:open]
	}
	return strings.TrimSpace(columns)
}
