package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/MarkoPoloResearchLab/tablebook/pkg/reservation"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	constraintReservationSlot = "uniq_reservations_slot"
	constraintManagerLogin    = "uniq_managers_login"
	pgUniqueViolationCode     = "23505"
	waitlistLockKey           = 7_401_202
	errorSubjectReservation   = "reservation"
	errorSubjectWaitlist      = "waitlist"
	errorSubjectManager       = "manager"
	errorSubjectTransaction   = "transaction"
	errorCodeBegin            = "begin"
	errorCodeBuild            = "build"
	errorCodeCommit           = "commit"
	errorCodeCreate           = "create"
	errorCodeDelete           = "delete"
	errorCodeDuplicate        = "duplicate"
	errorCodeGet              = "get"
	errorCodeInsert           = "insert"
	errorCodeInvalid          = "invalid"
	errorCodeList             = "list"
	errorCodeLock             = "lock"
	errorCodeMax              = "max_position"
	errorCodeShift            = "shift"
	errorCodeUpdate           = "update"

	tableReservations = "reservations"
	tableWaitlist     = "waitlist"
	tableManagers     = "managers"

	columnID              = "id"
	columnCustomerName    = "customer_name"
	columnPhoneNumber     = "phone_number"
	columnPartySize       = "party_size"
	columnReservationDate = "reservation_date"
	columnReservationTime = "reservation_time"
	columnSpecialRequests = "special_requests"
	columnPosition        = "position"
	columnAddedAt         = "added_at"
	columnLoginID         = "login_id"
	columnPasswordHash    = "password_hash"
	columnUpdatedAt       = "updated_at"

	sqlLockWaitlist = `select pg_advisory_xact_lock($1)`
)

var (
	psql               = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	reservationColumns = []string{columnID, columnCustomerName, columnPhoneNumber, columnPartySize, columnReservationDate, columnReservationTime, columnSpecialRequests}
	waitlistColumns    = []string{columnCustomerName, columnPhoneNumber, columnPartySize, columnPosition, columnAddedAt}
	orderBySlot        = []string{columnReservationDate + " ASC", columnReservationTime + " ASC"}
)

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries holds every statement; Store and TxStore differ only in the querier they run on.
type queries struct {
	db querier
}

// Store implements reservation.Store and reservation.ManagerStore using a pgx connection pool (autocommit).
type Store struct {
	queries
	pool *pgxpool.Pool
}

// TxStore implements reservation.Store for an active transaction.
type TxStore struct {
	queries
	tx pgx.Tx
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{queries: queries{db: pool}, pool: pool}
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore reservation.Store) error) error {
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	transactionStore := &TxStore{queries: queries{db: tx}, tx: tx}
	if err := fn(ctx, transactionStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *TxStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore reservation.Store) error) error {
	return fn(ctx, store)
}

func (store queries) InsertReservation(ctx context.Context, details reservation.ReservationDetails) (reservation.Reservation, error) {
	query, args, err := psql.Insert(tableReservations).
		Columns(columnCustomerName, columnPhoneNumber, columnPartySize, columnReservationDate, columnReservationTime, columnSpecialRequests).
		Values(
			details.Contact.Name().String(),
			details.Contact.Phone().String(),
			details.PartySize.Int(),
			details.Date.String(),
			details.Time.String(),
			details.SpecialRequests,
		).
		Suffix("RETURNING " + columnID).
		ToSql()
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeBuild, err)
	}
	var idValue int64
	err = store.db.QueryRow(ctx, query, args...).Scan(&idValue)
	if isUniqueConflict(err, constraintReservationSlot) {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeDuplicate, reservation.ErrSlotTaken)
	}
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInsert, err)
	}
	id, err := reservation.NewReservationID(idValue)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	inserted, err := reservation.NewReservation(id, details)
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
	}
	return inserted, nil
}

func (store queries) GetReservation(ctx context.Context, id reservation.ReservationID) (reservation.Reservation, error) {
	return store.getReservation(ctx, psql.Select(reservationColumns...).
		From(tableReservations).
		Where(sq.Eq{columnID: id.Int64()}).
		Suffix("FOR UPDATE"))
}

func (store queries) FindReservationAt(ctx context.Context, slot reservation.SlotKey) (reservation.Reservation, error) {
	return store.getReservation(ctx, psql.Select(reservationColumns...).
		From(tableReservations).
		Where(sq.Eq{columnReservationDate: slot.Date().String(), columnReservationTime: slot.Clock()}))
}

func (store queries) UpdateReservation(ctx context.Context, updated reservation.Reservation) error {
	query, args, err := psql.Update(tableReservations).
		SetMap(map[string]interface{}{
			columnCustomerName:    updated.Contact().Name().String(),
			columnPhoneNumber:     updated.Contact().Phone().String(),
			columnPartySize:       updated.PartySize().Int(),
			columnReservationDate: updated.Date().String(),
			columnReservationTime: updated.Time().String(),
			columnSpecialRequests: updated.SpecialRequests(),
			columnUpdatedAt:       sq.Expr("now()"),
		}).
		Where(sq.Eq{columnID: updated.ID().Int64()}).
		ToSql()
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeBuild, err)
	}
	tag, err := store.db.Exec(ctx, query, args...)
	if isUniqueConflict(err, constraintReservationSlot) {
		return wrapStoreError(errorSubjectReservation, errorCodeDuplicate, reservation.ErrSlotTaken)
	}
	if err != nil {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectReservation, errorCodeUpdate, reservation.ErrReservationNotFound)
	}
	return nil
}

func (store queries) ListBookedTimes(ctx context.Context, date reservation.ReservationDate) ([]reservation.SlotTime, error) {
	query, args, err := psql.Select(columnReservationTime).
		From(tableReservations).
		Where(sq.Eq{columnReservationDate: date.String()}).
		OrderBy(columnReservationTime + " ASC").
		ToSql()
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeBuild, err)
	}
	rows, err := store.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	clocks, err := pgx.CollectRows(rows, pgx.RowTo[string])
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

func (store queries) FindReservationsByContact(ctx context.Context, contact reservation.Contact) ([]reservation.Reservation, error) {
	return store.listReservations(ctx, contactFilter(contact))
}

func (store queries) ListReservationsBefore(ctx context.Context, contact reservation.Contact, cutoff reservation.SlotKey) ([]reservation.Reservation, error) {
	return store.listReservations(ctx, sq.And{contactFilter(contact), slotBefore(cutoff)})
}

func (store queries) DeleteReservationsByContact(ctx context.Context, contact reservation.Contact, notBefore reservation.SlotKey) (int64, error) {
	return store.deleteReservations(ctx, sq.And{contactFilter(contact), slotNotBefore(notBefore)})
}

func (store queries) DeleteReservationsByPhone(ctx context.Context, phone reservation.PhoneNumber, notBefore reservation.SlotKey) (int64, error) {
	return store.deleteReservations(ctx, sq.And{sq.Eq{columnPhoneNumber: phone.String()}, slotNotBefore(notBefore)})
}

func (store queries) ListReservations(ctx context.Context) ([]reservation.Reservation, error) {
	return store.listReservations(ctx, nil)
}

func (store queries) MaxWaitlistPosition(ctx context.Context) (int, error) {
	if err := store.lockWaitlist(ctx); err != nil {
		return 0, err
	}
	query, args, err := psql.Select("coalesce(max(" + columnPosition + "), 0)").From(tableWaitlist).ToSql()
	if err != nil {
		return 0, wrapStoreError(errorSubjectWaitlist, errorCodeBuild, err)
	}
	var highest int
	if err := store.db.QueryRow(ctx, query, args...).Scan(&highest); err != nil {
		return 0, wrapStoreError(errorSubjectWaitlist, errorCodeMax, err)
	}
	return highest, nil
}

func (store queries) InsertWaitlistEntry(ctx context.Context, input reservation.WaitlistEntryInput) (reservation.WaitlistEntry, error) {
	query, args, err := psql.Insert(tableWaitlist).
		Columns(waitlistColumns...).
		Values(input.Contact.Name().String(), input.Contact.Phone().String(), input.PartySize.Int(), input.Position, input.AddedAt).
		ToSql()
	if err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeBuild, err)
	}
	if _, err := store.db.Exec(ctx, query, args...); err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeInsert, err)
	}
	entry, err := reservation.NewWaitlistEntry(input.Contact, input.PartySize, input.Position, input.AddedAt)
	if err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeInvalid, err)
	}
	return entry, nil
}

func (store queries) FindWaitlistEntry(ctx context.Context, contact reservation.Contact) (reservation.WaitlistEntry, error) {
	query, args, err := psql.Select(waitlistColumns...).
		From(tableWaitlist).
		Where(contactFilter(contact)).
		OrderBy(columnPosition + " ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeBuild, err)
	}
	entry, err := scanWaitlistEntry(store.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeGet, reservation.ErrWaitlistEntryNotFound)
	}
	if err != nil {
		return reservation.WaitlistEntry{}, wrapStoreError(errorSubjectWaitlist, errorCodeGet, err)
	}
	return entry, nil
}

func (store queries) DeleteWaitlistEntriesByPhone(ctx context.Context, phone reservation.PhoneNumber) ([]int, error) {
	if err := store.lockWaitlist(ctx); err != nil {
		return nil, err
	}
	query, args, err := psql.Delete(tableWaitlist).
		Where(sq.Eq{columnPhoneNumber: phone.String()}).
		Suffix("RETURNING " + columnPosition).
		ToSql()
	if err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeBuild, err)
	}
	rows, err := store.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeDelete, err)
	}
	positions, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeDelete, err)
	}
	return positions, nil
}

func (store queries) ShiftWaitlistPositions(ctx context.Context, above int) error {
	query, args, err := psql.Update(tableWaitlist).
		Set(columnPosition, sq.Expr(columnPosition+" - 1")).
		Where(sq.Gt{columnPosition: above}).
		ToSql()
	if err != nil {
		return wrapStoreError(errorSubjectWaitlist, errorCodeBuild, err)
	}
	if _, err := store.db.Exec(ctx, query, args...); err != nil {
		return wrapStoreError(errorSubjectWaitlist, errorCodeShift, err)
	}
	return nil
}

func (store queries) ListWaitlist(ctx context.Context) ([]reservation.WaitlistEntry, error) {
	query, args, err := psql.Select(waitlistColumns...).
		From(tableWaitlist).
		OrderBy(columnPosition + " ASC").
		ToSql()
	if err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeBuild, err)
	}
	rows, err := store.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeList, err)
	}
	defer rows.Close()
	var entries []reservation.WaitlistEntry
	for rows.Next() {
		entry, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectWaitlist, errorCodeInvalid, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectWaitlist, errorCodeList, err)
	}
	return entries, nil
}

func (store queries) CreateManager(ctx context.Context, credential reservation.ManagerCredential) error {
	query, args, err := psql.Insert(tableManagers).
		Columns(columnLoginID, columnPasswordHash).
		Values(credential.LoginID().String(), credential.PasswordHash()).
		ToSql()
	if err != nil {
		return wrapStoreError(errorSubjectManager, errorCodeBuild, err)
	}
	_, err = store.db.Exec(ctx, query, args...)
	if isUniqueConflict(err, constraintManagerLogin) {
		return wrapStoreError(errorSubjectManager, errorCodeDuplicate, reservation.ErrManagerExists)
	}
	if err != nil {
		return wrapStoreError(errorSubjectManager, errorCodeCreate, err)
	}
	return nil
}

func (store queries) GetManager(ctx context.Context, loginID reservation.LoginID) (reservation.ManagerCredential, error) {
	query, args, err := psql.Select(columnPasswordHash).
		From(tableManagers).
		Where(sq.Eq{columnLoginID: loginID.String()}).
		ToSql()
	if err != nil {
		return reservation.ManagerCredential{}, wrapStoreError(errorSubjectManager, errorCodeBuild, err)
	}
	var passwordHash string
	err = store.db.QueryRow(ctx, query, args...).Scan(&passwordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return reservation.ManagerCredential{}, wrapStoreError(errorSubjectManager, errorCodeGet, reservation.ErrManagerNotFound)
	}
	if err != nil {
		return reservation.ManagerCredential{}, wrapStoreError(errorSubjectManager, errorCodeGet, err)
	}
	credential, err := reservation.NewManagerCredential(loginID, passwordHash)
	if err != nil {
		return reservation.ManagerCredential{}, wrapStoreError(errorSubjectManager, errorCodeInvalid, err)
	}
	return credential, nil
}

func (store queries) lockWaitlist(ctx context.Context) error {
	if _, err := store.db.Exec(ctx, sqlLockWaitlist, waitlistLockKey); err != nil {
		return wrapStoreError(errorSubjectWaitlist, errorCodeLock, err)
	}
	return nil
}

func (store queries) getReservation(ctx context.Context, builder sq.SelectBuilder) (reservation.Reservation, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeBuild, err)
	}
	found, err := scanReservation(store.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, reservation.ErrReservationNotFound)
	}
	if err != nil {
		return reservation.Reservation{}, wrapStoreError(errorSubjectReservation, errorCodeGet, err)
	}
	return found, nil
}

func (store queries) listReservations(ctx context.Context, filter sq.Sqlizer) ([]reservation.Reservation, error) {
	builder := psql.Select(reservationColumns...).From(tableReservations).OrderBy(orderBySlot...)
	if filter != nil {
		builder = builder.Where(filter)
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeBuild, err)
	}
	rows, err := store.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	defer rows.Close()
	var reservations []reservation.Reservation
	for rows.Next() {
		found, err := scanReservation(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectReservation, errorCodeInvalid, err)
		}
		reservations = append(reservations, found)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectReservation, errorCodeList, err)
	}
	return reservations, nil
}

func (store queries) deleteReservations(ctx context.Context, filter sq.Sqlizer) (int64, error) {
	query, args, err := psql.Delete(tableReservations).Where(filter).ToSql()
	if err != nil {
		return 0, wrapStoreError(errorSubjectReservation, errorCodeBuild, err)
	}
	tag, err := store.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, wrapStoreError(errorSubjectReservation, errorCodeDelete, err)
	}
	return tag.RowsAffected(), nil
}

func contactFilter(contact reservation.Contact) sq.Eq {
	return sq.Eq{columnCustomerName: contact.Name().String(), columnPhoneNumber: contact.Phone().String()}
}

func slotBefore(cutoff reservation.SlotKey) sq.Or {
	date := cutoff.Date().String()
	return sq.Or{
		sq.Lt{columnReservationDate: date},
		sq.And{sq.Eq{columnReservationDate: date}, sq.Lt{columnReservationTime: cutoff.Clock()}},
	}
}

func slotNotBefore(cutoff reservation.SlotKey) sq.Or {
	date := cutoff.Date().String()
	return sq.Or{
		sq.Gt{columnReservationDate: date},
		sq.And{sq.Eq{columnReservationDate: date}, sq.GtOrEq{columnReservationTime: cutoff.Clock()}},
	}
}

func scanReservation(row pgx.Row) (reservation.Reservation, error) {
	var (
		idValue         int64
		customerName    string
		phoneNumber     string
		partySizeValue  int
		dateValue       string
		timeValue       string
		specialRequests string
	)
	if err := row.Scan(&idValue, &customerName, &phoneNumber, &partySizeValue, &dateValue, &timeValue, &specialRequests); err != nil {
		return reservation.Reservation{}, err
	}
	id, err := reservation.NewReservationID(idValue)
	if err != nil {
		return reservation.Reservation{}, err
	}
	contact, err := reservation.NewContact(customerName, phoneNumber)
	if err != nil {
		return reservation.Reservation{}, err
	}
	partySize, err := reservation.NewPartySize(partySizeValue)
	if err != nil {
		return reservation.Reservation{}, err
	}
	date, err := reservation.ParseReservationDate(dateValue)
	if err != nil {
		return reservation.Reservation{}, err
	}
	slotTime, err := reservation.ParseSlotTime(timeValue)
	if err != nil {
		return reservation.Reservation{}, err
	}
	return reservation.NewReservation(id, reservation.ReservationDetails{
		Contact:         contact,
		PartySize:       partySize,
		Date:            date,
		Time:            slotTime,
		SpecialRequests: specialRequests,
	})
}

func scanWaitlistEntry(row pgx.Row) (reservation.WaitlistEntry, error) {
	var (
		customerName   string
		phoneNumber    string
		partySizeValue int
		position       int
		addedAt        time.Time
	)
	if err := row.Scan(&customerName, &phoneNumber, &partySizeValue, &position, &addedAt); err != nil {
		return reservation.WaitlistEntry{}, err
	}
	contact, err := reservation.NewContact(customerName, phoneNumber)
	if err != nil {
		return reservation.WaitlistEntry{}, err
	}
	partySize, err := reservation.NewPartySize(partySizeValue)
	if err != nil {
		return reservation.WaitlistEntry{}, err
	}
	return reservation.NewWaitlistEntry(contact, partySize, position, addedAt)
}

func wrapStoreError(subject string, code string, err error) error {
	return reservation.WrapStorageError(subject, code, err)
}

func isUniqueConflict(err error, constraint string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
	}
	return false
}
