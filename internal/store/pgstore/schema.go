package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Table and constraint names match the gormstore models so either store can serve the same database.
var schemaStatements = []string{
	`create table if not exists reservations (
	id bigserial primary key,
	customer_name text not null,
	phone_number varchar(12) not null,
	party_size integer not null check (party_size > 0),
	reservation_date varchar(10) not null,
	reservation_time varchar(5) not null,
	special_requests text not null default '',
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now(),
	constraint uniq_reservations_slot unique (reservation_date, reservation_time)
)`,
	`create index if not exists idx_reservations_contact on reservations (customer_name, phone_number)`,
	`create index if not exists idx_reservations_phone on reservations (phone_number)`,
	`create table if not exists waitlist (
	id bigserial primary key,
	customer_name text not null,
	phone_number varchar(12) not null,
	party_size integer not null check (party_size > 0),
	position integer not null check (position > 0),
	added_at timestamptz not null
)`,
	`create index if not exists idx_waitlist_contact on waitlist (customer_name, phone_number)`,
	`create index if not exists idx_waitlist_position on waitlist (position)`,
	`create table if not exists managers (
	id bigserial primary key,
	login_id text not null,
	password_hash text not null,
	created_at timestamptz not null default now(),
	constraint uniq_managers_login unique (login_id)
)`,
}

// Migrate creates the tables the store expects when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, statement := range schemaStatements {
		if _, err := pool.Exec(ctx, statement); err != nil {
			return wrapStoreError("schema", "migrate", err)
		}
	}
	return nil
}
