package sqlite

// migrations set up the database schema. They run on startup and are
// idempotent. Tables are ordered so that foreign keys resolve.
//
// Money is stored as TEXT with two decimals and dates as TEXT YYYY-MM-DD,
// which sorts and compares correctly.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS guests (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		document_type TEXT NOT NULL CHECK (document_type IN ('DNI', 'PASSPORT')),
		document_number TEXT NOT NULL,
		birth_date TEXT,
		phone TEXT NOT NULL DEFAULT '',
		email TEXT,
		nationality TEXT NOT NULL DEFAULT '',
		user_id TEXT,
		created_at INTEGER NOT NULL,
		UNIQUE (document_type, document_number)
	)`,

	`CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		property_type TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		name TEXT NOT NULL,
		room_type TEXT NOT NULL,
		base_price TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity >= 1),
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		UNIQUE (property_id, name),
		FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		room_id TEXT NOT NULL,
		name TEXT NOT NULL,
		unit_type TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		UNIQUE (room_id, name),
		FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		room_id TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		price TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		CHECK (start_date <= end_date),
		FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		guest_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		check_in TEXT NOT NULL,
		check_out TEXT NOT NULL,
		status TEXT NOT NULL,
		total_price TEXT NOT NULL,
		notes TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		CHECK (check_in < check_out),
		FOREIGN KEY (guest_id) REFERENCES guests(id) ON DELETE RESTRICT,
		FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE RESTRICT
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		transaction_id TEXT,
		notes TEXT,
		original_payment_id TEXT,
		created_by TEXT,
		payment_date INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
		FOREIGN KEY (original_payment_id) REFERENCES payments(id) ON DELETE RESTRICT
	)`,

	`CREATE TABLE IF NOT EXISTS cash_register_entries (
		id TEXT PRIMARY KEY,
		entry_type TEXT NOT NULL CHECK (entry_type IN ('DEPOSIT', 'WITHDRAWAL')),
		amount TEXT NOT NULL,
		description TEXT,
		payment_id TEXT UNIQUE,
		created_by TEXT,
		created_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS register_locks (
		name TEXT PRIMARY KEY
	)`,
	`INSERT OR IGNORE INTO register_locks (name) VALUES ('cash')`,

	`CREATE INDEX IF NOT EXISTS idx_units_room_id ON units(room_id)`,
	`CREATE INDEX IF NOT EXISTS idx_plans_room_dates ON plans(room_id, start_date, end_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_unit_dates ON bookings(unit_id, check_in, check_out)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_guest_id ON bookings(guest_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_booking_id ON payments(booking_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_original_id ON payments(original_payment_id)`,
}
