package mysql

// migrations set up the database schema. They run on startup and are
// idempotent. Tables are ordered so that foreign keys resolve.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id CHAR(36) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		display_name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS guests (
		id CHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		document_type VARCHAR(16) NOT NULL,
		document_number VARCHAR(64) NOT NULL,
		birth_date DATE NULL,
		phone VARCHAR(64) NOT NULL DEFAULT '',
		email VARCHAR(255) NULL,
		nationality VARCHAR(64) NOT NULL DEFAULT '',
		user_id CHAR(36) NULL,
		created_at BIGINT NOT NULL,
		UNIQUE KEY uq_guests_document (document_type, document_number),
		CHECK (document_type IN ('DNI', 'PASSPORT'))
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS properties (
		id CHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		property_type VARCHAR(32) NOT NULL,
		address VARCHAR(512) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at BIGINT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id CHAR(36) PRIMARY KEY,
		property_id CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		room_type VARCHAR(32) NOT NULL,
		base_price DECIMAL(12,2) NOT NULL,
		capacity INT NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at BIGINT NOT NULL,
		UNIQUE KEY uq_rooms_property_name (property_id, name),
		CONSTRAINT fk_rooms_property FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE,
		CHECK (capacity >= 1)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS units (
		id CHAR(36) PRIMARY KEY,
		room_id CHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		unit_type VARCHAR(32) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at BIGINT NOT NULL,
		UNIQUE KEY uq_units_room_name (room_id, name),
		CONSTRAINT fk_units_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS plans (
		id CHAR(36) PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		room_id CHAR(36) NOT NULL,
		description TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at BIGINT NOT NULL,
		KEY idx_plans_room_dates (room_id, start_date, end_date),
		CONSTRAINT fk_plans_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE,
		CHECK (start_date <= end_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id CHAR(36) PRIMARY KEY,
		guest_id CHAR(36) NOT NULL,
		unit_id CHAR(36) NOT NULL,
		check_in DATE NOT NULL,
		check_out DATE NOT NULL,
		status VARCHAR(16) NOT NULL,
		total_price DECIMAL(12,2) NOT NULL,
		notes TEXT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		KEY idx_bookings_unit_dates (unit_id, check_in, check_out),
		KEY idx_bookings_guest_id (guest_id),
		CONSTRAINT fk_bookings_guest FOREIGN KEY (guest_id) REFERENCES guests(id) ON DELETE RESTRICT,
		CONSTRAINT fk_bookings_unit FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE RESTRICT,
		CHECK (check_in < check_out)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS payments (
		id CHAR(36) PRIMARY KEY,
		booking_id CHAR(36) NOT NULL,
		payment_type VARCHAR(16) NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		method VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL,
		transaction_id VARCHAR(255) NULL,
		notes TEXT NULL,
		original_payment_id CHAR(36) NULL,
		created_by CHAR(36) NULL,
		payment_date BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		KEY idx_payments_booking_id (booking_id),
		KEY idx_payments_original_id (original_payment_id),
		CONSTRAINT fk_payments_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
		CONSTRAINT fk_payments_original FOREIGN KEY (original_payment_id) REFERENCES payments(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS cash_register_entries (
		id CHAR(36) PRIMARY KEY,
		entry_type VARCHAR(16) NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		description TEXT NULL,
		payment_id CHAR(36) NULL UNIQUE,
		created_by CHAR(36) NULL,
		created_at BIGINT NOT NULL,
		CHECK (entry_type IN ('DEPOSIT', 'WITHDRAWAL'))
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS register_locks (
		name VARCHAR(32) PRIMARY KEY
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`INSERT IGNORE INTO register_locks (name) VALUES ('cash')`,
}
