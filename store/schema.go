package store

const Schema = `
CREATE TABLE IF NOT EXISTS instruments (
	instrument_id INTEGER PRIMARY KEY,
	symbol TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	is_tradable INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS market_prices (
	instrument_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	open REAL,
	high REAL,
	low REAL,
	close REAL,
	volume REAL,
	adj_open REAL,
	adj_high REAL,
	adj_low REAL,
	adj_close REAL,
	adj_volume REAL,
	dividend REAL NOT NULL DEFAULT 0,
	split_factor REAL NOT NULL DEFAULT 1,
	PRIMARY KEY (instrument_id, date)
);
CREATE INDEX IF NOT EXISTS idx_market_prices_date ON market_prices(date);

CREATE TABLE IF NOT EXISTS factor_values (
	instrument_id INTEGER NOT NULL,
	date TEXT NOT NULL,
	factor_name TEXT NOT NULL,
	factor_value REAL NOT NULL,
	factor_version TEXT NOT NULL DEFAULT 'v1',
	factor_args TEXT NOT NULL DEFAULT '{}',
	config TEXT NOT NULL DEFAULT '{}',
	data_source TEXT NOT NULL DEFAULT 'internal',
	ingested_at TEXT NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (instrument_id, date, factor_name, factor_version)
);
CREATE INDEX IF NOT EXISTS idx_factor_values_date_name ON factor_values(date, factor_name);

CREATE TABLE IF NOT EXISTS system_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS trading_calendar (
	date TEXT NOT NULL,
	market TEXT NOT NULL,
	PRIMARY KEY (date, market)
);

CREATE TABLE IF NOT EXISTS exp_positions (
	date TEXT NOT NULL,
	instrument_id INTEGER NOT NULL,
	quantity REAL NOT NULL,
	buy_price REAL NOT NULL,
	current_price REAL NOT NULL,
	market_value REAL NOT NULL,
	PRIMARY KEY (date, instrument_id)
);
CREATE INDEX IF NOT EXISTS idx_exp_positions_date ON exp_positions(date);
`
