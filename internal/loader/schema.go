package loader

// Schema returns the user_events DDL. The column types are chosen to
// be valid on both PostgreSQL and MySQL; document engines skip DDL.
func Schema() string {
	return `
		CREATE TABLE IF NOT EXISTS user_events (
			event_id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			event_type VARCHAR(32) NOT NULL,
			event_date TIMESTAMP NOT NULL,
			product_id VARCHAR(64),
			amount DECIMAL(10, 2) NOT NULL DEFAULT 0,
			traffic_source VARCHAR(64) NOT NULL
		);
	`
}
