// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM to properly configure MySQL (production)
// and SQLite (local/tests) connections based on the application's configuration.
//
// # Connect
//
// The generic Connect function establishes a connection to the database.
// Schema creation itself is owned by the models package (AutoMigrate).
//
// # Schema Inspection
//
// The package includes tools to inspect the live database schema, backing
// the `info` CLI command. GetTableColumns retrieves column definitions in a
// dialect-aware way (SHOW COLUMNS for MySQL, PRAGMA table_info for SQLite).
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "raw_entities")
package database
