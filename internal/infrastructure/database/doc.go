// Package database opens the local SQLite store and applies its schema.
//
// ApplianceLink keeps two tables here: the appliance registry (metadata from
// the cloud listing) and the channel history audit trail. Both repositories
// share the single DB handle this package returns.
//
// Migrations are plain SQL files embedded by the migrations package and
// applied at startup:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.Files); err != nil {
//	    return err
//	}
//
// All tables use STRICT mode and parameterised queries throughout. WAL mode
// keeps reads flowing while the event mirror writes.
package database
