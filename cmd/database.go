package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/hira-inspection/internal"
	inspectiondatamodel "github.com/frahmantamala/hira-inspection/internal/core/datamodel/inspection"
	userdatamodel "github.com/frahmantamala/hira-inspection/internal/core/datamodel/user"
)

// Database holds the two views over one connection pool: gorm for the
// repositories and sqlx for the dashboard aggregates.
type Database struct {
	Gorm   *gorm.DB
	SQLX   *sqlx.DB
	Driver string
}

func (d *Database) Close() error {
	return d.SQLX.Close()
}

// sqlxDriverName maps the configured driver to the database/sql driver name
// sqlx uses to pick its bind style.
func sqlxDriverName(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return "pgx"
}

func initDB(cfg internal.DatabaseConfig) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		if err := autoMigrate(gdb); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return &Database{
		Gorm:   gdb,
		SQLX:   sqlx.NewDb(sqlDB, sqlxDriverName(cfg.Driver)),
		Driver: cfg.Driver,
	}, nil
}

// autoMigrate creates the schema for sqlite, which the goose migrations
// do not target.
func autoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&userdatamodel.User{},
		&inspectiondatamodel.Inspection{},
		&inspectiondatamodel.Hazard{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
