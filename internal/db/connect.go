// Package db opens the signalbox database and migrates its schema.
package db

import (
	"fmt"
	"net"
	"strconv"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/zulandar/signalbox/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormConfig is the gorm configuration shared by every connection. Times are
// kept in UTC so that stored timestamps compare consistently on every driver,
// and driver errors are translated into gorm.ErrDuplicatedKey and
// gorm.ErrForeignKeyViolated.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// MySQLDSN builds a DSN for a MySQL-compatible server. An empty database name
// yields a server-level DSN.
func MySQLDSN(cfg config.DatabaseConfig, database string) string {
	mc := mysqldrv.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = database
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

// PostgresDSN builds a key/value DSN for PostgreSQL.
func PostgresDSN(cfg config.DatabaseConfig, database string) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s dbname=%s sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, database)
	if cfg.Password != "" {
		dsn += " password=" + cfg.Password
	}
	return dsn
}

// SQLiteDSN returns the sqlite DSN for path with foreign keys enforced.
func SQLiteDSN(path string) string {
	return path + "?_foreign_keys=on"
}

// Dialector picks the gorm dialector for the configured driver.
func Dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return sqlite.Open(SQLiteDSN(cfg.Path)), nil
	case config.DriverMySQL:
		return mysql.Open(MySQLDSN(cfg, cfg.Name)), nil
	case config.DriverPostgres:
		return postgres.Open(PostgresDSN(cfg, cfg.Name)), nil
	}
	return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
}

// Open connects to the configured database.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s %s: %w", cfg.Driver, describe(cfg), err)
	}
	if cfg.Driver == config.DriverSQLite || cfg.Driver == "" {
		// sqlite serialises writers; a single connection avoids SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("db: connect to sqlite %s: %w", cfg.Path, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// ConnectAdmin opens a server-level connection without selecting the
// signalbox database, used for CREATE DATABASE.
func ConnectAdmin(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverMySQL:
		dialector = mysql.Open(MySQLDSN(cfg, ""))
	case config.DriverPostgres:
		dialector = postgres.Open(PostgresDSN(cfg, "postgres"))
	default:
		return nil, fmt.Errorf("db: admin connect: driver %q has no server", cfg.Driver)
	}
	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

// CreateDatabase creates the named database if it doesn't already exist.
func CreateDatabase(adminDB *gorm.DB, driver, name string) error {
	switch driver {
	case config.DriverMySQL:
		sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)
		if err := adminDB.Exec(sql).Error; err != nil {
			return fmt.Errorf("db: create database %s: %w", name, err)
		}
	case config.DriverPostgres:
		// PostgreSQL has no IF NOT EXISTS for databases.
		var n int64
		if err := adminDB.Raw("SELECT count(*) FROM pg_database WHERE datname = ?", name).Scan(&n).Error; err != nil {
			return fmt.Errorf("db: create database %s: %w", name, err)
		}
		if n > 0 {
			return nil
		}
		if err := adminDB.Exec(fmt.Sprintf(`CREATE DATABASE "%s"`, name)).Error; err != nil {
			return fmt.Errorf("db: create database %s: %w", name, err)
		}
	default:
		return fmt.Errorf("db: create database: driver %q has no server", driver)
	}
	return nil
}

func describe(cfg config.DatabaseConfig) string {
	if cfg.Driver == config.DriverSQLite || cfg.Driver == "" {
		return cfg.Path
	}
	return fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Name)
}
