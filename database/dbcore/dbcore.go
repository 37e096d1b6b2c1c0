package dbcore

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/haophotography/gallery-backend/config"
	"github.com/haophotography/gallery-backend/database/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db   *gorm.DB
	once sync.Once
)

// GetDBInstance Get database connection
func GetDBInstance() *gorm.DB {
	once.Do(func() {
		var err error

		cfg := config.Get()
		dbType := cfg.DBType

		switch dbType {
		case "sqlite", "sqlite3", "":
			path := cfg.DBFilePath
			if path == "" {
				path = "./data/galleries.db"
			}

			// WAL
			dsn := fmt.Sprintf("%s?_journal_mode=WAL", path)
			db, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{
				Logger:                 logger.Default.LogMode(logger.Silent),
				PrepareStmt:            true,
				SkipDefaultTransaction: true,
			})

			if err != nil {
				log.Fatalf("Failed to connect to SQLite3 database: %v", err)
			}
			log.Printf("Using SQLite database file: %s", path)
		case "postgres", "postgresql":
			dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
				cfg.DBHost,
				cfg.DBPort,
				cfg.DBUsername,
				cfg.DBPassword,
				cfg.DBName,
			)

			db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
				Logger:                 logger.Default.LogMode(logger.Silent),
				PrepareStmt:            true,
				SkipDefaultTransaction: true,
			})

			if err != nil {
				log.Fatalf("Failed to connect to PostgreSQL database: %v", err)
			}
			log.Printf("Connected to PostgreSQL database on %s:%d", cfg.DBHost, cfg.DBPort)

		default:
			log.Fatalf("Unsupported database type: %s", dbType)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatal("Failed to get underlying DB instance：", err)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	})

	return db
}

func CloseDB() error {
	if db == nil {
		log.Println("Database connection is not initialized, no need to close.")
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	log.Println("Closing database connection...")
	return sqlDB.Close()
}

// AutoMigrateDB auto DDL
func AutoMigrateDB(db *gorm.DB) error {
	modelsToMigrate := []interface{}{
		&models.Gallery{},
		&models.Photo{},
		&models.PhotoRating{},
		&models.Subscription{},
	}

	err := db.AutoMigrate(modelsToMigrate...)
	if err != nil {
		return fmt.Errorf("failed to auto migrate database schema: %w", err)
	}
	log.Println("Database auto migration completed.")
	return nil
}
