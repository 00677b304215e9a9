package main

import (
	"fmt"
	"log"
	"os"

	"docuchat/config"
	"docuchat/internal/domain/file"
	"docuchat/internal/domain/processing"
	"docuchat/pkg/database"
)

const usage = `
DocuChat - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Run GORM migrations for all tables
  status      Show database connection status
  drop        Drop all tables (DANGEROUS)
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	database.Connect(cfg)

	models := []interface{}{
		&file.File{},
		&processing.Session{},
		&processing.Entry{},
		&processing.SessionSequence{},
	}

	switch os.Args[1] {
	case "up":
		if err := database.DB.AutoMigrate(models...); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations applied")
	case "status":
		if err := database.HealthCheck(); err != nil {
			log.Fatalf("Database unreachable: %v", err)
		}
		log.Println("Database connection OK")
	case "drop":
		if err := database.DB.Migrator().DropTable(models...); err != nil {
			log.Fatalf("Drop failed: %v", err)
		}
		log.Println("Tables dropped")
	default:
		fmt.Print(usage)
		os.Exit(1)
	}
}
