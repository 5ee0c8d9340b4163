package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"event-analytics/internal/config"
	"event-analytics/internal/database"
	"event-analytics/internal/loader"
	"event-analytics/internal/model"
	"event-analytics/internal/output"
	"event-analytics/internal/reports"
	"event-analytics/internal/runner"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the config file")
	dbType := flag.String("db", "memory", "database engine (postgres, mysql, mongo, or memory)")
	input := flag.String("input", "", "csv file of user events to load before reporting")
	reportName := flag.String("report", "all", "report name, or 'all'")
	format := flag.String("format", "table", "output format (table, json, or csv)")
	profile := flag.Int("profile", 0, "repeat the selected report N times and print latency percentiles")
	reset := flag.Bool("reset", false, "drop existing user_events data before loading")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// The memory engine needs no DSNs, so a missing config file
		// just means defaults.
		if *dbType == database.DialectMemory && os.IsNotExist(err) {
			cfg = config.Default()
		} else {
			log.Printf("Failed to load config: %v", err)
			exitCode = 1
			return
		}
	}

	dbs := map[string]database.Driver{
		database.DialectPostgres: &database.PostgresDriver{},
		database.DialectMySQL:    &database.MySQLDriver{},
		database.DialectMongo:    &database.MongoDriver{},
		database.DialectMemory:   database.NewMemoryDriver(nil),
	}
	driver, ok := dbs[*dbType]
	if !ok {
		log.Printf("Unsupported database type: %s", *dbType)
		exitCode = 1
		return
	}

	var dsn string
	switch *dbType {
	case database.DialectPostgres:
		dsn = cfg.Databases.Postgres
	case database.DialectMySQL:
		dsn = cfg.Databases.MySQL
	case database.DialectMongo:
		dsn = cfg.Databases.Mongo
	}
	if err := driver.Connect(dsn); err != nil {
		log.Printf("Failed to connect to %s: %v", *dbType, err)
		exitCode = 1
		return
	}
	defer driver.Close()

	ctx := context.Background()

	if *dbType == database.DialectMemory && *input == "" {
		log.Printf("The memory engine holds no data between runs; pass -input with an event file")
		exitCode = 1
		return
	}

	if *reset {
		if err := driver.Reset(ctx); err != nil {
			log.Printf("Failed to reset %s: %v", *dbType, err)
			exitCode = 1
			return
		}
	}

	if *input != "" {
		events, err := readEvents(*input)
		if err != nil {
			log.Printf("Failed to read %s: %v", *input, err)
			exitCode = 1
			return
		}
		if err := loader.Load(ctx, driver, events); err != nil {
			log.Printf("Failed to load events: %v", err)
			exitCode = 1
			return
		}
		log.Printf("Loaded %d events into %s", len(events), *dbType)
	}

	if *profile > 0 {
		rep, ok := reports.Find(cfg, *reportName)
		if !ok {
			log.Printf("Profiling needs a single report name, got %q", *reportName)
			exitCode = 1
			return
		}
		result, err := runner.Profile(ctx, driver, rep, *profile)
		if err != nil {
			log.Printf("Profile failed: %v", err)
			exitCode = 1
			return
		}
		jsonOutput, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Printf("Failed to marshal result: %v", err)
			exitCode = 1
			return
		}
		fmt.Println(string(jsonOutput))
		return
	}

	var catalog []reports.Report
	if *reportName == "all" {
		catalog = reports.Catalog(cfg)
	} else {
		rep, ok := reports.Find(cfg, *reportName)
		if !ok {
			log.Printf("Unknown report: %s", *reportName)
			exitCode = 1
			return
		}
		catalog = []reports.Report{rep}
	}

	results, err := runner.RunAll(ctx, driver, catalog)
	if err != nil {
		log.Printf("Report run failed: %v", err)
		exitCode = 1
		return
	}

	if err := output.Write(os.Stdout, results, output.Format(*format)); err != nil {
		log.Printf("Failed to write output: %v", err)
		exitCode = 1
		return
	}
}

func readEvents(path string) ([]model.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loader.ParseCSV(f)
}
