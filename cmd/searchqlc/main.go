// Command searchqlc compiles a single query string from the command
// line and prints the resulting query document as JSON. Grounded on the
// teacher's cmd/worker/main.go bootstrap: multi-path godotenv.Load,
// config.Load, a slog JSON handler sized by LOG_LEVEL, and fatal errors
// logged then exited rather than panicked.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/kodeq/searchql"
	"github.com/kodeq/searchql/internal/config"
)

func main() {
	_ = godotenv.Load()             // cwd/.env
	_ = godotenv.Load("../.env")    // running from cmd/searchqlc -> project root .env
	_ = godotenv.Load("../../.env")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg.LogLevel)

	fieldsPath := flag.String("fields", cfg.FieldsPath, "path to the JSON field-metadata schema")
	defaultField := flag.String("default-field", cfg.DefaultField, "field an unqualified atom binds to")
	flag.Parse()

	query := flag.Arg(0)
	if query == "" {
		slog.Error("a query argument is required")
		os.Exit(1)
	}
	if *fieldsPath == "" {
		slog.Error("-fields (or SEARCHQL_FIELDS_PATH) is required")
		os.Exit(1)
	}

	invocationID := uuid.NewString()
	log := slog.With("invocation_id", invocationID)

	table, err := loadTable(*fieldsPath, *defaultField)
	if err != nil {
		log.Error("failed to load field schema", "error", err, "path", *fieldsPath)
		os.Exit(1)
	}

	result, err := searchql.Compile(query, table, time.Now())
	if err != nil {
		log.Error("failed to compile query", "error", err, "query", query)
		os.Exit(1)
	}

	body, err := json.MarshalIndent(result.Query, "", "  ")
	if err != nil {
		log.Error("failed to marshal query document", "error", err)
		os.Exit(1)
	}

	fmt.Println(string(body))
	log.Info("compiled query", "requires_query", result.RequiresQuery)
}

func loadTable(path, defaultField string) (*searchql.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := searchql.DecodeTable(f)
	if err != nil {
		return nil, err
	}
	if defaultField != "" {
		table = table.WithDefaultField(defaultField)
	}
	return table, nil
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))
}
