package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	tariff "parking-cloud/internal/tariff/domain"
	"parking-cloud/internal/tariff/infrastructure/yamlplan"
)

const localLayout = "2006-01-02T15:04"

type config struct {
	file       string
	lotID      string
	vehicle    string
	entry      string
	exit       string
	lostTicket bool
	currency   string
}

func main() {
	cfg := parseConfig()
	if cfg.entry == "" || cfg.exit == "" {
		log.Fatal("-entry and -exit are required")
	}

	file, err := yamlplan.Load(cfg.file)
	if err != nil {
		log.Fatalf("load %s: %v", cfg.file, err)
	}
	in, env, err := file.QuoteEnv(cfg.lotID)
	if err != nil {
		log.Fatalf("lot %s: %v", cfg.lotID, err)
	}

	vehicle, err := tariff.ParseVehicleType(cfg.vehicle)
	if err != nil {
		log.Fatalf("invalid vehicle: %v", err)
	}
	in.VehicleType = vehicle
	if in.EntryAt, err = parseInstant(cfg.entry, env.Location); err != nil {
		log.Fatalf("invalid entry: %v", err)
	}
	if in.ExitAt, err = parseInstant(cfg.exit, env.Location); err != nil {
		log.Fatalf("invalid exit: %v", err)
	}
	in.LostTicket = cfg.lostTicket

	quote, err := tariff.ComputeQuote(in, env)
	if err != nil {
		log.Fatalf("quote: %v", err)
	}
	quote.Currency = cfg.currency

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(quote); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.file, "file", envOrDefault("TARIFF_SEED_FILE", "configs/tariff_seed.yml"), "YAML plan file")
	flag.StringVar(&cfg.lotID, "lot", envOrDefault("LOT_ID", "lot-centro"), "lot id inside the file")
	flag.StringVar(&cfg.vehicle, "vehicle", envOrDefault("VEHICLE_TYPE", "CAR"), "vehicle type (CAR, MOTORCYCLE, BICYCLE)")
	flag.StringVar(&cfg.entry, "entry", "", "entry instant (RFC3339, or YYYY-MM-DDTHH:MM in the lot timezone)")
	flag.StringVar(&cfg.exit, "exit", "", "exit instant (RFC3339, or YYYY-MM-DDTHH:MM in the lot timezone)")
	flag.BoolVar(&cfg.lostTicket, "lost-ticket", envOrBool("LOST_TICKET", false), "charge the lost ticket fee")
	flag.StringVar(&cfg.currency, "currency", envOrDefault("CURRENCY", "COP"), "currency code printed with the quote")
	flag.Parse()
	return cfg
}

// parseInstant accepts RFC3339 or a wall-clock time in loc.
func parseInstant(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(localLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither RFC3339 nor %s", value, localLayout)
	}
	return t, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envOrBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
