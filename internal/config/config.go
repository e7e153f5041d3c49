package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Categories served by the station printers when CATEGORY_PRINTERS is unset.
var legacyStations = []struct {
	env        string
	categories []int64
}{
	{"DRINKS_PRINTER", []int64{6}},
	{"GRILL_PRINTER", []int64{7, 9}},
	{"SALAD_PRINTER", []int64{10}},
}

type Config struct {
	Port      string
	JWTSecret string

	// Order API
	OrdersAPIURL    string
	OrdersAPIToken  string
	OrdersAPISecret string
	HTTPTimeout     time.Duration

	// Routing
	DefaultPrinter   string
	CustomerPrinter  string
	CategoryPrinters map[int64]string

	// Rendering and spooling
	FontPath             string
	SpoolDir             string
	SpoolCommand         string
	DispatchConcurrency  int
	ReconcileConcurrency int

	// Bill header
	BrandName    string
	BrandTagline string

	// Optional integrations
	DatabaseURL string
	AMQPURL     string
	AMQPQueue   string

	CORSOrigins []string
}

func Load() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8082"),
		JWTSecret:            getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		OrdersAPIURL:         firstEnv("http://localhost:8081", "ORDERS_API_URL", "BEST_URL"),
		OrdersAPIToken:       os.Getenv("ORDERS_API_TOKEN"),
		OrdersAPISecret:      os.Getenv("ORDERS_API_SECRET"),
		HTTPTimeout:          parseDurationEnv("HTTP_TIMEOUT", 10*time.Second),
		DefaultPrinter:       firstEnv("kitchen", "DEFAULT_PRINTER", "CITCHEN_PRINTER"),
		CustomerPrinter:      os.Getenv("CUSTOMER_PRINTER"),
		CategoryPrinters:     categoryPrinters(),
		FontPath:             os.Getenv("FONT_PATH"),
		SpoolDir:             os.Getenv("SPOOL_DIR"),
		SpoolCommand:         getEnv("SPOOL_COMMAND", "lp"),
		DispatchConcurrency:  parseIntEnv("DISPATCH_CONCURRENCY", 4),
		ReconcileConcurrency: parseIntEnv("RECONCILE_CONCURRENCY", 4),
		BrandName:            os.Getenv("BRAND_NAME"),
		BrandTagline:         os.Getenv("BRAND_TAGLINE"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		AMQPURL:              os.Getenv("AMQP_URL"),
		AMQPQueue:            getEnv("AMQP_QUEUE", "print_requests"),
		CORSOrigins:          splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}
}

// categoryPrinters merges the legacy station variables with CATEGORY_PRINTERS.
// CATEGORY_PRINTERS wins on conflicts.
func categoryPrinters() map[int64]string {
	m := make(map[int64]string)
	for _, st := range legacyStations {
		if printer := os.Getenv(st.env); printer != "" {
			for _, c := range st.categories {
				m[c] = printer
			}
		}
	}
	for c, printer := range ParseCategoryPrinters(os.Getenv("CATEGORY_PRINTERS")) {
		m[c] = printer
	}
	return m
}

// ParseCategoryPrinters reads "6=drinks,7=grill". Malformed pairs are
// skipped with a warning.
func ParseCategoryPrinters(s string) map[int64]string {
	m := make(map[int64]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, printer, ok := strings.Cut(pair, "=")
		if !ok {
			slog.Warn("skipping category printer", "pair", pair, "reason", "missing '='")
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			slog.Warn("skipping category printer", "pair", pair, "reason", "category is not a number")
			continue
		}
		printer = strings.TrimSpace(printer)
		if printer == "" {
			slog.Warn("skipping category printer", "pair", pair, "reason", "empty printer name")
			continue
		}
		m[id] = printer
	}
	return m
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// firstEnv returns the first set variable among keys.
func firstEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
		slog.Warn("ignoring invalid integer", "key", key, "value", v)
	}
	return fallback
}

func parseDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if i, err := strconv.Atoi(v); err == nil {
			return time.Duration(i) * time.Second
		}
		slog.Warn("ignoring invalid duration", "key", key, "value", v)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
