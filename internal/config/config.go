package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config is the reference backend's environment configuration.
type Config struct {
	Port        int
	DataPath    string
	DBPath      string
	JWTSecret   string
	CORSOrigins []string
	CatalogPath string

	TranslateEngine     string
	TranslateSourceLang string
	TranslateTargetLang string
	OpenAIKey           string
	GeminiKey           string
	GeminiModel         string
	DeepLKey            string
}

func Load() *Config {
	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 {
		log.Printf("WARNING: invalid PORT %q, using 8080", os.Getenv("PORT"))
		port = 8080
	}
	dataPath := getEnv("DATA_PATH", "./data")

	// JWT secret: require explicit setting or generate random
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Issued api tokens will not survive restarts.")
	}

	return &Config{
		Port:        port,
		DataPath:    dataPath,
		DBPath:      getEnv("DB_PATH", dataPath+"/study.db"),
		JWTSecret:   jwtSecret,
		CORSOrigins: splitList(os.Getenv("CORS_ORIGINS"), []string{"*"}),
		CatalogPath: os.Getenv("CATALOG_PATH"),

		TranslateEngine:     os.Getenv("TRANSLATE_ENGINE"),
		TranslateSourceLang: getEnv("TRANSLATE_SOURCE_LANG", "en"),
		TranslateTargetLang: getEnv("TRANSLATE_TARGET_LANG", "ja"),
		OpenAIKey:           os.Getenv("OPENAI_API_KEY"),
		GeminiKey:           os.Getenv("GEMINI_API_KEY"),
		GeminiModel:         os.Getenv("GEMINI_MODEL"),
		DeepLKey:            os.Getenv("DEEPL_API_KEY"),
	}
}

// splitList parses a comma-separated list, returning fallback when v has no items.
func splitList(v string, fallback []string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
