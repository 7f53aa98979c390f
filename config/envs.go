package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	Addr      string // HTTP listen address
	StaticDir string // Directory with the browser client
	LogFile   string // Rotated log file path

	DungeonWidth    int   // Grid width in cells
	DungeonHeight   int   // Grid height in cells
	DungeonRooms    int   // Requested number of rooms (best effort)
	DungeonRoomSize int   // Average room side length
	DungeonSeed     int64 // Generator seed, 0 for time based

	MySQLAddr     string // host:port, empty selects the in-memory store
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string

	HiscoreMigrate bool          // Create the hiscores table at startup
	HiscoreRefresh time.Duration // Periodic reload interval, 0 disables it
}

// Load reads a .env file if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		Addr:      getEnv("ADDR", ":8081"),
		StaticDir: getEnv("STATIC_DIR", "public"),
		LogFile:   getEnv("LOG_FILE", "dungeon.log"),

		DungeonWidth:    getEnvAsInt("DUNGEON_WIDTH", 20),
		DungeonHeight:   getEnvAsInt("DUNGEON_HEIGHT", 20),
		DungeonRooms:    getEnvAsInt("DUNGEON_ROOMS", 7),
		DungeonRoomSize: getEnvAsInt("DUNGEON_ROOM_SIZE", 8),
		DungeonSeed:     int64(getEnvAsInt("DUNGEON_SEED", 0)),

		MySQLAddr:     getEnv("MYSQL_ADDR", ""),
		MySQLUser:     getEnv("MYSQL_USER", "root"),
		MySQLPassword: getEnv("MYSQL_PASSWORD", ""),
		MySQLDatabase: getEnv("MYSQL_DATABASE", "dungeongame"),

		HiscoreMigrate: getEnvAsBool("HISCORE_MIGRATE", false),
		HiscoreRefresh: time.Duration(getEnvAsInt("HISCORE_REFRESH_SECONDS", 0)) * time.Second,
	}
}

// getEnv returns the value of an environment variable or def when unset.
func getEnv(key, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return def
}

// getEnvAsInt parses an integer variable; a malformed value is fatal.
func getEnvAsInt(key string, def int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return def
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

func getEnvAsBool(key string, def bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok || valueStr == "" {
		return def
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be a boolean: %v", key, err)
	}
	return value
}
