package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	SendgridAPIKey string
	MailFrom       string

	JWTSecret string

	Policy Policy
}

// Policy holds the workflow policy knobs. The two photo counts exist because
// the driver capture flow and the admin detail confirmation require different
// numbers of photos.
type Policy struct {
	// RequiredPhotoCount is how many distinct photo positions the trip
	// workflow needs before the confirmation step unlocks.
	RequiredPhotoCount int
	// AdminMinPhotos is the looser requirement used by the admin-triggered
	// confirmation flow.
	AdminMinPhotos int
	// ReserveUpcomingSameDay keeps the original display rule: a schedule
	// entry that starts later today already marks the vehicle reserved,
	// potentially hours before the shift begins.
	ReserveUpcomingSameDay bool
}

// New sets up all config related services
func New() *Config {

	// local development convenience, real deploys set the environment directly
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	logger := zap.NewExample()
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       os.Getenv("MAIL_FROM"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		Policy: Policy{
			RequiredPhotoCount:     envInt("REQUIRED_PHOTO_COUNT", 4),
			AdminMinPhotos:         envInt("ADMIN_MIN_PHOTOS", 1),
			ReserveUpcomingSameDay: envBool("RESERVE_UPCOMING_SAME_DAY", true),
		},
	}
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		zap.S().Warnf("invalid %s=%q, using default of %v", key, v, fallback)
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		zap.S().Warnf("invalid %s=%q, using default of %v", key, v, fallback)
		return fallback
	}
	return b
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
	return
}
