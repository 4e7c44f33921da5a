package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/snofleet/fleet-rental-api/api"
	"github.com/snofleet/fleet-rental-api/config"
	"github.com/snofleet/fleet-rental-api/databases"
)

// adminTokenTTL is how long a dashboard login stays valid.
const adminTokenTTL = 12 * time.Hour

// Admin exported for testing purposes
type Admin struct {
	DB        databases.AdminDatabase
	JWTSecret string
}

// adminClaims is the JWT payload for dashboard sessions.
type adminClaims struct {
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// LoginHandler exchanges admin credentials for a signed JWT.
func (a Admin) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	admin, err := a.DB.FindOne(ctx, bson.M{"email": body.Email, "active": true})
	if err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(body.Password)); err != nil {
		config.ErrorStatus("invalid email or password", http.StatusUnauthorized, w, err)
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, adminClaims{
		Email: admin.Email,
		Roles: admin.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenTTL)),
		},
	})
	signed, err := token.SignedString([]byte(a.JWTSecret))
	if err != nil {
		config.ErrorStatus("failed to sign token", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(map[string]interface{}{
		"token":      signed,
		"email":      admin.Email,
		"roles":      admin.Roles,
		"expires_at": now.Add(adminTokenTTL),
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
