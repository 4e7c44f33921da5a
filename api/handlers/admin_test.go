package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/snofleet/fleet-rental-api/api/handlers"
	"github.com/snofleet/fleet-rental-api/databases/mocks"
	"github.com/snofleet/fleet-rental-api/models"
)

func TestAdmin_LoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	adminDB := &mocks.AdminDatabase{}
	adminDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.AdminUser{
		ID:       primitive.NewObjectID(),
		Email:    "ops@snofleet.no",
		Password: string(hash),
		Roles:    []string{"admin"},
		Active:   true,
	}, nil)

	a := handlers.Admin{DB: adminDB, JWTSecret: "test-secret"}

	req, err := http.NewRequest("POST", "/api/v1/admin/login",
		strings.NewReader(`{"email": "ops@snofleet.no", "password": "hunter2"}`))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.LoginHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var resp struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Email != "ops@snofleet.no" {
		t.Errorf("expected email in response, got %v", resp.Email)
	}

	parsed, err := jwt.Parse(resp.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Errorf("expected a valid signed token, got err %v", err)
	}
}

func TestAdmin_LoginHandlerWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	adminDB := &mocks.AdminDatabase{}
	adminDB.On("FindOne", mock.Anything, mock.Anything).Return(&models.AdminUser{
		Email:    "ops@snofleet.no",
		Password: string(hash),
		Active:   true,
	}, nil)

	a := handlers.Admin{DB: adminDB, JWTSecret: "test-secret"}

	req, err := http.NewRequest("POST", "/api/v1/admin/login",
		strings.NewReader(`{"email": "ops@snofleet.no", "password": "wrong"}`))
	if err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	handler := http.HandlerFunc(a.LoginHandler)

	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusUnauthorized)
	}
}
