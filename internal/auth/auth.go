package auth

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Auth struct {
	DB *sql.DB
}

func NewAuth(db *sql.DB) *Auth {
	return &Auth{DB: db}
}

type registerRequest struct {
	Nickname string `json:"nickname"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Tag      int    `json:"tag"`
}

type loginRequest struct {
	Nickname string `json:"nickname"`
	Tag      int    `json:"tag"`
	Password string `json:"password"`
}

// RegisterHandler creates a user with a nickname, an auto-generated tag and
// a bcrypt password hash.
func (a *Auth) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	nick := strings.TrimSpace(req.Nickname)
	if nick == "" || len(req.Password) < 4 {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	tag, userID, err := a.insertUserWithTag(nick, string(hash))
	if err != nil {
		log.Println("register:", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, userID)

	resp := registerResponse{
		UserID:   userID,
		Nickname: nick,
		Tag:      tag,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// LoginHandler verifies nickname+tag+password and sets the session cookie.
func (a *Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	nick := strings.TrimSpace(req.Nickname)
	if nick == "" || req.Tag <= 0 {
		http.Error(w, "invalid credentials", http.StatusBadRequest)
		return
	}

	var userID, hash string
	err := a.DB.QueryRow(`
		SELECT id, password_hash FROM users WHERE nickname = $1 AND tag = $2
	`, nick, req.Tag).Scan(&userID, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	setSessionCookie(w, userID)

	resp := registerResponse{
		UserID:   userID,
		Nickname: nick,
		Tag:      req.Tag,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// insertUserWithTag retries random tag generation and inserts the user
// atomically.
func (a *Auth) insertUserWithTag(nickname, passwordHash string) (int, string, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 0; i < 20; i++ {
		tag := rng.Intn(9999) + 1 // 1..9999
		userID := "u_" + uuid.NewString()

		var insertedID string
		err := a.DB.QueryRow(`
			INSERT INTO users (id, nickname, tag, password_hash)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (nickname, tag) DO NOTHING
			RETURNING id
		`, userID, nickname, tag, passwordHash).Scan(&insertedID)

		if errors.Is(err, sql.ErrNoRows) {
			continue // Tag collision, retry
		}
		if err != nil {
			return 0, "", err
		}

		return tag, insertedID, nil
	}

	return 0, "", fmt.Errorf("failed to generate unique tag for %s", nickname)
}

func setSessionCookie(w http.ResponseWriter, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "user_id",
		Value:    userID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
