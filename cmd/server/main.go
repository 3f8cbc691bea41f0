package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"battlesim/internal/api"
	"battlesim/internal/auth"
	"battlesim/internal/data"
	"battlesim/internal/live"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// Match history and accounts are optional; the battle API works fully
	// in-memory without a database.
	var store *data.Store
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		s, err := data.NewStoreFromDB(connStr)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		if err := s.Init(); err != nil {
			log.Fatalf("failed to prepare database: %v", err)
		}
		store = s
	} else {
		log.Println("DATABASE_URL not set, running without persistence")
	}

	hub := live.NewHub()

	srv := api.NewServer(store, hub)
	srv.ArchetypesPath = os.Getenv("ARCHETYPES_PATH")

	mux := http.NewServeMux()
	srv.Routes(mux)
	mux.HandleFunc("/ws/battle", hub.HandleWS)

	if store != nil {
		a := auth.NewAuth(store.DB())
		mux.HandleFunc("/api/register", a.RegisterHandler)
		mux.HandleFunc("/api/login", a.LoginHandler)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server starting on port " + port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal("ListenAndServe: ", err)
	}
}
