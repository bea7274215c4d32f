// Command stubapi runs the in-memory records API so the console can be
// developed and demoed without the real backend. It seeds one admin account
// and a few students.
package main

import (
	"log"
	"os"
	"time"

	"student_console/internal/model"
	"student_console/internal/stub"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8000"
	}
	secret := os.Getenv("STUB_TOKEN_SECRET")
	if secret == "" {
		secret = "stub-dev-secret"
	}

	server := stub.New(secret, 15*time.Minute)

	if err := server.SeedUser(model.User{
		Username: "admin1",
		Email:    "admin1@example.com",
		FullName: "Admin One",
		Role:     model.RoleAdmin,
	}, "secret1"); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	server.SeedStudent(model.Student{Name: "John Doe", RollNumber: "2023001", ClassName: "10A", Grade: "A"})
	server.SeedStudent(model.Student{Name: "Jane Smith", RollNumber: "2023002", ClassName: "10A", Grade: "B+"})
	server.SeedStudent(model.Student{Name: "Bob Johnson", RollNumber: "2023003", ClassName: "10B", Grade: "A+"})

	gin.SetMode(gin.ReleaseMode)
	router := server.Router()

	log.Printf("Stub records API listening on port %s (admin1/secret1)", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Stub server failed: %v", err)
	}
}
