package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"

	"kitaspaces-server/models"
	"kitaspaces-server/storage"
)

// Seeds the initial rooms, membership plans and an admin account.
// Run once against a fresh database: go run ./scripts
func main() {
	storage.InitializeDB()

	seedRooms()
	seedPlans()
	seedAdmin()

	fmt.Println("Seed complete")
}

func seedRooms() {
	rooms := []models.Room{
		{Name: "Focus Room", Description: "Quiet 4-seat room with whiteboard", OpenTime: "09:00", CloseTime: "18:00", HourlyRate: 15, Capacity: 4},
		{Name: "Boardroom", Description: "12-seat boardroom with projector and conference phone", OpenTime: "08:00", CloseTime: "20:00", HourlyRate: 40, Capacity: 12},
		{Name: "Huddle Space", Description: "Casual 6-seat space near the cafe", OpenTime: "09:00", CloseTime: "18:00", HourlyRate: 20, Capacity: 6},
	}
	for _, room := range rooms {
		var existing models.Room
		if err := storage.DB.Where("name = ?", room.Name).First(&existing).Error; err == nil {
			continue
		}
		if err := storage.DB.Create(&room).Error; err != nil {
			log.Fatalf("seeding room %s: %v", room.Name, err)
		}
	}
}

func seedPlans() {
	hotDeskPerks, _ := json.Marshal([]string{"Hot desk access", "Coffee and printing", "Community events"})
	dedicatedPerks, _ := json.Marshal([]string{"Dedicated desk", "Locker", "Mail handling", "Coffee and printing"})

	plans := []models.MembershipPlan{
		{Name: "Hot Desk", Description: "Flexible seating, first come first served", MonthlyPrice: 99, Perks: datatypes.JSON(hotDeskPerks), MeetingRoomHours: 2},
		{Name: "Dedicated Desk", Description: "Your own desk, available around the clock", MonthlyPrice: 199, Perks: datatypes.JSON(dedicatedPerks), MeetingRoomHours: 8},
	}
	for _, plan := range plans {
		var existing models.MembershipPlan
		if err := storage.DB.Where("name = ?", plan.Name).First(&existing).Error; err == nil {
			continue
		}
		if err := storage.DB.Create(&plan).Error; err != nil {
			log.Fatalf("seeding plan %s: %v", plan.Name, err)
		}
	}
}

func seedAdmin() {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD not set, skipping admin user")
		return
	}

	var existing models.User
	if err := storage.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		fmt.Println("Admin user already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		log.Fatalf("hashing admin password: %v", err)
	}

	admin := models.User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     email,
		Password:  string(hashed),
		Role:      "super_admin",
	}
	if err := storage.DB.Create(&admin).Error; err != nil {
		log.Fatalf("seeding admin user: %v", err)
	}
}
