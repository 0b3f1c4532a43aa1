package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCities = []struct {
	City    string
	Country string
}{
	{"Lisbon", "Portugal"},
	{"Berlin", "Germany"},
	{"Barcelona", "Spain"},
	{"Amsterdam", "Netherlands"},
	{"Copenhagen", "Denmark"},
}

// SeedTestData resets the database and populates it with demo hosts, renters,
// listings and swipes.
//
// Behavior:
//  1. Clears every domain table.
//  2. Creates 20 users; the first 8 each publish 2-3 listings.
//  3. Generates likes from the remaining renters with ~70% probability, then
//     approves roughly a third of the resulting pending swipes and opens a
//     conversation with one message for each approval.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"messages", "conversations", "host_subletter_swipes",
		"property_swipe_histories", "property_swipes", "user_devices",
		"user_photos", "properties", "users",
	}
	for _, t := range tables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		for _, t := range tables {
			db.Exec("ALTER TABLE " + t + " AUTO_INCREMENT = 1")
		}
	case "sqlite":
		for _, t := range tables {
			db.Exec("DELETE FROM sqlite_sequence WHERE name = ?", t)
		}
	}

	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	for i := 1; i <= 20; i++ {
		user := User{
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			FirstName:    fmt.Sprintf("User%d", i),
			LastName:     "Demo",
			Provider:     "email",
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		if err := db.Create(&UserPhoto{
			UserID:    user.ID,
			PhotoURL:  fmt.Sprintf("https://cdn.example.com/avatars/%d.jpg", i),
			IsProfile: true,
		}).Error; err != nil {
			return fmt.Errorf("failed to seed photo: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	var users []User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return err
	}
	hosts, renters := users[:8], users[8:]

	var properties []Property
	for _, host := range hosts {
		n := 2 + r.Intn(2)
		for j := 0; j < n; j++ {
			place := seedCities[r.Intn(len(seedCities))]
			p := Property{
				HostID:      host.ID,
				Title:       fmt.Sprintf("%s flat of %s #%d", place.City, host.FirstName, j+1),
				Description: "Bright, furnished, close to transit.",
				City:        place.City,
				Country:     place.Country,
				Latitude:    35 + r.Float64()*20,
				Longitude:   -10 + r.Float64()*25,
			}
			if err := db.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to seed property: %w", err)
			}
			properties = append(properties, p)
		}
	}
	log.Printf("Seeded %d properties.", len(properties))

	counter := 0
	for _, renter := range renters {
		for j := 0; j < 6; j++ {
			prop := properties[r.Intn(len(properties))]
			if r.Intn(100) >= 70 {
				continue
			}

			swipe := PropertySwipe{
				UserID:     renter.ID,
				PropertyID: prop.ID,
				Status:     StatusPending,
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "property_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "hide_until", "updated_at"}),
			}).Create(&swipe).Error; err != nil {
				return fmt.Errorf("failed to seed swipe: %w", err)
			}
			if err := db.Create(&PropertySwipeHistory{
				UserID:     renter.ID,
				PropertyID: prop.ID,
				Action:     ActionLike,
			}).Error; err != nil {
				return err
			}

			// approve every 3rd like and open the thread
			if counter%3 == 0 {
				if err := db.Model(&PropertySwipe{}).
					Where("user_id = ? AND property_id = ?", renter.ID, prop.ID).
					Update("status", StatusApproved).Error; err != nil {
					return err
				}
				conv := Conversation{PropertyID: prop.ID, UserID: renter.ID, IsActive: true}
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&conv).Error; err != nil {
					return err
				}
				if conv.ID != 0 {
					if err := db.Create(&Message{
						ConversationID: conv.ID,
						SenderID:       prop.HostID,
						Content:        "Hey, your request is approved. When would you like to move in?",
						SentAt:         time.Now().UTC(),
					}).Error; err != nil {
						return err
					}
				}
			}
			counter++
		}
	}
	log.Printf("Seeded %d likes.", counter)

	return nil
}
