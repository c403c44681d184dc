package common

import (
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// testDB connects to the database named by TEST_DATABASE_URL and resets the
// schema. Tests that need real transactions, row locks and unique-constraint
// behavior skip cleanly when no database is available.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping storage-backed tests")
	}
	d, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, d.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Booking{},
		&models.Payment{},
		&models.Subscription{},
		&models.ReviewFlag{},
	))
	require.NoError(t, d.Exec(`
		DELETE FROM review_flags WHERE true;
		DELETE FROM payments WHERE true;
		DELETE FROM bookings WHERE true;
		DELETE FROM subscriptions WHERE true;
		DELETE FROM events WHERE true;
		DELETE FROM users WHERE true;
	`).Error)

	db.NewDB(d)
	return d
}

func seedEvent(t *testing.T, d *gorm.DB, unitPrice float64, capacity uint) *models.Event {
	t.Helper()
	event := models.Event{
		Title:     fmt.Sprintf("Test Event %d", time.Now().UnixNano()),
		UnitPrice: unitPrice,
		Capacity:  capacity,
		DateTime:  time.Now().Add(30 * 24 * time.Hour),
		Status:    types.EVENT_PUBLISHED,
	}
	require.NoError(t, d.Create(&event).Error)
	return &event
}

func seedUser(t *testing.T, d *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Name: "Test User", Email: &email}
	require.NoError(t, d.Create(&user).Error)
	return &user
}

func reloadEvent(t *testing.T, d *gorm.DB, id uint) *models.Event {
	t.Helper()
	var event models.Event
	require.NoError(t, d.Where(&models.Event{ID: id}).First(&event).Error)
	return &event
}
