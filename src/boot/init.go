package boot

import (
	"encoding/json"
	"ets/src/common"
	"ets/src/db"
	"ets/src/lib"
	"ets/src/models"
	"fmt"
	"log"
	"os"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	db := db.GetDb()

	err := db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Booking{},
		&models.Payment{},
		&models.Subscription{},
		&models.ReviewFlag{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return db
}

func InitScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("An error has occurred. Check logs for info")
		return
	}
	j, err := sched.NewJob(
		gocron.CronJob("0 4 * * *", false),
		gocron.NewTask(func() {
			log.Println("[Repair] nightly sweep starting")
			summary, err := common.RepairAll()
			if err != nil {
				log.Printf("[Repair] nightly sweep failed: %s\n", err.Error())
				return
			}
			log.Printf("[Repair] nightly sweep done: linked=%d created=%d deleted=%d flagged=%d skipped=%d\n",
				summary.Linked, summary.Created, summary.Deleted, summary.Flagged, summary.Skipped)
		}),
	)
	if err != nil {
		log.Printf("Error running job: %s\n", err.Error())
		return
	}
	jobsWaitingInQueue := len(sched.Jobs())
	log.Println("Jobs in queue:", jobsWaitingInQueue)
	log.Printf("Job ID: %s %s\n", j.Name(), j.ID().String())
	sched.Start()
}

func StopScheduler() {
	sched, err := lib.GetScheduler()
	if err != nil {
		log.Println("Error retrieving Scheduler. Check logs for info")
		return
	}
	err = sched.Shutdown()
	if err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
		return
	}
}

func InitBroker() {
	go NotificationsConsumer()
}

type confirmationMessage struct {
	BookingID  uint    `json:"booking_id"`
	EventID    uint    `json:"event_id"`
	Qty        uint    `json:"qty"`
	Total      float64 `json:"total"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	EventTitle string  `json:"event_title"`
	EventDate  string  `json:"event_date"`
}

// NotificationsConsumer drains the booking notification queue and sends the
// confirmation emails. A message that fails is requeued once and dropped on
// the second failure.
func NotificationsConsumer() {
	msgs, err := lib.NotificationsConsume()
	if err != nil {
		log.Printf("[Notifications] consumer unavailable: %s\n", err.Error())
		return
	}
	for d := range msgs {
		var msg confirmationMessage
		if err := json.Unmarshal(d.Body, &msg); err != nil {
			log.Printf("[Notifications] bad payload: %s\n", err.Error())
			d.Nack(false, false)
			continue
		}
		if err := sendConfirmationEmail(&msg); err != nil {
			log.Printf("[Notifications] send failed for booking=%d: %s\n", msg.BookingID, err.Error())
			d.Nack(false, !d.Redelivered)
			continue
		}
		d.Ack(false)
	}
	log.Println("[Notifications] delivery channel closed")
}

func sendConfirmationEmail(msg *confirmationMessage) error {
	from := os.Getenv("SMTP_FROM")
	fromName := os.Getenv("SMTP_FROM_NAME")
	subject := fmt.Sprintf("Booking #%d confirmed", msg.BookingID)
	body := fmt.Sprintf(
		"Hi %s,\n\nYour booking #%d for %s is confirmed.\nUnits: %d\nTotal paid: %.2f\nEvent date: %s\n\nShow the attached code at the entrance.\n",
		msg.Name, msg.BookingID, msg.EventTitle, msg.Qty, msg.Total, msg.EventDate,
	)
	return lib.SendMail(&lib.SendMailInput{
		From:     from,
		FromName: fromName,
		To:       []string{msg.Email},
		Subject:  subject,
		Body:     body,
	})
}
