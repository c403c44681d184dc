package common

import (
	"errors"
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"log"

	"gorm.io/gorm"
)

// Summary is the structured result of an operator-facing mutation.
type Summary struct {
	Linked  int `json:"linked"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Flagged int `json:"flagged"`
	Deleted int `json:"deleted"`
}

func (s *Summary) add(other *Summary) {
	s.Linked += other.Linked
	s.Created += other.Created
	s.Skipped += other.Skipped
	s.Flagged += other.Flagged
	s.Deleted += other.Deleted
}

type bookingGroup struct {
	userID uint
	rows   []models.Booking
}

// RepairEvent restores consistency for one event after historical races:
// orphaned duplicates are deleted, true paid duplicates are flagged for a
// human, and the sold-units counter is recomputed from the rows. Safe to run
// twice; the second run finds nothing left to fix.
func RepairEvent(eventID uint) (*Summary, error) {
	d := db.GetDb()
	summary := &Summary{}

	err := d.Transaction(func(tx *gorm.DB) error {
		// Repair must not interleave with new-booking creation for the same
		// event. The advisory lock is released with the transaction.
		var locked bool
		if err := tx.Raw("SELECT pg_try_advisory_xact_lock(?)", int64(eventID)).Scan(&locked).Error; err != nil {
			return err
		}
		if !locked {
			return ErrRepairLocked
		}

		var event models.Event
		if err := tx.Where(&models.Event{ID: eventID}).First(&event).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		var bookings []models.Booking
		if err := tx.
			Model(&models.Booking{}).
			Where("event_id = ?", eventID).
			Where("status IN ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
			Where("user_id IS NOT NULL").
			Preload("Payments").
			Order("created_at asc").
			Find(&bookings).
			Error; err != nil {
			return err
		}

		for _, group := range groupByUser(bookings) {
			if len(group.rows) < 2 {
				continue
			}
			var paid, orphans []models.Booking
			for _, b := range group.rows {
				if len(b.Payments) > 0 {
					paid = append(paid, b)
				} else {
					orphans = append(orphans, b)
				}
			}
			if len(paid) == 0 {
				// Nothing canonical to keep; deleting here would destroy the
				// only record of intent.
				summary.Skipped++
				continue
			}
			for _, orphan := range orphans {
				if err := tx.Delete(&models.Booking{}, orphan.ID).Error; err != nil {
					return err
				}
				log.Printf("[Repair] deleted orphaned booking=%d event=%d user=%d qty=%d\n",
					orphan.ID, eventID, group.userID, orphan.Qty)
				summary.Deleted++
			}
			if len(paid) > 1 {
				// A bypassed idempotency check produced two paid bookings.
				// Deleting either would destroy a payment reference, so this
				// only ever reaches the review queue.
				flagged, err := flagDuplicatePaid(tx, eventID, group.userID, paid)
				if err != nil {
					return err
				}
				if flagged {
					summary.Flagged++
				} else {
					summary.Skipped++
				}
			}
		}

		return recomputeSoldUnits(tx, eventID)
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// RepairAll runs RepairEvent over every event, skipping those currently
// locked by another repair run.
func RepairAll() (*Summary, error) {
	d := db.GetDb()
	var ids []uint
	if err := d.Model(&models.Event{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	summary := &Summary{}
	for _, id := range ids {
		s, err := RepairEvent(id)
		if err != nil {
			if errors.Is(err, ErrRepairLocked) {
				log.Printf("[Repair] event=%d locked, skipping\n", id)
				summary.Skipped++
				continue
			}
			return nil, err
		}
		summary.add(s)
	}
	return summary, nil
}

func groupByUser(bookings []models.Booking) []bookingGroup {
	index := map[uint]int{}
	groups := []bookingGroup{}
	for _, b := range bookings {
		if b.UserID == nil {
			continue
		}
		i, ok := index[*b.UserID]
		if !ok {
			i = len(groups)
			index[*b.UserID] = i
			groups = append(groups, bookingGroup{userID: *b.UserID})
		}
		groups[i].rows = append(groups[i].rows, b)
	}
	return groups
}

func flagDuplicatePaid(tx *gorm.DB, eventID uint, userID uint, paid []models.Booking) (bool, error) {
	var existing int64
	err := tx.
		Model(&models.ReviewFlag{}).
		Where(&models.ReviewFlag{Kind: types.FLAG_DUPLICATE_PAID, EventID: &eventID, UserID: &userID}).
		Where("resolved = false").
		Count(&existing).
		Error
	if err != nil {
		return false, err
	}
	if existing > 0 {
		return false, nil
	}
	ids := make([]uint, 0, len(paid))
	for _, b := range paid {
		ids = append(ids, b.ID)
	}
	flag := models.ReviewFlag{
		Kind:    types.FLAG_DUPLICATE_PAID,
		EventID: &eventID,
		UserID:  &userID,
		Details: types.JSONB{"booking_ids": ids},
	}
	if err := tx.Create(&flag).Error; err != nil {
		return false, err
	}
	return true, nil
}

// recomputeSoldUnits rewrites the denormalized counter from the surviving
// rows. The counter is a cache; the bookings are the truth. Only confirmed
// bookings count, the same rule the checkout and linker write paths follow
// when they increment.
func recomputeSoldUnits(tx *gorm.DB, eventID uint) error {
	var total int64
	err := tx.
		Model(&models.Booking{}).
		Where("event_id = ?", eventID).
		Where("status = ?", types.BOOKING_CONFIRMED).
		Select("COALESCE(SUM(qty), 0)").
		Scan(&total).
		Error
	if err != nil {
		return err
	}
	return tx.
		Model(&models.Event{}).
		Where("id = ?", eventID).
		UpdateColumn("sold_units", total).
		Error
}
