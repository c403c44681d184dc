package main

import (
	"context"
	"ets/src/db"
	"ets/src/lib"
	"ets/src/models"
	"ets/src/types"
	"ets/src/utils"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func bookingHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var bookings []models.Booking
			d := db.GetDb()
			if err := d.
				Model(&models.Booking{}).
				Where("user_id = ?", userId).
				Preload("Event").
				Preload("Payments").
				Order("created_at DESC").
				Limit(20).
				Find(&bookings).
				Error; err != nil {
				log.Printf("Error retrieving Bookings: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var booking models.Booking
			d := db.GetDb()
			if err := d.
				Model(&models.Booking{}).
				Where("id = ? AND user_id = ?", params.ID, userId).
				Preload("Event").
				Preload("Payments").
				First(&booking).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/bookings/:id/code", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			var booking models.Booking
			d := db.GetDb()
			if err := d.
				Model(&models.Booking{}).
				Where("id = ? AND user_id = ?", params.ID, userId).
				First(&booking).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if booking.Status != types.BOOKING_CONFIRMED {
				ctx.JSON(http.StatusConflict, gin.H{"error": "booking is not confirmed"})
				return
			}

			filename := fmt.Sprintf("booking-%d", booking.ID)
			if rd := lib.GetRedisClient(); rd != nil {
				if cached := rd.Get(context.Background(), filename).Val(); cached != "" {
					ctx.File(cached)
					return
				}
			}
			filepath, err := utils.GenerateBookingCode(booking.ID, userId, booking.EventID, booking.Qty)
			if err != nil {
				log.Printf("Error generating redemption code for booking=%d: %s\n", booking.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.File(filepath)
		})
	return g
}
