package main

import (
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func subscriptionHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/subscriptions", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			var subs []models.Subscription
			d := db.GetDb()
			if err := d.
				Model(&models.Subscription{}).
				Where("user_id = ?", userId).
				Order("starts_at DESC").
				Find(&subs).
				Error; err != nil {
				log.Printf("Error retrieving Subscriptions: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": subs})
		}).
		POST("/subscriptions", func(ctx *gin.Context) {
			var body types.CreateSubscriptionRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			d := db.GetDb()

			var active int64
			if err := d.
				Model(&models.Subscription{}).
				Where("user_id = ? AND status = ? AND ends_at > ?", userId, types.SUBSCRIPTION_ACTIVE, time.Now()).
				Count(&active).
				Error; err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			if active > 0 {
				ctx.JSON(http.StatusConflict, gin.H{"error": "an active subscription already exists"})
				return
			}

			now := time.Now()
			sub := models.Subscription{
				UserID:   userId,
				Plan:     body.Plan,
				StartsAt: now,
				EndsAt:   now.AddDate(0, int(body.Months), 0),
				Status:   types.SUBSCRIPTION_ACTIVE,
			}
			if err := d.Create(&sub).Error; err != nil {
				log.Printf("Error creating Subscription: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": sub})
		})
	return g
}
