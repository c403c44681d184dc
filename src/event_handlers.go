package main

import (
	"ets/src/config"
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
)

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		GET("/events", func(ctx *gin.Context) {
			var events []models.Event
			d := db.GetDb()
			if err := d.
				Model(&models.Event{}).
				Where("status = ?", types.EVENT_PUBLISHED).
				Where("date_time > ?", time.Now()).
				Order("date_time asc").
				Find(&events).
				Error; err != nil {
				log.Printf("Error retrieving Events: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var event models.Event
			d := db.GetDb()
			if err := d.
				Where(&models.Event{ID: params.ID, Status: types.EVENT_PUBLISHED}).
				First(&event).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{
				"data":      event,
				"remaining": event.Remaining(),
			})
		}).
		GET("/share/:filename", func(ctx *gin.Context) {
			apiEnv := os.Getenv("API_ENV")
			if apiEnv != "local" {
				ctx.Status(http.StatusNotFound)
				return
			}
			var params struct {
				Filename string `uri:"filename" binding:"required"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			assets := os.Getenv("TEMP_DIR")
			filePath := path.Join(assets, fmt.Sprintf("%s.jpeg", params.Filename))
			log.Printf("filePath: %s", filePath)
			ctx.File(filePath)
		})
	return apiv1
}

func adminEventHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dateTime, err := time.Parse(config.TIME_PARSE_FORMAT, body.DateTime)
			if err != nil {
				log.Printf("Error parsing date_time: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event := models.Event{
				Title:     body.Title,
				Slug:      slug.Make(body.Title),
				Location:  body.Location,
				DateTime:  dateTime,
				UnitPrice: body.UnitPrice,
				Capacity:  body.Capacity,
				Status:    types.EVENT_DRAFT,
			}
			if body.Description != "" {
				event.Description = &body.Description
			}
			if body.Publish {
				event.Status = types.EVENT_PUBLISHED
			}
			d := db.GetDb()
			if err := d.Create(&event).Error; err != nil {
				log.Printf("Error creating Event: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"id": event.ID})
		}).
		POST("/events/:id/publish", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			d := db.GetDb()
			res := d.
				Model(&models.Event{}).
				Where("id = ? AND status = ?", params.ID, types.EVENT_DRAFT).
				Update("status", types.EVENT_PUBLISHED)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusConflict, gin.H{"error": "event is not in draft status"})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		POST("/events/:id/archive", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			d := db.GetDb()
			res := d.
				Model(&models.Event{}).
				Where("id = ? AND status = ?", params.ID, types.EVENT_PUBLISHED).
				Update("status", types.EVENT_ARCHIVED)
			if res.Error != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.JSON(http.StatusConflict, gin.H{"error": "event is not published"})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		GET("/events/:id/stats", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var event models.Event
			d := db.GetDb()
			if err := d.Where(&models.Event{ID: params.ID}).First(&event).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			type row struct {
				Status types.BookingStatus
				Count  int64
				Units  int64
			}
			var rows []row
			if err := d.
				Model(&models.Booking{}).
				Where("event_id = ?", params.ID).
				Select("status, COUNT(id) as count, COALESCE(SUM(qty), 0) as units").
				Group("status").
				Scan(&rows).
				Error; err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			byStatus := gin.H{}
			for _, r := range rows {
				byStatus[string(r.Status)] = gin.H{"count": r.Count, "units": r.Units}
			}
			ctx.JSON(http.StatusOK, gin.H{
				"capacity":   event.Capacity,
				"sold_units": event.SoldUnits,
				"remaining":  event.Remaining(),
				"bookings":   byStatus,
			})
		})
	return g
}
