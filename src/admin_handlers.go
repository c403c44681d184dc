package main

import (
	"ets/src/common"
	"ets/src/db"
	"ets/src/models"
	"ets/src/types"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func adminHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/reconcile", func(ctx *gin.Context) {
			// Backfill entry point for payments the webhook never delivered.
			// Runs the same linker the adapters use, so replaying a txn that
			// already landed is a no-op.
			var body types.BackfillRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			in := &common.ReconcileInput{
				TxnID:   body.TxnID,
				OrderID: body.OrderID,
				Amount:  body.Amount,
				EventID: body.EventID,
				Name:    body.Name,
				Email:   body.Email,
				Phone:   body.Phone,
			}
			if in.EventID == 0 {
				candidates, err := common.MatchEventsByAmount(in.Amount, time.Now())
				if err != nil {
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				if err := common.FlagUnmatchedPayment(in.TxnID, in.OrderID, in.Amount, candidates); err != nil {
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				ctx.JSON(http.StatusAccepted, gin.H{"flagged": true, "candidates": candidates})
				return
			}
			res, err := common.Reconcile(in)
			if err != nil {
				writeBookingError(ctx, err, in.EventID)
				return
			}
			log.Printf("[Backfill] txn=%s booking=%d duplicate=%v\n", in.TxnID, res.BookingID, res.Duplicate)
			ctx.JSON(http.StatusOK, gin.H{"data": res})
		}).
		POST("/repair", func(ctx *gin.Context) {
			summary, err := common.RepairAll()
			if err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		}).
		POST("/repair/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			summary, err := common.RepairEvent(params.ID)
			if err != nil {
				switch err {
				case common.ErrRepairLocked:
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				case common.ErrEventNotFound:
					ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				default:
					ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				}
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": summary})
		}).
		GET("/flags", func(ctx *gin.Context) {
			var query struct {
				Resolved *bool           `form:"resolved"`
				Kind     *types.FlagKind `form:"kind"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			d := db.GetDb()
			q := d.Model(&models.ReviewFlag{}).Order("created_at DESC").Limit(100)
			if query.Resolved != nil {
				q = q.Where("resolved = ?", *query.Resolved)
			}
			if query.Kind != nil {
				q = q.Where("kind = ?", *query.Kind)
			}
			var flags []models.ReviewFlag
			if err := q.Find(&flags).Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": flags})
		}).
		PUT("/flags/:id/resolve", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			d := db.GetDb()
			res := d.
				Model(&models.ReviewFlag{}).
				Where("id = ? AND resolved = false", params.ID).
				Update("resolved", true)
			if res.Error != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
				return
			}
			if res.RowsAffected == 0 {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}
