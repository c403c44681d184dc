package main

import (
	"errors"
	"ets/src/common"
	"ets/src/db"
	"ets/src/middlewares"
	"ets/src/models"
	"ets/src/types"
	"ets/src/utils"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func checkoutRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	checkout := apiv1.Group("/checkout")
	checkout.Use(middlewares.OptionalAuthMiddleware)
	checkout.
		POST("", func(ctx *gin.Context) {
			var body types.CheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			in := &common.CheckoutInput{
				EventID: body.EventID,
				Qty:     body.Qty,
				Guest:   body.Guest,
			}
			if userId := ctx.GetUint("id"); userId > 0 {
				in.UserID = &userId
			} else if body.Guest == nil || (body.Guest.Email == "" && body.Guest.Phone == "") {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "guest checkout requires an email or phone"})
				return
			}
			res, err := common.Checkout(in, time.Now())
			if err != nil {
				writeBookingError(ctx, err, body.EventID)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": res})
		}).
		POST("/confirm", func(ctx *gin.Context) {
			var body types.ConfirmPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			// The browser cannot be trusted to report a capture truthfully;
			// the gateway's signature over orderId|paymentId is the proof.
			if !utils.VerifyPaymentSignature(body.OrderID, body.PaymentID, body.Signature) {
				log.Printf("[Confirm] bad signature order=%s payment=%s\n", body.OrderID, body.PaymentID)
				ctx.JSON(http.StatusBadRequest, gin.H{"error": common.ErrSignatureInvalid.Error()})
				return
			}
			in := &common.ReconcileInput{
				TxnID:   body.PaymentID,
				OrderID: body.OrderID,
				Amount:  body.Intent.TotalAmount,
				EventID: body.Intent.EventID,
			}
			if userId := ctx.GetUint("id"); userId > 0 {
				var user models.User
				d := db.GetDb()
				if err := d.Where(&models.User{ID: userId}).First(&user).Error; err == nil {
					in.Name = user.Name
					if user.Email != nil {
						in.Email = *user.Email
					}
					if user.Phone != nil {
						in.Phone = *user.Phone
					}
				}
			} else if body.Intent.Requester != nil {
				in.Name = body.Intent.Requester.Name
				in.Email = body.Intent.Requester.Email
				in.Phone = body.Intent.Requester.Phone
				in.Guest = true
			}
			res, err := common.Reconcile(in)
			if err != nil {
				writeBookingError(ctx, err, body.Intent.EventID)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": res})
		})
	return checkout
}

// writeBookingError maps the domain errors onto response codes. Final
// failures get a 4xx; anything transient gets a 503 so clients retry.
func writeBookingError(ctx *gin.Context, err error, eventID uint) {
	switch {
	case errors.Is(err, common.ErrEventNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, common.ErrCapacityExceeded):
		msg := err.Error()
		var event models.Event
		d := db.GetDb()
		if ferr := d.Where(&models.Event{ID: eventID}).First(&event).Error; ferr == nil {
			msg = fmt.Sprintf("only %d units left for this event", event.Remaining())
		}
		ctx.JSON(http.StatusConflict, gin.H{"error": msg})
	case errors.Is(err, common.ErrEventNotPublished),
		errors.Is(err, common.ErrEventExpired),
		errors.Is(err, common.ErrAmbiguousAmount),
		errors.Is(err, common.ErrIdentityMissing):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case common.Retryable(err):
		log.Printf("[Booking] transient failure: %s\n", err.Error())
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary failure, please retry"})
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}
