package main

import (
	"encoding/json"
	"ets/src/common"
	"ets/src/types"
	"ets/src/utils"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

func webhookRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.
		POST("/webhook/gateway", func(ctx *gin.Context) {
			body, err := io.ReadAll(ctx.Request.Body)
			if err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			signature := ctx.GetHeader("X-Gateway-Signature")
			if !utils.VerifyWebhookSignature(body, signature) {
				log.Println("[Webhook] signature verification failed")
				ctx.Status(http.StatusBadRequest)
				return
			}

			var event types.GatewayWebhookEvent
			if err := json.Unmarshal(body, &event); err != nil {
				log.Printf("[Webhook] unreadable payload: %s\n", err.Error())
				ctx.Status(http.StatusBadRequest)
				return
			}
			// Only captures drive reconciliation. Everything else is
			// acknowledged so the gateway stops redelivering.
			if event.EventType != "payment.captured" {
				log.Printf("[Webhook] ignoring event_type=%s\n", event.EventType)
				ctx.Status(http.StatusOK)
				return
			}

			notes := gjson.ParseBytes(event.Order.Notes)
			in := &common.ReconcileInput{
				TxnID:   event.Payment.ID,
				OrderID: event.Order.ID,
				Amount:  event.Payment.Amount,
				EventID: uint(notes.Get("event_id").Uint()),
				Name:    notes.Get("name").String(),
				Email:   notes.Get("email").String(),
				Phone:   notes.Get("phone").String(),
				Guest:   notes.Get("guest").Bool(),
			}
			applyGatewayContact(in, event.Payment.Contact)
			log.Printf("[Webhook] captured txn=%s order=%s amount=%.2f event=%d\n",
				in.TxnID, in.OrderID, in.Amount, in.EventID)

			if in.EventID == 0 {
				// The order notes never made it through the gateway. Rank
				// plausible events for the review queue and acknowledge; a
				// human links this one.
				candidates, merr := common.MatchEventsByAmount(in.Amount, time.Now())
				if merr != nil {
					log.Printf("[Webhook] matcher failed for txn=%s: %s\n", in.TxnID, merr.Error())
					ctx.Status(http.StatusInternalServerError)
					return
				}
				if err := common.FlagUnmatchedPayment(in.TxnID, in.OrderID, in.Amount, candidates); err != nil {
					log.Printf("[Webhook] could not flag txn=%s: %s\n", in.TxnID, err.Error())
					ctx.Status(http.StatusInternalServerError)
					return
				}
				log.Printf("[Webhook] flagged unmatched txn=%s with %d candidates\n", in.TxnID, len(candidates))
				ctx.Status(http.StatusOK)
				return
			}

			res, err := common.Reconcile(in)
			if err != nil {
				if common.Retryable(err) {
					log.Printf("[Webhook] transient failure txn=%s: %s\n", in.TxnID, err.Error())
					ctx.Status(http.StatusServiceUnavailable)
					return
				}
				// Final failures are acknowledged; redelivery would only fail
				// the same way. Capacity overflows were already flagged.
				log.Printf("[Webhook] txn=%s not linked: %s\n", in.TxnID, err.Error())
				ctx.Status(http.StatusOK)
				return
			}
			log.Printf("[Webhook] txn=%s booking=%d duplicate=%v attached=%v created=%v\n",
				in.TxnID, res.BookingID, res.Duplicate, res.Attached, res.Created)
			ctx.Status(http.StatusOK)
		})
	return apiv1
}

// applyGatewayContact backfills identity from the gateway's own contact
// field, which holds either an email or a phone number depending on what the
// payer typed in. Values parsed from the order notes always win.
func applyGatewayContact(in *common.ReconcileInput, contact string) {
	if contact == "" {
		return
	}
	if strings.Contains(contact, "@") {
		if in.Email == "" {
			in.Email = contact
		}
		return
	}
	if in.Phone == "" {
		in.Phone = contact
	}
}
