package chi

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/webhook"
)

/* HTTP layer DTOs for the webhook API
 * Field names follow the public contract, separate from domain entities
 */

type createTypeRequest struct {
	Description string `json:"desc"`
	Slug        string `json:"slug"`
}

type registerRequest struct {
	UserID    string `json:"userId"`
	WebhookID string `json:"webhookId"`
	TargetURL string `json:"targetUrl"`
}

type updateRequest struct {
	ID           string `json:"id"`
	NewTargetURL string `json:"newTargetUrl"`
}

type triggerRequest struct {
	IPAddress string `json:"ipAddress"`
}

// deliveryResponse reports the first attempt for one registration
type deliveryResponse struct {
	RegistrationID string  `json:"registrationId"`
	NotificationID string  `json:"notificationId,omitempty"`
	StatusCode     int     `json:"statusCode"`
	Delivered      bool    `json:"delivered"`
	Error          *string `json:"error"`
}

// createWebhookType handles POST /webhook/create
func createWebhookType(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req createTypeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		t, err := webhookService.CreateWebhookType(r.Context(), req.Description, req.Slug)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"webhookType": t})
	})
}

// listWebhookTypes handles GET /webhook/types
func listWebhookTypes(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		types, err := webhookService.ListWebhookTypes(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"webhookTypes": types})
	})
}

// registerWebhook handles POST /webhook/register
func registerWebhook(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if !decodeBody(w, r, &req) {
			return
		}
		reg, err := webhookService.RegisterWebhook(r.Context(), req.UserID, req.WebhookID, req.TargetURL)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"webhook": reg})
	})
}

// listRegistrations handles GET /webhook/list
func listRegistrations(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		regs, err := webhookService.ListRegistrations(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"webhooks": regs})
	})
}

// updateRegistration handles PATCH /webhook/update
func updateRegistration(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req updateRequest
		if !decodeBody(w, r, &req) {
			return
		}
		reg, err := webhookService.UpdateRegistration(r.Context(), req.ID, req.NewTargetURL)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"webhook": reg})
	})
}

// triggerDelivery handles POST /webhook/ip
// An empty body or ipAddress falls back to the client address
// The write deadline is pushed out to timeout so the server's WriteTimeout does not cut the wave short
func triggerDelivery(webhookService webhook.UseCase, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			log := httplog.LogEntry(r.Context())
			log.Debug().Err(err).Msg("write deadline not supported")
		}

		var req triggerRequest
		if r.ContentLength != 0 && !decodeBody(w, r, &req) {
			return
		}
		ip := req.IPAddress
		if ip == "" {
			ip = clientIP(r)
		}

		outcomes, err := webhookService.TriggerDelivery(r.Context(), ip)
		if err != nil {
			writeError(w, r, err)
			return
		}

		deliveries := make([]deliveryResponse, 0, len(outcomes))
		for _, o := range outcomes {
			d := deliveryResponse{
				RegistrationID: o.RegistrationID,
				NotificationID: o.NotificationID,
				StatusCode:     o.StatusCode,
				Delivered:      o.Delivered,
			}
			if o.Err != nil {
				msg := o.Err.Error()
				d.Error = &msg
			}
			deliveries = append(deliveries, d)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ipAddress": ip, "deliveries": deliveries})
	})
}

// getNotification handles GET /webhook/notifications/{id}
func getNotification(webhookService webhook.UseCase) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n, err := webhookService.GetNotification(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"notification": n})
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
