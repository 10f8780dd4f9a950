package api

import (
	"net/http"

	"github.com/dentalcare/clinic-api/internal/notification"
)

func listNotificationsHandler(svc *notification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		list, err := svc.ListForUser(r.Context(), actor.ID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]NotificationResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toNotificationResponse(&list[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func markNotificationReadHandler(svc *notification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		id, err := parseUUIDParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_notification_id", "id must be a valid UUID")
			return
		}

		n, err := svc.MarkRead(r.Context(), id, actor.ID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toNotificationResponse(n))
	}
}

func markAllNotificationsReadHandler(svc *notification.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := mustActor(w, r)
		if !ok {
			return
		}

		if err := svc.MarkAllRead(r.Context(), actor.ID); err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "all notifications marked as read"})
	}
}
