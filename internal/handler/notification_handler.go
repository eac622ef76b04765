package handler

import (
	"net/http"
	"strconv"

	"nal/internal/middleware"
	"nal/internal/repository"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationRepo *repository.NotificationRepository
}

func NewNotificationHandler(notificationRepo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.notificationRepo.ListByUser(middleware.GetUserID(c), limit)
	if err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondErr(c, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := h.notificationRepo.MarkRead(middleware.GetUserID(c), uint(id)); err != nil {
		respondServiceErr(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"read": true})
}
