package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainmessage "staybook/internal/domain/message"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/user"
)

type MessageHandler struct {
	Messages domainmessage.Repository
	Users    user.Repository
	Clock    clock.Clock
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Body        string `json:"body" binding:"required"`
}

func (h MessageHandler) Send(c *gin.Context) {
	senderID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.Users.ByID(c.Request.Context(), user.ID(req.RecipientID)); err != nil {
		writeError(c, err)
		return
	}

	msg, err := domainmessage.New(
		domainmessage.ID(uuid.NewString()),
		senderID,
		user.ID(req.RecipientID),
		req.Body,
		h.now(),
	)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Messages.Save(c.Request.Context(), msg); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": string(msg.ID)})
}

func (h MessageHandler) Conversation(c *gin.Context) {
	senderID, ok := requireUserID(c)
	if !ok {
		return
	}
	peer := user.ID(c.Param("peer"))
	messages, err := h.Messages.ListBetween(c.Request.Context(), senderID, peer)
	if err != nil {
		writeError(c, err)
		return
	}
	type messageResponse struct {
		ID       string    `json:"id"`
		SenderID string    `json:"sender_id"`
		Body     string    `json:"body"`
		SentAt   time.Time `json:"sent_at"`
	}
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, messageResponse{
			ID:       string(m.ID),
			SenderID: string(m.SenderID),
			Body:     m.Body,
			SentAt:   m.SentAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (h MessageHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock.Now()
	}
	return time.Now().UTC()
}

var _ MessageHTTP = MessageHandler{}
