package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/agent"
	"github.com/zulandar/signalbox/internal/messaging"
	"github.com/zulandar/signalbox/internal/models"
)

type createMessageRequest struct {
	messaging.CreateOpts
	ScheduleAt *Timestamp `json:"schedule_at"`
}

type markReadRequest struct {
	ReadUpToDate *Timestamp `json:"read_up_to_date"`
}

type markReadResponse struct {
	UpdatedCount int64  `json:"updated_count"`
	Message      string `json:"message"`
}

func (s *server) createMessage(c *gin.Context) {
	var req createMessageRequest
	if !s.bind(c, &req) {
		return
	}
	opts := req.CreateOpts
	opts.ScheduleAt = req.ScheduleAt.Ptr()

	msg, err := messaging.Create(s.db, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.announce(c, msg)
	c.JSON(http.StatusCreated, msg)
}

// announce hands an important message to the notifier. Failures are logged
// by the dispatcher and never affect the response.
func (s *server) announce(c *gin.Context, msg *models.Message) {
	if !s.notifier.Enabled() || !s.notifier.ShouldNotify(msg) {
		return
	}
	var sender string
	if msg.SenderID != nil {
		if a, err := agent.Get(s.db, *msg.SenderID); err == nil {
			sender = a.AgentName
		}
	}
	s.notifier.MessageCreated(c.Request.Context(), msg, sender)
}

func (s *server) getMessage(c *gin.Context) {
	msg, err := messaging.Get(s.db, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *server) updateMessage(c *gin.Context) {
	var opts messaging.UpdateOpts
	if !s.bind(c, &opts) {
		return
	}
	msg, err := messaging.Update(s.db, c.Param("id"), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *server) metadataForAgent(c *gin.Context) {
	access, err := messaging.MetadataForAgent(s.db, c.Param("id"), c.Param("agent_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}

func (s *server) listAgentMessages(c *gin.Context) {
	ds, err := messaging.ListForAgent(s.db, c.Param("id"), s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (s *server) listUnread(c *gin.Context) {
	ds, err := messaging.ListUnread(s.db, c.Param("id"), s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (s *server) markRead(c *gin.Context) {
	var req markReadRequest
	if !s.bind(c, &req) {
		return
	}
	if req.ReadUpToDate == nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": "read_up_to_date is required"})
		return
	}
	n, err := messaging.MarkRead(s.db, c.Param("id"), *req.ReadUpToDate.Ptr(), s.now())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, markReadResponse{
		UpdatedCount: n,
		Message:      fmt.Sprintf("Marked %d messages as read", n),
	})
}
