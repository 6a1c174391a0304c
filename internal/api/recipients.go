package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/messaging"
	"github.com/zulandar/signalbox/internal/models"
)

type addRecipientRequest struct {
	messaging.RecipientOpts
	ReadAt *Timestamp `json:"read_at"`
}

type updateRecipientRequest struct {
	messaging.RecipientUpdate
	ReadAt *Timestamp `json:"read_at"`
}

func recipientKey(c *gin.Context) models.RecipientKey {
	return models.RecipientKey{MessageID: c.Param("message_id"), RecipientID: c.Param("recipient_id")}
}

func (s *server) addRecipient(c *gin.Context) {
	var req addRecipientRequest
	if !s.bind(c, &req) {
		return
	}
	opts := req.RecipientOpts
	opts.ReadAt = req.ReadAt.Ptr()

	r, err := messaging.AddRecipient(s.db, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (s *server) getRecipient(c *gin.Context) {
	r, err := messaging.GetRecipient(s.db, recipientKey(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *server) updateRecipient(c *gin.Context) {
	var req updateRecipientRequest
	if !s.bind(c, &req) {
		return
	}
	opts := req.RecipientUpdate
	opts.ReadAt = req.ReadAt.Ptr()

	r, err := messaging.UpdateRecipient(s.db, recipientKey(c), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *server) addMetadata(c *gin.Context) {
	var opts messaging.MetadataOpts
	if !s.bind(c, &opts) {
		return
	}
	md, err := messaging.AddMetadata(s.db, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, md)
}

func (s *server) getMetadata(c *gin.Context) {
	md, err := messaging.GetMetadata(s.db, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, md)
}

func (s *server) updateMetadata(c *gin.Context) {
	var opts messaging.MetadataUpdate
	if !s.bind(c, &opts) {
		return
	}
	md, err := messaging.UpdateMetadata(s.db, c.Param("id"), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, md)
}
