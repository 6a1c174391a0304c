package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/conversation"
)

func (s *server) createConversation(c *gin.Context) {
	var opts conversation.CreateOpts
	if !s.bind(c, &opts) {
		return
	}
	conv, err := conversation.Create(s.db, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (s *server) listConversations(c *gin.Context) {
	convs, err := conversation.List(s.db)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func (s *server) getConversation(c *gin.Context) {
	conv, err := conversation.Get(s.db, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *server) updateConversation(c *gin.Context) {
	var opts conversation.UpdateOpts
	if !s.bind(c, &opts) {
		return
	}
	conv, err := conversation.Update(s.db, c.Param("id"), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *server) conversationDetails(c *gin.Context) {
	d, err := conversation.GetDetails(s.db, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
