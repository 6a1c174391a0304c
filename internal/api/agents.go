package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/agent"
)

func (s *server) createAgent(c *gin.Context) {
	var opts agent.CreateOpts
	if !s.bind(c, &opts) {
		return
	}
	a, err := agent.Create(s.db, opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *server) listAgents(c *gin.Context) {
	agents, err := agent.List(s.db)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agents)
}

func (s *server) getAgent(c *gin.Context) {
	a, err := agent.Get(s.db, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *server) updateAgent(c *gin.Context) {
	var opts agent.UpdateOpts
	if !s.bind(c, &opts) {
		return
	}
	a, err := agent.Update(s.db, c.Param("id"), opts)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
