package api

import (
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all API routes on the gin router.
func (s *server) registerRoutes(router *gin.Engine, opts StartOpts) {
	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)

	g := router.Group("/")
	if opts.RequireAPIKey {
		g.Use(requireAPIKey(opts.APIKey))
	}

	// Agents.
	g.POST("/agents", s.createAgent)
	g.GET("/agents", s.listAgents)
	g.GET("/agents/:id", s.getAgent)
	g.PUT("/agents/:id", s.updateAgent)

	// Inbox.
	g.GET("/agents/:id/messages", s.listAgentMessages)
	g.GET("/agents/:id/messages/unread", s.listUnread)
	g.PUT("/agents/:id/messages/mark-read", s.markRead)

	// Messages.
	g.POST("/messages", s.createMessage)
	g.GET("/messages/:id", s.getMessage)
	g.PUT("/messages/:id", s.updateMessage)
	g.GET("/messages/:id/metadata/:agent_id", s.metadataForAgent)

	// Read receipts.
	g.POST("/message_recipients", s.addRecipient)
	g.GET("/message_recipients/:message_id/:recipient_id", s.getRecipient)
	g.PUT("/message_recipients/:message_id/:recipient_id", s.updateRecipient)

	// Message metadata.
	g.POST("/agent_message_metadata", s.addMetadata)
	g.GET("/agent_message_metadata/:id", s.getMetadata)
	g.PUT("/agent_message_metadata/:id", s.updateMetadata)

	// Conversations.
	g.POST("/conversations", s.createConversation)
	g.GET("/conversations", s.listConversations)
	g.GET("/conversations/:id", s.getConversation)
	g.PUT("/conversations/:id", s.updateConversation)
	g.GET("/conversations/:id/details", s.conversationDetails)

	// Issues files.
	g.GET("/issues/files", s.listIssueFiles)
	g.GET("/issues/files/:filename/content", s.issueFileContent)
	g.DELETE("/issues/files/:filename", s.deleteIssueFile)
	g.POST("/issues/process-file", s.processFile)
	g.POST("/issues/process-all", s.processAll)
	g.POST("/issues/assign-latest", s.assignLatest)

	// S3.
	g.POST("/s3/pull-file", s.pullFile)
	g.GET("/s3/files", s.listPulledFiles)
	g.GET("/s3/latest-file", s.latestFile)
}
