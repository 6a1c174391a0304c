package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/signalbox/internal/ingest"
)

type filenameRequest struct {
	Filename string `json:"filename"`
}

func (s *server) listIssueFiles(c *gin.Context) {
	files, err := s.proc.Dir().List()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "total_count": len(files)})
}

// listPulledFiles lists the same directory as listIssueFiles in the shape
// object-storage clients expect.
func (s *server) listPulledFiles(c *gin.Context) {
	files, err := s.proc.Dir().List()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files, "count": len(files), "status": "success"})
}

func (s *server) issueFileContent(c *gin.Context) {
	content, err := s.proc.Dir().Read(c.Param("filename"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"filename":  content.Filename,
		"file_type": content.Kind,
		"content":   content,
	})
}

func (s *server) deleteIssueFile(c *gin.Context) {
	name := c.Param("filename")
	if err := s.proc.Dir().Delete(name); err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Infow("deleted issues file", "filename", name)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("File '%s' deleted successfully", name)})
}

func (s *server) processFile(c *gin.Context) {
	var req filenameRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.proc.ProcessFile(req.Filename)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *server) processAll(c *gin.Context) {
	batch, err := s.proc.ProcessAll()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (s *server) assignLatest(c *gin.Context) {
	a, err := s.proc.AssignLatest()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (s *server) pullFile(c *gin.Context) {
	var req filenameRequest
	if !s.bind(c, &req) {
		return
	}
	if s.puller == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Configuration error: s3 bucket is not configured"})
		return
	}
	pulled, err := s.puller.Pull(c.Request.Context(), req.Filename)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"local_filename":    pulled.LocalFilename,
		"original_filename": pulled.OriginalFilename,
		"file_size":         pulled.FileSize,
		"status":            "success",
		"message":           fmt.Sprintf("Successfully pulled '%s' from S3 and saved as '%s'", pulled.OriginalFilename, pulled.LocalFilename),
	})
}

func (s *server) latestFile(c *gin.Context) {
	f, err := s.proc.Dir().Latest()
	if err != nil {
		s.respondError(c, err)
		return
	}
	text, replaced, err := s.proc.Dir().ReadText(f.Filename)
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp := gin.H{
		"filename":      f.Filename,
		"content":       text,
		"file_size":     f.Size,
		"modified_time": f.Modified,
		"status":        "success",
	}
	if replaced {
		resp["note"] = "File content was decoded with error replacement"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "signalbox agent messaging API"})
}

func (s *server) handleHealth(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		s.log.Warnw("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

var _ Puller = (*ingest.S3Puller)(nil)
