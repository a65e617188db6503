package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type roomURI struct {
	Code string `uri:"code" binding:"required,roomcode"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"rooms":      s.rooms.Len(),
		"persistent": s.store.Persistent(),
	})
}

func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": Version})
}

// handleCreateRoom creates a room without a host. The host claims it over
// the websocket with rejoin_host.
func (s *Server) handleCreateRoom(c *gin.Context) {
	rm, err := s.rooms.Create()
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := rm.State(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":     rm.Code(),
		"join_url": s.joinURL(c, rm.Code()),
		"state":    state,
	})
}

func (s *Server) handleRoomState(c *gin.Context) {
	var uri roomURI
	if !bind(c, fromPath, &uri, nil, "") {
		return
	}
	rm, err := s.rooms.Lookup(uri.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	state, err := rm.State(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) handleBranding(c *gin.Context) {
	branding, err := s.store.Branding(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, branding)
}
