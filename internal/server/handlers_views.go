package server

import (
	"net/http"
	"strings"

	"purple-sphinx/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

func (s *Server) handleHome(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_ = web.Home().Render(c.Request.Context(), c.Writer)
}

func (s *Server) handleJoinView(c *gin.Context) {
	var uri roomURI
	if !bind(c, fromPath, &uri, nil, "") {
		return
	}
	rm, err := s.rooms.Lookup(uri.Code)
	if err != nil {
		c.String(http.StatusNotFound, "room not found")
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_ = web.Join(web.JoinData{
		Code:    rm.Code(),
		JoinURL: s.joinURL(c, rm.Code()),
		QRPath:  "/rooms/" + rm.Code() + "/qr",
	}).Render(c.Request.Context(), c.Writer)
}

func (s *Server) handleRoomQR(c *gin.Context) {
	var uri roomURI
	if !bind(c, fromPath, &uri, nil, "") {
		return
	}
	rm, err := s.rooms.Lookup(uri.Code)
	if err != nil {
		writeError(c, err)
		return
	}
	png, err := qrcode.Encode(s.joinURL(c, rm.Code()), qrcode.Medium, qrSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// joinURL prefers the configured public URL and otherwise derives one from
// the request, honoring X-Forwarded-Proto.
func (s *Server) joinURL(c *gin.Context, code string) string {
	base := strings.TrimRight(strings.TrimSpace(s.cfg.PublicURL), "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/join/" + code
}
