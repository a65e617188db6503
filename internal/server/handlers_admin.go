package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"purple-sphinx/internal/catalog"
	"purple-sphinx/internal/quiz"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type idURI struct {
	ID string `uri:"id" binding:"required,max=64"`
}

type questionsQuery struct {
	SetID string `form:"set_id" binding:"max=64"`
}

type questionRequest struct {
	ID         string          `json:"id" binding:"max=64"`
	Kind       string          `json:"type" binding:"required,questionkind"`
	PromptHTML string          `json:"prompt_html" binding:"required"`
	ImagePath  string          `json:"image_path" binding:"max=255"`
	Options    []quiz.Option   `json:"options"`
	Correct    json.RawMessage `json:"correct"`
	Points     int             `json:"points" binding:"min=0"`
	SetID      string          `json:"set_id" binding:"max=64"`
}

type setRequest struct {
	Name string `json:"name" binding:"required,max=120"`
}

type brandingRequest struct {
	Theme string `json:"theme" binding:"required,max=64"`
}

var questionMessages = fieldMessages{
	"Kind.required":       "type is required",
	"Kind.questionkind":   "type must be truefalse, multi or open",
	"PromptHTML.required": "prompt_html is required",
	"Points.min":          "points must not be negative",
}

var setMessages = fieldMessages{
	"Name.required": "name is required",
	"Name.max":      "name must be 120 characters or fewer",
}

var brandingMessages = fieldMessages{
	"Theme.required": "theme is required",
	"Theme.max":      "theme must be 64 characters or fewer",
}

func (s *Server) handleAdminRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.rooms.List(c.Request.Context())})
}

func (s *Server) handleAdminCloseRoom(c *gin.Context) {
	var uri roomURI
	if !bind(c, fromPath, &uri, nil, "") {
		return
	}
	if err := s.ws.closeRoom(uri.Code); err != nil {
		writeError(c, err)
		return
	}
	log.Info().Str("room_code", uri.Code).Msg("room closed by admin")
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminQuestions(c *gin.Context) {
	var query questionsQuery
	if !bind(c, fromQuery, &query, nil, "invalid query") {
		return
	}
	questions, err := s.store.Questions(c.Request.Context(), query.SetID)
	if err != nil {
		writeError(c, err)
		return
	}
	page, perPage := parsePagination(c, defaultPerPage, maxPerPage)
	items, info := paginate(questions, page, perPage)
	c.JSON(http.StatusOK, gin.H{"questions": items, "pagination": info})
}

func (s *Server) handleAdminQuestion(c *gin.Context) {
	var uri idURI
	if !bind(c, fromPath, &uri, nil, "") {
		return
	}
	question, err := s.store.Question(c.Request.Context(), uri.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// handleAdminSaveQuestion serves both POST (create) and PUT /:id (replace).
func (s *Server) handleAdminSaveQuestion(c *gin.Context) {
	var req questionRequest
	if !bind(c, fromBody, &req, questionMessages, "invalid question") {
		return
	}
	status := http.StatusCreated
	if id := c.Param("id"); id != "" {
		req.ID = id
		status = http.StatusOK
	}
	saved, err := s.store.SaveQuestion(c.Request.Context(), quiz.Question{
		ID:         req.ID,
		Kind:       quiz.Kind(req.Kind),
		PromptHTML: req.PromptHTML,
		ImagePath:  req.ImagePath,
		Options:    req.Options,
		Correct:    req.Correct,
		Points:     req.Points,
		SetID:      req.SetID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, saved)
}

func (s *Server) handleAdminDeleteQuestion(c *gin.Context) {
	var uri idURI
	if !bind(c, fromPath, &uri, nil, "") {
		return
	}
	if err := s.store.DeleteQuestion(c.Request.Context(), uri.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminSets(c *gin.Context) {
	sets, err := s.store.Sets(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question_sets": sets})
}

func (s *Server) handleAdminSaveSet(c *gin.Context) {
	var req setRequest
	if !bind(c, fromBody, &req, setMessages, "invalid question set") {
		return
	}
	status := http.StatusCreated
	id := c.Param("id")
	if id != "" {
		status = http.StatusOK
	}
	saved, err := s.store.SaveSet(c.Request.Context(), catalog.QuestionSet{
		ID:   id,
		Name: normalizeText(req.Name),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, saved)
}

func (s *Server) handleAdminDeleteSet(c *gin.Context) {
	var uri idURI
	if !bind(c, fromPath, &uri, nil, "") {
		return
	}
	if err := s.store.DeleteSet(c.Request.Context(), uri.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminArchive(c *gin.Context) {
	players, err := s.store.ArchivedPlayers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	page, perPage := parsePagination(c, defaultPerPage, maxPerPage)
	items, info := paginate(players, page, perPage)
	c.JSON(http.StatusOK, gin.H{"players": items, "pagination": info})
}

func (s *Server) handleAdminDeleteArchived(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err := s.store.DeleteArchivedPlayer(c.Request.Context(), uint(id)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminSaveBranding(c *gin.Context) {
	var req brandingRequest
	if !bind(c, fromBody, &req, brandingMessages, "invalid branding") {
		return
	}
	saved, err := s.store.SaveBranding(c.Request.Context(), catalog.Branding{Theme: req.Theme})
	if err != nil {
		writeError(c, err)
		return
	}
	log.Info().Str("theme", saved.Theme).Msg("branding updated")
	c.JSON(http.StatusOK, saved)
}
