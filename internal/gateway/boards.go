package gateway

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dyluth/slate/internal/export"
	"github.com/dyluth/slate/pkg/whiteboard"
	"github.com/gin-gonic/gin"
)

// APISender tags shape sets broadcast after a REST replace, so open sessions
// treat them as remote.
const APISender = "slate-api"

type putBoardRequest struct {
	Content whiteboard.Set `json:"content"`
}

func (s *Server) listBoards(c *gin.Context) {
	ids, err := s.store.ListDocuments(c.Request.Context())
	if err != nil {
		log.Printf("[Gateway] Failed to list boards: %v", err)
		standardResponse(c, http.StatusInternalServerError, nil, "failed to list boards")
		return
	}
	standardResponse(c, http.StatusOK, gin.H{"boards": ids}, "")
}

func (s *Server) getBoard(c *gin.Context) {
	doc, ok := s.readBoard(c)
	if !ok {
		return
	}
	standardResponse(c, http.StatusOK, doc, "")
}

// putBoard replaces a board wholesale and broadcasts the new set to open
// sessions.
func (s *Server) putBoard(c *gin.Context) {
	id, ok := boardID(c)
	if !ok {
		return
	}

	var req putBoardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		standardResponse(c, http.StatusBadRequest, nil, fmt.Sprintf("invalid board body: %v", err))
		return
	}
	if req.Content == nil {
		req.Content = whiteboard.Set{}
	}
	if err := req.Content.Validate(); err != nil {
		standardResponse(c, http.StatusBadRequest, nil, err.Error())
		return
	}

	doc := &whiteboard.Document{
		ID:          id,
		Content:     whiteboard.StripTransient(req.Content),
		UpdatedAtMs: time.Now().UnixMilli(),
	}
	if err := s.store.WriteDocument(c.Request.Context(), doc); err != nil {
		log.Printf("[Gateway] Failed to write board %s: %v", id, err)
		standardResponse(c, http.StatusInternalServerError, nil, "failed to write board")
		return
	}

	s.broadcast(c, id, doc.Content)
	standardResponse(c, http.StatusOK, doc, "")
}

func (s *Server) exportBoard(c *gin.Context) {
	doc, ok := s.readBoard(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.RenderPDF(&buf, doc.Content); err != nil {
		log.Printf("[Gateway] Failed to export board %s: %v", doc.ID, err)
		standardResponse(c, http.StatusInternalServerError, nil, "failed to render PDF")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, doc.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) readBoard(c *gin.Context) (*whiteboard.Document, bool) {
	id, ok := boardID(c)
	if !ok {
		return nil, false
	}

	doc, err := s.store.ReadDocument(c.Request.Context(), id)
	if err != nil {
		if whiteboard.IsNotFound(err) {
			standardResponse(c, http.StatusNotFound, nil, fmt.Sprintf("board not found: %s", id))
			return nil, false
		}
		log.Printf("[Gateway] Failed to read board %s: %v", id, err)
		standardResponse(c, http.StatusInternalServerError, nil, "failed to read board")
		return nil, false
	}
	return doc, true
}

// broadcast is best effort: the write already succeeded. Transports that can
// publish without subscribing do so; others join the board for one message.
func (s *Server) broadcast(c *gin.Context, id string, set whiteboard.Set) {
	if s.transport == nil {
		return
	}

	msg, err := whiteboard.NewShapesMessage(APISender, set)
	if err != nil {
		log.Printf("[Gateway] Failed to build broadcast for board %s: %v", id, err)
		return
	}

	if pub, ok := s.transport.(whiteboard.Publisher); ok {
		if err := pub.Publish(c.Request.Context(), id, msg); err != nil {
			log.Printf("[Gateway] Failed to broadcast board %s: %v", id, err)
		}
		return
	}

	ch, err := s.transport.Subscribe(c.Request.Context(), id)
	if err != nil {
		log.Printf("[Gateway] Failed to join board %s for broadcast: %v", id, err)
		return
	}
	defer ch.Close()

	if err := ch.Publish(c.Request.Context(), msg); err != nil {
		log.Printf("[Gateway] Failed to broadcast board %s: %v", id, err)
	}
}

func boardID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" || strings.Contains(id, ":") {
		standardResponse(c, http.StatusBadRequest, nil, "invalid board ID")
		return "", false
	}
	return id, true
}
