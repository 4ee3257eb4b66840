package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/richinex/scribe/assistant"
	"github.com/richinex/scribe/model"
	"github.com/richinex/scribe/storage"
)

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	Title   string  `json:"title" binding:"required,maxbytes=1024"`
	Content *string `json:"content" binding:"required,maxbytes=1048576"`
}

// UpdateDocumentRequest is the body of PUT /documents/:id.
type UpdateDocumentRequest struct {
	Content *string `json:"content" binding:"required,maxbytes=1048576"`
}

// ChatRequest is the body of POST /documents/:id/chat.
type ChatRequest struct {
	Content string `json:"content" binding:"required,maxbytes=32768"`
	Model   string `json:"model" binding:"maxbytes=256"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the Collaborative Document Editor API"})
}

func (s *Server) createDocument(c *gin.Context) {
	var req CreateDocumentRequest
	if !bind(c, &req) {
		return
	}

	doc, err := s.store.CreateDocument(c.Request.Context(), req.Title, *req.Content)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.store.ListDocuments(c.Request.Context())
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) getDocument(c *gin.Context) {
	doc, err := s.store.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) updateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if !bind(c, &req) {
		return
	}

	doc, err := s.store.UpdateDocument(c.Request.Context(), c.Param("id"), *req.Content)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) listVersions(c *gin.Context) {
	versions, err := s.store.Versions(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, versions)
}

// chat records the user's message, runs the assistant on the stored document
// and prior history, and records the assistant's reply.
func (s *Server) chat(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var req ChatRequest
	if !bind(c, &req) {
		return
	}

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	prior, err := s.store.History(ctx, id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	asked := storage.Message{Role: model.RoleUser, Content: req.Content, Timestamp: time.Now()}

	result := s.assistant.ProcessQuery(ctx, assistant.Query{
		Document:        doc.Content,
		History:         storage.Entries(prior),
		Text:            req.Content,
		Model:           req.Model,
		CurrentDocument: s.currentContent(ctx, id),
	})

	// the turn is stored whole or not at all
	answered := storage.Message{Role: model.RoleAI, Content: result.Message}
	if err := s.store.AppendMessages(ctx, id, asked, answered); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// currentContent reads the document again at validation time, so that
// suggestions are checked against edits made while the AI service was
// working.
func (s *Server) currentContent(ctx context.Context, id string) func() (string, error) {
	return func() (string, error) {
		doc, err := s.store.GetDocument(ctx, id)
		if err != nil {
			return "", err
		}
		return doc.Content, nil
	}
}

func (s *Server) chatHistory(c *gin.Context) {
	history, err := s.store.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Document not found"})
		return
	}
	_ = c.Error(err)
	s.logger.Error("store operation failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}
