package api

import (
	"encoding/json" // Number encoding for payee amounts
	"errors"        // Error kind checks
	"net/http"      // HTTP status codes
	"time"          // Creation timestamps

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Fixed-point payee amounts

	"notes_system/internal/domain" // Importing domain models
	"notes_system/internal/events" // Lifecycle events
	"notes_system/internal/store"  // Persistence
)

// NoteRequest is the body of note create and update calls
type NoteRequest struct {
	Title        string           `json:"title" binding:"required"` // Title must be provided
	Body         *string          `json:"body"`                     // Optional body
	PayeeAddress *string          `json:"payeeAddress"`             // Optional payee address
	PayeeAmount  *decimal.Decimal `json:"payeeAmount"`              // Optional payee amount, number or string
}

func (r NoteRequest) input() domain.NoteInput {
	return domain.NoteInput{Title: r.Title, Body: r.Body, PayeeAddress: r.PayeeAddress, PayeeAmount: r.PayeeAmount}
}

// NoteResponse is the client view of a note; the owner is never included
type NoteResponse struct {
	NotesID      uint         `json:"notesId"`      // Note ID
	Title        string       `json:"title"`        // Note title
	Body         *string      `json:"body"`         // Note body
	PayeeAddress *string      `json:"payeeAddress"` // Payee address
	PayeeAmount  *json.Number `json:"payeeAmount"`  // Payee amount as a JSON number
	CreatedAt    time.Time    `json:"createdAt"`    // Creation time
}

func newNoteResponse(n domain.Note) NoteResponse {
	resp := NoteResponse{
		NotesID:      n.ID,
		Title:        n.Title,
		Body:         n.Body,
		PayeeAddress: n.PayeeAddress,
		CreatedAt:    n.CreatedAt,
	}
	if n.PayeeAmount.Valid {
		amount := json.Number(n.PayeeAmount.Decimal.String())
		resp.PayeeAmount = &amount
	}
	return resp
}

// GetNotesByUserHandler lists the notes of a user
func GetNotesByUserHandler(notes *store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseID(c, "userId")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid user id")
			return
		}
		list, err := notes.ListByOwner(c.Request.Context(), userID)
		if err != nil {
			internalError(c, "Failed to fetch notes", err)
			return
		}
		resp := make([]NoteResponse, 0, len(list)) // Map notes to response format
		for _, n := range list {
			resp = append(resp, newNoteResponse(n))
		}
		c.JSON(http.StatusOK, resp)
	}
}

// CreateNoteHandler creates a note owned by the user in the path
func CreateNoteHandler(notes *store.NoteStore, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseID(c, "userId")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid user id")
			return
		}
		var req NoteRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		note, err := notes.Create(c.Request.Context(), userID, req.input())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.String(http.StatusNotFound, domain.Message(err))
				return
			}
			internalError(c, "Failed to create note", err)
			return
		}
		publish(c, pub, events.New(events.NoteCreated, note.ID, note.UserID))
		c.JSON(http.StatusOK, newNoteResponse(*note))
	}
}

// GetNoteHandler returns a note by id
func GetNoteHandler(notes *store.NoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid note id")
			return
		}
		note, err := notes.GetByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.String(http.StatusNotFound, domain.Message(err))
				return
			}
			internalError(c, "Failed to fetch note", err)
			return
		}
		c.JSON(http.StatusOK, newNoteResponse(*note))
	}
}

// UpdateNoteHandler replaces the title, body and payee fields of a note
func UpdateNoteHandler(notes *store.NoteStore, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid note id")
			return
		}
		var req NoteRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "Invalid request")
			return
		}
		note, err := notes.Update(c.Request.Context(), id, req.input())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.String(http.StatusNotFound, domain.Message(err))
				return
			}
			internalError(c, "Failed to update note", err)
			return
		}
		publish(c, pub, events.New(events.NoteUpdated, note.ID, note.UserID))
		c.JSON(http.StatusOK, newNoteResponse(*note))
	}
}

// DeleteNoteHandler removes a note; a missing note still answers 204
func DeleteNoteHandler(notes *store.NoteStore, pub events.Publisher) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if !ok {
			c.String(http.StatusBadRequest, "Invalid note id")
			return
		}
		ownerID, deleted, err := notes.Delete(c.Request.Context(), id)
		if err != nil {
			internalError(c, "Failed to delete note", err)
			return
		}
		if deleted {
			publish(c, pub, events.New(events.NoteDeleted, id, ownerID))
		}
		c.Status(http.StatusNoContent)
	}
}
