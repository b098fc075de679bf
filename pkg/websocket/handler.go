package websocket

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Handler struct {
	hub *Hub
}

func NewHandler() *Handler {
	hub := NewHub()
	go hub.Run()

	return &Handler{
		hub: hub,
	}
}

// HandleWebSocket upgrades a dispatch client connection. Responder apps
// connect with ?client_id=<responder id>&client_type=responder; consoles
// connect as watchers and join emergency rooms after the handshake.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	clientID, err := primitive.ObjectIDFromHex(c.Query("client_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client ID"})
		return
	}

	clientType := c.DefaultQuery("client_type", "watcher")
	if clientType != "responder" && clientType != "watcher" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid client type"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(h.hub, conn, clientID, clientType)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

// SendDispatchAlert pushes a new offer to one responder's socket.
func (h *Handler) SendDispatchAlert(responderID primitive.ObjectID, alertType string, data map[string]interface{}) {
	message := Message{
		Type:      alertType,
		RoomID:    "responder_" + responderID.Hex(),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendToResponder(responderID, message)
}

// SendEmergencyUpdate pushes a state change to everyone watching one
// emergency.
func (h *Handler) SendEmergencyUpdate(emergencyID primitive.ObjectID, updateType string, data map[string]interface{}) {
	message := Message{
		Type:      updateType,
		RoomID:    "emergency_" + emergencyID.Hex(),
		Timestamp: getCurrentTimestamp(),
		Data:      data,
	}

	h.hub.SendEmergencyUpdate(emergencyID, message)
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}
