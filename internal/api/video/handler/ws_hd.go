package videoHandler

import (
	"ExpressionAPI/internal/api/video"
	"time"

	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
)

const (
	streamReadTimeout  = 60 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// handleStream answers every binary frame with its landmarks and face
// direction. Frame errors are reported to the client and the socket stays open.
func (h *VideoHandler) handleStream(c *websocket.Conn) {
	h.log.Info("Video stream client connected")
	defer h.log.Info("Video stream client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Video stream error: %v", err)
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		var reply interface{}

		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		result, err := h.videoService.AnalyzeFrame(ctx, message)
		cancel()

		if err != nil {
			h.log.Debugf("Error analyzing stream frame: %v", err)
			reply = video.StreamError{Error: err.Error()}
		} else {
			reply = result
		}

		if err := c.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			h.log.Errorf("Error setting write deadline: %v", err)
			break
		}

		if err := c.WriteJSON(reply); err != nil {
			h.log.Errorf("Error writing JSON response: %v", err)
			break
		}
	}
}
