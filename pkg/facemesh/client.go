package facemesh

import (
	"ExpressionAPI/internal/entity"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const defaultURL = "ws://localhost:8000/api/v1/face-mesh/ws"

type Client struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	log          *logrus.Logger
	endpoint     string
	options      Options
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New returns a client for FACE_MESH_URL. The connection is opened in the
// background and redialed on demand after a failure.
func New(log *logrus.Logger) Detector {
	endpoint := os.Getenv("FACE_MESH_URL")
	if endpoint == "" {
		endpoint = defaultURL
	}

	c := NewClient(log, endpoint, DefaultOptions())

	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if err := c.connect(context.Background()); err != nil {
			log.Warnf("Initial connection to face mesh service failed: %v. Will retry on demand.", err)
			return
		}
		log.Info("Connected to face mesh service")
	}()

	return c
}

func NewClient(log *logrus.Logger, endpoint string, options Options) *Client {
	return &Client{
		log:          log,
		endpoint:     endpoint,
		options:      options,
		readTimeout:  30 * time.Second,
		writeTimeout: 10 * time.Second,
	}
}

// DialURL is the sidecar endpoint with the model options as query parameters.
func (c *Client) DialURL() (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid face mesh url %q: %w", c.endpoint, err)
	}

	q := u.Query()
	q.Set("static_image_mode", strconv.FormatBool(c.options.StaticImageMode))
	q.Set("max_num_faces", strconv.Itoa(c.options.MaxNumFaces))
	q.Set("refine_landmarks", strconv.FormatBool(c.options.RefineLandmarks))
	q.Set("min_detection_confidence", strconv.FormatFloat(c.options.MinDetectionConfidence, 'f', -1, 64))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// connect must be called with mu held.
func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	dialURL, err := c.DialURL()
	if err != nil {
		return err
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, dialURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	conn.SetPingHandler(func(appData string) error {
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Debugf("Error sending pong to face mesh service: %v", err)
		}
		return nil
	})

	c.conn = conn
	return nil
}

// drop must be called with mu held.
func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Detect(ctx context.Context, frame gocv.Mat) ([]entity.LandmarkSet, error) {
	msg, err := EncodeFrame(frame)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	writeDeadline := time.Now().Add(c.writeTimeout)
	readDeadline := time.Now().Add(c.readTimeout)
	if dl, ok := ctx.Deadline(); ok {
		if dl.Before(writeDeadline) {
			writeDeadline = dl
		}
		if dl.Before(readDeadline) {
			readDeadline = dl
		}
	}

	c.conn.SetWriteDeadline(writeDeadline)
	if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		c.drop()
		return nil, fmt.Errorf("error sending frame to face mesh service: %w", err)
	}

	c.conn.SetReadDeadline(readDeadline)
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		c.drop()
		return nil, fmt.Errorf("error reading face mesh response: %w", err)
	}

	var resp wireResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("error unmarshaling face mesh response: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	sets := resp.toLandmarkSets(c.options.MaxNumFaces)
	if len(sets) == 0 {
		return nil, ErrNoFace
	}

	c.log.WithFields(logrus.Fields{
		"faces":     len(sets),
		"landmarks": len(sets[0]),
	}).Debug("Face mesh detection finished")

	return sets, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drop()
	return nil
}
