package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/unclebandit/zapcampanhas/internal/model"
)

const defaultTimeout = 30 * time.Second

// Sender is the part of the gateway the send paths depend on.
type Sender interface {
	SendText(ctx context.Context, phone, text string) (*SendResult, error)
	SendMedia(ctx context.Context, msg MediaMessage) (*SendResult, error)
}

// Instance exposes the connection management calls.
type Instance interface {
	ConnectionState(ctx context.Context) (*ConnectionState, error)
	QRCode(ctx context.Context) (*QRCode, error)
}

// Config holds the connection parameters of an Evolution-style gateway.
type Config struct {
	BaseURL  string
	Token    string
	Instance string
	Timeout  time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// SendResult is the gateway acknowledgement of a send.
type SendResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Accepted reports whether the gateway took the message for delivery.
func (r *SendResult) Accepted() bool {
	if r == nil {
		return false
	}
	switch strings.ToLower(r.Status) {
	case "queued", "sent":
		return true
	}
	return false
}

type MediaMessage struct {
	Phone    string
	Type     model.MessageType
	URL      string
	Caption  string
	FileName string
}

type ConnectionState struct {
	Instance string `json:"instanceName"`
	State    string `json:"state"`
}

// Connected reports whether the instance session is open.
func (s *ConnectionState) Connected() bool {
	return s != nil && strings.EqualFold(s.State, "open")
}

type QRCode struct {
	Code        string `json:"code"`
	PairingCode string `json:"pairingCode,omitempty"`
}

// StatusError is returned for non-2xx gateway responses.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway %s http status: %d", e.Op, e.StatusCode)
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendMediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	Media     string `json:"media"`
	Caption   string `json:"caption,omitempty"`
	FileName  string `json:"fileName,omitempty"`
}

func (c *Client) SendText(ctx context.Context, phone, text string) (*SendResult, error) {
	var res SendResult
	err := c.do(ctx, "send text", http.MethodPost, "/message/sendText/", sendTextRequest{Number: phone, Text: text}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) SendMedia(ctx context.Context, msg MediaMessage) (*SendResult, error) {
	if !msg.Type.IsMedia() {
		return nil, fmt.Errorf("unsupported media type %q", msg.Type)
	}
	payload := sendMediaRequest{
		Number:    msg.Phone,
		MediaType: string(msg.Type),
		Media:     msg.URL,
		Caption:   msg.Caption,
		FileName:  msg.FileName,
	}
	var res SendResult
	if err := c.do(ctx, "send media", http.MethodPost, "/message/sendMedia/", payload, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ConnectionState(ctx context.Context) (*ConnectionState, error) {
	var body struct {
		Instance ConnectionState `json:"instance"`
	}
	if err := c.do(ctx, "connection state", http.MethodGet, "/instance/connectionState/", nil, &body); err != nil {
		return nil, err
	}
	if body.Instance.Instance == "" {
		body.Instance.Instance = c.cfg.Instance
	}
	return &body.Instance, nil
}

func (c *Client) QRCode(ctx context.Context) (*QRCode, error) {
	var qr QRCode
	if err := c.do(ctx, "fetch qr code", http.MethodGet, "/instance/connect/", nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	url := c.cfg.BaseURL + path + c.cfg.Instance
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.cfg.Token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

var (
	_ Sender   = (*Client)(nil)
	_ Instance = (*Client)(nil)
)
