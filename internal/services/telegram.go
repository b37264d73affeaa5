// Telegram Bot API implementation of [Notifier]
//
// Request/response shapes based on https://core.telegram.org/bots/api
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/farewatch/internal/shared"
)

const telegramBaseURL = "https://api.telegram.org"

// TelegramService implements [Notifier] against the Telegram Bot API.
//
// Messages are sent with HTML parse mode and link previews disabled.
// Failed sends are retried with exponential backoff.
type TelegramService struct {
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

// NewTelegramService creates a new Telegram client with the given bot token.
func NewTelegramService(token string, timeout time.Duration, maxRetries int) (*TelegramService, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: telegram bot token required", shared.ErrMissingCredentials)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &TelegramService{
		token:      token,
		baseURL:    telegramBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}, nil
}

func (s *TelegramService) Name() string {
	return "Telegram"
}

// SetBaseURL overrides the API host. Used in tests.
func (s *TelegramService) SetBaseURL(url string) {
	s.baseURL = url
}

// SetHTTPClient overrides the HTTP client. Used in tests.
func (s *TelegramService) SetHTTPClient(client *http.Client) {
	s.httpClient = client
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type telegramMessage struct {
	MessageID int64 `json:"message_id"`
}

// Send delivers a message to the chat, retrying transient failures.
// Returns the Telegram message id on success.
func (s *TelegramService) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	var messageID int64

	err := shared.WithRetry(ctx, s.maxRetries, time.Second, func() error {
		id, err := s.sendMessage(ctx, chatID, text)
		if err != nil {
			return err
		}
		messageID = id
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrNotificationFailed, err)
	}

	return messageID, nil
}

// sendMessage performs a single sendMessage call.
func (s *TelegramService) sendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	payload := sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	var response telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if !response.OK {
		return 0, fmt.Errorf("%w: telegram API error: %s", shared.ErrAPIRequest, response.Description)
	}

	var message telegramMessage
	if err := json.Unmarshal(response.Result, &message); err != nil {
		return 0, fmt.Errorf("failed to decode message: %w", err)
	}

	return message.MessageID, nil
}

// Healthy verifies the bot token via the getMe endpoint.
func (s *TelegramService) Healthy(ctx context.Context) error {
	apiURL := fmt.Sprintf("%s/bot%s/getMe", s.baseURL, s.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	var response telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !response.OK {
		return fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, response.Description)
	}

	return nil
}

// MockNotifier implements [Notifier] without external calls.
//
// Used when no bot token is configured; messages are counted but not delivered.
type MockNotifier struct {
	sent int64
}

// NewMockNotifier creates a notifier that swallows messages.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Name() string { return "Mock" }

// Send records the message and returns a synthetic message id.
func (m *MockNotifier) Send(ctx context.Context, chatID int64, text string) (int64, error) {
	m.sent++
	return m.sent, nil
}

// Healthy always succeeds for the mock notifier.
func (m *MockNotifier) Healthy(ctx context.Context) error {
	return nil
}
