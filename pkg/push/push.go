// Package push delivers notifications to app installations through
// Firebase Cloud Messaging.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	fcmScope    = "https://www.googleapis.com/auth/firebase.messaging"
	fcmEndpoint = "https://fcm.googleapis.com"
)

// ErrUnregistered means the device token is no longer valid.
var ErrUnregistered = errors.New("device token is unregistered")

// Message is one push to one device.
type Message struct {
	Token string
	Title string
	Body  string
	URL   string
	Data  map[string]string
}

// Sender delivers a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// DryRunSender accepts every message without delivering it.
type DryRunSender struct{}

func (DryRunSender) Send(ctx context.Context, msg Message) (string, error) {
	return "dry-run", nil
}

// FCMSender calls the FCM HTTP v1 API.
type FCMSender struct {
	client    *http.Client
	endpoint  string
	projectID string
}

// NewFCMSender authenticates with the service account in credentialsFile,
// or the application default credentials when it is empty.
func NewFCMSender(ctx context.Context, projectID, credentialsFile string) (*FCMSender, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}

	var (
		creds *google.Credentials
		err   error
	)
	if credentialsFile != "" {
		data, readErr := os.ReadFile(credentialsFile)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read google credentials: %w", readErr)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, fcmScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, fcmScope)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load google credentials: %w", err)
	}

	return NewFCMSenderWithClient(oauth2.NewClient(ctx, creds.TokenSource), fcmEndpoint, projectID), nil
}

// NewFCMSenderWithClient uses an already authenticated client.
func NewFCMSenderWithClient(client *http.Client, endpoint, projectID string) *FCMSender {
	return &FCMSender{client: client, endpoint: endpoint, projectID: projectID}
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Webpush      *fcmWebpush       `json:"webpush,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmWebpush struct {
	FCMOptions struct {
		Link string `json:"link"`
	} `json:"fcm_options"`
}

type fcmError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			ErrorCode string `json:"errorCode"`
		} `json:"details"`
	} `json:"error"`
}

func (s *FCMSender) Send(ctx context.Context, msg Message) (string, error) {
	body := fcmRequest{Message: fcmMessage{
		Token:        msg.Token,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}}
	if msg.URL != "" {
		body.Message.Webpush = &fcmWebpush{}
		body.Message.Webpush.FCMOptions.Link = msg.URL
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.endpoint, s.projectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fcm request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var fe fcmError
		if json.Unmarshal(raw, &fe) == nil {
			for _, d := range fe.Error.Details {
				if d.ErrorCode == "UNREGISTERED" {
					return "", ErrUnregistered
				}
			}
			if fe.Error.Status == "NOT_FOUND" {
				return "", ErrUnregistered
			}
			if fe.Error.Message != "" {
				return "", fmt.Errorf("fcm %s: %s", fe.Error.Status, fe.Error.Message)
			}
		}
		return "", fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}

	var ok struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &ok); err != nil {
		return "", fmt.Errorf("failed to decode fcm response: %w", err)
	}
	return ok.Name, nil
}
