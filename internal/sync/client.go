// Package sync posts workout and weight events to the remote backend.
// Delivery is best effort: one attempt, failures are logged by the
// dispatcher and never reach the user.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/tuifit/internal/model"
)

// ErrDisabled is returned when no URL or init data is configured.
var ErrDisabled = errors.New("sync is not configured")

// Event types.
const (
	TypeWorkoutFinished = "workout_finished"
	TypeWeightUpsert    = "weight_upsert"
)

// WorkoutEvent reports a finished workout.
type WorkoutEvent struct {
	Type       string `json:"type"`
	EventID    string `json:"event_id"`
	FinishedAt string `json:"finished_at"`
	Source     string `json:"source"`
	TrainingID string `json:"training_id,omitempty"`
	CourseID   string `json:"course_id,omitempty"`
	DayIndex   *int   `json:"day_index,omitempty"`
	Title      string `json:"title"`
}

// WeightEvent reports a weight measurement.
type WeightEvent struct {
	Type       string  `json:"type"`
	EventID    string  `json:"event_id"`
	MeasuredAt string  `json:"measured_at"`
	Weight     float64 `json:"weight"`
}

// NewWorkoutEvent builds the event for a history entry.
func NewWorkoutEvent(e model.HistoryEntry) WorkoutEvent {
	return WorkoutEvent{
		Type:       TypeWorkoutFinished,
		EventID:    uuid.NewString(),
		FinishedAt: e.Date,
		Source:     string(e.Source),
		TrainingID: e.TrainingID,
		CourseID:   e.CourseID,
		DayIndex:   e.DayIndex,
		Title:      e.Title,
	}
}

// NewWeightEvent builds the event for a weight entry.
func NewWeightEvent(date string, weight float64) WeightEvent {
	return WeightEvent{
		Type:       TypeWeightUpsert,
		EventID:    uuid.NewString(),
		MeasuredAt: date,
		Weight:     weight,
	}
}

type request struct {
	InitData string `json:"initData"`
	Event    any    `json:"event"`
}

type response struct {
	OK    *bool  `json:"ok"`
	Error string `json:"error"`
}

// Client calls the sync endpoint.
type Client struct {
	baseURL    string
	initData   string
	httpClient *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses one with
// a 30 second timeout.
func NewClient(baseURL, initData string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		initData:   strings.TrimSpace(initData),
		httpClient: httpClient,
	}
}

// Enabled reports whether both the URL and init data are set.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != "" && c.initData != ""
}

// Send posts one event.
func (c *Client) Send(ctx context.Context, event any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	body, err := json.Marshal(request{InitData: c.initData, Event: event})
	if err != nil {
		return fmt.Errorf("failed to encode sync request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var payload response
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && len(data) > 0 {
		// A non-JSON body is judged by status alone.
		_ = json.Unmarshal(data, &payload)
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if ok && (payload.OK == nil || *payload.OK) {
		return nil
	}
	if payload.Error != "" {
		return fmt.Errorf("sync rejected: %s", payload.Error)
	}
	return fmt.Errorf("sync request failed: %d", resp.StatusCode)
}
