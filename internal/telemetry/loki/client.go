// Package loki pushes security-event lines to Grafana Loki's push API.
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const jobLabel = "servicos-ja"

// pushRequest mirrors Loki's /loki/api/v1/push body: streams of labeled
// [timestamp_ns, line] pairs.
type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

// Label values are restricted to characters Loki queries handle cleanly.
var labelSanitize = regexp.MustCompile(`[^a-zA-Z0-9_\-:@.]`)

// eventFields are the SecurityEvent JSON fields lifted into stream labels.
type eventFields struct {
	EventType  string `json:"eventType"`
	UserID     string `json:"userId"`
	OccurredAt string `json:"occurredAt"`
}

// PushEventJSON pushes one security-event message (as consumed from Kafka) to
// Loki. The event type and user id become stream labels; the event's own
// timestamp is used when it parses, the current time otherwise. A line that is
// not valid event JSON is still pushed raw so nothing is dropped.
func PushEventJSON(ctx context.Context, baseURL string, rawJSON []byte) error {
	labels := map[string]string{}
	ts := time.Now().UTC()

	var fields eventFields
	if err := json.Unmarshal(rawJSON, &fields); err == nil {
		if fields.EventType != "" {
			labels["event_type"] = fields.EventType
		}
		if fields.UserID != "" {
			labels["user_id"] = fields.UserID
		}
		if t, err := time.Parse(time.RFC3339Nano, fields.OccurredAt); err == nil {
			ts = t
		}
	}
	return PushEvent(ctx, baseURL, ts, string(rawJSON), labels)
}

// PushEvent sends a single labeled line to Loki at baseURL. Non-2xx responses
// are errors.
func PushEvent(ctx context.Context, baseURL string, timestamp time.Time, line string, labels map[string]string) error {
	if baseURL == "" {
		return fmt.Errorf("loki: base URL is empty")
	}

	streamLabels := map[string]string{"job": jobLabel}
	for k, v := range labels {
		if s := labelSanitize.ReplaceAllString(strings.TrimSpace(v), "_"); s != "" {
			streamLabels[k] = s
		}
	}
	payload, err := json.Marshal(pushRequest{
		Streams: []stream{{
			Stream: streamLabels,
			Values: [][]string{{strconv.FormatInt(timestamp.UnixNano(), 10), line}},
		}},
	})
	if err != nil {
		return err
	}

	url := strings.TrimSuffix(baseURL, "/") + "/loki/api/v1/push"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("loki: push returned %s", resp.Status)
	}
	return nil
}
