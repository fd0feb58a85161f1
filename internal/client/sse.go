package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"relay/internal/logging"
	"relay/internal/types"
)

// Events opens the server's event stream. It returns a channel of raw
// stream events and a cancel func that tears the stream down; the channel
// is closed when the stream ends. One stream carries events for every
// session; routing by session happens downstream.
func (c *Client) Events(ctx context.Context) (<-chan types.StreamEvent, func(), error) {
	if err := c.ensureToken(); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	url := c.baseURL + "/v1/events?follow=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "text/event-stream")

	// The shared client has a request timeout; streams must outlive it.
	httpClient := &http.Client{Transport: c.http.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, nil, decodeAPIError(resp)
	}

	events := make(chan types.StreamEvent, 256)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		start := time.Now()
		count := 0
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var dataLines []string

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if len(dataLines) == 0 {
					continue
				}
				payload := strings.Join(dataLines, "\n")
				dataLines = dataLines[:0]
				var event types.StreamEvent
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					c.logger.Warn("event stream frame dropped", logging.F("err", err))
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
				count++
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			c.logger.Warn("event stream scan error", logging.F("err", err))
		}
		c.logger.Debug("event stream closed",
			logging.F("count", count),
			logging.F("dur", time.Since(start)))
	}()

	return events, cancel, nil
}
