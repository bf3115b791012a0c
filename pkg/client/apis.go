package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batterytool/batterytool/pkg/config"
	"github.com/batterytool/batterytool/pkg/events"
	"github.com/batterytool/batterytool/pkg/types"
)

func (c *Client) GetStatus(ctx context.Context) (*types.DaemonStatus, error) {
	ret, err := c.Get(ctx, "/status")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get daemon status")
	}

	var st types.DaemonStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal daemon status")
	}
	return &st, nil
}

func (c *Client) GetConfig(ctx context.Context) (*config.RawFileConfig, error) {
	ret, err := c.Get(ctx, "/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var conf config.RawFileConfig
	if err := json.Unmarshal([]byte(ret), &conf); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return &conf, nil
}

func (c *Client) GetVersion(ctx context.Context) (string, error) {
	ret, err := c.Get(ctx, "/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}

	var v string
	if err := json.Unmarshal([]byte(ret), &v); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal version")
	}
	return v, nil
}

// Events streams loop events until ctx is cancelled or the daemon closes
// the stream. The returned channel is closed when streaming stops.
func (c *Client) Events(ctx context.Context) (<-chan events.Event, error) {
	resp, err := c.do(ctx, http.MethodGet, "/events", "")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("got %d subscribing to events", resp.StatusCode)
	}

	ch := make(chan events.Event)
	go func() {
		defer close(ch)
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logrus.Debugf("failed to close event stream: %v", err)
			}
		}()

		var name string
		var data strings.Builder
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if name == "" && data.Len() == 0 {
					continue
				}
				ev := events.Event{Name: name, Data: json.RawMessage(data.String())}
				name = ""
				data.Reset()
				select {
				case ch <- ev:
				case <-ctx.Done():
					return
				}
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			logrus.Debugf("event stream ended: %v", err)
		}
	}()

	return ch, nil
}
