package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/batterytool/batterytool/pkg/version"
)

func (d *Daemon) setupRoutes(status *Status) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(d.logger))

	router.GET("/status", func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, status.Snapshot())
	})
	router.GET("/config", func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, d.conf.Raw())
	})
	router.GET("/version", func(c *gin.Context) {
		c.IndentedJSON(http.StatusOK, version.Version)
	})
	router.GET("/events", d.streamEvents)

	return router
}

func (d *Daemon) streamEvents(c *gin.Context) {
	ch := d.hub.Subscribe()
	defer d.hub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(_ io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		}
	})
}

// serve starts the read-only status API on socketPath. The returned func
// stops the server and removes the socket.
func (d *Daemon) serve(socketPath string, status *Status) (func(), error) {
	// A daemon killed with SIGKILL leaves its socket behind.
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, pkgerrors.Wrapf(err, "failed to remove stale socket %s", socketPath)
	}

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to listen on %s", socketPath)
	}

	// Every route is read-only, so any local user may connect.
	if err := os.Chmod(socketPath, 0666); err != nil {
		_ = l.Close()
		return nil, pkgerrors.Wrapf(err, "failed to chmod %s", socketPath)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	srv := &http.Server{
		Handler:           d.setupRoutes(status),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}

	go func() {
		d.logger.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Errorf("http server failed: %v", err)
		}
	}()

	return func() {
		d.logger.Info("shutting down http server")
		// Ends open event streams so Shutdown does not wait on them.
		cancelBase()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Errorf("failed to shutdown http server: %v", err)
		}
		if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.Warnf("failed to remove socket %s: %v", socketPath, err)
		}
	}, nil
}
