package main

import (
	"context"
	"errors"
	"facetrack/config"
	"facetrack/db"
	"facetrack/faces"
	"facetrack/handlers"
	"facetrack/logging"
	"facetrack/models"
	"facetrack/tracking"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gormsessions "github.com/gin-contrib/sessions/gorm"
	"github.com/gin-gonic/autotls"
	log "github.com/sirupsen/logrus"
)

const cleanupInterval = 20 * time.Second

func main() {
	logging.Init(config.LOG_LEVEL, config.LOG_FILE, config.DEBUG_MODE)
	if err := run(); err != nil {
		log.Errorf("Server stopped: %v", err)
		os.Exit(1)
	}
	log.Println("Server stopped")
}

// run returns instead of exiting so deferred cleanup always happens
func run() error {
	db.Init(config.MYSQL_DSN, config.SQLITE_FILE)
	if err := models.Init(); err != nil {
		return fmt.Errorf("auto-migrate error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var detector faces.Detector
	if config.FACE_DETECT {
		recognizer, err := faces.NewRecognizer(config.FACE_MODELS_DIR, config.FACE_INPUT_SIZE, config.FACE_MAX_PIXELS)
		if err != nil {
			log.Errorf("Face detection disabled: %v", err)
		} else {
			defer recognizer.Close()
			detector = recognizer
		}
	}
	startTracker(ctx, config.SESSION_IDLE_TIMEOUT, cleanupInterval, detector)

	cookieStore := gormsessions.NewStore(db.Instance, true, []byte(config.SESSION_COOKIE_KEY))
	router := newRouter(cookieStore, config.DEBUG_MODE)

	var err error
	if config.TLS_DOMAINS != "" {
		err = autotls.RunWithContext(ctx, router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		server := &http.Server{Addr: config.BIND_ADDRESS, Handler: router}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
		log.Printf("Listening on %s", config.BIND_ADDRESS)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// startTracker wires the registry into the handlers before its cleanup loop starts,
// so the loop never sees the registry half configured
func startTracker(ctx context.Context, idleTimeout, interval time.Duration, detector faces.Detector) *tracking.Registry {
	tracker := tracking.NewRegistry(idleTimeout)
	handlers.Init(tracker, detector)
	go tracker.Run(ctx, interval)
	return tracker
}
