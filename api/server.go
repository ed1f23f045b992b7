package api

import (
	"net/http"
	"time"

	"github.com/angelmondragon/agridiary/pkg/config"
)

const readHeaderTimeout = 10 * time.Second

// NewServer wraps handler in the HTTP server cmd/api runs.
func NewServer(cfg config.AppConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}
}
