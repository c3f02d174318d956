package provision

import (
	"fmt"

	driver "github.com/arangodb/go-driver"
	"github.com/arangodb/go-driver/http"

	"github.com/roach88/arangoq/internal/config"
)

// Connect opens an HTTP client for the configured endpoints.
// No request is made until the client is used.
func Connect(cfg config.Arango) (driver.Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("connect: no endpoints configured")
	}

	conn, err := http.NewConnection(http.ConnectionConfig{
		Endpoints: cfg.Endpoints,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %v: %w", cfg.Endpoints, err)
	}

	clientCfg := driver.ClientConfig{Connection: conn}
	if cfg.Username != "" {
		clientCfg.Authentication = driver.BasicAuthentication(cfg.Username, cfg.Password)
	}

	client, err := driver.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}
