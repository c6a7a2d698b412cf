package server

import (
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/course-recommender/internal/config"
	"github.com/morezero/course-recommender/pkg/commsutil"
	"github.com/morezero/course-recommender/pkg/dispatcher"
	"github.com/morezero/course-recommender/pkg/events"
	"github.com/morezero/course-recommender/pkg/gateway"
	"github.com/morezero/course-recommender/pkg/registry"
)

const wireLogPrefix = "server:wire"

// Components is what a UI surface runs on. Close releases the COMMS connection, if any.
type Components struct {
	Controller *dispatcher.Controller
	Registry   *registry.Registry
	Conn       *comms.Conn
}

// Close drains the COMMS connection.
func (c *Components) Close() {
	if c.Conn == nil {
		return
	}
	if err := c.Conn.Drain(); err != nil {
		slog.Warn(fmt.Sprintf("%s - COMMS drain: %v", wireLogPrefix, err))
	}
}

// Build loads the catalog and wires the gateway, event publisher and controller from cfg.
func Build(cfg *config.Config) (*Components, error) {
	// Step 1: Load catalog and build registry
	catalog, err := registry.OpenCatalog(cfg.CatalogFile, cfg.CatalogVersionConstraint)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to load catalog: %w", wireLogPrefix, err)
	}
	reg, err := catalog.Build(cfg.CatalogVersionConstraint)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to build registry: %w", wireLogPrefix, err)
	}
	slog.Info(fmt.Sprintf("%s - Registry has %d functionalities (catalog %s)", wireLogPrefix, reg.Len(), reg.Version()))

	c := &Components{Registry: reg}

	// Step 2: Connect to COMMS when the gateway or events need it
	if cfg.UsesComms() {
		nc, err := commsutil.Connect(commsutil.ConnectOptions{URL: cfg.COMMSURL, Name: cfg.COMMSName})
		if err != nil {
			return nil, err
		}
		c.Conn = nc
	}

	// Step 3: Gateway
	var gw gateway.Gateway
	switch cfg.GatewayTransport {
	case config.TransportComms:
		gw = gateway.NewCommsGateway(c.Conn, &gateway.CommsGatewayOpts{
			SubjectPrefix: cfg.OperationSubjectPrefix,
			Timeout:       cfg.RequestTimeout,
		})
		slog.Info(fmt.Sprintf("%s - Gateway: COMMS at %s", wireLogPrefix, cfg.COMMSURL))
	default:
		gw = gateway.NewHTTPGateway(cfg.BackendURL, nil)
		slog.Info(fmt.Sprintf("%s - Gateway: HTTP at %s", wireLogPrefix, cfg.BackendURL))
	}

	// Step 4: Dispatch events
	var publisher events.EventPublisher = &events.NoOpPublisher{}
	if cfg.PublishEvents {
		publisher = events.NewCommsPublisher(c.Conn, &events.CommsPublisherOpts{GlobalSubject: cfg.DispatchEventSubject})
	}

	c.Controller = dispatcher.NewController(dispatcher.ControllerParams{
		Registry:  reg,
		Gateway:   gw,
		Publisher: publisher,
	})
	return c, nil
}
