package http_handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/domain"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/pkg/command"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	app    *fiber.App
	addr   string
	router port.CommandRouter
}

// MembershipRequest is the body of PUT /membership.
type MembershipRequest struct {
	LoadFactor    *int           `json:"load_factor"`
	CommandFilter command.Filter `json:"command_filter"`
}

// RouteResponse is the body of a successful POST /commands/route.
type RouteResponse struct {
	MemberID  string            `json:"member_id"`
	Endpoints map[string]string `json:"endpoints,omitempty"`
}

type MemberView struct {
	MemberID      string            `json:"member_id"`
	Endpoints     map[string]string `json:"endpoints,omitempty"`
	LoadFactor    int               `json:"load_factor"`
	CommandFilter command.Filter    `json:"command_filter"`
}

type RingView struct {
	Checksum     string       `json:"checksum"`
	VirtualNodes int          `json:"virtual_nodes"`
	Members      []MemberView `json:"members"`
}

// NewServer creates the fiber app. gatherer backs GET /metrics and may be nil.
func NewServer(addr string, router port.CommandRouter, gatherer prometheus.Gatherer) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{
		app:    app,
		addr:   addr,
		router: router,
	}

	s.registerRoutes(gatherer)

	return s
}

func (s *Server) registerRoutes(gatherer prometheus.Gatherer) {
	s.app.Get(domain.MessageRoutingInformationPath, s.handleRoutingInformation)
	s.app.Put("/membership", s.handleUpdateMembership)
	s.app.Post("/commands/route", s.handleRoute)
	s.app.Get("/members", s.handleMembers)
	if gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

func (s *Server) Start() error {
	return s.app.Listen(s.addr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) sendJSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

func (s *Server) handleRoutingInformation(c *fiber.Ctx) error {
	info, ok := s.router.LocalRoutingInformation()
	if !ok {
		return s.sendJSONError(c, fiber.StatusServiceUnavailable, "Local membership not announced yet")
	}
	return c.JSON(info)
}

func (s *Server) handleUpdateMembership(c *fiber.Ctx) error {
	var req MembershipRequest
	if err := c.BodyParser(&req); err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid body: %v", err))
	}
	if req.LoadFactor == nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, "Missing 'load_factor'")
	}

	err := s.router.UpdateMembership(c.UserContext(), *req.LoadFactor, req.CommandFilter)
	switch {
	case errors.Is(err, port.ErrInvalidLoadFactor), errors.Is(err, command.ErrInvalidFilter):
		return s.sendJSONError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		sdklogger.Errorw("Membership update failed", "load_factor", *req.LoadFactor, "error", err.Error())
		return s.sendJSONError(c, fiber.StatusInternalServerError, fmt.Sprintf("Membership update failed: %v", err))
	}

	info, _ := s.router.LocalRoutingInformation()
	return c.JSON(info)
}

func (s *Server) handleRoute(c *fiber.Ctx) error {
	var msg command.Message
	if err := c.BodyParser(&msg); err != nil {
		return s.sendJSONError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid command: %v", err))
	}

	member, ok, err := s.router.Route(msg)
	if err != nil {
		if errors.Is(err, port.ErrRoutingKeyUnresolved) {
			return s.sendJSONError(c, fiber.StatusUnprocessableEntity, err.Error())
		}
		return s.sendJSONError(c, fiber.StatusInternalServerError, err.Error())
	}
	if !ok {
		return s.sendJSONError(c, fiber.StatusNotFound, fmt.Sprintf("No handler for command %q", msg.Name))
	}

	return c.JSON(RouteResponse{MemberID: member.ID, Endpoints: member.Endpoints})
}

func (s *Server) handleMembers(c *fiber.Ctx) error {
	return c.JSON(newRingView(s.router.Snapshot()))
}

func newRingView(ring *shard.Ring) RingView {
	members := ring.Members()
	view := RingView{
		Checksum:     fmt.Sprintf("%08x", ring.Checksum()),
		VirtualNodes: ring.Size(),
		Members:      make([]MemberView, 0, len(members)),
	}
	for _, m := range members {
		view.Members = append(view.Members, MemberView{
			MemberID:      m.Member.ID,
			Endpoints:     m.Member.Endpoints,
			LoadFactor:    m.LoadFactor,
			CommandFilter: m.Filter,
		})
	}
	return view
}
