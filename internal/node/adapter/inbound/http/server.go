package http_handler

import (
	"context"
	"errors"

	"github.com/chunkvault/chunkvault/internal/node/adapter/outbound/disk"
	"github.com/chunkvault/chunkvault/internal/node/config"
	"github.com/chunkvault/chunkvault/internal/node/service"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app     *fiber.App
	cfg     *config.Config
	service *service.ChunkService
}

func NewServer(cfg *config.Config, svc *service.ChunkService) *Server {
	app := fiber.New(fiber.Config{
		// Room for an 8MB chunk plus headers.
		BodyLimit: 16 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{app: app, cfg: cfg, service: svc}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Put("/v1/chunks/+", s.handleWrite)
	s.app.Get("/v1/chunks/+", s.handleRead)
	s.app.Delete("/v1/chunks/+", s.handleDelete)
	s.app.Get("/v1/healthz", s.handleHealth)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Addr())
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown()
}

func (s *Server) handleWrite(c *fiber.Ctx) error {
	key := c.Params("+")
	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing chunk key"})
	}
	if err := s.service.Write(key, c.Body()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) handleRead(c *fiber.Ctx) error {
	key := c.Params("+")
	data, err := s.service.Read(key)
	if err != nil {
		if errors.Is(err, disk.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "chunk not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/octet-stream")
	return c.Send(data)
}

func (s *Server) handleDelete(c *fiber.Ctx) error {
	if err := s.service.Delete(c.Params("+")); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(s.service.Health())
}
