// Package http_handler exposes the engine over HTTP for the UI/CLI
// layer. It is a thin translation layer: parse, delegate, map errors.
package http_handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"

	sdklogger "github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/config"
	"github.com/chunkvault/chunkvault/internal/coordinator/domain"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app     *fiber.App
	cfg     *config.Config
	service port.CoreService
}

func NewServer(cfg *config.Config, service port.CoreService) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:         int(cfg.Engine.MaxFileSize),
		StreamRequestBody: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{app: app, cfg: cfg, service: service}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Post("/v1/files", s.handleStore)
	s.app.Get("/v1/files/:id", s.handleRetrieve)
	s.app.Get("/v1/files/:id/health", s.handleFileHealth)

	s.app.Post("/v1/verify", s.handleVerify)
	s.app.Post("/v1/repair", s.handleRepair)
	s.app.Get("/v1/health", s.handleSystemHealth)

	s.app.Get("/v1/nodes", s.handleListNodes)
	s.app.Post("/v1/nodes", s.handleAddNode)
	s.app.Patch("/v1/nodes/:id/status", s.handleSetNodeStatus)
	s.app.Delete("/v1/nodes/:id", s.handleRemoveNode)
	s.app.Get("/v1/nodes/:id/health", s.handleNodeHealth)
}

func (s *Server) Start() error {
	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Server) Stop(ctx context.Context) error {
	return s.app.Shutdown()
}

func (s *Server) sendError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := fiber.Map{"error": err.Error()}

	var validationErr *domain.ValidationError
	var recoveryErr *domain.RecoveryError
	switch {
	case errors.As(err, &validationErr):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrSizeMismatch):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientNodes):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, domain.ErrFileNotFound), errors.Is(err, domain.ErrNodeNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrNodeHoldsInstances):
		status = fiber.StatusConflict
	case errors.As(err, &recoveryErr):
		status = fiber.StatusBadGateway
		body["unrecoverable_chunks"] = recoveryErr.ChunkNumbers
	case errors.Is(err, domain.ErrIntegrityMismatch):
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(body)
}

func (s *Server) handleStore(c *fiber.Ctx) error {
	name := c.Query("name")
	size, err := strconv.ParseInt(c.Query("size", "0"), 10, 64)
	if err != nil {
		return s.sendError(c, &domain.ValidationError{Field: "size", Reason: "must be an integer"})
	}
	chunkSize, err := strconv.ParseInt(c.Query("chunk_size", "0"), 10, 64)
	if err != nil {
		return s.sendError(c, &domain.ValidationError{Field: "chunk_size", Reason: "must be an integer"})
	}
	replication, err := strconv.Atoi(c.Query("replication", "0"))
	if err != nil {
		return s.sendError(c, &domain.ValidationError{Field: "replication", Reason: "must be an integer"})
	}

	req := port.StoreRequest{
		Name:              name,
		Size:              size,
		ChunkSize:         chunkSize,
		ReplicationFactor: replication,
		Owner:             c.Query("owner"),
	}

	body := c.Context().RequestBodyStream()
	if body == nil {
		body = bytes.NewReader(c.Body())
	}

	file, err := s.service.Store(c.Context(), req, body)
	if err != nil {
		sdklogger.Warnw("Store request failed", "name", name, "error", err.Error())
		return s.sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(file)
}

func (s *Server) handleRetrieve(c *fiber.Ctx) error {
	fileID := c.Params("id")

	var buf bytes.Buffer
	file, err := s.service.Retrieve(c.Context(), fileID, &buf)
	if err != nil {
		sdklogger.Warnw("Retrieve request failed", "file_id", fileID, "error", err.Error())
		return s.sendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/octet-stream")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", file.Name))
	return c.Send(buf.Bytes())
}

func (s *Server) handleFileHealth(c *fiber.Ctx) error {
	health, err := s.service.FileHealth(c.Context(), c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(health)
}

func (s *Server) handleVerify(c *fiber.Ctx) error {
	report, err := s.service.Verify(c.Context(), port.RepairScope{FileID: c.Query("file_id")})
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(report)
}

func (s *Server) handleRepair(c *fiber.Ctx) error {
	target, err := strconv.Atoi(c.Query("target", "0"))
	if err != nil {
		return s.sendError(c, &domain.ValidationError{Field: "target", Reason: "must be an integer"})
	}

	result, err := s.service.Repair(c.Context(), port.RepairScope{FileID: c.Query("file_id")}, target)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(result)
}

func (s *Server) handleSystemHealth(c *fiber.Ctx) error {
	report, err := s.service.Verify(c.Context(), port.RepairScope{})
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(report)
}

func (s *Server) handleListNodes(c *fiber.Ctx) error {
	nodes, err := s.service.ListNodes(c.Context())
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(nodes)
}

func (s *Server) handleAddNode(c *fiber.Ctx) error {
	var node domain.Node
	if err := c.BodyParser(&node); err != nil {
		return s.sendError(c, &domain.ValidationError{Field: "body", Reason: "must be a JSON node record"})
	}
	if err := s.service.AddNode(c.Context(), node); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

func (s *Server) handleSetNodeStatus(c *fiber.Ctx) error {
	var payload struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return s.sendError(c, &domain.ValidationError{Field: "body", Reason: "must carry a status field"})
	}
	if err := s.service.SetNodeStatus(c.Context(), c.Params("id"), domain.NodeStatus(payload.Status)); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusOK)
}

func (s *Server) handleRemoveNode(c *fiber.Ctx) error {
	if err := s.service.RemoveNode(c.Context(), c.Params("id")); err != nil {
		return s.sendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleNodeHealth(c *fiber.Ctx) error {
	health, err := s.service.NodeHealth(c.Context(), c.Params("id"))
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(health)
}
