package orgunit

import (
	"errors"
	"strconv"

	"orgunit-sync/core/logger"
	"orgunit-sync/feature/orgunit/models"
	"orgunit-sync/feature/orgunit/snapshot"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for organizational units.
type Handler struct {
	service  *Service
	resolver snapshot.Resolver
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service, resolver snapshot.Resolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

// RegisterRoutes registers the orgunit routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/orgunits")
	group.Get("/", h.HandleList)
	group.Get("/export", h.HandleDownload)
	group.Post("/export", h.HandleExport)
	group.Post("/sync", h.HandleSync)
}

// HandleList returns every stored record.
// @Summary List Organizational Units
// @Description Returns every record of the departments table ordered by code and job.
// @Tags orgunits
// @Produce json
// @Success 200 {array} models.OrgUnit "Records"
// @Failure 503 {object} map[string]string "Store Unreachable"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /orgunits [get]
func (h *Handler) HandleList(c *fiber.Ctx) error {
	units, err := h.service.List(c.Context())
	if err != nil {
		return h.fail(c, "List failed", err)
	}
	return c.JSON(units)
}

// HandleDownload returns the store content as a snapshot document.
// @Summary Download Snapshot
// @Description Encodes the departments table as an XML snapshot and returns it.
// @Tags orgunits
// @Produce xml
// @Success 200 {string} string "Snapshot document"
// @Failure 503 {object} map[string]string "Store Unreachable"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /orgunits/export [get]
func (h *Handler) HandleDownload(c *fiber.Ctx) error {
	data, count, err := h.service.Snapshot(c.Context())
	if err != nil {
		return h.fail(c, "Snapshot download failed", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Set("X-Record-Count", strconv.Itoa(count))
	return c.Send(data)
}

// HandleExport writes a snapshot to a file or object location.
// @Summary Export Snapshot
// @Description Writes the departments table to a snapshot location, replacing its content. Use "s3://<key>" for objects in the configured bucket.
// @Tags orgunits
// @Produce json
// @Param location query string true "Snapshot location (path or s3://key)"
// @Success 200 {object} map[string]interface{} "Export Result"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 503 {object} map[string]string "Store Unreachable"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /orgunits/export [post]
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	loc, err := h.resolver.Resolve(c.Query("location"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	count, err := h.service.Export(c.Context(), loc)
	if err != nil {
		return h.fail(c, "Export failed", err)
	}
	return c.JSON(fiber.Map{
		"location": loc.String(),
		"records":  count,
	})
}

// HandleSync reconciles the store against the snapshot in the request body.
// @Summary Sync From Snapshot
// @Description Applies the XML snapshot in the request body to the departments table in one transaction.
// @Tags orgunits
// @Accept xml
// @Produce json
// @Param dry_run query bool false "Compute the changes without applying them"
// @Param snapshot body string true "Snapshot document"
// @Success 200 {object} orgunit.Result "Sync Result"
// @Failure 400 {object} map[string]string "Invalid Snapshot"
// @Failure 503 {object} map[string]string "Store Unreachable"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /orgunits/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	src := &snapshot.BytesSource{
		Name: "request body",
		Data: append([]byte(nil), c.Body()...),
	}

	res, err := h.service.Sync(c.Context(), src, SyncOptions{DryRun: c.QueryBool("dry_run")})
	if err != nil {
		return h.fail(c, "Sync failed", err)
	}
	return c.JSON(res)
}

func (h *Handler) fail(c *fiber.Ctx, msg string, err error) error {
	logger.WithRayID(h.service.logger, c).Error(msg, zap.Error(err))
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrRollback):
		return fiber.StatusInternalServerError
	case errors.Is(err, models.ErrFormat), errors.Is(err, models.ErrDuplicateKey):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrConnectivity):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
