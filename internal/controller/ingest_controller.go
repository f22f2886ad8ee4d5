package controller

import (
	"material-search-be/internal/dto"
	"material-search-be/internal/pkg/serverutils"
	"material-search-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	IngestDocument(ctx *fiber.Ctx) error
	IngestMaterial(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{
		ingestService: ingestService,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("document", c.IngestDocument)
	h.Post("material", c.IngestMaterial)
}

func (c *ingestController) IngestDocument(ctx *fiber.Ctx) error {
	claims := claimsFromLocals(ctx)

	var req dto.IngestDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.IngestDocument(ctx.Context(), claims.WorkspaceId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ingest document", res))
}

func (c *ingestController) IngestMaterial(ctx *fiber.Ctx) error {
	claims := claimsFromLocals(ctx)

	var req dto.IngestMaterialRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.IngestMaterial(ctx.Context(), claims.WorkspaceId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success ingest material", res))
}
