package controller

import (
	"material-search-be/internal/dto"
	"material-search-be/internal/pkg/serverutils"
	"material-search-be/internal/service"
	"material-search-be/pkg/search/access"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISearchController interface {
	RegisterRoutes(r fiber.Router)
	Search(ctx *fiber.Ctx) error
}

type searchController struct {
	searchService service.ISearchService
}

func NewSearchController(searchService service.ISearchService) ISearchController {
	return &searchController{
		searchService: searchService,
	}
}

func (c *searchController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/search/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Search)
}

func (c *searchController) Search(ctx *fiber.Ctx) error {
	claims := claimsFromLocals(ctx)

	var req dto.SearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.searchService.Search(ctx.Context(), claims, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search", res))
}

func claimsFromLocals(ctx *fiber.Ctx) access.Claims {
	claims := access.Claims{}
	if raw, ok := ctx.Locals("workspace_id").(string); ok {
		claims.WorkspaceId, _ = uuid.Parse(raw)
	}
	if role, ok := ctx.Locals("role").(string); ok {
		claims.Role = role
	}
	if perms, ok := ctx.Locals("permissions").([]string); ok {
		claims.Permissions = perms
	}
	return claims
}
