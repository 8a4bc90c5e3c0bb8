package admin

import (
	"errors"
	"net/http"

	"boutique/internal/shared/middleware"
	"boutique/internal/shared/utils/response"
	"boutique/internal/shared/utils/validation"
	"boutique/internal/users"
	"boutique/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	MsgUserNotFound   = "Utilisateur introuvable"
	MsgSelfRoleChange = "Vous ne pouvez pas modifier votre propre rôle"
	MsgInvalidUserID  = "Identifiant utilisateur invalide"
)

type Controller struct {
	service   Service
	validator *validator.Validate
	log       *logger.Logger
}

func NewController(service Service, log *logger.Logger) *Controller {
	return &Controller{
		service:   service,
		validator: validation.New(),
		log:       log,
	}
}

// ListUsers godoc
// @Summary      Lister les comptes
// @Tags         admin
// @Produce      json
// @Param        role   query     string  false  "client, admin ou superadmin"
// @Param        page   query     int     false  "Page (1 par défaut)"
// @Param        limit  query     int     false  "Taille de page (20 par défaut, 100 max)"
// @Success      200    {object}  UserListResponse
// @Failure      400    {object}  response.ErrorResponse
// @Failure      401    {object}  response.ErrorResponse
// @Failure      403    {object}  response.ErrorResponse
// @Router       /admin/users [get]
func (c *Controller) ListUsers(ctx *gin.Context) {
	var query ListUsersQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, response.MsgInvalidRequest)
		return
	}

	if err := c.validator.Struct(&query); err != nil {
		response.RespondValidationError(ctx, err)
		return
	}

	result, err := c.service.ListUsers(ctx.Request.Context(), query)
	if err != nil {
		c.internalError(ctx, err)
		return
	}

	response.RespondJSON(ctx, http.StatusOK, result)
}

// GetUser godoc
// @Summary      Détail d'un compte
// @Tags         admin
// @Produce      json
// @Param        id   path      string  true  "Identifiant"
// @Success      200  {object}  UserResponse
// @Failure      400  {object}  response.ErrorResponse
// @Failure      404  {object}  response.ErrorResponse
// @Router       /admin/users/{id} [get]
func (c *Controller) GetUser(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, http.StatusBadRequest, MsgInvalidUserID)
		return
	}

	user, err := c.service.GetUser(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			response.RespondError(ctx, http.StatusNotFound, MsgUserNotFound)
			return
		}
		c.internalError(ctx, err)
		return
	}

	response.RespondJSON(ctx, http.StatusOK, UserResponse{User: *user})
}

// ChangeRole godoc
// @Summary      Modifier le rôle d'un compte
// @Description  Réservé aux superadmins. La session du compte modifié est révoquée.
// @Tags         superadmin
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Identifiant"
// @Param        body  body      UpdateRoleRequest  true  "Nouveau rôle"
// @Success      200   {object}  UserResponse
// @Failure      400   {object}  response.ErrorResponse
// @Failure      403   {object}  response.ErrorResponse
// @Failure      404   {object}  response.ErrorResponse
// @Router       /superadmin/users/{id}/role [patch]
func (c *Controller) ChangeRole(ctx *gin.Context) {
	actorID, ok := middleware.UserID(ctx)
	if !ok {
		response.RespondError(ctx, http.StatusUnauthorized, response.MsgUnauthenticated)
		return
	}

	userID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondError(ctx, http.StatusBadRequest, MsgInvalidUserID)
		return
	}

	var req UpdateRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, response.MsgInvalidRequest)
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondValidationError(ctx, err)
		return
	}

	user, err := c.service.ChangeRole(ctx.Request.Context(), actorID, userID, users.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, ErrSelfRoleChange):
			response.RespondError(ctx, http.StatusForbidden, MsgSelfRoleChange)
		case errors.Is(err, users.ErrInvalidRole):
			response.RespondError(ctx, http.StatusBadRequest, response.MsgInvalidRequest)
		case errors.Is(err, users.ErrUserNotFound):
			response.RespondError(ctx, http.StatusNotFound, MsgUserNotFound)
		default:
			c.internalError(ctx, err)
		}
		return
	}

	response.RespondJSON(ctx, http.StatusOK, UserResponse{User: *user})
}

func (c *Controller) internalError(ctx *gin.Context, err error) {
	c.log.LogHTTPError(ctx, err, http.StatusInternalServerError)
	response.RespondError(ctx, http.StatusInternalServerError, response.MsgInternal)
}
