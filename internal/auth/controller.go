package auth

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
)

const (
	MsgInvalidCredentials = "Email ou mot de passe incorrect"
	MsgSessionExpired     = "Session expirée"
	MsgUserAlreadyExists  = "Un compte existe déjà avec cet email ou ce téléphone"
	MsgWrongPassword      = "Mot de passe actuel incorrect"
)

type Controller struct {
	service   Service
	cookies   *CookieManager
	validator *validator.Validate
	log       *logger.Logger
}

func NewController(service Service, cookies *CookieManager, log *logger.Logger) *Controller {
	return &Controller{
		service:   service,
		cookies:   cookies,
		validator: validation.New(),
		log:       log,
	}
}

// Register godoc
// @Summary      Créer un compte client
// @Description  Crée un compte avec le rôle client. Aucun cookie n'est posé : l'utilisateur se connecte ensuite.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      RegisterRequest  true  "Nom, email ou téléphone, mot de passe"
// @Success      201   {object}  UserResponse
// @Failure      400   {object}  response.ErrorResponse
// @Failure      409   {object}  response.ErrorResponse
// @Failure      500   {object}  response.ErrorResponse
// @Router       /auth/register [post]
func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, response.MsgInvalidRequest)
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondValidationError(ctx, err)
		return
	}

	user, err := c.service.Register(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserAlreadyExists):
			response.RespondError(ctx, http.StatusConflict, MsgUserAlreadyExists)
		default:
			c.internalError(ctx, err)
		}
		return
	}

	response.RespondJSON(ctx, http.StatusCreated, UserResponse{User: *user})
}

// Login godoc
// @Summary      Se connecter
// @Description  Le champ email accepte aussi un numéro de téléphone. Pose les cookies accessToken et refreshToken.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      LoginRequest  true  "Identifiant et mot de passe"
// @Success      200   {object}  UserResponse
// @Failure      400   {object}  response.ErrorResponse
// @Failure      401   {object}  response.ErrorResponse
// @Failure      500   {object}  response.ErrorResponse
// @Router       /auth/login [post]
func (c *Controller) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, response.MsgInvalidRequest)
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondValidationError(ctx, err)
		return
	}

	session, err := c.service.Login(ctx.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			c.log.LogAuthFailure(ctx.Request.Context(), "invalid_credentials", ctx.ClientIP())
			response.RespondError(ctx, http.StatusUnauthorized, MsgInvalidCredentials)
		default:
			c.internalError(ctx, err)
		}
		return
	}

	c.cookies.SetSession(ctx, session.AccessToken, session.RefreshToken)
	response.RespondJSON(ctx, http.StatusOK, UserResponse{User: session.User})
}

// Me godoc
// @Summary      Utilisateur courant
// @Description  Renvoie {"user": null} avec un statut 200 quand le visiteur n'est pas connecté.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  MeResponse
// @Failure      500  {object}  response.ErrorResponse
// @Router       /auth/me [get]
func (c *Controller) Me(ctx *gin.Context) {
	user, err := c.service.CurrentUser(ctx.Request.Context(), c.cookies.AccessToken(ctx))
	if err != nil {
		c.internalError(ctx, err)
		return
	}

	response.RespondJSON(ctx, http.StatusOK, MeResponse{User: user})
}

// Refresh godoc
// @Summary      Prolonger la session
// @Description  Vérifie le cookie refreshToken, émet un nouvel access token et repose les deux cookies.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  response.ErrorResponse
// @Router       /auth/refresh [post]
func (c *Controller) Refresh(ctx *gin.Context) {
	session, err := c.service.Refresh(ctx.Request.Context(), c.cookies.RefreshToken(ctx))
	if err != nil {
		if !errors.Is(err, ErrSessionExpired) {
			c.log.LogHTTPError(ctx, err, http.StatusUnauthorized)
		}
		response.RespondError(ctx, http.StatusUnauthorized, MsgSessionExpired)
		return
	}

	c.cookies.SetSession(ctx, session.AccessToken, session.RefreshToken)
	response.RespondJSON(ctx, http.StatusOK, UserResponse{User: session.User})
}

// Logout godoc
// @Summary      Se déconnecter
// @Description  Supprime la session enregistrée et efface toujours les deux cookies.
// @Tags         auth
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /auth/logout [post]
func (c *Controller) Logout(ctx *gin.Context) {
	if err := c.service.Logout(ctx.Request.Context(), c.cookies.RefreshToken(ctx)); err != nil {
		c.log.LogHTTPError(ctx, err, http.StatusOK)
	}

	c.cookies.Clear(ctx)
	response.RespondJSON(ctx, http.StatusOK, SuccessResponse{Success: true})
}

// ChangePassword godoc
// @Summary      Changer de mot de passe
// @Description  Ferme la session en cours : l'utilisateur doit se reconnecter.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      ChangePasswordRequest  true  "Mot de passe actuel et nouveau"
// @Success      200   {object}  SuccessResponse
// @Failure      400   {object}  response.ErrorResponse
// @Failure      401   {object}  response.ErrorResponse
// @Failure      500   {object}  response.ErrorResponse
// @Router       /auth/change-password [put]
func (c *Controller) ChangePassword(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.RespondError(ctx, http.StatusUnauthorized, response.MsgUnauthenticated)
		return
	}

	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, http.StatusBadRequest, response.MsgInvalidRequest)
		return
	}

	if err := c.validator.Struct(&req); err != nil {
		response.RespondValidationError(ctx, err)
		return
	}

	err := c.service.ChangePassword(ctx.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			response.RespondError(ctx, http.StatusBadRequest, MsgWrongPassword)
		case errors.Is(err, users.ErrUserNotFound):
			response.RespondError(ctx, http.StatusUnauthorized, response.MsgUnauthenticated)
		default:
			c.internalError(ctx, err)
		}
		return
	}

	c.cookies.Clear(ctx)
	response.RespondJSON(ctx, http.StatusOK, SuccessResponse{Success: true})
}

func (c *Controller) internalError(ctx *gin.Context, err error) {
	c.log.LogHTTPError(ctx, err, http.StatusInternalServerError)
	response.RespondError(ctx, http.StatusInternalServerError, response.MsgInternal)
}
