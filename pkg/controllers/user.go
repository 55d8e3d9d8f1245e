package controllers

import (
	"net/http"

	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionManager starts and ends login sessions.
type SessionManager interface {
	Create(c *gin.Context, userID primitive.ObjectID, email string) (string, error)
	Delete(c *gin.Context)
}

type UserController struct {
	userService services.UserService
	sessions    SessionManager
}

func InitUserController(userService services.UserService, sessions SessionManager) *UserController {
	return &UserController{
		userService: userService,
		sessions:    sessions,
	}
}

type authPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account and logs it in.
func (uc *UserController) Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		var req models.CreateUserRequest
		if !BindAndValidate(c, &req) {
			return
		}

		user, err := uc.userService.Register(ctx, req)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		token, err := uc.sessions.Create(c, user.Id, user.Email)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusCreated, "account created", authPayload{User: user, Token: token})
	}
}

func (uc *UserController) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		var req models.UserAuthRequest
		if !BindAndValidate(c, &req) {
			return
		}

		user, err := uc.userService.Authenticate(ctx, req)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		token, err := uc.sessions.Create(c, user.Id, user.Email)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "logged in", authPayload{User: user, Token: token})
	}
}

func (uc *UserController) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		uc.sessions.Delete(c)
		util.HandleSuccess(c, http.StatusOK, "logged out", nil)
	}
}

// ActiveSessionUser returns the logged-in user.
func (uc *UserController) ActiveSessionUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		userID, ok := ValidateAndGetUserID(c)
		if !ok {
			return
		}

		user, err := uc.userService.GetUserByID(ctx, userID)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", user)
	}
}
