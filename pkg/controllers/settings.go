package controllers

import (
	"net/http"

	"storefront-api-io/api/pkg/models"
	"storefront-api-io/api/pkg/services"
	"storefront-api-io/api/pkg/util"

	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	settingsService services.SettingsService
}

func InitSettingsController(settingsService services.SettingsService) *SettingsController {
	return &SettingsController{settingsService: settingsService}
}

func (sc *SettingsController) GetInviteCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		code, err := sc.settingsService.GetInviteCode(ctx)
		if err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "success", gin.H{"code": code, "isSet": code != ""})
	}
}

func (sc *SettingsController) SetInviteCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		var req models.InviteCodeRequest
		if !BindAndValidate(c, &req) {
			return
		}

		if err := sc.settingsService.SetInviteCode(ctx, req.Code); err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "invite code updated", nil)
	}
}

func (sc *SettingsController) ClearInviteCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := WithTimeout(c)
		defer cancel()

		if err := sc.settingsService.ClearInviteCode(ctx); err != nil {
			util.HandleServiceError(c, err)
			return
		}

		util.HandleSuccess(c, http.StatusOK, "invite code cleared", nil)
	}
}
