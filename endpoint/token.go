package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/middleware"
	"github.com/nathasitm/portfolio-backend/util"
)

// ValidateToken godoc
// @Summary      Validate session token
// @Description  Validate if the session token is valid and not expired
// @Tags         Authentication
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Valid session token"
// @Failure      401 {object} util.APIResponse "Invalid or expired session token"
// @Router       /token/validate [get]
func (h *AuthHandler) ValidateToken(c *gin.Context) {
	token := c.GetHeader(middleware.SessionTokenHeader)
	if token == "" {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Session token not provided",
			Err: fmt.Errorf("session token not provided"),
		})
		return
	}

	session, ok := h.holder.Current(c.Request.Context(), token)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Session not found or has expired",
			Err: fmt.Errorf("session not found"),
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Valid session token",
		Data: session,
	})
}
