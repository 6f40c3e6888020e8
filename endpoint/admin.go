package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/middleware"
	"github.com/nathasitm/portfolio-backend/util"
)

// AdminHome godoc
// @Summary      Admin panel entry
// @Description  Returns the authenticated admin identity; the route guard has already gated access
// @Tags         Admin
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Authenticated admin"
// @Router       /admin [get]
func AdminHome(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		// The guard always sets the session; reaching here means the route
		// was wired without it.
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Admin route reached without a session",
			Err: fmt.Errorf("missing session in context"),
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  fmt.Sprintf("Welcome back, %s", session.Username),
		Data: session,
	})
}
