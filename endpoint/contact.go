package endpoint

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/nathasitm/portfolio-backend/util"
)

// ContactHandler accepts contact form submissions and reports them through
// the audit notifier.
type ContactHandler struct {
	notifier *util.Notifier
}

func NewContactHandler(notifier *util.Notifier) *ContactHandler {
	return &ContactHandler{notifier: notifier}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required" example:"Bob"`
	Email   string `json:"email" binding:"required,email" example:"b@x.com"`
	Subject string `json:"subject" binding:"required" example:"Hi"`
	Message string `json:"message" binding:"required" example:"Hello"`
}

// SubmitContact godoc
// @Summary      Submit a contact message
// @Description  Validates the form and reports it to the notification channel
// @Tags         Contact
// @Accept       json
// @Produce      json
// @Param        request body ContactRequest true "Contact form"
// @Success      200 {object} util.APIResponse "Message received"
// @Failure      400 {object} util.APIResponse "Invalid request payload"
// @Router       /contact [post]
//
// Notification delivery is fire-and-forget: an unset webhook URL or a
// delivery failure never fails the submission.
func (h *ContactHandler) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	ev := util.AuditEvent{
		Kind:      util.AuditContactMessage,
		Name:      util.NormalizeName(req.Name),
		Email:     req.Email,
		Subject:   req.Subject,
		Body:      req.Message,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	go h.notifier.Send(context.Background(), ev)

	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Thanks for the message! I will get back to you soon."})
}
