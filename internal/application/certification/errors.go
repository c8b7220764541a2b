package certification

import (
	"errors"

	"github.com/projecta/backend/internal/domain/shared"
	"github.com/projecta/backend/internal/infrastructure/printing"
)

// Error codes surfaced by the certification services
const (
	CodeNotificationFailed = "NOTIFICATION_FAILED"
	CodeRenderFailed       = "RENDER_FAILED"
)

// notificationFailed wraps a dispatcher error. The transition it announces is
// already committed.
func notificationFailed(err error) error {
	return shared.NewDomainError(CodeNotificationFailed, "Status saved but the notification could not be sent: "+err.Error())
}

// renderFailed keeps the renderer's code when it has one
func renderFailed(err error) error {
	var re *printing.RenderError
	if errors.As(err, &re) && re.Code == printing.ErrCodeInvalidHTML {
		return shared.NewDomainError(shared.ErrInvalidInput.Code, re.Error())
	}
	return shared.NewDomainError(CodeRenderFailed, "Certificate could not be rendered: "+err.Error())
}
