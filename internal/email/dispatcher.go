package email

import (
	"context"
	"fmt"
)

// Dispatcher implements outbox.EmailSender: it takes the generic
// map[string]interface{} payload enqueued by the auth pipeline, renders
// the named template, and hands the result to a Sender.
type Dispatcher struct {
	Sender Sender
}

func NewDispatcher(s Sender) *Dispatcher {
	return &Dispatcher{Sender: s}
}

func (d *Dispatcher) Send(ctx context.Context, payload map[string]interface{}) error {
	template, _ := payload["template"].(string)
	to, _ := payload["email"].(string)

	var msg Message
	switch template {
	case "email_verification":
		msg = VerificationEmail(to, VerificationData{
			UserName:        str(payload["user_name"]),
			VerificationURL: str(payload["verification_url"]),
			ExpiresInHours:  24,
		})
	case "password_reset":
		msg = PasswordResetEmail(to, PasswordResetData{
			UserName:         str(payload["user_name"]),
			ResetURL:         str(payload["reset_url"]),
			ExpiresInMinutes: 30,
		})
	case "invite":
		msg = InviteEmail(to, InviteData{
			OrgName:       str(payload["org_name"]),
			InviterName:   str(payload["inviter_name"]),
			Role:          str(payload["role"]),
			AcceptURL:     str(payload["accept_url"]),
			ExpiresInDays: 7,
		})
	case "instant_link":
		msg = InstantLinkEmail(to, InstantLinkData{
			UserName:         str(payload["user_name"]),
			InstantLinkURL:   str(payload["instant_link_url"]),
			ExpiresInMinutes: 15,
		})
	case "security_alert":
		msg = SecurityAlertEmail(to, SecurityAlertData{
			UserName:  str(payload["user_name"]),
			LoginTime: str(payload["login_time"]),
			IPAddress: str(payload["ip_address"]),
			Location:  str(payload["location"]),
			Device:    str(payload["device"]),
			Browser:   str(payload["browser"]),
			ActionURL: str(payload["action_url"]),
		})
	default:
		return fmt.Errorf("unknown email template %q", template)
	}

	return d.Sender.Send(ctx, msg)
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
