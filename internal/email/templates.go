package email

import "fmt"

const linkButtonStyle = `display: inline-block; background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;`

func htmlShell(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
<h1 style="color: #333;">%s</h1>
%s
</body>
</html>`, title, body)
}

func linkButton(url, label string) string {
	return fmt.Sprintf(`<p style="text-align: center;">
<a href="%s" rel="noreferrer noopener" referrerpolicy="no-referrer" style="%s">%s</a>
</p>`, url, linkButtonStyle, label)
}

// VerificationEmail renders the email-verification message.
func VerificationEmail(to string, d VerificationData) Message {
	name := escapeHTML(orDefault(d.UserName, "there"))
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Please click the button below to verify your email address:</p>
%s
<p>Or copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #666;">%s</p>
<p style="color: #666; font-size: 14px;">This link expires in %d hours.</p>
<p style="color: #999; font-size: 12px;">If you didn't create an account, you can safely ignore this email.</p>`,
		name, linkButton(d.VerificationURL, "Verify Email"), d.VerificationURL, d.ExpiresInHours)

	return Message{
		To:       to,
		Subject:  "Verify your email address",
		HTMLBody: htmlShell("Verify your email", body),
		TextBody: fmt.Sprintf("Hi %s,\n\nPlease verify your email by visiting:\n%s\n\nThis link expires in %d hours.\n\nIf you didn't create an account, you can safely ignore this email.",
			name, d.VerificationURL, d.ExpiresInHours),
		Type: TypeVerification,
	}
}

// PasswordResetEmail renders the password-reset message.
func PasswordResetEmail(to string, d PasswordResetData) Message {
	name := escapeHTML(orDefault(d.UserName, "there"))
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset your password. Click the button below to choose a new password:</p>
%s
<p>Or copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #666;">%s</p>
<p style="color: #666; font-size: 14px;">This link expires in %d minutes.</p>
<p style="color: #999; font-size: 12px;">If you didn't request a password reset, you can safely ignore this email.</p>`,
		name, linkButton(d.ResetURL, "Reset Password"), d.ResetURL, d.ExpiresInMinutes)

	return Message{
		To:       to,
		Subject:  "Reset your password",
		HTMLBody: htmlShell("Reset your password", body),
		TextBody: fmt.Sprintf("Hi %s,\n\nWe received a request to reset your password.\n\nReset your password: %s\n\nThis link expires in %d minutes.\n\nIf you didn't request this, you can safely ignore this email.",
			name, d.ResetURL, d.ExpiresInMinutes),
		Type: TypePasswordReset,
	}
}

// InviteEmail renders the org-invitation message.
func InviteEmail(to string, d InviteData) Message {
	inviter := escapeHTML(orDefault(d.InviterName, "Someone"))
	org := escapeHTML(d.OrgName)
	role := escapeHTML(d.Role)
	body := fmt.Sprintf(`<p>%s has invited you to join <strong>%s</strong> as a <strong>%s</strong>.</p>
<p>Click the button below to accept the invitation:</p>
%s
<p>Or copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #666;">%s</p>
<p style="color: #666; font-size: 14px;">This invitation expires in %d days.</p>
<p style="color: #999; font-size: 12px;">If you don't want to join, you can safely ignore this email.</p>`,
		inviter, org, role, linkButton(d.AcceptURL, "Accept Invitation"), d.AcceptURL, d.ExpiresInDays)

	return Message{
		To:       to,
		Subject:  fmt.Sprintf("You've been invited to join %s", d.OrgName),
		HTMLBody: htmlShell("You're invited!", body),
		TextBody: fmt.Sprintf("%s has invited you to join %s as a %s.\n\nAccept the invitation: %s\n\nThis invitation expires in %d days.\n\nIf you don't want to join, you can safely ignore this email.",
			inviter, org, role, d.AcceptURL, d.ExpiresInDays),
		Type: TypeInvite,
	}
}

// InstantLinkEmail renders the passwordless sign-in message.
func InstantLinkEmail(to string, d InstantLinkData) Message {
	name := escapeHTML(orDefault(d.UserName, "there"))
	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>Click the button below to sign in to your account:</p>
%s
<p>Or copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #666;">%s</p>
<p style="color: #666; font-size: 14px;">This link expires in %d minutes.</p>
<p style="color: #999; font-size: 12px;">If you didn't request this link, you can safely ignore this email.</p>`,
		name, linkButton(d.InstantLinkURL, "Sign In"), d.InstantLinkURL, d.ExpiresInMinutes)

	return Message{
		To:       to,
		Subject:  "Your sign-in link",
		HTMLBody: htmlShell("Sign in to your account", body),
		TextBody: fmt.Sprintf("Hi %s,\n\nClick the link below to sign in:\n%s\n\nThis link expires in %d minutes.\n\nIf you didn't request this, you can safely ignore this email.",
			name, d.InstantLinkURL, d.ExpiresInMinutes),
		Type: TypeInstantLink,
	}
}

// SecurityAlertEmail renders the new-device-login alert message.
func SecurityAlertEmail(to string, d SecurityAlertData) Message {
	name := escapeHTML(orDefault(d.UserName, "there"))
	ip := escapeHTML(orDefault(d.IPAddress, "Unknown"))
	device := escapeHTML(orDefault(d.Device, "Unknown device"))
	browser := escapeHTML(orDefault(d.Browser, "Unknown browser"))
	location := escapeHTML(orDefault(d.Location, "Unknown location"))
	loginTime := escapeHTML(d.LoginTime)

	action := ""
	if d.ActionURL != "" {
		action = fmt.Sprintf(`<p style="text-align: center;">
<a href="%s" rel="noreferrer noopener" referrerpolicy="no-referrer" style="display: inline-block; background-color: #DC2626; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; font-weight: bold;">Secure My Account</a>
</p>`, d.ActionURL)
	}

	body := fmt.Sprintf(`<p>Hi %s,</p>
<p>We noticed a new sign-in to your account:</p>
<div style="background-color: #F3F4F6; padding: 16px; border-radius: 8px; margin: 16px 0;">
<p style="margin: 4px 0;"><strong>Time:</strong> %s</p>
<p style="margin: 4px 0;"><strong>Device:</strong> %s</p>
<p style="margin: 4px 0;"><strong>Browser:</strong> %s</p>
<p style="margin: 4px 0;"><strong>Location:</strong> %s</p>
<p style="margin: 4px 0;"><strong>IP Address:</strong> %s</p>
</div>
<p>If this was you, you can safely ignore this email.</p>
<p style="color: #DC2626;"><strong>If this wasn't you</strong>, your account may be compromised. We recommend changing your password immediately.</p>
%s`, name, loginTime, device, browser, location, ip, action)

	return Message{
		To:       to,
		Subject:  "New sign-in to your account",
		HTMLBody: htmlShell("New sign-in detected", body),
		TextBody: fmt.Sprintf("Hi %s,\n\nWe noticed a new sign-in to your account:\n\nTime: %s\nDevice: %s\nBrowser: %s\nLocation: %s\nIP Address: %s\n\nIf this was you, you can safely ignore this email.\n\nIf this wasn't you, your account may be compromised. Please change your password immediately.",
			name, loginTime, device, browser, location, ip),
		Type: TypeSecurityAlert,
	}
}
