package email

import (
	"strings"
	"testing"
)

func TestVerificationEmailRendersLinkAndName(t *testing.T) {
	msg := VerificationEmail("john@example.com", VerificationData{
		UserName:        "John",
		VerificationURL: "https://example.com/verify?token=abc",
		ExpiresInHours:  24,
	})
	if msg.To != "john@example.com" {
		t.Fatalf("unexpected recipient: %s", msg.To)
	}
	if !contains(msg.HTMLBody, "John") {
		t.Fatal("expected the html body to greet the user by name")
	}
	if !contains(msg.HTMLBody, "verify?token=abc") {
		t.Fatal("expected the html body to contain the verification link")
	}
	if !contains(msg.HTMLBody, `rel="noreferrer noopener"`) || !contains(msg.HTMLBody, `referrerpolicy="no-referrer"`) {
		t.Fatal("expected the link to carry noreferrer/noopener attributes")
	}
	if msg.Type != TypeVerification {
		t.Fatalf("unexpected type: %s", msg.Type)
	}
}

func TestPasswordResetEmailDefaultsNameWhenEmpty(t *testing.T) {
	msg := PasswordResetEmail("user@example.com", PasswordResetData{
		ResetURL:         "https://example.com/reset?token=xyz",
		ExpiresInMinutes: 60,
	})
	if !contains(msg.HTMLBody, "reset?token=xyz") {
		t.Fatal("expected the html body to contain the reset link")
	}
	if !contains(msg.TextBody, "60 minutes") {
		t.Fatal("expected the text body to mention the expiry window")
	}
	if !contains(msg.HTMLBody, "Hi there,") {
		t.Fatal("expected the default greeting when no user name is given")
	}
}

func TestEscapeHTMLNeutralizesSpecialCharacters(t *testing.T) {
	got := escapeHTML(`<script>& "quote" 'apos'</script>`)
	for _, bad := range []string{"<script>", `"quote"`, "'apos'"} {
		if contains(got, bad) {
			t.Fatalf("expected %q to be escaped out of %q", bad, got)
		}
	}
}

func TestSecurityAlertEmailOmitsActionButtonWithoutURL(t *testing.T) {
	msg := SecurityAlertEmail("jane@example.com", SecurityAlertData{
		UserName:  "Jane",
		LoginTime: "now",
		Device:    "Mac",
		Browser:   "Chrome",
		IPAddress: "192.168.1.100",
		Location:  "San Francisco, CA",
	})
	if !contains(msg.HTMLBody, "Jane") || !contains(msg.HTMLBody, "Mac") || !contains(msg.HTMLBody, "Chrome") {
		t.Fatal("expected the alert to include the supplied device details")
	}
	if contains(msg.HTMLBody, "Secure My Account") {
		t.Fatal("expected no action button without an action url")
	}

	withAction := SecurityAlertEmail("jane@example.com", SecurityAlertData{
		LoginTime: "now", ActionURL: "https://example.com/account/security",
	})
	if !contains(withAction.HTMLBody, "Secure My Account") {
		t.Fatal("expected an action button when an action url is given")
	}
	if !contains(withAction.HTMLBody, "Unknown device") || !contains(withAction.HTMLBody, "Unknown browser") {
		t.Fatal("expected missing fields to fall back to their defaults")
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
