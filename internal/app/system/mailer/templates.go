// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// linkEmailData feeds the link-based email templates.
type linkEmailData struct {
	SiteName  string
	Heading   string
	Intro     string
	Action    string
	Link      string
	ExpiresIn string // e.g., "1 hour"
}

func buildPasswordResetEmail(data linkEmailData) Email {
	data.Heading = "Reset your password"
	data.Intro = "We received a request to reset the password for your account."
	data.Action = "Reset Password"
	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buildLinkText(data),
		HTMLBody: buildLinkHTML(data),
	}
}

func buildVerificationEmail(data linkEmailData) Email {
	data.Heading = "Verify your email address"
	data.Intro = "Thanks for signing up. Please confirm this email address to activate your account."
	data.Action = "Verify Email"
	return Email{
		Subject:  fmt.Sprintf("Verify your %s email address", data.SiteName),
		TextBody: buildLinkText(data),
		HTMLBody: buildLinkHTML(data),
	}
}

func buildLinkText(data linkEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(data.Intro + "\n\n")
	buf.WriteString("Open this link to continue:\n")
	buf.WriteString(data.Link + "\n\n")
	buf.WriteString(fmt.Sprintf("The link expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you did not request this, you can safely ignore this email.\n")
	return buf.String()
}

func buildLinkHTML(data linkEmailData) string {
	tmpl := template.Must(template.New("link").Parse(linkHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const linkHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Heading}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <h2 style="margin: 0 0 16px; font-size: 18px; color: #1f2937;">{{.Heading}}</h2>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.Intro}}
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      {{.Action}}
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                The link expires in {{.ExpiresIn}}.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you did not request this, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
