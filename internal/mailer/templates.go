package mailer

import "fmt"

func credentialHTML(p CredentialParams, withAttachment bool) string {
	qrLine := fmt.Sprintf("Your entry code is attached to this email as <strong>%s</strong>.", AttachmentFilename)
	if !withAttachment {
		qrLine = "We could not attach your entry code. Please reply to this email to receive it."
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Registration confirmed</title></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #0a6e8a;">Registration confirmed</h2>
  <p>Hi <strong>%s</strong>,</p>
  <p>Your registration for <strong>%s</strong> is confirmed.</p>
  <div style="background-color: #f5f5f5; padding: 16px; border-radius: 6px; margin: 16px 0;">
    <p style="margin: 0 0 8px 0;"><strong>Event date:</strong> %s</p>
    <p style="margin: 0;">%s</p>
  </div>
  <p style="font-size: 14px; color: #666;">Show the code from your phone or bring a printed copy. Each code admits one person, once.</p>
  <p style="font-size: 14px; color: #666;">See you there,<br><strong>The Marea Events team</strong></p>
</body>
</html>`, p.FullName, p.EventTitle, p.EventDate, qrLine)
}

func credentialText(p CredentialParams, withAttachment bool) string {
	qrLine := fmt.Sprintf("Your entry code is attached to this email as %q.", AttachmentFilename)
	if !withAttachment {
		qrLine = "We could not attach your entry code. Please reply to this email to receive it."
	}
	return fmt.Sprintf(`Registration confirmed - %s

Hi %s,

Your registration for %s is confirmed.

Event date: %s

%s

Show the code from your phone or bring a printed copy. Each code admits one
person, once.

See you there,
The Marea Events team
`, p.EventTitle, p.FullName, p.EventTitle, p.EventDate, qrLine)
}
