package notify

import "fmt"

// message is a fully rendered outbound email, ready for transport.
type message struct {
	Subject string
	Text    string
	HTML    string
}

func verificationMessage(displayName, verificationURL string) message {
	text := fmt.Sprintf(`Hello %s,

Thank you for registering with the Translation Platform!

Please verify your email address by clicking the link below:

%s

This link will expire in 24 hours.

If you didn't create an account, please ignore this email.

Best regards,
Translation Platform Team
`, displayName, verificationURL)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #f8f9fa; border-radius: 10px; padding: 30px;">
    <h1 style="color: #2563eb; margin-top: 0;">Welcome to Translation Platform!</h1>
    <p>Hello %s,</p>
    <p>Thank you for registering with the Translation Platform. Please verify your email address to activate your account:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">Verify Email Address</a>
    </div>
    <p style="font-size: 14px; color: #666;">This link will expire in 24 hours.</p>
    <p style="font-size: 14px; color: #666;">If the button above doesn't work, copy and paste this link into your browser:</p>
    <p style="font-size: 12px; color: #888; word-break: break-all;">%s</p>
  </div>
  <div style="font-size: 12px; color: #888; text-align: center; margin-top: 20px;">
    <p>If you didn't create an account, please ignore this email.</p>
  </div>
</body>
</html>
`, displayName, verificationURL, verificationURL)

	return message{
		Subject: "Verify your Translation Platform account",
		Text:    text,
		HTML:    html,
	}
}

func welcomeMessage(displayName, loginURL string) message {
	text := fmt.Sprintf(`Hello %s,

Your email has been verified successfully!

You can now log in to your account and start using the Translation Platform.

Login URL: %s

Best regards,
Translation Platform Team
`, displayName, loginURL)

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #f8f9fa; border-radius: 10px; padding: 30px;">
    <h1 style="color: #10b981; margin-top: 0;">Email Verified!</h1>
    <p>Hello %s,</p>
    <p>Your email has been verified successfully! Welcome to the Translation Platform.</p>
    <p>You can now log in to your account and start connecting with translators or clients.</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="%s" style="background-color: #10b981; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; display: inline-block; font-weight: bold;">Log In to Your Account</a>
    </div>
  </div>
</body>
</html>
`, displayName, loginURL)

	return message{
		Subject: "Welcome to Translation Platform!",
		Text:    text,
		HTML:    html,
	}
}
