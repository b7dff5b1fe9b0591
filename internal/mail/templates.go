package mail

import "fmt"

// OTPBody renders the verification code email
func OTPBody(fullName, code string, expiryMinutes int) string {
	return fmt.Sprintf(`
		<h2>Verify your email address</h2>
		<p>Hi %s,</p>
		<p>Your verification code is:</p>
		<h1 style="letter-spacing: 4px;">%s</h1>
		<p>The code expires in %d minutes. If you did not create an account, you can ignore this email.</p>
	`, fullName, code, expiryMinutes)
}

// WelcomeBody renders the post-verification welcome email
func WelcomeBody(fullName string) string {
	return fmt.Sprintf(`
		<h2>Welcome aboard, %s!</h2>
		<p>Your email address has been verified and your account is ready to use.</p>
		<p>You can now sign in with your username and password.</p>
	`, fullName)
}

// PasswordResetBody renders the reset token email
func PasswordResetBody(token string, expiryMinutes int) string {
	return fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>The token expires in %d minutes and can be used once.</p>
		<p>If you did not request this change, you can ignore this email.</p>
	`, token, expiryMinutes)
}

// PasswordResetConfirmationBody renders the notice sent after a reset
func PasswordResetConfirmationBody(fullName string) string {
	return fmt.Sprintf(`
		<h3>Your password was changed</h3>
		<p>Hi %s,</p>
		<p>The password for your account was just reset. All active sessions have been signed out.</p>
		<p>If this was not you, please contact support immediately.</p>
	`, fullName)
}
