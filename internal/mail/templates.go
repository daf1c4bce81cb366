package mail

import "fmt"

// PasswordSetupMessage invites a user to choose a password.
func PasswordSetupMessage(to, name, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/set-password?token=%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Set up your account password",
		Body: fmt.Sprintf("Hello %s,\r\n\r\nAn account was created for you. Choose your password here:\r\n%s\r\n\r\nThis link expires in 24 hours.\r\n",
			name, link),
	}
}
