package email

import "context"

// SendWelcomeEmail sends a welcome email to a newly registered user.
func (c *Client) SendWelcomeEmail(ctx context.Context, to, firstName string) error {
	data := map[string]string{
		"UserFirstName": firstName,
	}

	return c.SendEmail(ctx, to, "Welcome to Lodging!", TemplateWelcome, data)
}
