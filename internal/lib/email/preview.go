package email

// PreviewData contains sample template data for local preview/testing,
// keyed by template name then by template variable.
var PreviewData = map[Template]map[string]string{
	TemplateWelcome: {
		"UserFirstName": "John",
	},
}
