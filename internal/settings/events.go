package settings

// Event topics published by the settings module.
const (
	TopicSettingsUpdated = "settings.updated"
	TopicSettingsReset   = "settings.reset"
)
