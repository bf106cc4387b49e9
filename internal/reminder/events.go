package reminder

// Event topics published by the reminder module.
const (
	TopicReminderDue       = "reminder.due"
	TopicReminderSnoozed   = "reminder.snoozed"
	TopicReminderDismissed = "reminder.dismissed"
)
