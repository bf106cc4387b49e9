package tracker

// Event topics published by the tracker module.
const (
	TopicIntakeLogged  = "tracker.intake.logged"
	TopicIntakeDeleted = "tracker.intake.deleted"
	TopicDayReset      = "tracker.day.reset"
	TopicLogsRotated   = "tracker.logs.rotated"
)
