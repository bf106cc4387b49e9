package ws

import (
	"time"

	"github.com/hydraping/hydraping/pkg/hydration"
)

// MessageType discriminates WebSocket messages.
type MessageType string

const (
	MessageIntakeLogged    MessageType = "intake.logged"
	MessageIntakeDeleted   MessageType = "intake.deleted"
	MessageDayReset        MessageType = "day.reset"
	MessageReminderDue     MessageType = "reminder.due"
	MessageReminderSnoozed MessageType = "reminder.snoozed"
	MessageSettingsUpdated MessageType = "settings.updated"
)

// Message is the envelope for all WebSocket messages. The overlay
// repaints from these without polling the REST API.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      any         `json:"data"`
}

// IntakeLoggedData is the payload for intake.logged messages.
type IntakeLoggedData struct {
	Event hydration.IntakeEvent `json:"event"`
}

// IntakeDeletedData is the payload for intake.deleted messages.
type IntakeDeletedData struct {
	ID string `json:"id"`
}

// DayResetData is the payload for day.reset messages.
type DayResetData struct {
	Removed int64 `json:"removed"`
}

// ReminderDueData is the payload for reminder.due messages.
type ReminderDueData struct {
	At           time.Time `json:"at"`
	ChimeEnabled bool      `json:"chime_enabled"`
}

// ReminderSnoozedData is the payload for reminder.snoozed messages.
type ReminderSnoozedData struct {
	NextAt time.Time `json:"next_at"`
}

// SettingsUpdatedData is the payload for settings.updated messages.
type SettingsUpdatedData struct {
	Settings hydration.Settings `json:"settings"`
}
