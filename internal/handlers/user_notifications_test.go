package handlers

import (
	"encoding/json"
	"testing"
)

func TestDefaultNotificationPreferences(t *testing.T) {
	prefs := defaultNotificationPreferences()

	if prefs["study_reminders"] != false {
		t.Fatalf("expected study_reminders default false")
	}

	if prefs["streak_alerts"] != true {
		t.Fatalf("expected streak_alerts default true")
	}
}

func TestMergeNotificationPreferences_ValidValues(t *testing.T) {
	raw := json.RawMessage(`{"study_reminders":true,"streak_alerts":false,"study_reminders_last_sent_at":"2025-06-01T00:00:00Z"}`)

	prefs := mergeNotificationPreferences(raw)

	if prefs["study_reminders"] != true {
		t.Fatalf("expected study_reminders true after merge")
	}

	if prefs["streak_alerts"] != false {
		t.Fatalf("expected streak_alerts false after merge")
	}

	if len(prefs) != 2 {
		t.Fatalf("expected exactly 2 notification keys, got %d", len(prefs))
	}
}

func TestMergeNotificationPreferences_InvalidOrMissingValues(t *testing.T) {
	raw := json.RawMessage(`{"study_reminders":"true","streak_alerts":1}`)

	prefs := mergeNotificationPreferences(raw)

	if prefs["study_reminders"] != false {
		t.Fatalf("expected study_reminders to remain default false when value type is invalid")
	}

	if prefs["streak_alerts"] != true {
		t.Fatalf("expected streak_alerts to remain default true when value type is invalid")
	}
}

func TestMergeNotificationPreferences_EmptyRaw(t *testing.T) {
	prefs := mergeNotificationPreferences(nil)

	if len(prefs) != 2 {
		t.Fatalf("expected defaults for empty raw, got %d keys", len(prefs))
	}
}
