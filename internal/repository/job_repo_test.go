package repository

import (
	"encoding/json"
	"testing"
)

func TestJobConfig_EmptyBecomesObject(t *testing.T) {
	if got := string(jobConfig(nil)); got != "{}" {
		t.Errorf("expected nil config to normalize to {}, got %q", got)
	}
	if got := string(jobConfig(json.RawMessage(""))); got != "{}" {
		t.Errorf("expected empty config to normalize to {}, got %q", got)
	}
}

func TestJobConfig_PassesThroughPayload(t *testing.T) {
	raw := json.RawMessage(`{"decks":[{"name":"Kanji"}]}`)

	if got := string(jobConfig(raw)); got != string(raw) {
		t.Errorf("expected payload passed through unchanged, got %q", got)
	}
}
