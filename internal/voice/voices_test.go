package voice

import "testing"

func TestDescribe_KnownVoice(t *testing.T) {
	key, desc := Describe("priya_default")
	if key != "priya_default" {
		t.Errorf("Expected key 'priya_default', got '%s'", key)
	}
	if desc == "" {
		t.Error("Expected non-empty description")
	}
}

func TestDescribe_UnknownVoiceFallsBack(t *testing.T) {
	key, desc := Describe("robot_9000")
	if key != DefaultKey {
		t.Errorf("Expected fallback to '%s', got '%s'", DefaultKey, key)
	}
	_, want := Describe(DefaultKey)
	if desc != want {
		t.Error("Expected fallback description to match the default voice")
	}
}

func TestDescribe_EmptyKeyFallsBack(t *testing.T) {
	key, _ := Describe("")
	if key != DefaultKey {
		t.Errorf("Expected fallback to '%s', got '%s'", DefaultKey, key)
	}
}

func TestList(t *testing.T) {
	keys := List()
	if len(keys) != 4 {
		t.Fatalf("Expected 4 voices, got %d", len(keys))
	}
	for _, k := range keys {
		if !Known(k) {
			t.Errorf("Listed voice '%s' not known", k)
		}
	}
	// Stable order
	if keys[0] != "aryan_default" {
		t.Errorf("Expected 'aryan_default' first, got '%s'", keys[0])
	}
}
