package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecode_StreamTTS(t *testing.T) {
	raw := []byte(`{"type":"stream_tts","text":"ॐ गम् गणपतये नमः","voice":"aryan_meditative","play_steps_in_s":0.25}`)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Kind != KindStreamTTS {
		t.Fatalf("Expected KindStreamTTS, got %q", msg.Kind)
	}
	if msg.StreamTTS == nil {
		t.Fatal("Expected StreamTTS payload")
	}
	if msg.StreamTTS.Text != "ॐ गम् गणपतये नमः" {
		t.Errorf("Unexpected text %q", msg.StreamTTS.Text)
	}
	if msg.StreamTTS.Voice != "aryan_meditative" {
		t.Errorf("Unexpected voice %q", msg.StreamTTS.Voice)
	}
	if msg.StreamTTS.PlayStepsInS != 0.25 {
		t.Errorf("Unexpected step %f", msg.StreamTTS.PlayStepsInS)
	}
}

func TestDecode_TTSRequest(t *testing.T) {
	raw := []byte(`{"type":"tts_request","client_id":"c1","text":"नमस्ते","voice":"priya_default","request_id":"abc12345"}`)

	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Kind != KindTTSRequest {
		t.Fatalf("Expected KindTTSRequest, got %q", msg.Kind)
	}
	if msg.TTSRequest.ClientID != "c1" {
		t.Errorf("Unexpected client id %q", msg.TTSRequest.ClientID)
	}
	if msg.TTSRequest.RequestID != "abc12345" {
		t.Errorf("Unexpected request id %q", msg.TTSRequest.RequestID)
	}
	if msg.TTSRequest.PlayStepsInS != 0 {
		t.Errorf("Expected zero step when absent, got %f", msg.TTSRequest.PlayStepsInS)
	}
}

func TestDecode_BareKinds(t *testing.T) {
	for _, kind := range []Kind{KindHealthCheck, KindGetVoices, KindPing, KindStatus, KindGetConnectedClients} {
		raw := []byte(`{"type":"` + string(kind) + `"}`)
		msg, err := Decode(raw)
		if err != nil {
			t.Errorf("Decode(%s) failed: %v", kind, err)
			continue
		}
		if msg.Kind != kind {
			t.Errorf("Decode(%s): got kind %q", kind, msg.Kind)
		}
	}
}

func TestDecode_UnknownTypeIgnored(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"subscribe","topic":"x"}`))
	if err != nil {
		t.Fatalf("Expected unknown type to decode without error, got %v", err)
	}
	if msg.Kind != KindUnknown {
		t.Errorf("Expected KindUnknown, got %q", msg.Kind)
	}
}

func TestDecode_MalformedJSON(t *testing.T) {
	if _, err := Decode([]byte(`{not json`)); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}

func TestEvents_CarryTypeTag(t *testing.T) {
	tests := []struct {
		event any
		want  string
	}{
		{NewConnected("c1"), "connected"},
		{NewHealthResponse([]string{"aryan_default"}), "health_response"},
		{NewRelayHealthResponse(2, []string{"aryan_default"}), "health_response"},
		{NewVoicesResponse([]string{"a"}, map[string]string{"a": "d"}), "voices_response"},
		{NewStreamStart("r1", "text", "aryan_default", 1.5), "stream_start"},
		{NewStreamComplete("r1", 3), "stream_complete"},
		{NewErrorEvent("r1", "boom"), "error"},
		{NewPong(), "pong"},
		{NewStatusResponse(), "status_response"},
		{NewConnectedClients([]string{"c1"}), "connected_clients"},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.event)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if decoded["type"] != tt.want {
			t.Errorf("Expected type %q, got %v", tt.want, decoded["type"])
		}
		if _, ok := decoded["timestamp"]; !ok {
			t.Errorf("Event %q missing timestamp", tt.want)
		}
	}
}
