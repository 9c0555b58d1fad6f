package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusAccepted).
		Body([]byte("test")).
		Write(w)

	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusAccepted)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerEntityChanged("budget", "updated", 7).
		TriggerSuccessNotification("Budget updated").
		Refresh().
		Write(w)

	var triggers map[string]map[string]any
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	changed := triggers[EventEntityChanged]
	if changed["entity"] != "budget" || changed["action"] != "updated" || changed["id"] != float64(7) {
		t.Errorf("unexpected %s payload: %v", EventEntityChanged, changed)
	}
	note := triggers["show-notification"]
	if note["type"] != "success" || note["message"] != "Budget updated" || note["duration"] != float64(3000) {
		t.Errorf("unexpected notification payload: %v", note)
	}
	if w.Header().Get("HX-Refresh") != "true" {
		t.Error("HX-Refresh not set")
	}
}

func TestHTMXResponseBuilder_ErrorNotification(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().TriggerErrorNotification("nope").Write(w)
	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"type":"error"`) || !strings.Contains(trigger, `"duration":5000`) {
		t.Errorf("unexpected trigger %s", trigger)
	}
}

func TestHTMXResponseBuilder_JSON(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Status(http.StatusCreated).JSON(map[string]int{"id": 3}).Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if strings.TrimSpace(w.Body.String()) != `{"id":3}` {
		t.Errorf("Body = %q", w.Body.String())
	}

	w = httptest.NewRecorder()
	NewHTMXResponse().JSON(math.Inf(1)).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("unencodable body should yield 500, got %d", w.Code)
	}
}
