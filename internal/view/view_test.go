package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/evyataryagoni/iptracker/internal/geo"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/tracker"
)

func fullResult() *models.LookupResult {
	return &models.LookupResult{
		IP:  "8.8.8.8",
		ISP: "Google LLC",
		Location: models.Location{
			Region:   "California",
			Timezone: "-07:00",
			Lat:      geo.Float(37.40599),
			Lng:      geo.Float(-122.078514),
		},
	}
}

// TestSearchForm_Submit tests that non-empty input is delegated and cleared
func TestSearchForm_Submit(t *testing.T) {
	for _, input := range []string{"8.8.8.8", "example.com", "  spaced  ", "999.1.1.1"} {
		t.Run(input, func(t *testing.T) {
			form := NewSearchForm(input)
			var delegated []string

			ok := form.Submit(func(q string) { delegated = append(delegated, q) })

			if !ok {
				t.Error("expected submit to succeed")
			}
			if len(delegated) != 1 || delegated[0] != input {
				t.Errorf("expected %q to be delegated once, got %v", input, delegated)
			}
			if form.Value != "" {
				t.Errorf("expected input cleared, got %q", form.Value)
			}
		})
	}
}

// TestSearchForm_SubmitEmpty tests that empty input is ignored
func TestSearchForm_SubmitEmpty(t *testing.T) {
	form := NewSearchForm("")
	called := false

	if form.Submit(func(string) { called = true }) {
		t.Error("expected empty submit to be rejected")
	}
	if called {
		t.Error("expected nothing to be delegated")
	}
}

// TestNewResultsStrip tests the four fields
func TestNewResultsStrip(t *testing.T) {
	strip := NewResultsStrip(tracker.State{Result: fullResult()})

	expected := []Field{
		{ID: 1, Name: "IP ADDRESS", Value: "8.8.8.8"},
		{ID: 2, Name: "LOCATION", Value: "California"},
		{ID: 3, Name: "TIMEZONE", Value: "-07:00"},
		{ID: 4, Name: "ISP", Value: "Google LLC"},
	}

	if len(strip.Fields) != len(expected) {
		t.Fatalf("expected %d fields, got %d", len(expected), len(strip.Fields))
	}
	for i, f := range expected {
		if strip.Fields[i] != f {
			t.Errorf("field %d: expected %+v, got %+v", i, f, strip.Fields[i])
		}
	}
	if strip.Error != "" {
		t.Errorf("expected no error, got %q", strip.Error)
	}
	if !strip.Fields[3].Last() || strip.Fields[0].Last() {
		t.Error("expected only ISP to be the last field")
	}
}

// TestNewResultsStrip_NoResult tests the empty state
func TestNewResultsStrip_NoResult(t *testing.T) {
	strip := NewResultsStrip(tracker.State{})

	for _, f := range strip.Fields {
		if f.Value != "" {
			t.Errorf("expected empty %s, got %q", f.Name, f.Value)
		}
	}
}

// TestNewMapView tests when the map is ready
func TestNewMapView(t *testing.T) {
	tests := []struct {
		name   string
		result *models.LookupResult
		ready  bool
		key    string
	}{
		{"nil result", nil, false, ""},
		{"no coordinates", &models.LookupResult{IP: "8.8.8.8"}, false, ""},
		{"only lat", &models.LookupResult{Location: models.Location{Lat: geo.Float(1)}}, false, ""},
		{"only lng", &models.LookupResult{Location: models.Location{Lng: geo.Float(1)}}, false, ""},
		{"zero coordinates", &models.LookupResult{Location: models.Location{Lat: geo.Float(0), Lng: geo.Float(0)}}, true, "0-0"},
		{"full", fullResult(), true, "37.40599--122.078514"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMapView(tt.result)

			if m.Ready != tt.ready {
				t.Errorf("expected ready=%v, got %v", tt.ready, m.Ready)
			}
			if m.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, m.Key)
			}
			if m.Placeholder != MapPlaceholder {
				t.Errorf("expected placeholder %q, got %q", MapPlaceholder, m.Placeholder)
			}
		})
	}
}

// TestNewMapView_KeyChangesWithCoordinates tests that moving the marker resets the map
func TestNewMapView_KeyChangesWithCoordinates(t *testing.T) {
	a := NewMapView(fullResult())
	b := NewMapView(&models.LookupResult{Location: models.Location{Lat: geo.Float(-27.47482), Lng: geo.Float(153.017)}})

	if a.Key == b.Key {
		t.Errorf("expected different keys, both %q", a.Key)
	}
	if b.Lat != "-27.47482" || b.Lng != "153.017" {
		t.Errorf("expected exact coordinates, got %s,%s", b.Lat, b.Lng)
	}
	if b.Zoom != MapZoom || b.IconSize != MarkerIconSize {
		t.Errorf("unexpected map settings %+v", b)
	}
}

func renderHTML(t *testing.T, state tracker.State, form SearchForm) string {
	t.Helper()

	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("failed to create renderer: %v", err)
	}

	var buf bytes.Buffer
	if err := r.HTML(&buf, NewPage(state, form)); err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	return buf.String()
}

// TestRenderer_HTML_Full tests a page with every field present
func TestRenderer_HTML_Full(t *testing.T) {
	out := renderHTML(t, tracker.State{Result: fullResult()}, NewSearchForm(""))

	for _, want := range []string{
		"IP Address Tracker",
		"IP ADDRESS", "8.8.8.8",
		"LOCATION", "California",
		"TIMEZONE", "-07:00",
		"ISP", "Google LLC",
		`data-key="37.40599--122.078514"`,
		`data-lat="37.40599"`,
		`data-lng="-122.078514"`,
		`data-zoom="13"`,
		`name="ip" value=""`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
	if strings.Contains(out, LoadingText) {
		t.Error("expected no Loading... placeholder")
	}
	if strings.Contains(out, MapPlaceholder) {
		t.Error("expected map instead of placeholder")
	}
	if n := strings.Count(out, `class="demarcate"`); n != 3 {
		t.Errorf("expected 3 separators, got %d", n)
	}
}

// TestRenderer_HTML_MissingField tests that only the missing field shows Loading...
func TestRenderer_HTML_MissingField(t *testing.T) {
	result := fullResult()
	result.ISP = ""

	out := renderHTML(t, tracker.State{Result: result}, NewSearchForm(""))

	if n := strings.Count(out, LoadingText); n != 1 {
		t.Errorf("expected exactly one Loading..., got %d", n)
	}
	if !strings.Contains(out, "California") {
		t.Error("expected the other fields to render")
	}
}

// TestRenderer_HTML_Initial tests the page before any response
func TestRenderer_HTML_Initial(t *testing.T) {
	out := renderHTML(t, tracker.State{}, NewSearchForm(""))

	if n := strings.Count(out, LoadingText); n != 4 {
		t.Errorf("expected four Loading... placeholders, got %d", n)
	}
	if !strings.Contains(out, MapPlaceholder) {
		t.Error("expected map placeholder")
	}
	if strings.Contains(out, `id="map"`) {
		t.Error("expected no map element")
	}
}

// TestRenderer_HTML_Error tests that the error replaces the fields but not the map
func TestRenderer_HTML_Error(t *testing.T) {
	out := renderHTML(t, tracker.State{Result: fullResult(), Error: geo.FailureMessage}, NewSearchForm(""))

	if !strings.Contains(out, geo.FailureMessage) {
		t.Error("expected error message")
	}
	for _, stale := range []string{"IP ADDRESS", "Google LLC", "California", LoadingText} {
		if strings.Contains(out, stale) {
			t.Errorf("expected %q to be hidden while the error shows", stale)
		}
	}
	if !strings.Contains(out, `data-key="37.40599--122.078514"`) {
		t.Error("expected the map to keep the previous coordinates")
	}
}

// TestRenderer_HTML_EscapesInput tests that user input is escaped
func TestRenderer_HTML_EscapesInput(t *testing.T) {
	out := renderHTML(t, tracker.State{}, NewSearchForm(`"><script>alert(1)</script>`))

	if strings.Contains(out, "<script>alert(1)</script>") {
		t.Error("expected input value to be escaped")
	}
}

// TestRenderer_Text tests the terminal output
func TestRenderer_Text(t *testing.T) {
	r := MustNewRenderer()

	tests := []struct {
		name  string
		state tracker.State
		want  string
	}{
		{
			name:  "full",
			state: tracker.State{Result: fullResult()},
			want: "IP ADDRESS  8.8.8.8\n" +
				"LOCATION    California\n" +
				"TIMEZONE    -07:00\n" +
				"ISP         Google LLC\n" +
				"MAP         37.40599, -122.078514\n",
		},
		{
			name:  "empty",
			state: tracker.State{},
			want: "IP ADDRESS  Loading...\n" +
				"LOCATION    Loading...\n" +
				"TIMEZONE    Loading...\n" +
				"ISP         Loading...\n" +
				"Loading Map....\n",
		},
		{
			name:  "error",
			state: tracker.State{Error: geo.FailureMessage},
			want:  geo.FailureMessage + "\nLoading Map....\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Text(&buf, NewPage(tt.state, NewSearchForm(""))); err != nil {
				t.Fatalf("failed to render: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("unexpected output:\n%q\nwant:\n%q", buf.String(), tt.want)
			}
		})
	}
}
