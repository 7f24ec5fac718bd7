package automate

import (
	"slices"
	"strings"
	"testing"
)

func sampleRows() []Row {
	return []Row{
		{Device: 1, Channel: 1, CC: 0, Layers: [4]string{"A", "B"}},
		{Device: 2, Channel: 16, CC: 127, Layers: [4]string{"C", "D", "E", "F"}, Repeat: 2},
	}
}

func repeatCall(call string, n int) []string {
	calls := make([]string, n)
	for i := range calls {
		calls[i] = call
	}
	return calls
}

func countPrefix(calls []string, prefix string) int {
	n := 0
	for _, c := range calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// TestRunWritesRows tests a complete run against the simulated mixer
func TestRunWritesRows(t *testing.T) {
	m := newFakeMixer()
	o, reports := testOrchestrator(t, m)

	out := o.Run(sampleRows(), &Flag{})
	if out.Status != Completed {
		t.Fatalf("Expected completed, got %s: %s (%v)", out.Status, out.Reason, out.Err)
	}
	if out.Rows != 2 {
		t.Errorf("Expected 2 rows, got %d", out.Rows)
	}
	if out.Average() <= 0 {
		t.Errorf("Expected a positive average, got %v", out.Average())
	}

	var want []string
	want = append(want, "keydown alt", "press h", "keyup alt", "press left")
	want = append(want, repeatCall("press down", 7)...)
	want = append(want, "press enter", "press f2", "press f3")
	// Controller table, then the first row and the menu probe.
	want = append(want, "move 359,34", "click", "move 149,82", "click", "move 149,102", "click",
		"move 179,108", "move 179,120", "move 244,120", "move 319,120")
	want = append(want, repeatCall("press escape", 4)...)
	// Row 1.
	want = append(want, "move 150,102", "click", "move 199,117", "move 245,120", "move 320,120", "move 405,120", "click",
		"move 345,102", "click", "type A", "press down", "hotkey ctrl+a", "press delete", "type B", "press down", "press enter")
	// Row 2.
	want = append(want, "move 149,82", "click", "move 150,122", "click", "move 199,149", "move 245,332", "move 320,416", "move 405,596", "click",
		"move 345,122", "click", "type C", "press down", "hotkey ctrl+a", "press delete", "type D", "press down",
		"hotkey ctrl+a", "press delete", "type E", "press down", "hotkey ctrl+a", "press delete", "type F",
		"press down", "press down", "press down", "press enter")
	if !slices.Equal(m.calls, want) {
		t.Errorf("Unexpected call sequence:\n got %q\nwant %q", m.calls, want)
	}

	wantRows := []fakeRow{
		{device: 1, channel: 1, cc: 0, layers: [4]string{"A", "B"}},
		{device: 2, channel: 16, cc: 127, layers: [4]string{"C", "D", "E", "F"}},
	}
	if !slices.Equal(m.rows, wantRows) {
		t.Errorf("Expected table %+v, got %+v", wantRows, m.rows)
	}

	msgs := *reports
	wantPhases := []string{
		"▸ locating and preparing VEP",
		"▸ deleting current rows",
		"▸ investigating layout",
		"▸ inputting data for 2 rows",
	}
	if len(msgs) != 9 {
		t.Fatalf("Expected 9 messages, got %q", msgs)
	}
	if !slices.Equal(msgs[:4], wantPhases) {
		t.Errorf("Expected phases %q, got %q", wantPhases, msgs[:4])
	}
	if !strings.HasPrefix(msgs[4], " 1/2 elapsed ") || !strings.HasSuffix(msgs[4], "(1,1,0) → A/B") {
		t.Errorf("Unexpected first progress line %q", msgs[4])
	}
	if !strings.HasPrefix(msgs[5], " 2/2 elapsed ") || !strings.HasSuffix(msgs[5], "remaining 0:00:00 (2,16,127) → C/D/E/F (R2)") {
		t.Errorf("Unexpected second progress line %q", msgs[5])
	}
	if !strings.HasPrefix(msgs[6], "Total time = ") || !strings.HasPrefix(msgs[7], "Average time per row ≈ ") || msgs[8] != "All done." {
		t.Errorf("Unexpected summary %q", msgs[6:])
	}
}

// TestRunAbortMidRow tests that no input follows an observed abort
func TestRunAbortMidRow(t *testing.T) {
	m := newFakeMixer()
	o, reports := testOrchestrator(t, m)
	flag := &Flag{}
	m.onCall = func(call string) {
		if call == "type A" {
			flag.Set()
		}
	}

	out := o.Run(sampleRows(), flag)
	if out.Status != Aborted {
		t.Fatalf("Expected aborted, got %s: %s", out.Status, out.Reason)
	}
	if out.Reason != AbortMessage || out.Rows != 0 {
		t.Errorf("Unexpected outcome %+v", out)
	}
	if last := m.calls[len(m.calls)-1]; last != "type A" {
		t.Errorf("Expected input to stop after 'type A', last call was %q", last)
	}
	if msgs := *reports; msgs[len(msgs)-1] != AbortMessage {
		t.Errorf("Expected the abort message last, got %q", msgs[len(msgs)-1])
	}
}

// TestRunAbortReleasesHeldKey tests that a held modifier is released on abort
// and nothing else is sent
func TestRunAbortReleasesHeldKey(t *testing.T) {
	m := newFakeMixer()
	o, _ := testOrchestrator(t, m)
	flag := &Flag{}
	m.onCall = func(call string) {
		if call == "keydown alt" {
			flag.Set()
		}
	}

	out := o.Run(sampleRows(), flag)
	if out.Status != Aborted {
		t.Fatalf("Expected aborted, got %s: %s", out.Status, out.Reason)
	}
	want := []string{"keydown alt", "keyup alt"}
	if !slices.Equal(m.calls, want) {
		t.Errorf("Expected %q, got %q", want, m.calls)
	}
}

// TestRunNoRows tests that an empty input touches nothing
func TestRunNoRows(t *testing.T) {
	m := newFakeMixer()
	o, reports := testOrchestrator(t, m)

	out := o.Run(nil, &Flag{})
	if out.Status != Completed || out.Rows != 0 {
		t.Errorf("Unexpected outcome %+v", out)
	}
	if len(m.calls) != 0 {
		t.Errorf("Expected no input, got %q", m.calls)
	}
	if !slices.Equal(*reports, []string{"No rows found in the CSV."}) {
		t.Errorf("Unexpected messages %q", *reports)
	}
}

// TestRunInvalidRow tests that a malformed row fails before any input
func TestRunInvalidRow(t *testing.T) {
	m := newFakeMixer()
	o, _ := testOrchestrator(t, m)

	out := o.Run([]Row{{Device: 1, Channel: 0, Layers: [4]string{"A", "B"}}}, &Flag{})
	if out.Status != Failed {
		t.Fatalf("Expected failure, got %s", out.Status)
	}
	if len(m.calls) != 0 {
		t.Errorf("Expected no input, got %q", m.calls)
	}
}

// TestRunPurgesExistingRows tests that old rows are deleted first
func TestRunPurgesExistingRows(t *testing.T) {
	m := newFakeMixer()
	m.rows = []fakeRow{
		{device: 3, channel: 2, cc: 5, layers: [4]string{"X", "Y"}},
		{device: 1, channel: 9, cc: 64, layers: [4]string{"X", "Z"}},
		{device: 2, channel: 4, cc: 1, layers: [4]string{"Q", "R"}},
	}
	o, _ := testOrchestrator(t, m)

	out := o.Run(sampleRows()[:1], &Flag{})
	if out.Status != Completed {
		t.Fatalf("Expected completed, got %s: %s (%v)", out.Status, out.Reason, out.Err)
	}
	if n := countPrefix(m.calls, "move 250,"); n != 3 {
		t.Errorf("Expected 3 deletions, got %d", n)
	}
	want := []fakeRow{{device: 1, channel: 1, cc: 0, layers: [4]string{"A", "B"}}}
	if !slices.Equal(m.rows, want) {
		t.Errorf("Expected table %+v, got %+v", want, m.rows)
	}
}

// TestRunScrollsTable tests following the newest row once the table scrolls
func TestRunScrollsTable(t *testing.T) {
	m := newFakeMixer()
	m.maxVisible = 1
	o, _ := testOrchestrator(t, m)

	out := o.Run(sampleRows(), &Flag{})
	if out.Status != Completed {
		t.Fatalf("Expected completed, got %s: %s (%v)", out.Status, out.Reason, out.Err)
	}
	if !slices.Contains(m.calls, "move 384,111") || !slices.Contains(m.calls, "drag 384,299") {
		t.Errorf("Expected the thumb to be dragged, got %q", m.calls)
	}
	if m.scrollTop != 1 {
		t.Errorf("Expected the table scrolled to row 2, top is %d", m.scrollTop)
	}
	if len(m.rows) != 2 || m.rows[1].cc != 127 || m.rows[1].layers[3] != "F" {
		t.Errorf("Unexpected table %+v", m.rows)
	}
}

// TestRunHidesGroupSettings tests the extra key when the floating window exists
func TestRunHidesGroupSettings(t *testing.T) {
	m := newFakeMixer()
	m.groupSettings = true
	o, _ := testOrchestrator(t, m)

	o.Run(sampleRows()[:1], &Flag{})
	i := slices.Index(m.calls, "press f3")
	if i < 0 || i+1 >= len(m.calls) || m.calls[i+1] != "press f8" {
		t.Errorf("Expected f8 after f3, got %q", m.calls)
	}
}

// TestRunServerLayout tests that the instance strip of a server window is
// skipped when finding the new-row cell
func TestRunServerLayout(t *testing.T) {
	standalone := newFakeMixer()
	o, _ := testOrchestrator(t, standalone)
	if out := o.Run(sampleRows(), &Flag{}); out.Status != Completed {
		t.Fatalf("Expected standalone run to complete, got %s: %s", out.Status, out.Reason)
	}

	m := newFakeMixer()
	m.title = "Vienna Ensemble Pro Server"
	o, _ = testOrchestrator(t, m)
	out := o.Run(sampleRows(), &Flag{})
	if out.Status != Completed {
		t.Fatalf("Expected completed, got %s: %s (%v)", out.Status, out.Reason, out.Err)
	}

	i := slices.Index(m.calls, "move 149,82")
	if i < 0 || i+1 >= len(m.calls) || m.calls[i+1] != "click" {
		t.Errorf("Expected a click on the new-row cell at 149,82, got %q", m.calls)
	}
	if !slices.Equal(m.calls, standalone.calls) {
		t.Errorf("Expected the same input as a standalone window:\n got %q\nwant %q", m.calls, standalone.calls)
	}
	if !slices.Equal(m.rows, standalone.rows) {
		t.Errorf("Expected table %+v, got %+v", standalone.rows, m.rows)
	}
}

// TestRunWindowErrors tests failures while locating the window
func TestRunWindowErrors(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		blank  bool
		reason string
	}{
		{"missing", "", false, ReasonWindowNotFound},
		{"unknown type", "Vienna Ensemble Pro 7", false, ReasonUnknownWindow},
		{"server without instance", "Vienna Ensemble Pro Server", true, ReasonNoInstance},
	}
	for _, tt := range tests {
		m := newFakeMixer()
		m.title, m.blank = tt.title, tt.blank
		o, reports := testOrchestrator(t, m)

		out := o.Run(sampleRows(), &Flag{})
		if out.Status != Failed || out.Reason != tt.reason {
			t.Errorf("%s: expected failure %q, got %s %q", tt.name, tt.reason, out.Status, out.Reason)
		}
		if len(m.calls) != 0 {
			t.Errorf("%s: expected no input, got %q", tt.name, m.calls)
		}
		if msgs := *reports; msgs[len(msgs)-1] != tt.reason {
			t.Errorf("%s: expected the reason reported, got %q", tt.name, msgs)
		}
	}
}

// TestRunUnknownDevice tests a row naming a device the menu lacks
func TestRunUnknownDevice(t *testing.T) {
	m := newFakeMixer()
	o, _ := testOrchestrator(t, m)

	rows := []Row{{Device: 5, Channel: 1, CC: 0, Layers: [4]string{"A", "B"}}}
	out := o.Run(rows, &Flag{})
	if out.Status != Failed || out.Reason != ReasonConfused {
		t.Errorf("Expected confused failure, got %s %q", out.Status, out.Reason)
	}
}

// TestRunLayoutDrift tests that a changed device menu stops the run
func TestRunLayoutDrift(t *testing.T) {
	m := newFakeMixer()
	m.onCall = func(call string) {
		if call == "press escape" {
			m.widen = 20
		}
	}
	o, _ := testOrchestrator(t, m)

	out := o.Run(sampleRows(), &Flag{})
	if out.Status != Failed || out.Reason != ReasonLayoutChanged {
		t.Errorf("Expected layout failure, got %s %q", out.Status, out.Reason)
	}
	if countPrefix(m.calls, "type ") != 0 {
		t.Errorf("Expected nothing typed, got %q", m.calls)
	}
}
