package stats

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jxue140/wxarchive/internal/speaker"
)

func TestBuildTypeCountsOrderAndZeroOmission(t *testing.T) {
	got := BuildTypeCounts(map[int]int{1: 51791, 3: 1646, 34: 177, 48: 0, 10000: 92})

	if len(got) != 4 {
		t.Fatalf("got %d entries want 4 (zero counts omitted): %+v", len(got), got)
	}
	wantOrder := []int{1, 3, 34, 10000}
	for i, tag := range wantOrder {
		if got[i].Tag != tag {
			t.Fatalf("entry %d tag=%d want %d", i, got[i].Tag, tag)
		}
	}
	if got[0].Name != "texts" || got[3].Name != "system notifications" {
		t.Fatalf("names=%+v", got)
	}
}

func TestBuildSpeakerCountsOrder(t *testing.T) {
	got := BuildSpeakerCounts(map[string]int{"Carol": 2, "Alice": 9, "Bob": 2})

	if got[0].Name != "Alice" {
		t.Fatalf("most active=%q", got[0].Name)
	}
	// Tie on count breaks on name.
	if got[1].Name != "Bob" || got[2].Name != "Carol" {
		t.Fatalf("tie order=%+v", got)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	g := speaker.NewGraph([]speaker.Activity{{Name: "X", Count: 2}, {Name: "Y", Count: 1}}, time.Minute)
	g.Observe("X", 100)
	g.Observe("Y", 120)

	s := Summary{
		Label:        "2014-05-26",
		Start:        "2014-05-26",
		Stop:         "2014-05-27",
		Total:        4,
		Types:        BuildTypeCounts(map[int]int{1: 3, 10000: 1}),
		Speakers:     BuildSpeakerCounts(map[string]int{"X": 2, "Y": 1}),
		SpeakerTotal: 2,
		Graph:        g.Snapshot("2014-05-26"),
		ExportID:     "run-1",
	}

	path := filepath.Join(t.TempDir(), "json", "2014_month05.json")
	if err := WriteSnapshot(path, s); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if got.Total != s.Total || got.SpeakerTotal != s.SpeakerTotal {
		t.Fatalf("totals=%d,%d", got.Total, got.SpeakerTotal)
	}
	if !reflect.DeepEqual(got.Types, s.Types) {
		t.Fatalf("types=%+v want %+v", got.Types, s.Types)
	}
	if !reflect.DeepEqual(got.Speakers, s.Speakers) {
		t.Fatalf("speakers=%+v want %+v", got.Speakers, s.Speakers)
	}

	// The graph survives the round trip byte-for-byte in serialized form.
	before, _ := json.Marshal(s.Graph)
	after, _ := json.Marshal(got.Graph)
	if string(before) != string(after) {
		t.Fatalf("graph changed: %s vs %s", before, after)
	}
}

func TestTypeNameUnknownTag(t *testing.T) {
	if got := TypeName(62); got != "type 62" {
		t.Fatalf("TypeName(62)=%q", got)
	}
}
