package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/WeixuanZ/MultiWOZ-Evaluation/corpus"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/dst"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/success"
	"github.com/WeixuanZ/MultiWOZ-Evaluation/textstats"
)

func TestNewStampsRun(t *testing.T) {
	a := New("22")
	b := New("22")
	if a.RunID == "" || a.RunID == b.RunID {
		t.Errorf("run ids %q and %q should be distinct and non-empty", a.RunID, b.RunID)
	}
	if a.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if a.Version != "22" {
		t.Errorf("version = %q, want 22", a.Version)
	}
}

func TestReportOmitsDisabledFamilies(t *testing.T) {
	r := New("22")
	r.BLEU = map[string]float64{"mwz22": 18.5}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded["bleu"]; !ok {
		t.Error("bleu missing from encoded report")
	}
	for _, key := range []string{"success", "richness", "dst"} {
		if _, ok := decoded[key]; ok {
			t.Errorf("%s should be omitted when not computed", key)
		}
	}
}

func TestDSTReportFlattensSlices(t *testing.T) {
	r := DSTReport{
		Metrics: dst.Metrics{JointAccuracy: 80, SlotF1: 90, SlotPrecision: 0.9, SlotRecall: 0.9},
		Only: map[corpus.Domain]dst.Metrics{
			corpus.DomainHotel: {JointAccuracy: 75},
		},
		Except: map[corpus.Domain]dst.Metrics{
			corpus.DomainHotel: {JointAccuracy: 85},
		},
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"joint_accuracy", "slot_f1", "slot_precision", "slot_recall", "only_hotel", "except_hotel"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("key %q missing from encoded DST report", key)
		}
	}

	var slice dst.Metrics
	if err := json.Unmarshal(decoded["only_hotel"], &slice); err != nil {
		t.Fatalf("decoding only_hotel: %v", err)
	}
	if slice.JointAccuracy != 75 {
		t.Errorf("only_hotel joint accuracy = %v, want 75", slice.JointAccuracy)
	}
}

func TestWriteJSON(t *testing.T) {
	r := New("22")
	r.Success = &success.Report{
		Inform:  map[string]float64{"total": 83.2},
		Success: map[string]float64{"total": 70.1},
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Success == nil || decoded.Success.Inform["total"] != 83.2 {
		t.Errorf("round-tripped report = %+v", decoded)
	}
}

func TestWriteXLSX(t *testing.T) {
	r := New("22")
	r.BLEU = map[string]float64{"mwz22": 18.5}
	r.Richness = &textstats.RichnessReport{Entropy: 6.2, NumUnigrams: 300}
	r.DST = &DSTReport{
		Metrics: dst.Metrics{JointAccuracy: 80},
		Only:    map[corpus.Domain]dst.Metrics{corpus.DomainTaxi: {JointAccuracy: 90}},
	}

	path := filepath.Join(t.TempDir(), "report.xlsx")
	if err := r.WriteXLSX(path); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("workbook not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("workbook is empty")
	}
}
