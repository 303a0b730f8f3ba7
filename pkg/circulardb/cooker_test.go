package circulardb_test

import (
	"math"
	"testing"

	"github.com/dsully/circulardb/pkg/circulardb"
)

func Test_Cooked_Read_Differences_Counter_Values(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{
		MaxRecords: 10,
		Type:       circulardb.TypeCounter,
	})

	raw := []circulardb.Record{
		{Time: 0, Value: 0},
		{Time: 60, Value: 60},
		{Time: 120, Value: 180},
		{Time: 180, Value: 240},
	}

	if _, err := hd.WriteRecords(raw); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Cooked: true})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	// units is "absolute" (no rate), so differencing alone applies: no
	// division by dt.
	want := []float64{60, 120, 60}
	if len(got) != len(want) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(want))
	}

	for i, w := range want {
		if got[i].Value != w {
			t.Errorf("got[%d].Value = %v, want %v", i, got[i].Value, w)
		}
	}
}

func Test_Cooked_Read_Scales_Rate_By_Units(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{
		MaxRecords: 10,
		Type:       circulardb.TypeCounter,
		Units:      "per min",
	})

	raw := []circulardb.Record{
		{Time: 0, Value: 0},
		{Time: 60, Value: 1},
	}

	if _, err := hd.WriteRecords(raw); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Cooked: true})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}

	// raw rate is 1/60 per second; "per min" scales by 60.
	if math.Abs(got[0].Value-1) > 1e-9 {
		t.Errorf("got[0].Value = %v, want 1", got[0].Value)
	}
}

func Test_Cooked_Read_Counter_Wrap_Becomes_NaN(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{
		MaxRecords: 10,
		Type:       circulardb.TypeCounter,
		Units:      "requests per sec",
	})

	const t0 = 1190860353

	raw := []circulardb.Record{
		{Time: t0, Value: 1 << 32},
		{Time: t0 + 6, Value: 10},
		{Time: t0 + 7, Value: 12},
	}

	if _, err := hd.WriteRecords(raw); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Cooked: true})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}

	// a descending counter (wrap or reset) yields NaN rather than a huge
	// negative delta.
	if !math.IsNaN(got[0].Value) {
		t.Errorf("got[0].Value = %v, want NaN", got[0].Value)
	}

	// "requests" is a descriptive label, not a multiplier: the factor is
	// just "per sec" => 1, so (12-10)/(t0+7-(t0+6)) * 1 = 2.
	if got[1].Value != 2 {
		t.Errorf("got[1].Value = %v, want 2", got[1].Value)
	}
}

func Test_Cooked_Read_Gates_Values_Outside_Min_Max(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{
		MaxRecords: 10,
		MinValue:   0,
		MaxValue:   10,
	})

	raw := []circulardb.Record{
		{Time: 0, Value: 5},
		{Time: 60, Value: 20},
		{Time: 120, Value: 8},
	}

	if _, err := hd.WriteRecords(raw); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Cooked: true})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	// gating replaces an out-of-range value with NaN rather than dropping
	// the record, so all 3 records are still present.
	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}

	if got[0].Value != 5 || got[2].Value != 8 {
		t.Errorf("got = %+v, want in-range values preserved", got)
	}

	if !math.IsNaN(got[1].Value) {
		t.Errorf("got[1].Value = %v, want NaN (gated out)", got[1].Value)
	}
}

func Test_Cooked_Read_With_Step_Averages_Windows(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 10})

	raw := []circulardb.Record{
		{Time: 0, Value: 1},
		{Time: 60, Value: 2},
		{Time: 120, Value: 3},
		{Time: 180, Value: 4},
	}

	if _, err := hd.WriteRecords(raw); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Cooked: true, Step: 2})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}

	if got[0].Value != 1.5 || got[1].Value != 3.5 {
		t.Errorf("got = %+v, want averages [1.5, 3.5]", got)
	}

	// each window's time is the mean of its records' times, not the last.
	if got[0].Time != 30 || got[1].Time != 150 {
		t.Errorf("got = %+v, want window times [30, 150]", got)
	}
}

func Test_Count_Trim_Applies_After_Cooking(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{
		MaxRecords: 10,
		Type:       circulardb.TypeCounter,
	})

	raw := []circulardb.Record{
		{Time: 0, Value: 0},
		{Time: 60, Value: 10},
		{Time: 120, Value: 30},
		{Time: 180, Value: 60},
	}

	if _, err := hd.WriteRecords(raw); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Cooked: true, Count: -1})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}

	// a negative count keeps the first |count| cooked records: the
	// differenced series is [10, 20, 30], so -1 keeps just the first, 10.
	if got[0].Value != 10 {
		t.Errorf("got[0].Value = %v, want 10", got[0].Value)
	}
}
