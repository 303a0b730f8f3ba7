package circulardb_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dsully/circulardb/pkg/circulardb"
)

func createTestDB(t *testing.T, opts circulardb.CreateOptions) (*circulardb.Handle, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.cdb")

	hd, err := circulardb.Create(path, opts)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Cleanup(func() { hd.Free() })

	return hd, path
}

func Test_Create_Then_Open_Round_Trips_Header(t *testing.T) {
	t.Parallel()

	_, path := createTestDB(t, circulardb.CreateOptions{
		Name:       "requests",
		Units:      "per sec",
		Type:       circulardb.TypeCounter,
		MaxRecords: 10,
		Interval:   60,
	})

	hd, err := circulardb.Open(path, false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer hd.Free()

	info := hd.Info()

	if info.Name != "requests" {
		t.Errorf("Name: got %q, want %q", info.Name, "requests")
	}

	if info.Type != circulardb.TypeCounter {
		t.Errorf("Type: got %v, want %v", info.Type, circulardb.TypeCounter)
	}

	if info.MaxRecords != 10 {
		t.Errorf("MaxRecords: got %d, want 10", info.MaxRecords)
	}
}

func Test_Create_Fills_Defaults_For_Zero_Valued_Options(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{Name: "gauge-db"})

	info := hd.Info()

	want := circulardb.Info{
		Name:       "gauge-db",
		Units:      "absolute",
		Type:       circulardb.TypeGauge,
		MaxRecords: 105120,
		Interval:   300,
	}

	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("Info() mismatch (-want +got):\n%s", diff)
	}
}

func Test_Open_Rejects_File_With_Bad_Token(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "notacdb.cdb")

	junk := make([]byte, 1024)
	copy(junk, "not a circulardb file")

	if err := os.WriteFile(path, junk, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err := circulardb.Open(path, false)
	if !errors.Is(err, circulardb.ErrBadToken) {
		t.Errorf("Open: got %v, want ErrBadToken", err)
	}
}

func Test_WriteRecords_Then_ReadRecords_Returns_Records_In_Order(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 5})

	recs := []circulardb.Record{
		{Time: 100, Value: 1},
		{Time: 200, Value: 2},
		{Time: 300, Value: 3},
	}

	if _, err := hd.WriteRecords(recs); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	got, rng, err := hd.ReadRecords(circulardb.Request{})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3", len(got))
	}

	for i, r := range recs {
		if got[i] != r {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], r)
		}
	}

	if rng.Count != 3 {
		t.Errorf("rng.Count = %d, want 3", rng.Count)
	}
}

func Test_WriteRecords_Wraps_Ring_When_Full(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 3})

	for i := int64(0); i < 5; i++ {
		if _, err := hd.WriteRecords([]circulardb.Record{{Time: 100 + i*10, Value: float64(i)}}); err != nil {
			t.Fatalf("WriteRecords(%d): %v", i, err)
		}
	}

	got, _, err := hd.ReadRecords(circulardb.Request{})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("len(got) = %d, want 3 (ring capacity)", len(got))
	}

	wantTimes := []int64{120, 130, 140}
	for i, want := range wantTimes {
		if got[i].Time != want {
			t.Errorf("got[%d].Time = %d, want %d", i, got[i].Time, want)
		}
	}
}

func Test_WriteRecords_On_ReadOnly_Handle_Returns_ErrReadOnly(t *testing.T) {
	t.Parallel()

	_, path := createTestDB(t, circulardb.CreateOptions{MaxRecords: 3})

	hd, err := circulardb.Open(path, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer hd.Free()

	_, err = hd.WriteRecords([]circulardb.Record{{Time: 1, Value: 1}})
	if !errors.Is(err, circulardb.ErrReadOnly) {
		t.Errorf("WriteRecords: got %v, want ErrReadOnly", err)
	}
}

func Test_ReadRecords_With_Time_Range_Selects_Subset(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 20})

	for i := int64(0); i < 10; i++ {
		if _, err := hd.WriteRecords([]circulardb.Record{{Time: 100 + i*10, Value: float64(i)}}); err != nil {
			t.Fatalf("WriteRecords: %v", err)
		}
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Start: 130, End: 160})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("len(got) = %d, want 4", len(got))
	}

	if got[0].Time != 130 || got[len(got)-1].Time != 160 {
		t.Errorf("range = [%d, %d], want [130, 160]", got[0].Time, got[len(got)-1].Time)
	}
}

func Test_ReadRecords_Rejects_End_Before_Start(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 5})

	if _, err := hd.WriteRecords([]circulardb.Record{{Time: 100, Value: 1}}); err != nil {
		t.Fatalf("WriteRecords: %v", err)
	}

	_, _, err := hd.ReadRecords(circulardb.Request{Start: 200, End: 100})
	if !errors.Is(err, circulardb.ErrTimeRange) {
		t.Errorf("ReadRecords: got %v, want ErrTimeRange", err)
	}
}

func Test_ReadRecords_With_Negative_Count_Returns_Last_N(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 20})

	for i := int64(0); i < 10; i++ {
		if _, err := hd.WriteRecords([]circulardb.Record{{Time: 100 + i*10, Value: float64(i)}}); err != nil {
			t.Fatalf("WriteRecords: %v", err)
		}
	}

	got, _, err := hd.ReadRecords(circulardb.Request{Count: -3})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	wantTimes := []int64{180, 190, 200}
	if len(got) != len(wantTimes) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(wantTimes))
	}

	for i, want := range wantTimes {
		if got[i].Time != want {
			t.Errorf("got[%d].Time = %d, want %d", i, got[i].Time, want)
		}
	}
}

func Test_DiscardRange_Tombstones_Matching_Records(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 20})

	for i := int64(0); i < 5; i++ {
		if _, err := hd.WriteRecords([]circulardb.Record{{Time: 100 + i*10, Value: float64(i)}}); err != nil {
			t.Fatalf("WriteRecords: %v", err)
		}
	}

	n, err := hd.DiscardRange(110, 130)
	if err != nil {
		t.Fatalf("DiscardRange: %v", err)
	}

	if n != 3 {
		t.Fatalf("discarded = %d, want 3", n)
	}

	got, _, err := hd.ReadRecords(circulardb.Request{})
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}

	// A discarded record keeps its slot and its time, but its value
	// becomes NaN, so the read still returns all 5 records.
	wantTimes := []int64{100, 110, 120, 130, 140}
	if len(got) != len(wantTimes) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(wantTimes))
	}

	for i, want := range wantTimes {
		if got[i].Time != want {
			t.Errorf("got[%d].Time = %d, want %d", i, got[i].Time, want)
		}
	}

	for _, n := range []int{1, 2, 3} {
		if !math.IsNaN(got[n].Value) {
			t.Errorf("got[%d].Value = %v, want NaN", n, got[n].Value)
		}
	}

	if math.IsNaN(got[0].Value) || math.IsNaN(got[4].Value) {
		t.Errorf("got[0] and got[4] should be untouched, got %+v and %+v", got[0], got[4])
	}
}

func Test_UpdateRecords_Overwrites_Value_For_Matching_Timestamp(t *testing.T) {
	t.Parallel()

	hd, _ := createTestDB(t, circulardb.CreateOptions{MaxRecords: 20})

	for i := int64(0); i < 5; i++ {
		if _, err := hd.WriteRecords([]circulardb.Record{{Time: 100 + i*10, Value: float64(i)}}); err != nil {
			t.Fatalf("WriteRecords: %v", err)
		}
	}

	n, err := hd.UpdateRecords(120, 99)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, _, err := hd.ReadRecords(circulardb.Request{Start: 120, End: 120})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 99.0, got[0].Value)
}
