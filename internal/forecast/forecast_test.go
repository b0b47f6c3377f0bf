package forecast

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestFitLabelEncoder_SortedAndStable(t *testing.T) {
	enc := FitLabelEncoder([]string{"Rice", "Maize", "Rice", "Soybeans", "Maize"})

	assert.Equal(t, []string{"Maize", "Rice", "Soybeans"}, enc.Classes)
	assert.Equal(t, 0, enc.Encode("Maize"))
	assert.Equal(t, 2, enc.Encode("Soybeans"))
	assert.Equal(t, -1, enc.Encode("Honey"))
}

func TestBuildFeatures_LagsAndWindows(t *testing.T) {
	obs := make([]Observation, 10)
	for i := range obs {
		obs[i] = Observation{Date: day(i), Commodity: "Maize", Price: float64(100 + i*10)}
	}
	enc := FitLabelEncoder([]string{"Maize"})

	rows := BuildFeatures(obs, enc)
	require.Len(t, rows, 9) // first observation has no lag_1

	first := rows[0]
	assert.Equal(t, 100.0, first.Lag1)
	assert.Equal(t, 100.0, first.Lag7) // falls back to lag_1 without 7 days
	assert.Equal(t, 100.0, first.MA7)  // short window averages what exists

	last := rows[8]
	assert.Equal(t, 180.0, last.Lag1)
	assert.Equal(t, 120.0, last.Lag7)
	assert.InDelta(t, 150.0, last.MA7, 1e-9) // mean of 120..180
	assert.Equal(t, int(day(9).Weekday()), last.DayOfWeek)
	assert.Equal(t, 1, last.Month)
	assert.Equal(t, 0, last.CommodityLE)
}

func TestBuildFeatures_SignalRule(t *testing.T) {
	// Rising series: every price sits above its trailing mean.
	rising := make([]Observation, 5)
	for i := range rising {
		rising[i] = Observation{Date: day(i), Commodity: "Rice", Price: float64(100 + i*50)}
	}
	enc := FitLabelEncoder([]string{"Rice"})
	for _, r := range BuildFeatures(rising, enc) {
		assert.Equal(t, SignalBuy, r.Signal)
	}

	// Falling series: every price sits below its trailing mean.
	falling := make([]Observation, 5)
	for i := range falling {
		falling[i] = Observation{Date: day(i), Commodity: "Rice", Price: float64(500 - i*50)}
	}
	for _, r := range BuildFeatures(falling, enc) {
		assert.Equal(t, SignalDontBuy, r.Signal)
	}
}

func TestBuildFeatures_PerCommodityIsolation(t *testing.T) {
	obs := []Observation{
		{Date: day(0), Commodity: "Maize", Price: 100},
		{Date: day(1), Commodity: "Rice", Price: 900},
		{Date: day(2), Commodity: "Maize", Price: 110},
	}
	enc := FitLabelEncoder([]string{"Maize", "Rice"})

	rows := BuildFeatures(obs, enc)
	require.Len(t, rows, 1) // Rice has a single point, Maize keeps one row
	assert.Equal(t, "Maize", rows[0].Commodity)
	assert.Equal(t, 100.0, rows[0].Lag1) // Rice's 900 never leaks in
}

func TestForest_DeterministicFit(t *testing.T) {
	x := make([][]float64, 60)
	y := make([]float64, 60)
	for i := range x {
		x[i] = []float64{float64(i), float64(i % 7), float64(i) * 2, float64(i) * 3, float64(i % 5), float64(i % 12), 0}
		y[i] = float64(i) * 10
	}

	a := Fit(x, y)
	b := Fit(x, y)
	probe := []float64{30, 2, 60, 90, 0, 6, 0}
	assert.Equal(t, a.Predict(probe), b.Predict(probe))

	// The model should land in the neighbourhood of the linear target.
	assert.InDelta(t, 300, a.Predict(probe), 120)
}

func TestErrorMetrics(t *testing.T) {
	pred := []float64{100, 200, 300}
	truth := []float64{110, 190, 330}

	assert.InDelta(t, (10.0+10.0+30.0)/3, MAE(pred, truth), 1e-9)
	assert.InDelta(t, 20.8166, RMSE(pred, truth), 1e-3)
}

func writeTrainingCSV(t *testing.T, dir, name string, rows int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"Timestamp", "Price per bag", "Product"}))
	commodities := []string{"Maize", "Rice"}
	for i := 0; i < rows; i++ {
		row := []string{
			day(i).Format("2006-01-02"),
			strconv.Itoa(40000 + i*250),
			commodities[i%2],
		}
		require.NoError(t, w.Write(row))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

func TestTrainer_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	dataPath := writeTrainingCSV(t, dir, "Predictive Analysis Commodity pricing.csv", 120)
	outDir := filepath.Join(dir, "artifacts")

	report, err := NewTrainer(nil).Train(dataPath, outDir)
	require.NoError(t, err)

	assert.Equal(t, 118, report.RowsProcessed) // one lagless row per commodity
	assert.Equal(t, 2, report.UniqueCommodities)
	assert.Greater(t, report.RMSE, 0.0)
	assert.GreaterOrEqual(t, report.RMSE, report.MAE)

	for _, name := range []string{ModelFile, LabelEncoderFile, TrainingSample, ReportFile} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}

	var enc LabelEncoder
	data, err := os.ReadFile(filepath.Join(outDir, LabelEncoderFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &enc))
	assert.Equal(t, []string{"Maize", "Rice"}, enc.Classes)

	sample, err := os.ReadFile(filepath.Join(outDir, TrainingSample))
	require.NoError(t, err)
	r := csv.NewReader(bytes.NewReader(sample))
	records, err := r.ReadAll()
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"date", "commodity", "price", "lag_1", "lag_7", "ma_7", "ma_30", "dayofweek", "month", "commodity_le", "signal"},
		records[0])
	assert.Len(t, records, 119)
}

func TestTrainer_InsufficientData(t *testing.T) {
	dir := t.TempDir()

	// One observation per commodity leaves no rows with lag features.
	dataPath := writeTrainingCSV(t, dir, "lagless.csv", 2)
	_, err := NewTrainer(nil).Train(dataPath, filepath.Join(dir, "out1"))
	assert.ErrorIs(t, err, ErrTrainingDataInsufficient)

	// Headers that match nothing.
	badPath := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(badPath, []byte("a,b,c\n1,2,3\n"), 0o644))
	_, err = NewTrainer(nil).Train(badPath, filepath.Join(dir, "out2"))
	assert.ErrorIs(t, err, ErrTrainingDataInsufficient)
}

func TestTrainer_TinyDatasetStillTrains(t *testing.T) {
	dir := t.TempDir()

	// Four observations yield two feature rows; that is enough to train.
	dataPath := writeTrainingCSV(t, dir, "tiny.csv", 4)
	outDir := filepath.Join(dir, "out")
	report, err := NewTrainer(nil).Train(dataPath, outDir)
	require.NoError(t, err)

	assert.Equal(t, 2, report.RowsProcessed)
	assert.Equal(t, 2, report.UniqueCommodities)
	for _, name := range []string{ModelFile, LabelEncoderFile, TrainingSample, ReportFile} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestSplitChronological(t *testing.T) {
	rows := make([]FeatureRow, 100)
	for i := range rows {
		rows[i] = FeatureRow{Date: day(i), Price: float64(i)}
	}

	train, test := splitChronological(rows)
	require.Len(t, train, 80)
	require.Len(t, test, 20)
	assert.Equal(t, 0.0, train[0].Price)
	assert.Equal(t, 79.0, train[79].Price)
	assert.Equal(t, 80.0, test[0].Price)
	assert.Equal(t, 99.0, test[19].Price)
	for i := 1; i < len(train); i++ {
		assert.True(t, train[i].Date.After(train[i-1].Date))
	}
	for i := 1; i < len(test); i++ {
		assert.True(t, test[i].Date.After(test[i-1].Date))
	}

	// A lone row trains and leaves nothing to score.
	train, test = splitChronological(rows[:1])
	assert.Len(t, train, 1)
	assert.Empty(t, test)

	train, test = splitChronological(rows[:2])
	assert.Len(t, train, 1)
	assert.Len(t, test, 1)
}

func TestLocateTrainingData(t *testing.T) {
	dir := t.TempDir()
	_, ok := LocateTrainingData(dir)
	assert.False(t, ok)

	fuzzy := filepath.Join(dir, "predictive_jan_export.csv")
	require.NoError(t, os.WriteFile(fuzzy, []byte("x"), 0o644))
	path, ok := LocateTrainingData(dir)
	require.True(t, ok)
	assert.Equal(t, fuzzy, path)

	exact := filepath.Join(dir, "Predictive Analysis Commodity pricing.xlsx")
	require.NoError(t, os.WriteFile(exact, []byte("x"), 0o644))
	path, ok = LocateTrainingData(dir)
	require.True(t, ok)
	assert.Equal(t, exact, path) // exact name wins over the prefix scan
}
