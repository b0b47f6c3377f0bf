package forecast

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agriarche/price-intel/internal/ingest"
)

// ErrTrainingDataInsufficient is the one unrecoverable training failure:
// no usable rows survived cleaning and feature derivation.
var ErrTrainingDataInsufficient = errors.New("forecast: insufficient training data")

// Artifact file names written under the output directory.
const (
	ModelFile        = "model.json"
	LabelEncoderFile = "label_encoder.json"
	TrainingSample   = "training_sample_with_signals.csv"
	ReportFile       = "report.json"
)

// trainingDataBase is the expected pricing workbook name, sans extension.
const trainingDataBase = "Predictive Analysis Commodity pricing"

var trainingDataExts = []string{".xlsx", ".xls", ".csv"}

// Trainer column matching is looser than the dashboard loaders: training
// inputs arrive from several export shapes.
var (
	trainerDateKeywords      = []string{"date", "timestamp"}
	trainerPriceKeywords     = []string{"price", "amount", "cost", "bag", "kg"}
	trainerCommodityKeywords = []string{"commodity", "product", "market", "buyer"}
)

// Report summarizes one training run.
type Report struct {
	RowsProcessed     int     `json:"rows_processed"`
	UniqueCommodities int     `json:"unique_commodities"`
	MAE               float64 `json:"mae"`
	RMSE              float64 `json:"rmse"`
}

// Trainer fits a price forecast model from the pricing workbook and writes
// the model plus its companion artifacts to disk.
type Trainer struct {
	logger *zap.Logger
}

func NewTrainer(logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{logger: logger}
}

// LocateTrainingData finds the pricing data file under dir: the exact base
// name against each supported extension first, then any spreadsheet whose
// name starts with "predictive", case-insensitively.
func LocateTrainingData(dir string) (string, bool) {
	for _, ext := range trainingDataExts {
		path := filepath.Join(dir, trainingDataBase+ext)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		for _, ext := range trainingDataExts {
			if strings.HasPrefix(name, "predictive") && strings.HasSuffix(name, ext) {
				return filepath.Join(dir, e.Name()), true
			}
		}
	}
	return "", false
}

// Train reads the pricing file at dataPath, fits the model, and writes the
// artifacts into outDir. The returned report mirrors report.json.
func (t *Trainer) Train(dataPath, outDir string) (Report, error) {
	table, err := ingest.ReadTable(dataPath)
	if err != nil {
		return Report{}, fmt.Errorf("read training data: %w", err)
	}

	obs, err := t.extractObservations(table)
	if err != nil {
		return Report{}, err
	}

	enc := FitLabelEncoder(commodityNames(obs))
	rows := BuildFeatures(obs, enc)
	if len(rows) == 0 {
		return Report{}, ErrTrainingDataInsufficient
	}

	train, test := splitChronological(rows)

	x := make([][]float64, len(train))
	y := make([]float64, len(train))
	for i, r := range train {
		x[i] = r.Vector()
		y[i] = r.Price
	}
	model := Fit(x, y)

	pred := make([]float64, len(test))
	truth := make([]float64, len(test))
	for i, r := range test {
		pred[i] = model.Predict(r.Vector())
		truth[i] = r.Price
	}

	report := Report{
		RowsProcessed:     len(rows),
		UniqueCommodities: len(enc.Classes),
		MAE:               MAE(pred, truth),
		RMSE:              RMSE(pred, truth),
	}

	if err := t.writeArtifacts(outDir, model, enc, rows, report); err != nil {
		return Report{}, err
	}

	t.logger.Info("forecast.train.completed",
		zap.Int("rows", report.RowsProcessed),
		zap.Int("commodities", report.UniqueCommodities),
		zap.Float64("mae", report.MAE),
		zap.Float64("rmse", report.RMSE))
	return report, nil
}

// splitChronological cuts the feature rows at the 80% mark: the oldest 80%
// trains, the newest 20% scores. Rows keep their order; nothing is shuffled.
// With a single row everything trains and the test slice is empty.
func splitChronological(rows []FeatureRow) (train, test []FeatureRow) {
	cut := len(rows) * 80 / 100
	if cut == 0 {
		cut = len(rows)
	}
	return rows[:cut], rows[cut:]
}

// extractObservations detects the date, price and commodity columns, then
// parses every row, skipping rows with an unusable date or price.
func (t *Trainer) extractObservations(table ingest.Table) ([]Observation, error) {
	dateCol := ingest.Detect(table.Headers, trainerDateKeywords)
	priceCol := ingest.Detect(table.Headers, trainerPriceKeywords)
	commCol := ingest.Detect(table.Headers, trainerCommodityKeywords)
	if !dateCol.Found || !priceCol.Found || !commCol.Found {
		t.logger.Warn("forecast.train.columns_missing",
			zap.Strings("headers", table.Headers))
		return nil, ErrTrainingDataInsufficient
	}

	dateIdx := columnIndex(table.Headers, dateCol.Column)
	priceIdx := columnIndex(table.Headers, priceCol.Column)
	commIdx := columnIndex(table.Headers, commCol.Column)

	var obs []Observation
	for _, row := range table.Rows {
		date, ok := ingest.ParseDate(table.Cell(row, dateIdx))
		if !ok {
			continue
		}
		price, ok := ingest.ParsePrice(table.Cell(row, priceIdx))
		if !ok {
			continue
		}
		name := strings.TrimSpace(table.Cell(row, commIdx))
		if name == "" {
			name = "Unknown"
		}
		obs = append(obs, Observation{Date: date, Commodity: name, Price: price})
	}
	if len(obs) == 0 {
		return nil, ErrTrainingDataInsufficient
	}
	return obs, nil
}

func columnIndex(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}

func commodityNames(obs []Observation) []string {
	names := make([]string, len(obs))
	for i, o := range obs {
		names[i] = o.Commodity
	}
	return names
}

// ──────────────────────────── Artifact output ──────────────────────────

func (t *Trainer) writeArtifacts(outDir string, model *Forest, enc *LabelEncoder, rows []FeatureRow, report Report) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := writeJSON(filepath.Join(outDir, ModelFile), model); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, LabelEncoderFile), enc); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outDir, ReportFile), report); err != nil {
		return err
	}
	return writeTrainingSample(filepath.Join(outDir, TrainingSample), rows)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeTrainingSample(path string, rows []FeatureRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append([]string{"date", "commodity", "price"}, FeatureNames...)
	header = append(header, "signal")
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Date.Format(time.DateOnly),
			r.Commodity,
			formatFloat(r.Price),
		}
		for _, v := range r.Vector() {
			record = append(record, formatFloat(v))
		}
		record = append(record, r.Signal)
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
