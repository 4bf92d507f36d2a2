package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/omnidrive/holotrack/internal/runner"
)

type ExportData struct {
	Label       string             `json:"label"`
	Period      float64            `json:"period"`
	Duration    float64            `json:"duration"`
	Ticks       int                `json:"ticks"`
	Finished    bool               `json:"finished"`
	Interrupted bool               `json:"interrupted"`
	Times       []float64          `json:"times"`
	Desired     [][]float64        `json:"desired"`
	Actual      [][]float64        `json:"actual"`
	Wheels      [][]float64        `json:"wheels"`
	Metrics     map[string]float64 `json:"metrics"`
}

func buildExport(label string, period, duration float64, result *runner.Result) ExportData {
	data := ExportData{
		Label:       label,
		Period:      period,
		Duration:    duration,
		Ticks:       result.Ticks,
		Finished:    result.Finished,
		Interrupted: result.Interrupted,
		Times:       make([]float64, len(result.Samples)),
		Desired:     make([][]float64, len(result.Samples)),
		Actual:      make([][]float64, len(result.Samples)),
		Wheels:      make([][]float64, len(result.Samples)),
		Metrics:     result.Metrics,
	}

	for i, s := range result.Samples {
		data.Times[i] = s.T
		data.Desired[i] = []float64{s.Desired.X(), s.Desired.Y(), s.Desired.Heading()}
		data.Actual[i] = []float64{s.Actual.X(), s.Actual.Y(), s.Actual.Heading()}
		wheels := make([]float64, 0, 2*len(s.Wheels))
		for _, w := range s.Wheels {
			wheels = append(wheels, w.Speed, w.Angle.Radians())
		}
		data.Wheels[i] = wheels
	}

	return data
}

func ExportJSON(path, label string, period, duration float64, result *runner.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return writeExport(file, label, period, duration, result)
}

func ExportJSONStdout(label string, period, duration float64, result *runner.Result) error {
	return writeExport(os.Stdout, label, period, duration, result)
}

func writeExport(w io.Writer, label string, period, duration float64, result *runner.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildExport(label, period, duration, result))
}
