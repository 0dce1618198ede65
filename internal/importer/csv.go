package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

// ReadCSV reads detections from a CSV with a header row naming at least
// frame, label, object_id (or det_id) and bbox_x, bbox_y, bbox_w, bbox_h.
// A conf column is optional.
func ReadCSV(r io.Reader) ([]models.Detection, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colMap["object_id"]; !ok {
		if i, ok := colMap["det_id"]; ok {
			colMap["object_id"] = i
		}
	}
	for _, col := range []string{"frame", "label", "object_id", "bbox_x", "bbox_y", "bbox_w", "bbox_h"} {
		if _, ok := colMap[col]; !ok {
			return nil, &models.ValidationError{Field: "csv", Reason: "missing column " + col}
		}
	}
	confCol, hasConf := colMap["conf"]

	var detections []models.Detection
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		d, err := parseRow(row, colMap)
		if err != nil {
			return nil, &models.ValidationError{Field: "csv", Reason: fmt.Sprintf("line %d: %v", line, err)}
		}
		if hasConf && row[confCol] != "" {
			c, err := strconv.ParseFloat(row[confCol], 64)
			if err != nil {
				return nil, &models.ValidationError{Field: "csv", Reason: fmt.Sprintf("line %d: bad conf %q", line, row[confCol])}
			}
			d.Conf = &c
		}
		detections = append(detections, d)
	}

	return detections, nil
}

func parseRow(row []string, colMap map[string]int) (models.Detection, error) {
	var d models.Detection
	var err error

	// ids may be written as floats, e.g. det_id 3.0
	frame, err := strconv.ParseFloat(row[colMap["frame"]], 64)
	if err != nil {
		return d, fmt.Errorf("bad frame %q", row[colMap["frame"]])
	}
	id, err := strconv.ParseFloat(row[colMap["object_id"]], 64)
	if err != nil {
		return d, fmt.Errorf("bad object id %q", row[colMap["object_id"]])
	}
	d.Frame, d.ObjectID = int64(frame), int64(id)
	d.Label = row[colMap["label"]]

	for col, dst := range map[string]*float64{"bbox_x": &d.BBox.X, "bbox_y": &d.BBox.Y, "bbox_w": &d.BBox.W, "bbox_h": &d.BBox.H} {
		if *dst, err = strconv.ParseFloat(row[colMap[col]], 64); err != nil {
			return d, fmt.Errorf("bad %s %q", col, row[colMap[col]])
		}
	}

	return d, nil
}
