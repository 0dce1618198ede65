package importer

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

// DarwinVersion is the only annotation export version understood
const DarwinVersion = "2.0"

// ReadDarwin converts a V7 Darwin video annotation export into detections.
// Each annotation is one tracked object; its index becomes the object id.
// Coordinates are truncated to whole pixels and confidence is 1.
func ReadDarwin(r io.Reader) ([]models.Detection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read darwin export: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, &models.ValidationError{Field: "darwin", Reason: "malformed JSON"}
	}

	root := gjson.ParseBytes(data)
	if v := root.Get("version").String(); v != DarwinVersion {
		return nil, &models.ValidationError{Field: "version", Reason: fmt.Sprintf("unsupported darwin version %q", v)}
	}

	var detections []models.Detection
	var parseErr error
	root.Get("annotations").ForEach(func(idx, annotation gjson.Result) bool {
		label := annotation.Get("name").String()
		id := idx.Int()

		annotation.Get("frames").ForEach(func(key, frame gjson.Result) bool {
			n, err := strconv.ParseInt(key.String(), 10, 64)
			if err != nil {
				parseErr = &models.ValidationError{Field: "frames", Reason: "non-numeric frame index " + key.String()}
				return false
			}

			bbox := frame.Get("bounding_box")
			if !bbox.Exists() {
				return true
			}
			conf := 1.0
			detections = append(detections, models.Detection{
				Frame:    n,
				Label:    label,
				ObjectID: id,
				BBox: models.BBox{
					X: math.Trunc(bbox.Get("x").Float()),
					Y: math.Trunc(bbox.Get("y").Float()),
					W: math.Trunc(bbox.Get("w").Float()),
					H: math.Trunc(bbox.Get("h").Float()),
				},
				Conf: &conf,
			})
			return true
		})
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Frame < detections[j].Frame
	})

	return detections, nil
}
