package handler

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r2"
	"github.com/tidwall/gjson"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/analysis"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/service"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/spatial"
)

// DecodeRouteQuery parses a route analytics request body. Regions may be an
// object of name to points, whose key order is the declaration order, or an
// array of {name, points}. Points are [x, y] pairs or {x, y} objects.
func DecodeRouteQuery(body []byte) (service.RouteQuery, error) {
	var q service.RouteQuery
	if !gjson.ValidBytes(body) {
		return q, &models.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return q, &models.ValidationError{Field: "body", Reason: "expected a JSON object"}
	}

	var err error
	if q.DataSource, err = requiredString(root, "dataSource"); err != nil {
		return q, err
	}
	if q.Regions, err = decodeRegions(root.Get("regions")); err != nil {
		return q, err
	}
	if q.Classes, err = decodeClasses(root.Get("classes")); err != nil {
		return q, err
	}

	start := root.Get("startTime")
	if !start.Exists() || start.Type == gjson.Null {
		return q, &models.MissingFieldError{Field: "startTime"}
	}
	if q.StartTime, err = decodeTime("startTime", start); err != nil {
		return q, err
	}
	if end := root.Get("endTime"); end.Exists() && end.Type != gjson.Null {
		t, err := decodeTime("endTime", end)
		if err != nil {
			return q, err
		}
		if !t.After(q.StartTime) {
			return q, &models.ValidationError{Field: "endTime", Reason: "must be after startTime"}
		}
		q.EndTime = &t
	}

	if q.StartRegions, err = decodeRegionNames(root, "startRegions", q.Regions); err != nil {
		return q, err
	}
	if q.EndRegions, err = decodeRegionNames(root, "endRegions", q.Regions); err != nil {
		return q, err
	}

	if v := root.Get("intervalSpacing"); v.Exists() && v.Type != gjson.Null {
		secs, err := positiveNumber("intervalSpacing", v)
		if err != nil {
			return q, err
		}
		if secs >= float64(math.MaxInt64)/float64(time.Second) {
			return q, &models.ValidationError{Field: "intervalSpacing", Reason: "too large"}
		}
		q.IntervalSpacing = time.Duration(secs * float64(time.Second))
		if q.IntervalSpacing <= 0 {
			return q, &models.ValidationError{Field: "intervalSpacing", Reason: "must be at least one nanosecond"}
		}
		if q.EndTime != nil && analysis.IntervalCount(q.StartTime, *q.EndTime, q.IntervalSpacing) > analysis.MaxIntervals {
			return q, &models.ValidationError{
				Field:  "intervalSpacing",
				Reason: fmt.Sprintf("splits the report into more than %d intervals", analysis.MaxIntervals),
			}
		}
	}
	if v := root.Get("fps"); v.Exists() && v.Type != gjson.Null {
		if q.FPS, err = positiveNumber("fps", v); err != nil {
			return q, err
		}
	}

	if q.StartFrame, err = optionalFrame(root, "startFrame"); err != nil {
		return q, err
	}
	if q.EndFrame, err = optionalFrame(root, "endFrame"); err != nil {
		return q, err
	}
	if q.StartFrame != nil && q.EndFrame != nil && *q.StartFrame > *q.EndFrame {
		return q, &models.ValidationError{Field: "endFrame", Reason: "must not precede startFrame"}
	}

	return q, nil
}

func requiredString(root gjson.Result, field string) (string, error) {
	v := root.Get(field)
	if !v.Exists() || v.Type == gjson.Null || v.String() == "" {
		return "", &models.MissingFieldError{Field: field}
	}
	if v.Type != gjson.String {
		return "", &models.ValidationError{Field: field, Reason: "expected a string"}
	}
	return v.String(), nil
}

func decodeRegions(v gjson.Result) (*spatial.RegionSet, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, &models.MissingFieldError{Field: "regions"}
	}

	var regions []spatial.Region
	var err error
	add := func(name string, points gjson.Result) bool {
		var pts []r2.Point
		if pts, err = decodePoints(name, points); err != nil {
			return false
		}
		var region spatial.Region
		if region, err = spatial.NewRegion(name, pts); err != nil {
			return false
		}
		regions = append(regions, region)
		return true
	}

	switch {
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			return add(key.String(), value)
		})
	case v.IsArray():
		v.ForEach(func(_, value gjson.Result) bool {
			name := value.Get("name")
			if name.Type != gjson.String {
				err = &models.ValidationError{Field: "regions", Reason: "region without a name"}
				return false
			}
			return add(name.String(), value.Get("points"))
		})
	default:
		return nil, &models.ValidationError{Field: "regions", Reason: "expected an object or an array"}
	}
	if err != nil {
		return nil, err
	}
	if len(regions) == 0 {
		return nil, &models.ValidationError{Field: "regions", Reason: "no regions declared"}
	}

	return spatial.NewRegionSet(regions...)
}

func decodePoints(region string, v gjson.Result) ([]r2.Point, error) {
	if !v.IsArray() {
		return nil, &models.GeometryError{Region: region, Detail: "points must be an array"}
	}

	var pts []r2.Point
	var err error
	v.ForEach(func(_, p gjson.Result) bool {
		var x, y gjson.Result
		switch {
		case p.IsArray():
			xy := p.Array()
			if len(xy) != 2 {
				err = &models.GeometryError{Region: region, Detail: "point must have two coordinates"}
				return false
			}
			x, y = xy[0], xy[1]
		case p.IsObject():
			x, y = p.Get("x"), p.Get("y")
		}
		if x.Type != gjson.Number || y.Type != gjson.Number {
			err = &models.GeometryError{Region: region, Detail: "non-numeric coordinate " + p.Raw}
			return false
		}
		pts = append(pts, r2.Point{X: x.Float(), Y: y.Float()})
		return true
	})

	return pts, err
}

func decodeClasses(v gjson.Result) ([]string, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, &models.MissingFieldError{Field: "classes"}
	}
	if !v.IsArray() {
		return nil, &models.ValidationError{Field: "classes", Reason: "expected an array of labels"}
	}

	var classes []string
	var err error
	v.ForEach(func(_, c gjson.Result) bool {
		if c.Type != gjson.String || c.String() == "" {
			err = &models.ValidationError{Field: "classes", Reason: "labels must be non-empty strings"}
			return false
		}
		classes = append(classes, c.String())
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, &models.MissingFieldError{Field: "classes"}
	}

	return classes, nil
}

// decodeTime accepts RFC 3339 strings and epoch seconds
func decodeTime(field string, v gjson.Result) (time.Time, error) {
	switch v.Type {
	case gjson.String:
		t, err := time.Parse(time.RFC3339Nano, v.String())
		if err != nil {
			return time.Time{}, &models.ValidationError{Field: field, Reason: "expected an RFC 3339 timestamp"}
		}
		return t.UTC(), nil
	case gjson.Number:
		sec, frac := math.Modf(v.Float())
		return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC(), nil
	default:
		return time.Time{}, &models.ValidationError{Field: field, Reason: "expected a timestamp or epoch seconds"}
	}
}

func decodeRegionNames(root gjson.Result, field string, regions *spatial.RegionSet) ([]string, error) {
	v := root.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if !v.IsArray() {
		return nil, &models.ValidationError{Field: field, Reason: "expected an array of region names"}
	}

	var names []string
	var err error
	v.ForEach(func(_, n gjson.Result) bool {
		name := n.String()
		if n.Type != gjson.String || (name != models.NoRegion && !regions.Has(name)) {
			err = &models.ValidationError{Field: field, Reason: fmt.Sprintf("unknown region %s", n.Raw)}
			return false
		}
		names = append(names, name)
		return true
	})

	return names, err
}

func positiveNumber(field string, v gjson.Result) (float64, error) {
	if v.Type != gjson.Number || v.Float() <= 0 {
		return 0, &models.ValidationError{Field: field, Reason: "expected a positive number"}
	}
	return v.Float(), nil
}

func optionalFrame(root gjson.Result, field string) (*int64, error) {
	v := root.Get(field)
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	if v.Type != gjson.Number || v.Float() < 0 || v.Float() != math.Trunc(v.Float()) {
		return nil, &models.ValidationError{Field: field, Reason: "expected a non-negative frame index"}
	}
	frame := v.Int()
	return &frame, nil
}
