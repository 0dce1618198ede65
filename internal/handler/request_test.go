package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

func TestDecodeRouteQuery(t *testing.T) {
	body := `{
		"dataSource": "junction",
		"regions": {"north": [[0,0],[10,0],[10,10],[0,10]], "east": [{"x":20,"y":0},{"x":30,"y":0},{"x":30,"y":10}], "south": [[0,20],[10,20],[10,30]]},
		"classes": ["car", "bus"],
		"startTime": "2023-03-01T08:00:00Z",
		"endTime": 1677659400.5,
		"startRegions": ["north", "none"],
		"intervalSpacing": 60,
		"fps": 25,
		"startFrame": 10,
		"endFrame": 500
	}`

	q, err := DecodeRouteQuery([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, "junction", q.DataSource)
	assert.Equal(t, []string{"north", "east", "south"}, q.Regions.Names(), "declaration order kept")
	assert.Equal(t, []string{"car", "bus"}, q.Classes)
	assert.Equal(t, time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC), q.StartTime)
	require.NotNil(t, q.EndTime)
	assert.Equal(t, time.Date(2023, 3, 1, 8, 30, 0, 500_000_000, time.UTC), *q.EndTime)
	assert.Equal(t, []string{"north", "none"}, q.StartRegions)
	assert.Nil(t, q.EndRegions)
	assert.Equal(t, time.Minute, q.IntervalSpacing)
	assert.Equal(t, 25.0, q.FPS)
	assert.Equal(t, int64(10), *q.StartFrame)
	assert.Equal(t, int64(500), *q.EndFrame)
}

func TestDecodeRouteQuery_RegionArray(t *testing.T) {
	body := `{"dataSource":"s","classes":["car"],"startTime":0,
		"regions":[{"name":"B","points":[[0,0],[1,0],[1,1]]},{"name":"A","points":[[5,5],[6,5],[6,6]]}]}`

	q, err := DecodeRouteQuery([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, q.Regions.Names())
	assert.Equal(t, time.Unix(0, 0).UTC(), q.StartTime)
}

func TestDecodeRouteQuery_Errors(t *testing.T) {
	const regions = `"regions":{"A":[[0,0],[1,0],[1,1]]}`

	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, err error)
	}{
		{"malformed", `{"dataSource":`, isValidation("body")},
		{"not an object", `[1,2]`, isValidation("body")},
		{"no data source", `{` + regions + `,"classes":["car"],"startTime":0}`, isMissing("dataSource")},
		{"no regions", `{"dataSource":"s","classes":["car"],"startTime":0}`, isMissing("regions")},
		{"no classes", `{"dataSource":"s",` + regions + `,"startTime":0}`, isMissing("classes")},
		{"empty classes", `{"dataSource":"s",` + regions + `,"classes":[],"startTime":0}`, isMissing("classes")},
		{"no start time", `{"dataSource":"s",` + regions + `,"classes":["car"]}`, isMissing("startTime")},
		{"bad start time", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":"yesterday"}`, isValidation("startTime")},
		{"end before start", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":10,"endTime":5}`, isValidation("endTime")},
		{"unknown start region", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":0,"startRegions":["Z"]}`, isValidation("startRegions")},
		{"zero spacing", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":0,"intervalSpacing":0}`, isValidation("intervalSpacing")},
		{"too many intervals", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":0,"endTime":86400,"intervalSpacing":0.000001}`, isValidation("intervalSpacing")},
		{"sub-nanosecond spacing", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":0,"intervalSpacing":1e-12}`, isValidation("intervalSpacing")},
		{"huge spacing", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":0,"intervalSpacing":1e300}`, isValidation("intervalSpacing")},
		{"negative frame", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":0,"startFrame":-1}`, isValidation("startFrame")},
		{"frames reversed", `{"dataSource":"s",` + regions + `,"classes":["car"],"startTime":0,"startFrame":9,"endFrame":3}`, isValidation("endFrame")},
		{"two point polygon", `{"dataSource":"s","regions":{"A":[[0,0],[1,1]]},"classes":["car"],"startTime":0}`, isGeometry("A")},
		{"non-numeric point", `{"dataSource":"s","regions":{"A":[[0,0],[1,"x"],[1,1]]},"classes":["car"],"startTime":0}`, isGeometry("A")},
		{"reserved region name", `{"dataSource":"s","regions":{"none":[[0,0],[1,0],[1,1]]},"classes":["car"],"startTime":0}`, isGeometry("none")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRouteQuery([]byte(tt.body))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestDecodeRouteQuery_SpacingWithinIntervalLimit(t *testing.T) {
	body := `{"dataSource":"s","regions":{"A":[[0,0],[1,0],[1,1]]},"classes":["car"],
		"startTime":0,"endTime":86400,"intervalSpacing":10}`

	q, err := DecodeRouteQuery([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, q.IntervalSpacing)
}

func isMissing(field string) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		var e *models.MissingFieldError
		require.ErrorAs(t, err, &e)
		assert.Equal(t, field, e.Field)
	}
}

func isValidation(field string) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		var e *models.ValidationError
		require.ErrorAs(t, err, &e)
		assert.Equal(t, field, e.Field)
	}
}

func isGeometry(region string) func(*testing.T, error) {
	return func(t *testing.T, err error) {
		var e *models.GeometryError
		require.ErrorAs(t, err, &e)
		assert.Equal(t, region, e.Region)
	}
}
