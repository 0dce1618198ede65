package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/database"
	"github.com/MEng-Team-Project/MEng-Team-Project-ML/internal/models"
)

// detectionColumns are required in every detection table
var detectionColumns = []string{"frame", "label", "bbox_x", "bbox_y", "bbox_w", "bbox_h"}

// objectIDColumns are accepted names for the tracker id, in preference order.
// Darwin conversions write det_id.
var objectIDColumns = []string{"object_id", "det_id"}

// DetectionRepository reads and writes per-stream detection stores kept
// under one analysis directory
type DetectionRepository struct {
	dir string
}

// NewDetectionRepository creates a new detection repository
func NewDetectionRepository(dir string) *DetectionRepository {
	return &DetectionRepository{dir: dir}
}

// Dir returns the analysis directory
func (r *DetectionRepository) Dir() string {
	return r.dir
}

// StorePath returns the store file of a stream, whether or not it exists
func (r *DetectionRepository) StorePath(stream string) (string, error) {
	return r.storePath("stream", stream)
}

func (r *DetectionRepository) storePath(field, stream string) (string, error) {
	id, err := StreamID(field, stream)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.dir, id+StoreExt), nil
}

// Load reads the detection table and metadata of one stream. Frame bounds
// are applied in SQL, the label allow-list after loading.
func (r *DetectionRepository) Load(ctx context.Context, stream string, filter models.DetectionFilter) (*models.DetectionTable, error) {
	path, err := r.storePath("dataSource", stream)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &models.NotFoundError{Stream: stream}
		}
		return nil, fmt.Errorf("failed to stat store %s: %w", path, err)
	}

	db, err := database.OpenReadOnly(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	columns, err := tableColumns(ctx, db, "detection")
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &models.SchemaError{Stream: stream, Detail: "missing detection table"}
	}
	for _, c := range detectionColumns {
		if !columns[c] {
			return nil, &models.SchemaError{Stream: stream, Detail: "detection table has no " + c + " column"}
		}
	}
	idColumn := ""
	for _, c := range objectIDColumns {
		if columns[c] {
			idColumn = c
			break
		}
	}
	if idColumn == "" {
		return nil, &models.SchemaError{Stream: stream, Detail: "detection table has no object_id column"}
	}

	meta, err := loadMetadata(ctx, db, stream)
	if err != nil {
		return nil, err
	}

	detections, err := queryDetections(ctx, db, idColumn, columns["conf"], filter)
	if err != nil {
		return nil, err
	}

	return &models.DetectionTable{
		Stream:     stream,
		Metadata:   *meta,
		Detections: filterLabels(detections, filter.Labels),
	}, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns[strings.ToLower(name)] = true
	}

	return columns, rows.Err()
}

func loadMetadata(ctx context.Context, db *sql.DB, stream string) (*models.StreamMetadata, error) {
	columns, err := tableColumns(ctx, db, "metadata")
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, &models.SchemaError{Stream: stream, Detail: "missing metadata table"}
	}

	meta := &models.StreamMetadata{}
	if !columns["fps"] {
		return meta, nil
	}

	var fps sql.NullFloat64
	err = db.QueryRowContext(ctx, "SELECT fps FROM metadata LIMIT 1").Scan(&fps)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}
	if fps.Valid {
		meta.FPS = fps.Float64
	}

	return meta, nil
}

func queryDetections(ctx context.Context, db *sql.DB, idColumn string, hasConf bool, filter models.DetectionFilter) ([]models.Detection, error) {
	selectCols := []string{"frame", "label", idColumn, "bbox_x", "bbox_y", "bbox_w", "bbox_h"}
	if hasConf {
		selectCols = append(selectCols, "conf")
	}
	query := "SELECT " + strings.Join(selectCols, ", ") + " FROM detection"

	var conditions []string
	var args []interface{}

	if filter.StartFrame != nil {
		conditions = append(conditions, "frame >= ?")
		args = append(args, *filter.StartFrame)
	}
	if filter.EndFrame != nil {
		conditions = append(conditions, "frame <= ?")
		args = append(args, *filter.EndFrame)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY frame, rowid"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []models.Detection
	for rows.Next() {
		var d models.Detection
		var conf sql.NullFloat64
		dest := []interface{}{&d.Frame, &d.Label, &d.ObjectID, &d.BBox.X, &d.BBox.Y, &d.BBox.W, &d.BBox.H}
		if hasConf {
			dest = append(dest, &conf)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		if conf.Valid {
			c := conf.Float64
			d.Conf = &c
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detections: %w", err)
	}

	return detections, nil
}

func filterLabels(detections []models.Detection, labels []string) []models.Detection {
	if len(labels) == 0 {
		return detections
	}

	allowed := make(map[string]bool, len(labels))
	for _, l := range labels {
		allowed[l] = true
	}

	out := detections[:0]
	for _, d := range detections {
		if allowed[d.Label] {
			out = append(out, d)
		}
	}
	return out
}

// Save writes a detection table into a fresh store for its stream,
// replacing any previous store. Returns the store path.
func (r *DetectionRepository) Save(ctx context.Context, table *models.DetectionTable, source string) (string, error) {
	path, err := r.StorePath(table.Stream)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create analysis dir: %w", err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("failed to replace store %s: %w", path, err)
	}

	db, err := database.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return "", err
	}

	err = database.Transaction(ctx, db, func(tx *sql.Tx) error {
		var fps interface{}
		if table.Metadata.FPS > 0 {
			fps = table.Metadata.FPS
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO metadata (fps, source) VALUES (?, ?)", fps, source); err != nil {
			return fmt.Errorf("failed to insert metadata: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO detection
			(frame, label, object_id, bbox_x, bbox_y, bbox_w, bbox_h, conf)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare detection insert: %w", err)
		}
		defer stmt.Close()

		for _, d := range table.Detections {
			_, err := stmt.ExecContext(ctx, d.Frame, d.Label, d.ObjectID, d.BBox.X, d.BBox.Y, d.BBox.W, d.BBox.H, d.Conf)
			if err != nil {
				return fmt.Errorf("failed to insert detection at frame %d: %w", d.Frame, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

// ListStreams returns the ids of all stores in the analysis directory, sorted
func (r *DetectionRepository) ListStreams() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read analysis dir: %w", err)
	}

	streams := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != StoreExt {
			continue
		}
		streams = append(streams, strings.TrimSuffix(e.Name(), StoreExt))
	}
	sort.Strings(streams)

	return streams, nil
}
