// Package hoststore is a PostGIS-backed Index that answers the same
// two queries as kdindex.KDIndex and linear.Container, but out of a SQL
// table instead of in-memory structures. It is not part of the core,
// since the core has no persistence or network surface, but it
// implements the same façade contract so a caller can swap backends
// freely.
//
// Box queries go through sphere.ConstructSearchBox so a box that wraps
// the antimeridian becomes two ST_MakeEnvelope queries instead of one.
package hoststore

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/lib/pq"

	"github.com/kass/sphere-kdindex/pkg/models"
	"github.com/kass/sphere-kdindex/pkg/sphere"
)

// Index is a PostGIS-backed backend for the Query façade (fronted by
// geosearch.HostStore), storing points in a geo_points table with a
// GIST spatial index.
type Index struct {
	db           *sql.DB
	sphereRadius float64
}

// Open connects to a PostGIS database and configures the connection
// pool the way high-throughput bulk loaders need.
func Open(host, user, password, dbname string, port int, sphereRadius float64) (*Index, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("hoststore: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("hoststore: ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Index{db: db, sphereRadius: sphereRadius}, nil
}

// InitSchema creates the geo_points table and enables the PostGIS
// extension. Points are stored with lon, lat order (SRID 4326) since
// that is what ST_MakePoint expects; the core's (lat, lon) radian
// convention is converted to degrees at the boundary.
func (idx *Index) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`DROP TABLE IF EXISTS geo_points;`,
		`CREATE TABLE geo_points (
			id BIGINT PRIMARY KEY,
			location GEOMETRY(POINT, 4326)
		);`,
	}
	for _, q := range queries {
		if _, err := idx.db.Exec(q); err != nil {
			return fmt.Errorf("hoststore: exec %q: %w", q, err)
		}
	}
	return nil
}

// CreateSpatialIndex adds a GIST index over the geometry column and
// refreshes the planner's statistics for it.
func (idx *Index) CreateSpatialIndex() error {
	if _, err := idx.db.Exec(`CREATE INDEX idx_geo_points_location ON geo_points USING GIST(location);`); err != nil {
		return fmt.Errorf("hoststore: create spatial index: %w", err)
	}
	if _, err := idx.db.Exec(`ANALYZE geo_points;`); err != nil {
		return fmt.Errorf("hoststore: analyze: %w", err)
	}
	return nil
}

// BulkInsertPoints loads points in batched transactions of 10k rows,
// converting each point's radians to the degrees PostGIS expects.
func (idx *Index) BulkInsertPoints(points []models.Point) error {
	const batchSize = 10000

	stmt, err := idx.db.Prepare(`
		INSERT INTO geo_points (id, location)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326))
	`)
	if err != nil {
		return fmt.Errorf("hoststore: prepare insert: %w", err)
	}
	defer stmt.Close()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("hoststore: begin transaction: %w", err)
	}
	txStmt := tx.Stmt(stmt)

	for i, p := range points {
		lonDeg, latDeg := radToDeg(p.Lon), radToDeg(p.Lat)
		if _, err := txStmt.Exec(p.ID, lonDeg, latDeg); err != nil {
			tx.Rollback()
			return fmt.Errorf("hoststore: insert point %d: %w", p.ID, err)
		}
		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("hoststore: commit batch: %w", err)
			}
			tx, err = idx.db.Begin()
			if err != nil {
				return fmt.Errorf("hoststore: begin next batch: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("hoststore: commit final batch: %w", err)
	}
	return nil
}

// SearchByDistance runs an ST_MakeEnvelope query for each box from
// sphere.CoverBoxes and refines by exact haversine distance, matching
// the in-memory backends' contract.
func (idx *Index) SearchByDistance(q models.Point, d float64) []DistanceRow {
	box0, box1 := sphere.CoverBoxes(q, d, idx.sphereRadius)

	var rows []DistanceRow
	for _, b := range []*models.Box{box0, box1} {
		if b == nil {
			continue
		}
		pts, err := idx.queryBox(*b)
		if err != nil {
			continue
		}
		for _, p := range pts {
			dist := sphere.Distance(q, p, idx.sphereRadius)
			if dist <= d {
				rows = append(rows, DistanceRow{ID: p.ID, DistanceKm: float32(dist)})
			}
		}
	}
	return rows
}

// SearchByBox performs an axis-aligned envelope query, splitting at the
// antimeridian the same way kdindex.KDIndex.SearchByBox does.
func (idx *Index) SearchByBox(cornerW, cornerE models.Point) []uint64 {
	box0, box1 := sphere.ConstructSearchBox(cornerW, cornerE)

	var ids []uint64
	for _, b := range []*models.Box{box0, box1} {
		if b == nil {
			continue
		}
		pts, err := idx.queryBox(*b)
		if err != nil {
			continue
		}
		for _, p := range pts {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// DistanceRow mirrors geosearch.DistanceRow without importing it, to
// keep hoststore free of a dependency on the façade package; the
// geosearch.HostStore adapter converts between the two.
type DistanceRow struct {
	ID         uint64
	DistanceKm float32
}

func (idx *Index) queryBox(b models.Box) ([]models.Point, error) {
	rows, err := idx.db.Query(`
		SELECT id, ST_Y(location) AS lat, ST_X(location) AS lon
		FROM geo_points
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
	`, radToDeg(b.LonFrom), radToDeg(b.LatFrom), radToDeg(b.LonTo), radToDeg(b.LatTo))
	if err != nil {
		return nil, fmt.Errorf("hoststore: query box: %w", err)
	}
	defer rows.Close()

	var points []models.Point
	for rows.Next() {
		var id uint64
		var latDeg, lonDeg float64
		if err := rows.Scan(&id, &latDeg, &lonDeg); err != nil {
			return nil, fmt.Errorf("hoststore: scan row: %w", err)
		}
		p := models.Point{ID: id, Lat: degToRad(latDeg), Lon: degToRad(lonDeg)}
		if b.Contains(p) {
			points = append(points, p)
		}
	}
	return points, rows.Err()
}

// Count returns the number of rows in geo_points.
func (idx *Index) Count() (int64, error) {
	var n int64
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM geo_points`).Scan(&n); err != nil {
		return 0, fmt.Errorf("hoststore: count: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (idx *Index) Close() error { return idx.db.Close() }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }
func degToRad(d float64) float64 { return d * math.Pi / 180 }
