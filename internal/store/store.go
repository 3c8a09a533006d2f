// Package store is the local catalog of collection runs and collected
// restaurants. It tracks which restaurants still need uploading.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// RunStatus is the lifecycle state of a collection run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunKind names the command that started a run.
type RunKind string

const (
	RunKindDiscover RunKind = "discover"
	RunKindCollect  RunKind = "collect"
	RunKindOne      RunKind = "collect_one"
	RunKindUpload   RunKind = "upload"
)

// RunParams describes what a run scans. Lat/Lon/RadiusM are zero for runs
// that do not cover an area.
type RunParams struct {
	Kind    RunKind
	Lat     float64
	Lon     float64
	RadiusM float64
	Params  any
}

// Run is one recorded collection run.
type Run struct {
	ID        string          `json:"id"`
	Kind      RunKind         `json:"kind"`
	Status    RunStatus       `json:"status"`
	Lat       float64         `json:"lat"`
	Lon       float64         `json:"lon"`
	RadiusM   float64         `json:"radius_m"`
	Params    json.RawMessage `json:"params,omitempty"`
	Stats     json.RawMessage `json:"stats,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store persists runs and restaurants.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params RunParams) (*Run, error)
	CompleteRun(ctx context.Context, runID string, stats any) error
	FailRun(ctx context.Context, runID string, runErr error) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Restaurants
	UpsertRestaurants(ctx context.Context, restaurants []model.Restaurant) error
	MarkUploaded(ctx context.Context, id string) error
	RecordUploadFailure(ctx context.Context, id string, uploadErr error) error
	KnownIDs(ctx context.Context) ([]string, error)
	PendingUploads(ctx context.Context, limit int) ([]model.Restaurant, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Config selects the catalog backend.
type Config struct {
	// Driver is "sqlite" or "postgres".
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DefaultSQLitePath is used when the sqlite driver has no database URL.
const DefaultSQLitePath = "strategist.db"

// Open opens and migrates the configured catalog.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = DefaultSQLitePath
		}
		st, err = NewSQLite(dsn)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// encodeCenter stores a run center as little-endian EWKB.
func encodeCenter(lat, lon float64) ([]byte, error) {
	pt := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(4326)
	b, err := ewkb.Marshal(pt, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode center")
	}
	return b, nil
}

func decodeCenter(b []byte) (lat, lon float64, err error) {
	if len(b) == 0 {
		return 0, 0, nil
	}
	g, err := ewkb.Unmarshal(b)
	if err != nil {
		return 0, 0, eris.Wrap(err, "store: decode center")
	}
	pt, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, eris.Errorf("store: center is %T, not a point", g)
	}
	return pt.Y(), pt.X(), nil
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal")
	}
	return b, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
