package sessionstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunSessionStore persists SessionRecords to Postgres via bun, mirroring
// the teacher's BunStore construction (sql.OpenDB over pgdriver, bun.NewDB
// with pgdialect) and model/table shape.
type BunSessionStore struct {
	db *bun.DB
}

// NewBunSessionStore opens a bun-backed store against dsn. The connection
// is lazy: no query is issued until InitSchema or the first Save/Get/List.
func NewBunSessionStore(dsn string) *BunSessionStore {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunSessionStore{db: db}
}

// InitSchema creates the sessions table if it doesn't already exist.
func (s *BunSessionStore) InitSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*sessionModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Ping checks the underlying connection is reachable.
func (s *BunSessionStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (s *BunSessionStore) Close() error {
	return s.db.Close()
}

type sessionModel struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID            uuid.UUID      `bun:"id,pk"`
	Kind          string         `bun:"kind"`
	Objective     string         `bun:"objective"`
	Status        string         `bun:"status"`
	ErrorMsg      string         `bun:"error_msg"`
	Stage2Plan    map[string]any `bun:"stage2_plan,type:jsonb"`
	Stage3Program map[string]any `bun:"stage3_program,type:jsonb"`
	Stage1Retries int            `bun:"stage1_retries"`
	Stage2Retries int            `bun:"stage2_retries"`
	Stage3Retries int            `bun:"stage3_retries"`
	StartedAt     time.Time      `bun:"started_at"`
	FinishedAt    *time.Time     `bun:"finished_at"`
}

func modelFromRecord(r *SessionRecord) *sessionModel {
	return &sessionModel{
		ID:            r.ID,
		Kind:          r.Kind,
		Objective:     r.Objective,
		Status:        string(r.Status),
		ErrorMsg:      r.ErrorMsg,
		Stage2Plan:    r.Stage2Plan,
		Stage3Program: r.Stage3Program,
		Stage1Retries: r.Stage1Retries,
		Stage2Retries: r.Stage2Retries,
		Stage3Retries: r.Stage3Retries,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
}

func (m *sessionModel) toRecord() *SessionRecord {
	return &SessionRecord{
		ID:            m.ID,
		Kind:          m.Kind,
		Objective:     m.Objective,
		Status:        Status(m.Status),
		ErrorMsg:      m.ErrorMsg,
		Stage2Plan:    m.Stage2Plan,
		Stage3Program: m.Stage3Program,
		Stage1Retries: m.Stage1Retries,
		Stage2Retries: m.Stage2Retries,
		Stage3Retries: m.Stage3Retries,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
	}
}

// Save upserts r by ID.
func (s *BunSessionStore) Save(ctx context.Context, r *SessionRecord) error {
	model := modelFromRecord(r)
	_, err := s.db.NewInsert().Model(model).On("CONFLICT (id) DO UPDATE").Exec(ctx)
	return err
}

// Get retrieves a session by ID.
func (s *BunSessionStore) Get(ctx context.Context, id uuid.UUID) (*SessionRecord, error) {
	model := new(sessionModel)
	if err := s.db.NewSelect().Model(model).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, err
	}
	return model.toRecord(), nil
}

// List returns every session, most recently started first.
func (s *BunSessionStore) List(ctx context.Context) ([]*SessionRecord, error) {
	var models []sessionModel
	if err := s.db.NewSelect().Model(&models).Order("started_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]*SessionRecord, len(models))
	for i := range models {
		out[i] = models[i].toRecord()
	}
	return out, nil
}

var _ Store = (*BunSessionStore)(nil)
