// Package postgres provides a Postgres-backed persistent store. The
// in-memory store remains the transactional engine; committed state is
// written out as rows in the relational layout and hydrated back on
// startup.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"metacore/internal/infra/persistence/memory"
	"metacore/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/metacore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists state to Postgres while reusing the in-memory engine for
// transactions.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), applies the schema DDL, and hydrates the in-memory store
// from existing rows.
func NewStore(dsn string, engine *domain.InvariantEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range ddlStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("execute ddl: %w", err)
		}
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore(engine)
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

// RunInTransaction applies fn within a transaction, then writes the
// committed state to Postgres.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		return res, domain.StoreError{Op: "snapshot", Err: pErr}
	}
	return res, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	snap := memory.Snapshot{
		SceneTypes:     map[string]domain.SceneType{},
		Classes:        map[string]domain.Class{},
		RelationClasses: map[string]domain.RelationClass{},
		Attributes:     map[string]domain.Attribute{},
		AttributeTypes: map[string]domain.AttributeType{},
		Ports:          map[string]domain.Port{},
		Roles:          map[string]domain.Role{},
		Rules:          map[string]domain.Rule{},
		Procedures:     map[string]domain.Procedure{},
		Users:          map[string]domain.User{},
		UserGroups:     map[string]domain.UserGroup{},
	}

	bases := map[string]domain.Base{}
	rows, err := db.QueryContext(ctx, `SELECT id, name, description, created_at, updated_at FROM nodes`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select nodes: %w", err)
	}
	for rows.Next() {
		var b domain.Base
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.CreatedAt, &b.UpdatedAt); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("scan node: %w", err)
		}
		bases[b.ID] = b
	}
	if err := closeRows(rows); err != nil {
		return memory.Snapshot{}, err
	}

	if err := loadDetails(ctx, db, bases, &snap); err != nil {
		return memory.Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT source_id, target_id, kind, seq, ui_hint, min_card, max_card FROM associations`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select associations: %w", err)
	}
	for rows.Next() {
		var a domain.Association
		var kind string
		if err := rows.Scan(&a.SourceID, &a.TargetID, &kind, &a.Sequence, &a.UIHint, &a.MinCard, &a.MaxCard); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("scan association: %w", err)
		}
		a.Kind = domain.AssociationKind(kind)
		snap.Associations = append(snap.Associations, a)
	}
	if err := closeRows(rows); err != nil {
		return memory.Snapshot{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT group_id, action, node_id, category FROM node_rights`)
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select rights: %w", err)
	}
	for rows.Next() {
		var r domain.Right
		var action, cat string
		if err := rows.Scan(&r.GroupID, &action, &r.NodeID, &cat); err != nil {
			_ = rows.Close()
			return memory.Snapshot{}, fmt.Errorf("scan right: %w", err)
		}
		r.Action = domain.RightAction(action)
		r.Category = domain.Category(cat)
		snap.Rights = append(snap.Rights, r)
	}
	if err := closeRows(rows); err != nil {
		return memory.Snapshot{}, err
	}
	return snap, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate rows: %w", err)
	}
	return rows.Close()
}

func loadDetails(ctx context.Context, db *sql.DB, bases map[string]domain.Base, snap *memory.Snapshot) error {
	scan := func(query string, fn func(rows *sql.Rows) error) error {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("select details: %w", err)
		}
		for rows.Next() {
			if err := fn(rows); err != nil {
				_ = rows.Close()
				return err
			}
		}
		return closeRows(rows)
	}

	if err := scan(`SELECT id, layout FROM scene_types`, func(rows *sql.Rows) error {
		var id string
		var layout []byte
		if err := rows.Scan(&id, &layout); err != nil {
			return err
		}
		st := domain.SceneType{Base: bases[id]}
		if len(layout) > 0 {
			if err := json.Unmarshal(layout, &st.Layout); err != nil {
				return fmt.Errorf("decode layout for %s: %w", id, err)
			}
		}
		snap.SceneTypes[id] = st
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, abstract FROM classes`, func(rows *sql.Rows) error {
		var c domain.Class
		var id string
		if err := rows.Scan(&id, &c.Abstract); err != nil {
			return err
		}
		c.Base = bases[id]
		snap.Classes[id] = c
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, representation FROM relation_classes`, func(rows *sql.Rows) error {
		var r domain.RelationClass
		var id string
		if err := rows.Scan(&id, &r.Representation); err != nil {
			return err
		}
		r.Base = bases[id]
		snap.RelationClasses[id] = r
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, default_value FROM attributes`, func(rows *sql.Rows) error {
		var a domain.Attribute
		var id string
		if err := rows.Scan(&id, &a.DefaultValue); err != nil {
			return err
		}
		a.Base = bases[id]
		snap.Attributes[id] = a
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, kind, enum_values, pattern FROM attribute_types`, func(rows *sql.Rows) error {
		var t domain.AttributeType
		var id, kind string
		var enumValues []byte
		if err := rows.Scan(&id, &kind, &enumValues, &t.Pattern); err != nil {
			return err
		}
		t.Base = bases[id]
		t.Kind = domain.ValueKind(kind)
		if len(enumValues) > 0 {
			if err := json.Unmarshal(enumValues, &t.EnumValues); err != nil {
				return fmt.Errorf("decode enum values for %s: %w", id, err)
			}
		}
		snap.AttributeTypes[id] = t
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, direction FROM ports`, func(rows *sql.Rows) error {
		var p domain.Port
		var id, direction string
		if err := rows.Scan(&id, &direction); err != nil {
			return err
		}
		p.Base = bases[id]
		p.Direction = domain.PortDirection(direction)
		snap.Ports[id] = p
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, direction FROM roles`, func(rows *sql.Rows) error {
		var r domain.Role
		var id, direction string
		if err := rows.Scan(&id, &direction); err != nil {
			return err
		}
		r.Base = bases[id]
		r.Direction = domain.RoleDirection(direction)
		snap.Roles[id] = r
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, expression, severity FROM rules`, func(rows *sql.Rows) error {
		var r domain.Rule
		var id, severity string
		if err := rows.Scan(&id, &r.Expression, &severity); err != nil {
			return err
		}
		r.Base = bases[id]
		r.Severity = domain.Severity(severity)
		snap.Rules[id] = r
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, body, trigger_kind FROM procedures`, func(rows *sql.Rows) error {
		var p domain.Procedure
		var id, trigger string
		if err := rows.Scan(&id, &p.Body, &trigger); err != nil {
			return err
		}
		p.Base = bases[id]
		p.Trigger = domain.TriggerKind(trigger)
		snap.Procedures[id] = p
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id, login FROM users`, func(rows *sql.Rows) error {
		var u domain.User
		var id string
		if err := rows.Scan(&id, &u.Login); err != nil {
			return err
		}
		u.Base = bases[id]
		snap.Users[id] = u
		return nil
	}); err != nil {
		return err
	}

	if err := scan(`SELECT id FROM user_groups`, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		snap.UserGroups[id] = domain.UserGroup{Base: bases[id]}
		return nil
	}); err != nil {
		return err
	}

	return nil
}

// persist rewrites the relational tables from the committed state inside
// one database transaction.
func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"node_rights", "associations", "nodes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insertNode := func(b domain.Base, cat domain.Category) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO nodes(id, category, name, description, created_at, updated_at) VALUES($1,$2,$3,$4,$5,$6)`,
			b.ID, string(cat), b.Name, b.Description, b.CreatedAt, b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert node %s: %w", b.ID, err)
		}
		return nil
	}

	for id, st := range snapshot.SceneTypes {
		if err := insertNode(st.Base, domain.CategorySceneType); err != nil {
			return err
		}
		layout, err := json.Marshal(st.Layout)
		if err != nil {
			return fmt.Errorf("encode layout %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO scene_types(id, layout) VALUES($1,$2)`, id, layout); err != nil {
			return fmt.Errorf("insert scene_type %s: %w", id, err)
		}
	}
	for id, c := range snapshot.Classes {
		if err := insertNode(c.Base, domain.CategoryClass); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO classes(id, abstract) VALUES($1,$2)`, id, c.Abstract); err != nil {
			return fmt.Errorf("insert class %s: %w", id, err)
		}
	}
	for id, r := range snapshot.RelationClasses {
		if err := insertNode(r.Base, domain.CategoryRelationClass); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO relation_classes(id, representation) VALUES($1,$2)`, id, r.Representation); err != nil {
			return fmt.Errorf("insert relation_class %s: %w", id, err)
		}
	}
	for id, a := range snapshot.Attributes {
		if err := insertNode(a.Base, domain.CategoryAttribute); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO attributes(id, default_value) VALUES($1,$2)`, id, a.DefaultValue); err != nil {
			return fmt.Errorf("insert attribute %s: %w", id, err)
		}
	}
	for id, t := range snapshot.AttributeTypes {
		if err := insertNode(t.Base, domain.CategoryAttributeType); err != nil {
			return err
		}
		enumValues, err := json.Marshal(t.EnumValues)
		if err != nil {
			return fmt.Errorf("encode enum values %s: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO attribute_types(id, kind, enum_values, pattern) VALUES($1,$2,$3,$4)`, id, string(t.Kind), enumValues, t.Pattern); err != nil {
			return fmt.Errorf("insert attribute_type %s: %w", id, err)
		}
	}
	for id, p := range snapshot.Ports {
		if err := insertNode(p.Base, domain.CategoryPort); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO ports(id, direction) VALUES($1,$2)`, id, string(p.Direction)); err != nil {
			return fmt.Errorf("insert port %s: %w", id, err)
		}
	}
	for id, r := range snapshot.Roles {
		if err := insertNode(r.Base, domain.CategoryRole); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO roles(id, direction) VALUES($1,$2)`, id, string(r.Direction)); err != nil {
			return fmt.Errorf("insert role %s: %w", id, err)
		}
	}
	for id, r := range snapshot.Rules {
		if err := insertNode(r.Base, domain.CategoryRule); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO rules(id, expression, severity) VALUES($1,$2,$3)`, id, r.Expression, string(r.Severity)); err != nil {
			return fmt.Errorf("insert rule %s: %w", id, err)
		}
	}
	for id, p := range snapshot.Procedures {
		if err := insertNode(p.Base, domain.CategoryProcedure); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO procedures(id, body, trigger_kind) VALUES($1,$2,$3)`, id, p.Body, string(p.Trigger)); err != nil {
			return fmt.Errorf("insert procedure %s: %w", id, err)
		}
	}
	for id, u := range snapshot.Users {
		if err := insertNode(u.Base, domain.CategoryUser); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO users(id, login) VALUES($1,$2)`, id, u.Login); err != nil {
			return fmt.Errorf("insert user %s: %w", id, err)
		}
	}
	for id, g := range snapshot.UserGroups {
		if err := insertNode(g.Base, domain.CategoryUserGroup); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_groups(id) VALUES($1)`, id); err != nil {
			return fmt.Errorf("insert user_group %s: %w", id, err)
		}
	}

	for _, a := range snapshot.Associations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO associations(source_id, target_id, kind, seq, ui_hint, min_card, max_card) VALUES($1,$2,$3,$4,$5,$6,$7)`,
			a.SourceID, a.TargetID, string(a.Kind), a.Sequence, a.UIHint, a.MinCard, a.MaxCard); err != nil {
			return fmt.Errorf("insert association %s->%s: %w", a.SourceID, a.TargetID, err)
		}
	}
	for _, r := range snapshot.Rights {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO node_rights(group_id, action, node_id, category) VALUES($1,$2,$3,$4)`,
			r.GroupID, string(r.Action), r.NodeID, string(r.Category)); err != nil {
			return fmt.Errorf("insert right %s/%s: %w", r.GroupID, r.Action, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a
// restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
