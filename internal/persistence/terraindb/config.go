package terraindb

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

//go:embed schema/terrain_config.schema.json
var configSchemaJSON []byte

const configSchemaURL = "terrain_config.schema.json"

type configValidator struct{ schema *jsonschema.Schema }

func newConfigValidator() (*configValidator, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(configSchemaURL, bytes.NewReader(configSchemaJSON)); err != nil {
		return nil, err
	}
	s, err := c.Compile(configSchemaURL)
	if err != nil {
		return nil, err
	}
	return &configValidator{schema: s}, nil
}

// parse validates the stored JSON against the schema before decoding it.
func (v *configValidator) parse(raw string) (store.Config, error) {
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return store.Config{}, protocol.Wrap(protocol.ErrCorruption, err, "terrain_config is not JSON")
	}
	if err := v.schema.Validate(doc); err != nil {
		return store.Config{}, protocol.Wrap(protocol.ErrCorruption, err, "terrain_config schema")
	}
	var cfg store.Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return store.Config{}, protocol.Wrap(protocol.ErrCorruption, err, "decode terrain_config")
	}
	if err := cfg.Validate(); err != nil {
		return store.Config{}, protocol.Wrap(protocol.ErrCorruption, err, "terrain_config")
	}
	return cfg, nil
}

func saveConfig(ctx context.Context, x execer, cfg store.Config) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "encode config")
	}
	if _, err := x.ExecContext(ctx, `INSERT OR REPLACE INTO terrain_config(key, value) VALUES('config', ?)`, string(b)); err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "save config")
	}
	return nil
}

func (d *DB) SaveConfig(ctx context.Context, cfg store.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return saveConfig(ctx, d.db, cfg)
}

func (d *DB) LoadConfig(ctx context.Context) (store.Config, error) {
	return d.loadConfig(ctx, d.db)
}

func (d *DB) loadConfig(ctx context.Context, q querier) (store.Config, error) {
	var raw string
	err := q.QueryRowContext(ctx, `SELECT value FROM terrain_config WHERE key = 'config'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Config{}, protocol.Errorf(protocol.ErrNotFound, "no terrain saved")
	}
	if err != nil {
		return store.Config{}, protocol.Wrap(protocol.ErrInternal, err, "load config")
	}
	return d.config.parse(raw)
}
