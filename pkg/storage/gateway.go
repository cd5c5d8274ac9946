package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dlovans/formwright/pkg/form"
)

// DefaultKey is the key holding the saved-form list.
const DefaultKey = "forms"

// Observer receives the outcome of every gateway operation. err is nil on
// success.
type Observer interface {
	ObserveGatewayOp(op string, err error)
}

// Gateway reads and writes the saved-form list.
//
// The list is a JSON array of records stored under one key. Records are only
// ever appended. Stored data that does not parse is treated as an empty list
// and logged; it never surfaces as an error. Backend failures do, wrapped in
// ErrBackend.
type Gateway struct {
	kv       KV
	key      string
	logger   *zap.Logger
	clock    func() time.Time
	newID    func() string
	observer Observer
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithKey overrides DefaultKey.
func WithKey(key string) GatewayOption {
	return func(g *Gateway) {
		if key != "" {
			g.key = key
		}
	}
}

func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock sets the source of CreatedAt timestamps.
func WithClock(clock func() time.Time) GatewayOption {
	return func(g *Gateway) {
		if clock != nil {
			g.clock = clock
		}
	}
}

// WithIDGenerator sets the source of record IDs (uuid.NewString by default).
func WithIDGenerator(fn func() string) GatewayOption {
	return func(g *Gateway) {
		if fn != nil {
			g.newID = fn
		}
	}
}

func WithObserver(o Observer) GatewayOption {
	return func(g *Gateway) { g.observer = o }
}

// NewGateway wraps kv.
func NewGateway(kv KV, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		kv:     kv,
		key:    DefaultKey,
		logger: zap.NewNop(),
		clock:  time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key returns the key the list is stored under.
func (g *Gateway) Key() string { return g.key }

func (g *Gateway) observe(op string, err error) {
	if g.observer != nil {
		g.observer.ObserveGatewayOp(op, err)
	}
}

// List returns every saved record in insertion order. An absent key, an empty
// value or unparseable data all yield an empty list. Entries that are not
// readable records are skipped.
func (g *Gateway) List(ctx context.Context) ([]form.SavedFormRecord, error) {
	records, err := g.list(ctx)
	g.observe("list", err)
	return records, err
}

func (g *Gateway) list(ctx context.Context) ([]form.SavedFormRecord, error) {
	stored, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	return stored.records, nil
}

// storedList is the decoded form of the value under the gateway's key.
// items holds every array entry verbatim, readable or not, so writes carry
// entries forward that this version cannot decode.
type storedList struct {
	items   []json.RawMessage
	records []form.SavedFormRecord
	corrupt string // the whole value, when it is not a JSON array
}

func (g *Gateway) load(ctx context.Context) (storedList, error) {
	stored := storedList{records: []form.SavedFormRecord{}}
	raw, ok, err := g.kv.Get(ctx, g.key)
	if err != nil {
		return stored, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return stored, nil
	}
	if err := json.Unmarshal([]byte(raw), &stored.items); err != nil {
		g.logger.Warn("ignoring corrupt saved-form data",
			zap.String("key", g.key),
			zap.Int("bytes", len(raw)),
			zap.Error(err),
		)
		stored.corrupt = raw
		return stored, nil
	}
	for i, item := range stored.items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			continue
		}
		var rec form.SavedFormRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			g.logger.Warn("skipping unreadable saved form",
				zap.String("key", g.key),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		stored.records = append(stored.records, rec)
	}
	return stored, nil
}

// Append adds rec to the end of the list. Existing entries are written back
// byte for byte, including ones List skips. A stored value that is not a list
// at all is first copied to "<key>.corrupt.<unix millis>" and a fresh list is
// started.
func (g *Gateway) Append(ctx context.Context, rec form.SavedFormRecord) error {
	err := g.appendRecord(ctx, rec)
	g.observe("append", err)
	return err
}

func (g *Gateway) appendRecord(ctx context.Context, rec form.SavedFormRecord) error {
	stored, err := g.load(ctx)
	if err != nil {
		return err
	}
	if stored.corrupt != "" {
		backup := fmt.Sprintf("%s.corrupt.%d", g.key, g.clock().UnixMilli())
		if err := g.kv.Set(ctx, backup, stored.corrupt); err != nil {
			return err
		}
		g.logger.Warn("moved corrupt saved-form data aside",
			zap.String("key", g.key),
			zap.String("backup", backup),
		)
	}

	if rec.Fields == nil {
		rec.Fields = []form.Field{}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	out, err := json.Marshal(append(stored.items, json.RawMessage(b)))
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, g.key, string(out))
}

// Find returns the record with the given ID.
func (g *Gateway) Find(ctx context.Context, id string) (form.SavedFormRecord, bool, error) {
	records, err := g.list(ctx)
	g.observe("find", err)
	if err != nil {
		return form.SavedFormRecord{}, false, err
	}
	for _, r := range records {
		if r.ID == id {
			return r, true, nil
		}
	}
	return form.SavedFormRecord{}, false, nil
}

// Save snapshots fields under name as a new record with a fresh ID and the
// current time, appends it and returns it.
func (g *Gateway) Save(ctx context.Context, name string, fields []form.Field) (form.SavedFormRecord, error) {
	rec := form.SavedFormRecord{
		ID:        g.newID(),
		FormName:  name,
		Fields:    form.CloneFields(fields),
		CreatedAt: g.clock().UTC().Format(form.TimestampLayout),
	}
	if rec.Fields == nil {
		rec.Fields = []form.Field{}
	}
	if err := g.Append(ctx, rec); err != nil {
		return form.SavedFormRecord{}, err
	}
	g.logger.Info("form saved",
		zap.String("id", rec.ID),
		zap.String("name", rec.FormName),
		zap.Int("fields", len(rec.Fields)),
	)
	return rec, nil
}
