package db

import (
	"context"
	"time"

	"github.com/dailyyoga/coinframe/logger"
	"github.com/dailyyoga/coinframe/payload"
	"github.com/dailyyoga/coinframe/refresh"
	"github.com/dailyyoga/coinframe/routine"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxRecent caps the rows returned by Recent
const MaxRecent = 100

// Snapshot is the archived summary of one published payload
type Snapshot struct {
	ID           uint64              `gorm:"primaryKey;autoIncrement" json:"id"`
	CacheKey     string              `gorm:"size:191;not null;index:idx_snapshots_key_generated,priority:1" json:"cache_key"`
	Mode         string              `gorm:"size:16;not null" json:"mode"`
	CoinID       string              `gorm:"size:128;not null;index" json:"coin_id"`
	Symbol       string              `gorm:"size:64" json:"symbol"`
	Name         string              `gorm:"size:255" json:"name"`
	PriceUSD     decimal.NullDecimal `gorm:"type:decimal(38,18)" json:"price_usd"`
	MarketCapUSD decimal.NullDecimal `gorm:"type:decimal(38,2)" json:"market_cap_usd"`
	Days         int                 `json:"days"`
	ChartPoints  int                 `json:"chart_points"`
	ImageBytes   int                 `json:"image_bytes"`
	GeneratedAt  time.Time           `gorm:"not null;index:idx_snapshots_key_generated,priority:2" json:"generated_at"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewSnapshot summarizes a published payload
func NewSnapshot(key string, sel payload.Selector, p *payload.Payload) *Snapshot {
	return &Snapshot{
		CacheKey:     key,
		Mode:         string(sel.Mode),
		CoinID:       p.Subject.ID,
		Symbol:       p.Subject.Symbol,
		Name:         p.Subject.Name,
		PriceUSD:     p.Detail.PriceUSD,
		MarketCapUSD: p.Detail.MarketCapUSD,
		Days:         p.Chart.Days,
		ChartPoints:  len(p.Chart.Prices),
		ImageBytes:   len(p.Image),
		GeneratedAt:  p.GeneratedAt,
	}
}

// Archive stores a snapshot for every refreshed payload. Writes happen off
// the caller's goroutine.
type Archive struct {
	logger       logger.Logger
	db           *gorm.DB
	runner       routine.Runner
	writeTimeout time.Duration
}

// NewArchive creates an archive on database
func NewArchive(log logger.Logger, database Database, runner routine.Runner) (*Archive, error) {
	gdb, err := database.DB()
	if err != nil {
		return nil, err
	}
	return &Archive{
		logger:       log,
		db:           gdb,
		runner:       runner,
		writeTimeout: 5 * time.Second,
	}, nil
}

// Migrate creates or updates the snapshots table
func (a *Archive) Migrate(ctx context.Context) error {
	if err := a.db.WithContext(ctx).AutoMigrate(&Snapshot{}); err != nil {
		return ErrMigrate(err)
	}
	return nil
}

// Save inserts one snapshot
func (a *Archive) Save(ctx context.Context, s *Snapshot) error {
	if err := a.db.WithContext(ctx).Create(s).Error; err != nil {
		return ErrQuery("save snapshot", err)
	}
	return nil
}

// Recent returns the newest snapshots, newest first. limit is clamped to
// 1..MaxRecent.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Snapshot, error) {
	limit = max(1, min(limit, MaxRecent))
	var out []Snapshot
	err := a.db.WithContext(ctx).
		Order("generated_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, ErrQuery("list snapshots", err)
	}
	return out, nil
}

// Observe implements refresh.Observer
func (a *Archive) Observe(_ context.Context, ev refresh.Event) {
	if ev.Outcome != refresh.OutcomeRefreshed || ev.Payload == nil {
		return
	}
	snap := NewSnapshot(ev.Key, ev.Selector, ev.Payload)
	a.runner.GoNamed("archive-snapshot", func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.writeTimeout)
		defer cancel()
		if err := a.Save(ctx, snap); err != nil {
			a.logger.Error("failed to archive snapshot",
				zap.String("key", snap.CacheKey),
				zap.String("coin_id", snap.CoinID),
				zap.Error(err),
			)
		}
	})
}

// Wait blocks until pending snapshot writes finish
func (a *Archive) Wait() {
	a.runner.Wait()
}
