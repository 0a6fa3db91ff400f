package jobs

import (
	"context"
	"fmt"
	"mail-route-tracker/internal/domain"
	"mail-route-tracker/internal/platform/logger"
	"mail-route-tracker/internal/ports"
	"mail-route-tracker/internal/services"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"
)

// AreaDigest is the morning summary of one area.
type AreaDigest struct {
	Area              string
	TierCounts        map[string]int
	ComplianceOverdue int
	EstimatedMinutes  int
	Today             domain.WorkloadForecast
}

// Digest logs a per-area summary of the day's work.
type Digest struct {
	Source    ports.StreetSource
	Areas     []string
	Collation language.Tag
	Now       func() time.Time
	// Timeout bounds one run. Zero means one minute.
	Timeout time.Duration
}

// Run builds and logs the digest for every configured area. An area that fails is
// logged and skipped.
func (d *Digest) Run(ctx context.Context) []AreaDigest {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	today := now()
	out := make([]AreaDigest, 0, len(d.Areas))
	for _, area := range d.Areas {
		digest, err := d.area(ctx, area, today)
		if err != nil {
			logger.Error("digest failed", "area", area, "err", err)
			continue
		}
		logger.Info("daily digest",
			"area", area,
			"never", digest.TierCounts[domain.TierNever.String()],
			"critical", digest.TierCounts[domain.TierCritical.String()],
			"urgent", digest.TierCounts[domain.TierUrgent.String()],
			"warning", digest.TierCounts[domain.TierWarning.String()],
			"normal", digest.TierCounts[domain.TierNormal.String()],
			"overdue", digest.ComplianceOverdue,
			"est_min", digest.EstimatedMinutes,
			"difficulty", digest.Today.Difficulty,
		)
		out = append(out, digest)
	}
	return out
}

func (d *Digest) area(ctx context.Context, area string, today time.Time) (AreaDigest, error) {
	wl, err := services.BuildWorklist(ctx, services.WorklistRequest{
		Area:      area,
		Date:      today,
		Collation: d.Collation,
	}, d.Source)
	if err != nil {
		return AreaDigest{}, fmt.Errorf("digest: %w", err)
	}

	days, err := services.ForecastArea(ctx, d.Source, area, 1, today)
	if err != nil {
		return AreaDigest{}, fmt.Errorf("digest: %w", err)
	}

	digest := AreaDigest{
		Area:             area,
		TierCounts:       wl.TierCounts,
		EstimatedMinutes: wl.EstimatedTotal,
	}
	for _, e := range wl.Entries {
		if e.ComplianceOverdue {
			digest.ComplianceOverdue++
		}
	}
	if len(days) > 0 {
		digest.Today = days[0]
	}
	return digest, nil
}

// Schedule registers the digest on a new cron scheduler. The caller starts and
// stops the returned scheduler.
func Schedule(ctx context.Context, spec string, d *Digest) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { d.Run(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule digest %q: %w", spec, err)
	}
	return c, nil
}
