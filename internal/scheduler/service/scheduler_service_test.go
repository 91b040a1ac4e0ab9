package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	matchdomain "github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

type fakeProjects struct {
	active []matchdomain.Project
	err    error
}

func (f *fakeProjects) GetActiveProjects(_ context.Context) ([]matchdomain.Project, error) {
	return f.active, f.err
}

func (f *fakeProjects) CountProjects(_ context.Context) (int, error) {
	return len(f.active), nil
}

type fakeVendors struct {
	vendors []matchdomain.Vendor
	err     error
}

func (f *fakeVendors) FindAll(_ context.Context) ([]matchdomain.Vendor, error) {
	return f.vendors, f.err
}

func (f *fakeVendors) CountVendors(_ context.Context) (int, error) {
	return len(f.vendors), nil
}

type fakeRebuilder struct {
	failFor map[int64]bool
	calls   []int64
}

func (f *fakeRebuilder) RebuildMatches(_ context.Context, projectID int64) (*matchdomain.RebuildResult, error) {
	f.calls = append(f.calls, projectID)
	if f.failFor[projectID] {
		return nil, errors.New("rebuild blew up")
	}
	return &matchdomain.RebuildResult{}, nil
}

type fakeRecentFinder struct {
	// matches per vendor; the fake applies the since filter itself so
	// tests exercise the window math end to end.
	matches map[int64][]matchdomain.Match
	err     error
}

func (f *fakeRecentFinder) FindRecentByVendor(_ context.Context, vendorID int64, since time.Time) ([]matchdomain.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []matchdomain.Match
	for _, m := range f.matches[vendorID] {
		if m.CreatedAt.After(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeNotifier struct {
	slaCalls  []matchdomain.Vendor
	failFirst bool
	sends     int
}

func (f *fakeNotifier) SendMatchFound(_ context.Context, _ *matchdomain.Match) error {
	return nil
}

func (f *fakeNotifier) SendSlaViolation(_ context.Context, vendor matchdomain.Vendor) error {
	f.sends++
	if f.failFirst && f.sends == 1 {
		return errors.New("smtp down")
	}
	f.slaCalls = append(f.slaCalls, vendor)
	return nil
}

func newTestScheduler(projects *fakeProjects, vendors *fakeVendors, rebuilder *fakeRebuilder, finder RecentMatchFinder, notifier *fakeNotifier, now time.Time) *SchedulerService {
	svc := NewSchedulerService(projects, vendors, rebuilder, finder, notifier, nil, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func activeProject(id int64) matchdomain.Project {
	return matchdomain.Project{ID: id, Status: matchdomain.StatusActive}
}

func TestRefreshActiveProjectMatches(t *testing.T) {
	now := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)

	t.Run("one failing project does not halt the batch", func(t *testing.T) {
		projects := &fakeProjects{active: []matchdomain.Project{activeProject(1), activeProject(2), activeProject(3)}}
		rebuilder := &fakeRebuilder{failFor: map[int64]bool{2: true}}
		svc := newTestScheduler(projects, &fakeVendors{}, rebuilder, &fakeRecentFinder{}, &fakeNotifier{}, now)

		processed, failed, err := svc.RefreshActiveProjectMatches(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, processed)
		assert.Equal(t, 1, failed)
		assert.Equal(t, []int64{1, 2, 3}, rebuilder.calls, "every project must be attempted")
	})

	t.Run("empty batch reports zero counts", func(t *testing.T) {
		svc := newTestScheduler(&fakeProjects{}, &fakeVendors{}, &fakeRebuilder{}, &fakeRecentFinder{}, &fakeNotifier{}, now)

		processed, failed, err := svc.RefreshActiveProjectMatches(context.Background())
		require.NoError(t, err)
		assert.Zero(t, processed)
		assert.Zero(t, failed)
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		projects := &fakeProjects{err: errors.New("db down")}
		svc := newTestScheduler(projects, &fakeVendors{}, &fakeRebuilder{}, &fakeRecentFinder{}, &fakeNotifier{}, now)

		_, _, err := svc.RefreshActiveProjectMatches(context.Background())
		require.Error(t, err)
	})
}

func TestCheckSlaViolations(t *testing.T) {
	now := time.Date(2025, 6, 8, 3, 0, 0, 0, time.UTC)

	vendor24 := matchdomain.Vendor{ID: 1, Name: "Fast Co", ResponseSlaHours: 24}
	vendor48 := matchdomain.Vendor{ID: 2, Name: "Slow Co", ResponseSlaHours: 48}

	matchAgedHours := func(vendorID int64, hours float64) matchdomain.Match {
		return matchdomain.Match{
			VendorID:  vendorID,
			CreatedAt: now.Add(-time.Duration(hours * float64(time.Hour))),
		}
	}

	t.Run("flags matches older than the vendor sla", func(t *testing.T) {
		vendors := &fakeVendors{vendors: []matchdomain.Vendor{vendor24, vendor48}}
		finder := &fakeRecentFinder{matches: map[int64][]matchdomain.Match{
			1: {matchAgedHours(1, 25)}, // 25h > 24h: violation
			2: {matchAgedHours(2, 47)}, // 47h < 48h: fine
		}}
		notifier := &fakeNotifier{}
		svc := newTestScheduler(&fakeProjects{}, vendors, &fakeRebuilder{}, finder, notifier, now)

		count, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		require.Len(t, notifier.slaCalls, 1)
		assert.Equal(t, "Fast Co", notifier.slaCalls[0].Name)
	})

	t.Run("exactly at the sla boundary is not a violation", func(t *testing.T) {
		vendors := &fakeVendors{vendors: []matchdomain.Vendor{vendor24}}
		finder := &fakeRecentFinder{matches: map[int64][]matchdomain.Match{
			1: {matchAgedHours(1, 24)},
		}}
		svc := newTestScheduler(&fakeProjects{}, vendors, &fakeRebuilder{}, finder, &fakeNotifier{}, now)

		count, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("one hour past the boundary is a violation", func(t *testing.T) {
		vendors := &fakeVendors{vendors: []matchdomain.Vendor{vendor24}}
		finder := &fakeRecentFinder{matches: map[int64][]matchdomain.Match{
			1: {matchAgedHours(1, 25)},
		}}
		svc := newTestScheduler(&fakeProjects{}, vendors, &fakeRebuilder{}, finder, &fakeNotifier{}, now)

		count, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("matches outside the seven day window age out", func(t *testing.T) {
		vendors := &fakeVendors{vendors: []matchdomain.Vendor{vendor24}}
		finder := &fakeRecentFinder{matches: map[int64][]matchdomain.Match{
			1: {matchAgedHours(1, 8*24)}, // 8 days old, outside the window
		}}
		svc := newTestScheduler(&fakeProjects{}, vendors, &fakeRebuilder{}, finder, &fakeNotifier{}, now)

		count, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("notification failure does not stop remaining sends", func(t *testing.T) {
		vendors := &fakeVendors{vendors: []matchdomain.Vendor{vendor24, vendor48}}
		finder := &fakeRecentFinder{matches: map[int64][]matchdomain.Match{
			1: {matchAgedHours(1, 30)},
			2: {matchAgedHours(2, 50)},
		}}
		notifier := &fakeNotifier{failFirst: true}
		svc := newTestScheduler(&fakeProjects{}, vendors, &fakeRebuilder{}, finder, notifier, now)

		count, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count, "both violations are still counted")
		require.Len(t, notifier.slaCalls, 1, "the second notification still went out")
		assert.Equal(t, "Slow Co", notifier.slaCalls[0].Name)
	})

	t.Run("violations are re-flagged on every run", func(t *testing.T) {
		vendors := &fakeVendors{vendors: []matchdomain.Vendor{vendor24}}
		finder := &fakeRecentFinder{matches: map[int64][]matchdomain.Match{
			1: {matchAgedHours(1, 30)},
		}}
		notifier := &fakeNotifier{}
		svc := newTestScheduler(&fakeProjects{}, vendors, &fakeRebuilder{}, finder, notifier, now)

		first, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)
		second, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)

		assert.Equal(t, first, second, "no dedup between runs")
		assert.Len(t, notifier.slaCalls, 2)
	})

	t.Run("a failing vendor scan does not halt the others", func(t *testing.T) {
		calls := 0
		finder := &countingFinder{fail: map[int64]bool{1: true}, calls: &calls, matches: map[int64][]matchdomain.Match{
			2: {matchAgedHours(2, 50)},
		}}
		vendors := &fakeVendors{vendors: []matchdomain.Vendor{vendor24, vendor48}}
		svc := newTestScheduler(&fakeProjects{}, vendors, &fakeRebuilder{}, finder, &fakeNotifier{}, now)

		count, err := svc.CheckSlaViolations(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, 2, calls, "both vendors were scanned")
	})
}

type countingFinder struct {
	matches map[int64][]matchdomain.Match
	fail    map[int64]bool
	calls   *int
}

func (f *countingFinder) FindRecentByVendor(_ context.Context, vendorID int64, since time.Time) ([]matchdomain.Match, error) {
	*f.calls++
	if f.fail[vendorID] {
		return nil, errors.New("query failed")
	}
	var out []matchdomain.Match
	for _, m := range f.matches[vendorID] {
		if m.CreatedAt.After(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestHealthSweep(t *testing.T) {
	svc := newTestScheduler(
		&fakeProjects{active: []matchdomain.Project{activeProject(1)}},
		&fakeVendors{vendors: []matchdomain.Vendor{{ID: 1}}},
		&fakeRebuilder{}, &fakeRecentFinder{}, &fakeNotifier{},
		time.Now(),
	)

	require.NoError(t, svc.HealthSweep(context.Background()))
}
