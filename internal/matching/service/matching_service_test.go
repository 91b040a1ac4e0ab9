package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

type fakeProjectStore struct {
	projects map[int64]domain.Project
	err      error
}

func (f *fakeProjectStore) GetProject(_ context.Context, id int64) (*domain.Project, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return &p, nil
}

type fakeVendorStore struct {
	vendors []domain.Vendor
	err     error
}

func (f *fakeVendorStore) FindEligibleVendors(_ context.Context, countryID int64, needed []domain.ServiceType) ([]domain.Vendor, error) {
	if f.err != nil {
		return nil, f.err
	}
	neededSet := make(map[domain.ServiceType]struct{}, len(needed))
	for _, s := range needed {
		neededSet[s] = struct{}{}
	}
	var out []domain.Vendor
	for _, v := range f.vendors {
		supported := false
		for _, c := range v.SupportedCountries {
			if c == countryID {
				supported = true
				break
			}
		}
		if !supported {
			continue
		}
		for _, s := range v.OfferedServices {
			if _, ok := neededSet[s]; ok {
				out = append(out, v)
				break
			}
		}
	}
	return out, nil
}

type pairKey struct {
	projectID, vendorID int64
}

type fakeLedger struct {
	vendors map[int64]domain.Vendor
	rows    map[pairKey]*domain.Match
	nextID  int64

	locks      int
	deletes    []int64
	upserts    int
	failUpsert bool
	failDelete bool
}

func newFakeLedger(vendors ...domain.Vendor) *fakeLedger {
	vm := make(map[int64]domain.Vendor, len(vendors))
	for _, v := range vendors {
		vm[v.ID] = v
	}
	return &fakeLedger{vendors: vm, rows: map[pairKey]*domain.Match{}}
}

func (f *fakeLedger) Upsert(_ context.Context, projectID, vendorID int64, score float64) (*domain.Match, error) {
	if f.failUpsert {
		return nil, errors.New("upsert failed")
	}
	f.upserts++
	key := pairKey{projectID, vendorID}
	if existing, ok := f.rows[key]; ok {
		existing.Score = score
		m := *existing
		return &m, nil
	}
	f.nextID++
	m := &domain.Match{
		ID:        f.nextID,
		ProjectID: projectID,
		VendorID:  vendorID,
		Score:     score,
		CreatedAt: time.Now(),
	}
	f.rows[key] = m
	out := *m
	return &out, nil
}

func (f *fakeLedger) DeleteByProject(_ context.Context, projectID int64) error {
	if f.failDelete {
		return errors.New("delete failed")
	}
	f.deletes = append(f.deletes, projectID)
	for key := range f.rows {
		if key.projectID == projectID {
			delete(f.rows, key)
		}
	}
	return nil
}

func (f *fakeLedger) GetByID(_ context.Context, id int64) (*domain.Match, error) {
	for _, m := range f.rows {
		if m.ID == id {
			out := *m
			if v, ok := f.vendors[m.VendorID]; ok {
				out.Vendor = &v
			}
			return &out, nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (f *fakeLedger) FindByProject(_ context.Context, projectID int64) ([]domain.Match, error) {
	var out []domain.Match
	for key, m := range f.rows {
		if key.projectID == projectID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (f *fakeLedger) FindByVendor(_ context.Context, vendorID int64) ([]domain.Match, error) {
	var out []domain.Match
	for key, m := range f.rows {
		if key.vendorID == vendorID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (f *fakeLedger) AcquireRebuildLock(_ context.Context, _ int64) (func(), error) {
	f.locks++
	return func() {}, nil
}

type fakeNotifier struct {
	matchCalls []domain.Match
	slaCalls   []domain.Vendor
	fail       bool
}

func (f *fakeNotifier) SendMatchFound(_ context.Context, match *domain.Match) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.matchCalls = append(f.matchCalls, *match)
	return nil
}

func (f *fakeNotifier) SendSlaViolation(_ context.Context, vendor domain.Vendor) error {
	if f.fail {
		return errors.New("smtp down")
	}
	f.slaCalls = append(f.slaCalls, vendor)
	return nil
}

func testVendors() []domain.Vendor {
	return []domain.Vendor{
		{
			ID:                 1,
			Name:               "TechCorp Solutions",
			OfferedServices:    []domain.ServiceType{domain.ServiceMarketResearch, domain.ServiceTranslation},
			Rating:             4.5,
			ResponseSlaHours:   24,
			SupportedCountries: []int64{10},
		},
		{
			ID:                 2,
			Name:               "Global Expansion Ltd",
			OfferedServices:    []domain.ServiceType{domain.ServiceMarketResearch, domain.ServiceLegalServices},
			Rating:             3.8,
			ResponseSlaHours:   48,
			SupportedCountries: []int64{10, 20},
		},
		{
			ID:                 3,
			Name:               "Elsewhere GmbH",
			OfferedServices:    []domain.ServiceType{domain.ServiceLegalServices},
			Rating:             5.0,
			ResponseSlaHours:   12,
			SupportedCountries: []int64{20},
		},
	}
}

func testProject() domain.Project {
	return domain.Project{
		ID:             100,
		ClientID:       7,
		CountryID:      10,
		NeededServices: []domain.ServiceType{domain.ServiceMarketResearch, domain.ServiceLegalServices},
		Budget:         50000,
		Status:         domain.StatusActive,
	}
}

func newTestService(projects *fakeProjectStore, vendors *fakeVendorStore, ledger *fakeLedger, notifier *fakeNotifier) *MatchingService {
	return NewMatchingService(projects, vendors, ledger, notifier, zap.NewNop())
}

func TestRebuildMatches(t *testing.T) {
	t.Run("rebuilds and sorts by score descending", func(t *testing.T) {
		vendors := testVendors()
		projects := &fakeProjectStore{projects: map[int64]domain.Project{100: testProject()}}
		ledger := newFakeLedger(vendors...)
		notifier := &fakeNotifier{}
		svc := newTestService(projects, &fakeVendorStore{vendors: vendors}, ledger, notifier)

		result, err := svc.RebuildMatches(context.Background(), 100)
		require.NoError(t, err)

		// vendor 3 does not support country 10
		require.Equal(t, 2, result.TotalMatches)
		require.Len(t, result.Matches, 2)

		// vendor 1: overlap 1, rating 4.5, slaWeight 2 -> 8.5
		// vendor 2: overlap 2, rating 3.8, slaWeight 1 -> 8.8
		assert.Equal(t, int64(2), result.Matches[0].VendorID)
		assert.Equal(t, 8.8, result.Matches[0].Score)
		assert.Equal(t, int64(1), result.Matches[1].VendorID)
		assert.Equal(t, 8.5, result.Matches[1].Score)

		assert.Equal(t, "Matches rebuilt for project 100", result.Message)
		assert.Equal(t, []int64{100}, ledger.deletes)
		assert.Equal(t, 1, ledger.locks)
		assert.Len(t, notifier.matchCalls, 2)

		// vendor context attached for downstream consumers
		require.NotNil(t, result.Matches[0].Vendor)
		assert.Equal(t, "Global Expansion Ltd", result.Matches[0].Vendor.Name)
	})

	t.Run("unknown project aborts with not found", func(t *testing.T) {
		projects := &fakeProjectStore{projects: map[int64]domain.Project{}}
		ledger := newFakeLedger()
		svc := newTestService(projects, &fakeVendorStore{}, ledger, &fakeNotifier{})

		_, err := svc.RebuildMatches(context.Background(), 999)
		require.ErrorIs(t, err, domain.ErrProjectNotFound)
		assert.Empty(t, ledger.deletes, "nothing should be deleted for an unknown project")
	})

	t.Run("notification failure does not abort the rebuild", func(t *testing.T) {
		vendors := testVendors()
		projects := &fakeProjectStore{projects: map[int64]domain.Project{100: testProject()}}
		ledger := newFakeLedger(vendors...)
		svc := newTestService(projects, &fakeVendorStore{vendors: vendors}, ledger, &fakeNotifier{fail: true})

		result, err := svc.RebuildMatches(context.Background(), 100)
		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalMatches)
		assert.Equal(t, 2, ledger.upserts, "every vendor must still be persisted")
	})

	t.Run("persistence failure aborts and propagates", func(t *testing.T) {
		vendors := testVendors()
		projects := &fakeProjectStore{projects: map[int64]domain.Project{100: testProject()}}
		ledger := newFakeLedger(vendors...)
		ledger.failUpsert = true
		svc := newTestService(projects, &fakeVendorStore{vendors: vendors}, ledger, &fakeNotifier{})

		_, err := svc.RebuildMatches(context.Background(), 100)
		require.Error(t, err)
		require.NotErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("delete failure aborts before any upsert", func(t *testing.T) {
		vendors := testVendors()
		projects := &fakeProjectStore{projects: map[int64]domain.Project{100: testProject()}}
		ledger := newFakeLedger(vendors...)
		ledger.failDelete = true
		svc := newTestService(projects, &fakeVendorStore{vendors: vendors}, ledger, &fakeNotifier{})

		_, err := svc.RebuildMatches(context.Background(), 100)
		require.Error(t, err)
		assert.Zero(t, ledger.upserts)
	})

	t.Run("idempotent in vendor and score pairs", func(t *testing.T) {
		vendors := testVendors()
		projects := &fakeProjectStore{projects: map[int64]domain.Project{100: testProject()}}
		ledger := newFakeLedger(vendors...)
		svc := newTestService(projects, &fakeVendorStore{vendors: vendors}, ledger, &fakeNotifier{})

		first, err := svc.RebuildMatches(context.Background(), 100)
		require.NoError(t, err)
		second, err := svc.RebuildMatches(context.Background(), 100)
		require.NoError(t, err)

		require.Equal(t, len(first.Matches), len(second.Matches))
		for i := range first.Matches {
			assert.Equal(t, first.Matches[i].VendorID, second.Matches[i].VendorID)
			assert.Equal(t, first.Matches[i].Score, second.Matches[i].Score)
		}
	})

	t.Run("shrinking eligibility removes the vendor's match", func(t *testing.T) {
		vendors := testVendors()
		projects := &fakeProjectStore{projects: map[int64]domain.Project{100: testProject()}}
		vendorStore := &fakeVendorStore{vendors: vendors}
		ledger := newFakeLedger(vendors...)
		svc := newTestService(projects, vendorStore, ledger, &fakeNotifier{})

		first, err := svc.RebuildMatches(context.Background(), 100)
		require.NoError(t, err)
		require.Equal(t, 2, first.TotalMatches)

		// vendor 1 stops offering anything the project needs
		vendorStore.vendors[0].OfferedServices = []domain.ServiceType{domain.ServiceOfficeSetup}

		second, err := svc.RebuildMatches(context.Background(), 100)
		require.NoError(t, err)
		require.Equal(t, 1, second.TotalMatches)
		assert.Equal(t, int64(2), second.Matches[0].VendorID)

		remaining, err := ledger.FindByProject(context.Background(), 100)
		require.NoError(t, err)
		assert.Len(t, remaining, 1, "stale match must not survive the rebuild")
	})

	t.Run("no eligible vendors yields an empty result", func(t *testing.T) {
		project := testProject()
		project.CountryID = 99
		projects := &fakeProjectStore{projects: map[int64]domain.Project{100: project}}
		ledger := newFakeLedger(testVendors()...)
		svc := newTestService(projects, &fakeVendorStore{vendors: testVendors()}, ledger, &fakeNotifier{})

		result, err := svc.RebuildMatches(context.Background(), 100)
		require.NoError(t, err)
		assert.Zero(t, result.TotalMatches)
		assert.Empty(t, result.Matches)
		assert.Equal(t, []int64{100}, ledger.deletes, "prior matches are still discarded")
	})
}

func TestGetProjectMatches(t *testing.T) {
	t.Run("unknown project returns not found", func(t *testing.T) {
		svc := newTestService(&fakeProjectStore{projects: map[int64]domain.Project{}}, &fakeVendorStore{}, newFakeLedger(), &fakeNotifier{})

		_, err := svc.GetProjectMatches(context.Background(), 42)
		require.ErrorIs(t, err, domain.ErrProjectNotFound)
	})
}
