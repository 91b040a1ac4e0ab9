package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/expanders360/vendor-match-backend/internal/matching/domain"
)

func project(services ...domain.ServiceType) domain.Project {
	return domain.Project{ID: 1, CountryID: 1, NeededServices: services}
}

func vendor(rating float64, slaHours int, services ...domain.ServiceType) domain.Vendor {
	return domain.Vendor{ID: 1, Name: "v", OfferedServices: services, Rating: rating, ResponseSlaHours: slaHours}
}

func TestScore(t *testing.T) {
	t.Run("documented example", func(t *testing.T) {
		// needs {market_research, legal_services}, offers
		// {market_research, translation}, rating 4.5, sla 24h:
		// overlap=1, slaWeight=2, score=1*2+4.5+2=8.5
		p := project(domain.ServiceMarketResearch, domain.ServiceLegalServices)
		v := vendor(4.5, 24, domain.ServiceMarketResearch, domain.ServiceTranslation)

		assert.Equal(t, 8.5, Score(p, v))
	})

	t.Run("no overlap scores rating plus sla weight", func(t *testing.T) {
		p := project(domain.ServiceLegalServices)
		v := vendor(3.0, 48, domain.ServiceTranslation)

		// overlap=0, slaWeight=1
		assert.Equal(t, 4.0, Score(p, v))
	})

	t.Run("empty needs is a valid low score", func(t *testing.T) {
		p := project()
		v := vendor(2.5, 24, domain.ServiceTranslation)

		assert.Equal(t, 4.5, Score(p, v))
	})

	t.Run("duplicate services are treated as sets", func(t *testing.T) {
		p := project(domain.ServiceTranslation, domain.ServiceTranslation)
		v := vendor(1.0, 72, domain.ServiceTranslation, domain.ServiceTranslation)

		// overlap must be 1, not 2 or 4
		assert.Equal(t, 3.0, Score(p, v))
	})

	t.Run("rounds half up to two decimals", func(t *testing.T) {
		// slaWeight = 3 - 30/24 = 1.75; 0*2 + 1.13 + 1.75 = 2.88
		p := project()
		v := vendor(1.13, 30, domain.ServiceTranslation)

		assert.Equal(t, 2.88, Score(p, v))

		// 3 - 44/24 = 1.1666..; 0 + 0 + 1.1666.. rounds to 1.17
		v = vendor(0, 44)
		assert.Equal(t, 1.17, Score(p, v))
	})

	t.Run("deterministic", func(t *testing.T) {
		p := project(domain.ServiceMarketResearch, domain.ServiceOfficeSetup)
		v := vendor(4.2, 36, domain.ServiceOfficeSetup)

		assert.Equal(t, Score(p, v), Score(p, v))
	})
}

func TestSlaWeight(t *testing.T) {
	t.Run("72 hours is exactly zero", func(t *testing.T) {
		assert.Equal(t, 0.0, SlaWeight(72))
	})

	t.Run("96 hours clamps to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, SlaWeight(96))
	})

	t.Run("division is real-valued", func(t *testing.T) {
		assert.InDelta(t, 2.5, SlaWeight(12), 1e-9)
		assert.InDelta(t, 1.75, SlaWeight(30), 1e-9)
	})

	t.Run("24 hours gives two", func(t *testing.T) {
		assert.Equal(t, 2.0, SlaWeight(24))
	})
}

func TestServiceOverlap(t *testing.T) {
	needed := []domain.ServiceType{domain.ServiceMarketResearch, domain.ServiceLegalServices, domain.ServiceTaxConsulting}
	offered := []domain.ServiceType{domain.ServiceLegalServices, domain.ServiceTaxConsulting, domain.ServiceTranslation}

	assert.Equal(t, 2, ServiceOverlap(needed, offered))
	assert.Equal(t, 0, ServiceOverlap(nil, offered))
	assert.Equal(t, 0, ServiceOverlap(needed, nil))
}
