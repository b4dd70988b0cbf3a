package intake

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dealdesk/backend/internal/domain/deal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPackages(region string) []deal.PackageOffering {
	return []deal.PackageOffering{
		{
			PackageID: "pkg-" + region,
			Name:      "Bundle " + region,
			Services: []deal.PackageService{
				{ServiceID: "svc-1", Name: "GST Filing", MonthlyFee: decimal.NewFromInt(500), YearlyFee: decimal.NewFromInt(5000)},
			},
		},
	}
}

func TestLoadPackagesForRegion(t *testing.T) {
	catalog := &stubCatalog{
		listPackages: func(ctx context.Context, region string) ([]deal.PackageOffering, error) {
			return testPackages(region), nil
		},
	}

	r := NewPackageResolver(catalog)
	r.LoadPackages("Kerala")
	waitFor(t, func() bool { return len(r.Packages()) == 1 })

	pkg, ok := r.Find("pkg-Kerala")
	assert.True(t, ok)
	assert.Equal(t, "Bundle Kerala", pkg.Name)

	_, ok = r.Find("pkg-unknown")
	assert.False(t, ok)
}

func TestRegionChangeFollowsLastKeyWins(t *testing.T) {
	release := map[string]chan struct{}{
		"Kerala":     make(chan struct{}),
		"Tamil Nadu": make(chan struct{}),
	}
	started := make(chan string, 2)

	catalog := &stubCatalog{
		listPackages: func(ctx context.Context, region string) ([]deal.PackageOffering, error) {
			started <- region
			<-release[region]
			return testPackages(region), nil
		},
	}

	r := NewPackageResolver(catalog)
	r.LoadPackages("Kerala")
	require.Equal(t, "Kerala", <-started)

	r.LoadPackages("Tamil Nadu")
	require.Equal(t, "Tamil Nadu", <-started)

	close(release["Tamil Nadu"])
	waitFor(t, func() bool { return len(r.Packages()) == 1 })
	close(release["Kerala"])
	time.Sleep(50 * time.Millisecond)

	pkg, ok := r.Find("pkg-Tamil Nadu")
	assert.True(t, ok)
	assert.Equal(t, "Bundle Tamil Nadu", pkg.Name)
	_, ok = r.Find("pkg-Kerala")
	assert.False(t, ok)
}

func TestCadenceSwitchDoesNotRefetch(t *testing.T) {
	var calls atomic.Int64
	catalog := &stubCatalog{
		listPackages: func(ctx context.Context, region string) ([]deal.PackageOffering, error) {
			calls.Add(1)
			return testPackages(region), nil
		},
	}

	r := NewPackageResolver(catalog)
	r.LoadPackages("Kerala")
	waitFor(t, func() bool { return len(r.Packages()) == 1 })

	pkg, _ := r.Find("pkg-Kerala")
	monthly := r.ComputeLineTotals(pkg, deal.CadenceMonthly)
	yearly := r.ComputeLineTotals(pkg, deal.CadenceYearly)

	assert.True(t, monthly[0].Fee.Equal(decimal.NewFromInt(500)))
	assert.True(t, yearly[0].Fee.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, int64(1), calls.Load())
}

func TestEmptyRegionClearsPackages(t *testing.T) {
	var calls atomic.Int64
	catalog := &stubCatalog{
		listPackages: func(ctx context.Context, region string) ([]deal.PackageOffering, error) {
			calls.Add(1)
			return testPackages(region), nil
		},
	}

	r := NewPackageResolver(catalog)
	r.LoadPackages("Kerala")
	waitFor(t, func() bool { return len(r.Packages()) == 1 })

	r.LoadPackages("")
	assert.Empty(t, r.Packages())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}
