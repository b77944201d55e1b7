package quant

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Reference values computed from the closed-form Black-Scholes formulas for
// S=100, K=100, T=1, r=5%, sigma=30%.
var refParams = Params{
	Spot:   100,
	Strike: 100,
	Expiry: 1,
	Rate:   0.05,
	Sigma:  0.3,
}

func TestBlackScholesCall(t *testing.T) {
	price, err := BlackScholes(Call, refParams)
	require.NoError(t, err)
	assert.InDelta(t, 14.2313, price, 1e-3)
}

func TestBlackScholesPut(t *testing.T) {
	price, err := BlackScholes(Put, refParams)
	require.NoError(t, err)
	assert.InDelta(t, 9.3542, price, 1e-3)
}

func TestPutCallParity(t *testing.T) {
	call, err := BlackScholes(Call, refParams)
	require.NoError(t, err)
	put, err := BlackScholes(Put, refParams)
	require.NoError(t, err)

	parity := call - put
	want := refParams.Spot - refParams.Strike*math.Exp(-refParams.Rate*refParams.Expiry)
	assert.InDelta(t, want, parity, 1e-9)
}

func TestBlackScholesInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"ZeroSpot", Params{Spot: 0, Strike: 100, Expiry: 1, Rate: 0.05, Sigma: 0.3}},
		{"ZeroStrike", Params{Spot: 100, Strike: 0, Expiry: 1, Rate: 0.05, Sigma: 0.3}},
		{"ZeroExpiry", Params{Spot: 100, Strike: 100, Expiry: 0, Rate: 0.05, Sigma: 0.3}},
		{"ZeroSigma", Params{Spot: 100, Strike: 100, Expiry: 1, Rate: 0.05, Sigma: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BlackScholes(Call, tt.params)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func TestBlackScholesGreeks(t *testing.T) {
	g, err := BlackScholesGreeks(Call, refParams)
	require.NoError(t, err)

	assert.InDelta(t, 0.6242, g.Delta, 1e-3)
	assert.InDelta(t, 0.01265, g.Gamma, 1e-4)
	assert.InDelta(t, 37.944, g.Vega, 1e-2)
	assert.InDelta(t, -8.101, g.Theta, 1e-2)
	assert.InDelta(t, 48.194, g.Rho, 1e-2)

	p, err := BlackScholesGreeks(Put, refParams)
	require.NoError(t, err)
	assert.InDelta(t, g.Delta-1, p.Delta, 1e-9)
	assert.InDelta(t, g.Gamma, p.Gamma, 1e-9)
	assert.Negative(t, p.Rho)
}

func TestBinomialAmericanCallMatchesEuropean(t *testing.T) {
	// Without dividends an American call is never exercised early, so the
	// tree converges to the closed-form European price.
	european, err := BlackScholes(Call, refParams)
	require.NoError(t, err)

	american, err := BinomialAmerican(Call, refParams, 1000)
	require.NoError(t, err)
	assert.InDelta(t, european, american, 0.05)
}

func TestBinomialAmericanPutPremium(t *testing.T) {
	european, err := BlackScholes(Put, refParams)
	require.NoError(t, err)

	american, err := BinomialAmerican(Put, refParams, 1000)
	require.NoError(t, err)
	assert.Greater(t, american, european)
}

func TestBinomialAmericanInvalidSteps(t *testing.T) {
	_, err := BinomialAmerican(Call, refParams, 0)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestMonteCarloEuropeanConvergesToBlackScholes(t *testing.T) {
	closed, err := BlackScholes(Call, refParams)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	simulated, err := MonteCarloEuropean(rng, Call, refParams, 200_000)
	require.NoError(t, err)
	assert.InDelta(t, closed, simulated, 0.5)
}

func TestMonteCarloAsianCallBelowEuropean(t *testing.T) {
	european, err := BlackScholes(Call, refParams)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))
	asian, err := MonteCarloAsianCall(rng, refParams, 100, 5_000)
	require.NoError(t, err)

	// Averaging dampens volatility, so the arithmetic Asian call is worth
	// less than its European counterpart.
	assert.Positive(t, asian)
	assert.Less(t, asian, european)
}

func TestMonteCarloDigital(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	price, err := MonteCarloDigital(rng, refParams, 1, 0, 50, 20_000)
	require.NoError(t, err)

	// Cash-or-nothing paying 1 above the strike is worth exp(-rT) * N(d2).
	want := math.Exp(-refParams.Rate*refParams.Expiry) * normCDF(refParams.d2())
	assert.InDelta(t, want, price, 0.05)
}

func TestMonteCarloBarrierWideBarriers(t *testing.T) {
	call, err := BlackScholes(Call, refParams)
	require.NoError(t, err)
	put, err := BlackScholes(Put, refParams)
	require.NoError(t, err)

	// Barriers so wide that no path knocks out reduce the payoff to a
	// strangle at the strike plus the discounted base coupon.
	p := BarrierParams{
		Spot:       refParams.Spot,
		Expiry:     refParams.Expiry,
		Rate:       refParams.Rate,
		Sigma:      refParams.Sigma,
		StrikeUp:   refParams.Strike,
		StrikeDown: refParams.Strike,
		Upper:      1e9,
		Lower:      1e-9,
		Rebate:     0,
		BaseCoupon: 2,
	}

	rng := rand.New(rand.NewSource(4))
	price, err := MonteCarloBarrier(rng, p, 50, 20_000)
	require.NoError(t, err)

	want := call + put + 2*math.Exp(-p.Rate*p.Expiry)
	assert.InDelta(t, want, price, 1.0)
}

func TestMonteCarloBarrierInvalidBarriers(t *testing.T) {
	p := BarrierParams{Spot: 100, Expiry: 1, Rate: 0.05, Sigma: 0.3, Lower: 100, Upper: 90}
	rng := rand.New(rand.NewSource(5))
	_, err := MonteCarloBarrier(rng, p, 10, 10)
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestGBMPath(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	path := GBMPath(rng, 100, 1, 0.05, 0.3, 252)

	require.Len(t, path, 253)
	assert.Equal(t, 100.0, path[0])
	for i, p := range path {
		assert.Positive(t, p, "path[%d]", i)
	}

	again := GBMPath(rand.New(rand.NewSource(6)), 100, 1, 0.05, 0.3, 252)
	assert.Equal(t, path, again)
}
