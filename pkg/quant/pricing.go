// Package quant prices vanilla and path-dependent options on a single
// underlying. It has no dependency on the matching core; callers feed it
// whatever spot and volatility they derive from market data.
package quant

import (
	"errors"
	"math"
	"math/rand"
)

// OptionKind selects call or put payoff
type OptionKind int

const (
	Call OptionKind = iota
	Put
)

func (k OptionKind) String() string {
	if k == Put {
		return "put"
	}
	return "call"
}

var ErrInvalidParams = errors.New("quant: invalid pricing parameters")

// Params holds the Black-Scholes market inputs: spot, strike, time to expiry
// in years, continuously compounded risk-free rate and annualized volatility.
type Params struct {
	Spot   float64
	Strike float64
	Expiry float64
	Rate   float64
	Sigma  float64
}

func (p Params) validate() error {
	if p.Spot <= 0 || p.Strike <= 0 || p.Expiry <= 0 || p.Sigma <= 0 {
		return ErrInvalidParams
	}
	return nil
}

func (p Params) d1() float64 {
	return (math.Log(p.Spot/p.Strike) + (p.Rate+0.5*p.Sigma*p.Sigma)*p.Expiry) /
		(p.Sigma * math.Sqrt(p.Expiry))
}

func (p Params) d2() float64 {
	return p.d1() - p.Sigma*math.Sqrt(p.Expiry)
}

func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// BlackScholes prices a European option in closed form. The put price comes
// from put-call parity.
func BlackScholes(kind OptionKind, p Params) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	disc := math.Exp(-p.Rate * p.Expiry)
	call := p.Spot*normCDF(p.d1()) - disc*p.Strike*normCDF(p.d2())
	if kind == Put {
		return call + disc*p.Strike - p.Spot, nil
	}
	return call, nil
}

// Greeks are the Black-Scholes sensitivities. Theta is per year, Vega and Rho
// per unit change of volatility and rate.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Rho   float64
	Vega  float64
}

// BlackScholesGreeks computes the closed-form sensitivities for kind.
func BlackScholesGreeks(kind OptionKind, p Params) (Greeks, error) {
	if err := p.validate(); err != nil {
		return Greeks{}, err
	}
	d1 := p.d1()
	d2 := p.d2()
	sqrtT := math.Sqrt(p.Expiry)
	disc := math.Exp(-p.Rate * p.Expiry)

	g := Greeks{
		Gamma: normPDF(d1) / (p.Spot * p.Sigma * sqrtT),
		Vega:  p.Spot * normPDF(d1) * sqrtT,
	}
	if kind == Call {
		g.Delta = normCDF(d1)
		g.Theta = -p.Spot*normPDF(d1)*p.Sigma/(2*sqrtT) - p.Rate*p.Strike*disc*normCDF(d2)
		g.Rho = p.Strike * p.Expiry * disc * normCDF(d2)
	} else {
		g.Delta = normCDF(d1) - 1
		g.Theta = -p.Spot*normPDF(d1)*p.Sigma/(2*sqrtT) + p.Rate*p.Strike*disc*normCDF(-d2)
		g.Rho = -p.Strike * p.Expiry * disc * normCDF(-d2)
	}
	return g, nil
}

// BinomialAmerican prices an American option on a recombining binomial tree
// with the given number of steps, exercising early whenever intrinsic value
// beats continuation.
func BinomialAmerican(kind OptionKind, p Params, steps int) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	if steps <= 0 {
		return 0, ErrInvalidParams
	}

	dt := p.Expiry / float64(steps)
	u := math.Exp(p.Sigma * math.Sqrt(dt))
	d := 1 / u
	df := math.Exp(-p.Rate * dt)
	q := (math.Exp(p.Rate*dt) - d) / (u - d)

	intrinsic := func(spot float64) float64 {
		if kind == Put {
			return math.Max(p.Strike-spot, 0)
		}
		return math.Max(spot-p.Strike, 0)
	}

	v := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		v[i] = intrinsic(p.Spot * math.Pow(u, float64(2*i-steps)))
	}
	for n := steps - 1; n >= 0; n-- {
		for j := 0; j <= n; j++ {
			cont := df * (q*v[j+1] + (1-q)*v[j])
			v[j] = math.Max(cont, intrinsic(p.Spot*math.Pow(u, float64(2*j-n))))
		}
	}
	return v[0], nil
}

// MonteCarloEuropean prices a European option by simulating the terminal
// price of geometric Brownian motion over the given number of paths.
func MonteCarloEuropean(rng *rand.Rand, kind OptionKind, p Params, paths int) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	if paths <= 0 {
		return 0, ErrInvalidParams
	}

	drift := (p.Rate - 0.5*p.Sigma*p.Sigma) * p.Expiry
	vol := p.Sigma * math.Sqrt(p.Expiry)

	var sum float64
	for i := 0; i < paths; i++ {
		terminal := p.Spot * math.Exp(drift+vol*rng.NormFloat64())
		if kind == Put {
			sum += math.Max(p.Strike-terminal, 0)
		} else {
			sum += math.Max(terminal-p.Strike, 0)
		}
	}
	return math.Exp(-p.Rate*p.Expiry) * sum / float64(paths), nil
}

// MonteCarloAsianCall prices an arithmetic-average Asian call. The average
// includes the spot at inception.
func MonteCarloAsianCall(rng *rand.Rand, p Params, steps, paths int) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	if steps <= 0 || paths <= 0 {
		return 0, ErrInvalidParams
	}

	dt := p.Expiry / float64(steps)
	drift := (p.Rate - 0.5*p.Sigma*p.Sigma) * dt
	vol := p.Sigma * math.Sqrt(dt)
	disc := math.Exp(-p.Rate * p.Expiry)

	var sum float64
	for i := 0; i < paths; i++ {
		s := p.Spot
		avg := p.Spot
		for j := 0; j < steps; j++ {
			s *= math.Exp(drift + vol*rng.NormFloat64())
			avg += s
		}
		avg /= float64(steps + 1)
		sum += disc * math.Max(avg-p.Strike, 0)
	}
	return sum / float64(paths), nil
}

// MonteCarloDigital prices a cash-or-nothing option paying inMoney when the
// terminal price finishes above the strike and outMoney otherwise.
func MonteCarloDigital(rng *rand.Rand, p Params, inMoney, outMoney float64, steps, paths int) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	if steps <= 0 || paths <= 0 {
		return 0, ErrInvalidParams
	}

	var sum float64
	for i := 0; i < paths; i++ {
		path := GBMPath(rng, p.Spot, p.Expiry, p.Rate, p.Sigma, steps)
		if path[steps] > p.Strike {
			sum += inMoney
		} else {
			sum += outMoney
		}
	}
	return math.Exp(-p.Rate*p.Expiry) * sum / float64(paths), nil
}

// BarrierParams extends Params with a double barrier and a rebate schedule:
// when the terminal price stays strictly inside (Lower, Upper) the holder
// earns the strangle payoff around the strikes plus the base coupon; a
// terminal price at or beyond either barrier knocks the strangle out and
// pays the rebate plus the base coupon.
type BarrierParams struct {
	Spot       float64
	Expiry     float64
	Rate       float64
	Sigma      float64
	StrikeUp   float64
	StrikeDown float64
	Upper      float64
	Lower      float64
	Rebate     float64
	BaseCoupon float64
}

// MonteCarloBarrier prices the double-barrier payoff above by simulation.
func MonteCarloBarrier(rng *rand.Rand, p BarrierParams, steps, paths int) (float64, error) {
	if p.Spot <= 0 || p.Expiry <= 0 || p.Sigma <= 0 || p.Lower >= p.Upper {
		return 0, ErrInvalidParams
	}
	if steps <= 0 || paths <= 0 {
		return 0, ErrInvalidParams
	}

	var sum float64
	for i := 0; i < paths; i++ {
		path := GBMPath(rng, p.Spot, p.Expiry, p.Rate, p.Sigma, steps)
		terminal := path[steps]
		if terminal > p.Lower && terminal < p.Upper {
			sum += math.Max(terminal-p.StrikeUp, 0) + math.Max(p.StrikeDown-terminal, 0) + p.BaseCoupon
		} else {
			sum += p.Rebate + p.BaseCoupon
		}
	}
	return math.Exp(-p.Rate*p.Expiry) * sum / float64(paths), nil
}

// GBMPath simulates one geometric Brownian motion path with steps increments,
// returning steps+1 prices starting at spot.
func GBMPath(rng *rand.Rand, spot, expiry, rate, sigma float64, steps int) []float64 {
	dt := expiry / float64(steps)
	drift := (rate - 0.5*sigma*sigma) * dt
	vol := sigma * math.Sqrt(dt)

	path := make([]float64, steps+1)
	path[0] = spot
	for i := 0; i < steps; i++ {
		path[i+1] = path[i] * math.Exp(drift+vol*rng.NormFloat64())
	}
	return path
}
