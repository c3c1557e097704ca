package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/streamtips/streamtips-backend/pkg/config"
	pkgerrors "github.com/streamtips/streamtips-backend/pkg/errors"
)

const bpsDenominator = 10000

// Breakdown is a gross amount decomposed into processor fee, net, and the
// platform/payee split of the net. All values are integer cents and the
// identities fee+net == gross and platform+payee == net hold by
// construction: the platform share is rounded, the payee share is the
// remainder.
type Breakdown struct {
	FeeCents           int64
	NetCents           int64
	PlatformShareCents int64
	PayeeShareCents    int64
}

// Calculator derives fee estimates and net splits from a fixed fee model.
// It is pure: identical inputs always produce identical outputs, so
// estimated-vs-actual drift is attributable to the processor alone.
// Rounding is half away from zero everywhere.
type Calculator struct {
	processorRateBPS  decimal.Decimal
	processorFixedFee decimal.Decimal
	platformRateBPS   decimal.Decimal
	minTipCents       int64
}

// NewCalculator validates the fee model and returns a calculator.
func NewCalculator(cfg config.FeeConfig) (*Calculator, error) {
	if cfg.ProcessorRateBPS < 0 || cfg.ProcessorRateBPS >= bpsDenominator {
		return nil, fmt.Errorf("processor rate %d bps out of range", cfg.ProcessorRateBPS)
	}
	if cfg.ProcessorFixedFee < 0 {
		return nil, fmt.Errorf("processor fixed fee must be non-negative")
	}
	if cfg.PlatformRateBPS < 0 || cfg.PlatformRateBPS > bpsDenominator {
		return nil, fmt.Errorf("platform rate %d bps out of range", cfg.PlatformRateBPS)
	}
	if cfg.MinTipCents <= 0 {
		return nil, fmt.Errorf("minimum tip must be positive")
	}
	return &Calculator{
		processorRateBPS:  decimal.NewFromInt(cfg.ProcessorRateBPS),
		processorFixedFee: decimal.NewFromInt(cfg.ProcessorFixedFee),
		platformRateBPS:   decimal.NewFromInt(cfg.PlatformRateBPS),
		minTipCents:       cfg.MinTipCents,
	}, nil
}

// MinTipCents returns the smallest gross amount Estimate accepts.
func (c *Calculator) MinTipCents() int64 {
	return c.minTipCents
}

// Estimate computes the estimated fee and split for a gross amount.
func (c *Calculator) Estimate(grossCents int64) (Breakdown, error) {
	if grossCents < c.minTipCents {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("amount must be at least %d cents", c.minTipCents))
	}

	gross := decimal.NewFromInt(grossCents)
	fee := gross.
		Mul(c.processorRateBPS).
		Div(decimal.NewFromInt(bpsDenominator)).
		Add(c.processorFixedFee).
		Round(0).
		IntPart()

	return c.split(grossCents, fee)
}

// SplitNet applies the share-derivation rule to an authoritative fee,
// keeping the gross amount fixed. Used during reconciliation.
func (c *Calculator) SplitNet(grossCents, feeCents int64) (Breakdown, error) {
	if grossCents <= 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "gross amount must be positive")
	}
	return c.split(grossCents, feeCents)
}

func (c *Calculator) split(grossCents, feeCents int64) (Breakdown, error) {
	if feeCents < 0 {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "fee must be non-negative")
	}
	if feeCents > grossCents {
		return Breakdown{}, pkgerrors.New(pkgerrors.CodeValidation, "fee exceeds gross amount")
	}

	net := grossCents - feeCents
	platform := decimal.NewFromInt(net).
		Mul(c.platformRateBPS).
		Div(decimal.NewFromInt(bpsDenominator)).
		Round(0).
		IntPart()
	payee := net - platform

	return Breakdown{
		FeeCents:           feeCents,
		NetCents:           net,
		PlatformShareCents: platform,
		PayeeShareCents:    payee,
	}, nil
}
