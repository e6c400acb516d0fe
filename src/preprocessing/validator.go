package preprocessing

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"pair-analysis/src/helpers"
	"pair-analysis/src/interfaces"
	"pair-analysis/src/logger"
	"pair-analysis/src/utils"
)

// -----------------------------------------------------------------------------

// ValidatorInput is the part of the configuration the validator reads.
type ValidatorInput struct {
	Pairs         []string
	Timeframe     string
	StakeCurrency string
}

// Validator checks run parameters locally and against the exchange.
type Validator struct {
	Exchange interfaces.IExchange
	Logger   *logger.Logger
}

func NewValidator(exchange interfaces.IExchange, log *logger.Logger) *Validator {
	return &Validator{Exchange: exchange, Logger: log}
}

// -----------------------------------------------------------------------------

// CheckParams fails with MissingParameter when timeframe or pairs is absent
// and with InvalidPair on the first pair that is not BASE/<stake currency>.
// No exchange call is made.
func (v *Validator) CheckParams(in ValidatorInput) error {
	if in.Timeframe == "" {
		return helpers.NewMissingParameterError("timeframe")
	}
	if len(in.Pairs) == 0 {
		return helpers.NewMissingParameterError("pairs")
	}

	for _, pair := range in.Pairs {
		_, quote, ok := utils.SplitPair(pair)
		if !ok {
			return helpers.NewInvalidPairError(pair, "expected BASE/QUOTE")
		}
		if quote != in.StakeCurrency {
			return helpers.NewInvalidPairError(pair, fmt.Sprintf("only */%s pairs are supported", in.StakeCurrency))
		}
		if _, err := utils.CompilePairPattern(pair); err != nil {
			return helpers.NewInvalidPairError(pair, "not a valid pair pattern")
		}
	}
	return nil
}

// -----------------------------------------------------------------------------

// Validate runs CheckParams, has the exchange confirm the literal pairs and
// the timeframe, then expands the configured pairs against the exchange
// markets. It returns the expanded pair list.
func (v *Validator) Validate(ctx context.Context, in ValidatorInput) ([]string, error) {
	if err := v.CheckParams(in); err != nil {
		return nil, err
	}

	// Literal pairs must be listed; patterns are checked after expansion.
	var literal []string
	for _, pair := range in.Pairs {
		if regexp.QuoteMeta(pair) == pair {
			literal = append(literal, pair)
		}
	}
	if err := v.Exchange.ValidatePairs(ctx, literal); err != nil {
		return nil, helpers.NewExchangeValidationError("pair validation failed", err)
	}
	if err := v.Exchange.ValidateTimeframe(in.Timeframe); err != nil {
		return nil, helpers.NewExchangeValidationError("timeframe validation failed", err)
	}

	markets, err := v.Exchange.Markets(ctx)
	if err != nil {
		return nil, helpers.NewExchangeValidationError("failed to load markets", err)
	}
	available := make([]string, 0, len(markets))
	for _, m := range markets {
		available = append(available, m.Symbol)
	}

	expanded, err := utils.ExpandPairlist(in.Pairs, available)
	if err != nil {
		return nil, helpers.NewInvalidParameterError("pairs", strings.Join(in.Pairs, ","), err)
	}
	if len(expanded) == 0 {
		return nil, helpers.NewNoUsablePairsError(fmt.Sprintf("no pair on %s matches %v", v.Exchange.Name(), in.Pairs))
	}
	if len(expanded) != len(in.Pairs) {
		v.Logger.Info("Expanded %d pair patterns to %d pairs", len(in.Pairs), len(expanded))
	}

	// Patterns can match pairs with another quote.
	for _, pair := range expanded {
		if _, quote, ok := utils.SplitPair(pair); !ok || quote != in.StakeCurrency {
			return nil, helpers.NewInvalidPairError(pair, fmt.Sprintf("only */%s pairs are supported", in.StakeCurrency))
		}
	}

	return expanded, nil
}
