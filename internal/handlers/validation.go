package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/theplant/luhn"
)

var (
	errInvalidAmount  = errors.New("invalid amount")
	errInvalidCard    = errors.New("invalid card number")
	errInvalidItem    = errors.New("invalid item")
	errInvalidPayload = errors.New("invalid payload")
)

// parseAmountMinor converts a decimal amount string ("12.50") into minor
// units, rejecting non-positive values and more than 2 decimal places.
func parseAmountMinor(raw string) (int64, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || value.LessThanOrEqual(decimal.Zero) {
		return 0, errInvalidAmount
	}
	if value.Exponent() < -2 {
		return 0, errInvalidAmount
	}
	return value.Shift(2).IntPart(), nil
}

// validateDestination runs a Luhn check on withdrawal destinations that look
// like bare card numbers; anything else (wallet ids, IBANs, free text) is
// passed through untouched.
func validateDestination(destination string) error {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' {
			return -1
		}
		return r
	}, strings.TrimSpace(destination))
	if len(digits) < 13 || len(digits) > 19 {
		return nil
	}
	number, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	if !luhn.Valid(number) {
		return errInvalidCard
	}
	return nil
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
