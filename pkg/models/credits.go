package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// UnlimitedSentinel is the textual form of an unmetered balance, kept for
// compatibility with stored account rows and API payloads.
const UnlimitedSentinel = "Unlimited"

// Credits is the per-account consumable allowance limiting automation runs.
// It is either unlimited or a non-negative remaining count; every arithmetic
// branch checks the sentinel first. The zero value is zero remaining credits.
type Credits struct {
	unlimited bool
	remaining int
}

// UnlimitedCredits returns the unmetered balance.
func UnlimitedCredits() Credits {
	return Credits{unlimited: true}
}

// RemainingCredits returns a metered balance of n credits. Negative input is
// clamped to zero, a balance never goes below zero.
func RemainingCredits(n int) Credits {
	if n < 0 {
		n = 0
	}

	return Credits{remaining: n}
}

// ParseCredits parses the stored textual form: the unlimited sentinel or a
// non-negative decimal integer.
func ParseCredits(s string) (Credits, error) {
	if s == UnlimitedSentinel {
		return UnlimitedCredits(), nil
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return Credits{}, fmt.Errorf("invalid credits value %q: %w", s, err)
	}

	if n < 0 {
		return Credits{}, fmt.Errorf("invalid credits value %q: negative balance", s)
	}

	return RemainingCredits(n), nil
}

func (c Credits) Unlimited() bool { return c.unlimited }

// Remaining returns the metered balance. Zero for unlimited accounts, callers
// must check Unlimited first.
func (c Credits) Remaining() int {
	if c.unlimited {
		return 0
	}

	return c.remaining
}

// Exhausted reports whether the balance blocks new triggering events.
func (c Credits) Exhausted() bool {
	return !c.unlimited && c.remaining <= 0
}

func (c Credits) String() string {
	if c.unlimited {
		return UnlimitedSentinel
	}

	return strconv.Itoa(c.remaining)
}

func (c Credits) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Credits) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseCredits(s)
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}
