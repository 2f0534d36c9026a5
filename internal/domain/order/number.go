package order

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a numeric field the upstream sends either as a JSON number or as a
// numeric string. Anything that does not parse decodes to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 {
	return float64(n)
}

func (n Number) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(n))
}
