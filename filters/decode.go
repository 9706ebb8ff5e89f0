package filters

import (
	"bytes"
	"encoding/json"
	"fmt"

	"myfinance/models"
)

// DecodeValue decodes a JSON sub-filter value for kind into the type
// UpdateFilter expects. A JSON null decodes to nil.
func DecodeValue(kind Kind, data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		switch kind {
		case KindDateRange, KindCategories, KindAmountRange, KindStatus:
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, kind)
	}

	var (
		value any
		err   error
	)
	switch kind {
	case KindDateRange:
		var v models.DateRange
		err = json.Unmarshal(data, &v)
		value = v
	case KindCategories:
		var v []string
		err = json.Unmarshal(data, &v)
		value = v
	case KindAmountRange:
		var v models.AmountRange
		err = json.Unmarshal(data, &v)
		value = v
	case KindStatus:
		var v models.StatusFilter
		err = json.Unmarshal(data, &v)
		value = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilterValue, err)
	}
	return value, nil
}
