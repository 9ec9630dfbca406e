package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseCoordinate приводит слабо типизированное значение координаты (или любого
// числового поля из сырого JSON) к float64. Числа принимаются как есть, строки -
// после замены десятичной запятой на точку. Любой другой тип, неразборчивая
// строка или нечисловое значение (NaN/Inf) дают 0.
//
// 0 здесь - сигнальное значение "координата отсутствует". Настоящую точку (0,0)
// от отсутствующей отличить нельзя; для нашего домена это известное и принятое
// ограничение (см. DESIGN.md), а не ошибка.
func ParseCoordinate(value interface{}) float64 {
	var parsed float64

	switch v := value.(type) {
	case float64:
		parsed = v
	case float32:
		parsed = float64(v)
	case int:
		parsed = float64(v)
	case int64:
		parsed = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		parsed = f
	case string:
		normalized := strings.ReplaceAll(strings.TrimSpace(v), ",", ".")
		f, err := strconv.ParseFloat(normalized, 64)
		if err != nil {
			return 0
		}
		parsed = f
	default:
		return 0
	}

	if math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0
	}
	return parsed
}
