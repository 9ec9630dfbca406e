package domain

import "strconv"

// MarkerType - вид маркера на карте
type MarkerType string

const (
	MarkerTypeLocation MarkerType = "location"
	MarkerTypeActivity MarkerType = "activity"
)

// Marker - точка для отображения на карте: либо искомая локация, либо
// активность с разрешёнными координатами. Position всегда содержит конечную
// пару [lat, lon] - маркер без валидных координат не эмитится вовсе.
type Marker struct {
	ID       string     `json:"id"`
	Type     MarkerType `json:"type"`
	Position [2]float64 `json:"position"` // [lat, lon]
	Address  string     `json:"address,omitempty"`
	Activity *Activity  `json:"activity,omitempty"`
}

// LocationMarkerID строит детерминированный идентификатор маркера локации
func LocationMarkerID(lat, lon float64) string {
	return "loc-" + formatCoord(lat) + "-" + formatCoord(lon)
}

// ActivityMarkerID строит детерминированный идентификатор маркера активности.
// Индекс - позиция активности в списке на момент проекции, поэтому id
// стабилен только внутри одного завершённого результата поиска.
func ActivityMarkerID(index int, lat, lon float64) string {
	return "act-" + strconv.Itoa(index) + "-" + formatCoord(lat) + "-" + formatCoord(lon)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SearchedLocation - геокодированный результат по текстовому запросу
type SearchedLocation struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}
