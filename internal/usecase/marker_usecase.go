package usecase

import (
	"sort"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/pkg/utils"
)

// ProjectMarkers строит маркеры карты из валидированных активностей и искомой
// локации. Первым всегда идёт ровно один маркер локации; дальше - по маркеру
// на каждую активность с разрешёнными координатами. Активности без координат
// маркеров не дают, но в списке результатов остаются.
//
// Идентификаторы детерминированы от вида, индекса и позиции, так что UI может
// сопоставлять маркеры с карточками (hover) без отдельного индекса. Индекс -
// позиция в переданном списке: стабилен внутри одного завершённого результата,
// но не между чанками из разных источников.
func ProjectMarkers(activities []domain.Activity, location domain.SearchedLocation) []domain.Marker {
	markers := make([]domain.Marker, 0, len(activities)+1)

	markers = append(markers, domain.Marker{
		ID:       domain.LocationMarkerID(location.Lat, location.Lon),
		Type:     domain.MarkerTypeLocation,
		Position: [2]float64{location.Lat, location.Lon},
		Address:  location.Address,
	})

	for i := range activities {
		coords := activities[i].Coordinates
		if coords == nil {
			continue
		}

		activity := activities[i]
		markers = append(markers, domain.Marker{
			ID:       domain.ActivityMarkerID(i, coords.Lat, coords.Lon),
			Type:     domain.MarkerTypeActivity,
			Position: [2]float64{coords.Lat, coords.Lon},
			Activity: &activity,
		})
	}

	return markers
}

// SortByDistance упорядочивает активности по удалению от искомой локации.
// Активности без координат уходят в конец с сохранением исходного порядка.
// Сортировка выполняется до проекции маркеров, чтобы индексы маркеров
// совпадали с порядком карточек.
func SortByDistance(activities []domain.Activity, location domain.SearchedLocation) {
	sort.SliceStable(activities, func(i, j int) bool {
		a, b := activities[i].Coordinates, activities[j].Coordinates
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		distA := utils.HaversineDistance(location.Lat, location.Lon, a.Lat, a.Lon)
		distB := utils.HaversineDistance(location.Lat, location.Lon, b.Lat, b.Lon)
		return distA < distB
	})
}
