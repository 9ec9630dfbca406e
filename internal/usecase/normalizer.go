package usecase

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/activity-search/internal/domain"
	"github.com/activity-search/internal/pkg/utils"
)

// trustedImageCDN - хост, с которого разрешены картинки с путём tour_img/
const trustedImageCDN = "cdn.getyourguide.com"

// NormalizeActivity превращает один сырой JSON-объект в валидированную
// Activity. Чистая функция: возвращает (активность, ошибки), ничего не мутирует
// и не бросает. Блокирующая ошибка (нет названия, битый URL, не-объект) даёт
// nil-активность; неблокирующие ошибки сопровождают валидную запись, у которой
// проблемное поле заменено значением по умолчанию.
//
// Порядок проверок фиксирован: объект -> название -> URL -> числовые поля ->
// диапазон рейтинга -> картинка -> координаты. Ошибки логируются в этом же
// порядке, что даёт детерминированный errors[] для одного и того же входа.
func NormalizeActivity(raw interface{}, index int) (*domain.Activity, []domain.MappingError) {
	var errs []domain.MappingError

	obj, ok := raw.(map[string]interface{})
	if !ok || obj == nil {
		errs = append(errs, domain.MappingError{
			Code:    domain.CodeInvalidActivityObject,
			Message: "activity is not a JSON object",
			Value:   raw,
			Index:   &index,
		})
		return nil, errs
	}

	activity := &domain.Activity{
		PriceCurrency: domain.DefaultPriceCurrency,
		PriceUnit:     domain.DefaultPriceUnit,
		ActivityURL:   domain.DefaultActivityURL,
	}

	// Название: name, затем title
	title := firstString(obj, "name", "title")
	if title == "" {
		errs = append(errs, domain.MappingError{
			Code:    domain.CodeMissingTitle,
			Message: "activity has neither name nor title",
			Field:   "title",
			Index:   &index,
		})
	}
	activity.Title = title

	// Ссылка на активность: activity_url, затем url; "#" - допустимый sentinel
	if rawURL := firstString(obj, "activity_url", "url"); rawURL != "" {
		if rawURL == domain.DefaultActivityURL || isAbsoluteURL(rawURL) {
			activity.ActivityURL = rawURL
		} else {
			errs = append(errs, domain.MappingError{
				Code:    domain.CodeInvalidURL,
				Message: "activity_url is not an absolute URL",
				Field:   "activity_url",
				Value:   rawURL,
				Index:   &index,
			})
		}
	}

	// Числовые поля с коэрцией через ParseCoordinate
	activity.RatingAverage = numberField(obj, "rating_average", index, &errs)
	activity.RatingCount = int(numberField(obj, "rating_count", index, &errs))
	activity.PriceValue = numberField(obj, "price_value", index, &errs)
	activity.DurationMinHours = numberField(obj, "duration_min_hours", index, &errs)

	// Рейтинг вне [0,5] логируется, но не клампится: отображаем как есть
	if _, present := obj["rating_average"]; present {
		if activity.RatingAverage < 0 || activity.RatingAverage > 5 {
			errs = append(errs, domain.MappingError{
				Code:    domain.CodeInvalidRating,
				Message: fmt.Sprintf("rating_average %v is outside [0,5]", activity.RatingAverage),
				Field:   "rating_average",
				Value:   activity.RatingAverage,
				Index:   &index,
			})
		}
	}

	// Валюта и единица цены: непустая строка или значение по умолчанию
	if currency := firstString(obj, "price_currency"); currency != "" {
		activity.PriceCurrency = currency
	}
	if unit := firstString(obj, "price_unit"); unit != "" {
		activity.PriceUnit = unit
	}

	// Картинка: невалидная становится nil, пустой строки не бывает
	if rawImage, present := obj["image_url"]; present && rawImage != nil {
		if img, valid := sanitizeImageURL(rawImage); valid {
			activity.ImageURL = &img
		} else {
			errs = append(errs, domain.MappingError{
				Code:    domain.CodeInvalidImageURL,
				Message: "image_url rejected, falling back to no image",
				Field:   "image_url",
				Value:   rawImage,
				Index:   &index,
			})
		}
	}

	activity.Coordinates = resolveCoordinates(obj)
	activity.MeetingPoint = resolveMeetingPoint(obj)

	for _, e := range errs {
		if e.IsBlocking() {
			return nil, errs
		}
	}
	return activity, errs
}

// firstString возвращает первое присутствующее непустое строковое значение
// из перечисленных ключей
func firstString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

// numberField коэрцирует числовое поле. Отсутствующее или null-поле - молча 0;
// присутствующее, но нечисловое - неблокирующий INVALID_NUMBER и 0.
func numberField(obj map[string]interface{}, key string, index int, errs *[]domain.MappingError) float64 {
	v, present := obj[key]
	if !present || v == nil {
		return 0
	}

	parsed, ok := coerceNumber(v)
	if !ok || (parsed < 0 && key != "rating_average") {
		*errs = append(*errs, domain.MappingError{
			Code:    domain.CodeInvalidNumber,
			Message: fmt.Sprintf("%s is not a valid number", key),
			Field:   key,
			Value:   v,
			Index:   &index,
		})
		return 0
	}
	return parsed
}

// coerceNumber проверяет, что значение числовое, и приводит его к float64
// той же коэрцией, что и координаты
func coerceNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64, float32, int, int64, json.Number:
		return utils.ParseCoordinate(v), true
	case string:
		normalized := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		if _, err := strconv.ParseFloat(normalized, 64); err != nil {
			return 0, false
		}
		return utils.ParseCoordinate(v), true
	}
	return 0, false
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.IsAbs() && u.Host != ""
}

// sanitizeImageURL фильтрует ссылку на картинку. Отклоняются: пустые строки,
// ссылки с трекинговым параметром ranking_uuid=, пути tour_img/ не с
// доверенного CDN и всё, что не является абсолютным http(s)-URL.
func sanitizeImageURL(raw interface{}) (string, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", false
	}
	if strings.Contains(trimmed, "ranking_uuid=") {
		return "", false
	}
	if strings.Contains(trimmed, "tour_img/") && !strings.Contains(trimmed, trustedImageCDN) {
		return "", false
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		return "", false
	}
	if !isAbsoluteURL(trimmed) {
		return "", false
	}
	return trimmed, true
}

// resolveCoordinates пробует источники координат по порядку: вложенный объект
// coordinates, плоские поля, пара meeting_point. Побеждает первый кандидат,
// у которого обе компоненты ненулевые и в допустимом диапазоне.
func resolveCoordinates(obj map[string]interface{}) *domain.Coordinates {
	// (a) вложенный объект
	if nested, ok := obj["coordinates"].(map[string]interface{}); ok {
		lat := utils.ParseCoordinate(firstValue(nested, "lat", "latitude"))
		lon := utils.ParseCoordinate(firstValue(nested, "lon", "lng", "longitude"))
		if coordPairValid(lat, lon) {
			return &domain.Coordinates{Lat: lat, Lon: lon}
		}
	}

	// (b) плоские поля верхнего уровня
	lat := utils.ParseCoordinate(firstValue(obj, "latitude", "lat"))
	lon := utils.ParseCoordinate(firstValue(obj, "longitude", "lon", "lng"))
	if coordPairValid(lat, lon) {
		return &domain.Coordinates{Lat: lat, Lon: lon}
	}

	// (c) пара meeting_point
	if mp := resolveMeetingPoint(obj); mp != nil {
		if coordPairValid(mp[0], mp[1]) {
			return &domain.Coordinates{Lat: mp[0], Lon: mp[1]}
		}
	}

	return nil
}

// resolveMeetingPoint извлекает сырую пару [lat, lon] из meeting_point,
// независимо от разрешения Coordinates
func resolveMeetingPoint(obj map[string]interface{}) []float64 {
	arr, ok := obj["meeting_point"].([]interface{})
	if !ok || len(arr) != 2 {
		return nil
	}

	lat := utils.ParseCoordinate(arr[0])
	lon := utils.ParseCoordinate(arr[1])
	if lat == 0 || lon == 0 {
		return nil
	}
	return []float64{lat, lon}
}

func coordPairValid(lat, lon float64) bool {
	return lat != 0 && lon != 0 && utils.ValidateCoordinates(lat, lon)
}

func firstValue(obj map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			return v
		}
	}
	return nil
}
