package domain

// Коды ошибок маппинга сырых активностей. Ошибки - данные, а не исключения:
// они накапливаются за один проход пайплайна и отдаются вызывающему вместе
// с результатом.
const (
	// Структурные (уровень всего payload)
	CodeNoData            = "NO_DATA"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidResultType = "INVALID_RESULT_TYPE"

	// Блокирующие (запись целиком отбрасывается)
	CodeInvalidActivityObject = "INVALID_ACTIVITY_OBJECT"
	CodeMissingTitle          = "MISSING_TITLE"
	CodeInvalidURL            = "INVALID_URL"

	// Неблокирующие (поле заменяется значением по умолчанию)
	CodeInvalidNumber   = "INVALID_NUMBER"
	CodeInvalidRating   = "INVALID_RATING"
	CodeInvalidImageURL = "INVALID_IMAGE_URL"

	// Катастрофические (перехвачены границей пайплайна)
	CodeMappingError  = "MAPPING_ERROR"
	CodeCriticalError = "CRITICAL_ERROR"
)

// Значения по умолчанию для полей активности
const (
	DefaultPriceCurrency = "EUR"
	DefaultPriceUnit     = "Person"
	DefaultActivityURL   = "#"
)

// Coordinates - разрешённая пара координат активности
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Activity - валидированная, готовая к отображению запись активности.
// Инвариант: Activity конструируется только нормализатором; частично
// провалидированные записи за границу пайплайна не выходят.
type Activity struct {
	Title            string       `json:"title"`
	RatingAverage    float64      `json:"rating_average"`
	RatingCount      int          `json:"rating_count"`
	PriceValue       float64      `json:"price_value"`
	PriceCurrency    string       `json:"price_currency"`
	PriceUnit        string       `json:"price_unit"`
	DurationMinHours float64      `json:"duration_min_hours"`
	ActivityURL      string       `json:"activity_url"`
	ImageURL         *string      `json:"image_url"` // nil = "нет картинки", пустой строки не бывает
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
	MeetingPoint     []float64    `json:"meeting_point,omitempty"` // сырая пара [lat, lon], независимо от Coordinates
}

// HasCoordinates сообщает, разрешена ли у активности валидная ненулевая пара координат
func (a *Activity) HasCoordinates() bool {
	return a.Coordinates != nil
}

// MappingError - нефатальная ошибка нормализации одной записи или всего payload
type MappingError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Field   string      `json:"field,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Index   *int        `json:"index,omitempty"`
}

// IsBlocking сообщает, отбрасывает ли эта ошибка запись целиком
func (e MappingError) IsBlocking() bool {
	switch e.Code {
	case CodeInvalidActivityObject, CodeMissingTitle, CodeInvalidURL:
		return true
	}
	return false
}

// IngestResult - результат одного прогона пайплайна над payload
type IngestResult struct {
	Activities []Activity     `json:"activities"`
	Errors     []MappingError `json:"errors"`
	HasErrors  bool           `json:"has_errors"`
}
