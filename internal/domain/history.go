package domain

import "time"

// SearchRecord - завершённый поиск, сохранённый в истории.
// Сохраняется best-effort после перехода в completed; сбой записи
// не влияет на результат поиска.
type SearchRecord struct {
	ID            string     `json:"id" db:"id"`
	Query         string     `json:"query" db:"query"`
	Address       string     `json:"address" db:"address"`
	Lat           float64    `json:"lat" db:"lat"`
	Lon           float64    `json:"lon" db:"lon"`
	Mode          SearchMode `json:"mode" db:"mode"`
	ActivityCount int        `json:"activity_count" db:"activity_count"`
	Titles        []string   `json:"titles" db:"-"`
	Activities    []Activity `json:"activities,omitempty" db:"-"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
