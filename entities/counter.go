package entities

// Counter is a maintained row count, updated in the same transaction as the
// insert or delete it tracks, never recomputed by scanning.
type Counter struct {
	Name  string `json:"name" gorm:"type:text;primary_key"`
	Count int64  `json:"count" gorm:"not null;default:0"`
}

func (Counter) TableName() string {
	return "counters"
}
