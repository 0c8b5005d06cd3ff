package entity

type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}
