package models

// Issue выпуск рассылки.
type Issue struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
	Text  string `json:"text"`
}
