package models

// Standing - строка таблицы результатов по одному виду выступления.
type Standing struct {
	CompetitorID   string  `json:"competitorId"`
	CompetitorName string  `json:"competitorName"`
	TotalScore     int     `json:"totalScore"`
	BallotCount    int     `json:"ballotCount"`
	AverageScore   float64 `json:"averageScore"`
	Rank           int     `json:"rank"`
}

// EventLeaderboard - таблица результатов одного вида выступления.
type EventLeaderboard struct {
	EventTypeID   int        `json:"eventTypeId"`
	EventTypeName string     `json:"eventTypeName"`
	Competitors   []Standing `json:"competitors"`
}
