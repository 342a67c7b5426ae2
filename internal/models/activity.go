package models

import "time"

// ActivityEntry запись журнала действий пользователя или администратора.
type ActivityEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Role      Role      `json:"role"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// TestAttempt результат прохождения еженедельного теста.
type TestAttempt struct {
	TestID         string         `json:"testId"`
	TestName       string         `json:"testName"`
	UserID         string         `json:"userId"`
	UserName       string         `json:"userName"`
	StartedAt      time.Time      `json:"startedAt"`
	SubmittedAt    time.Time      `json:"submittedAt"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        map[string]int `json:"answers"`
}
