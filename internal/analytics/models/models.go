package models

import (
	"math"
	"time"
)

// Rollup windows.
const (
	Window24h = 24 * time.Hour
	Window7d  = 7 * 24 * time.Hour
	Window30d = 30 * 24 * time.Hour
)

// Snapshot is one on-demand analytics computation.
type Snapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`

	TotalUsers       int `json:"totalUsers"`
	VerifiedUsers    int `json:"verifiedUsers"`
	NonVerifiedUsers int `json:"nonVerifiedUsers"`

	RecentActivity24h int `json:"recentActivity24h"`
	RecentActivity7d  int `json:"recentActivity7d"`
	RecentActivity30d int `json:"recentActivity30d"`

	// VerificationRate is the 30d verified share as a percentage, 2 decimals.
	VerificationRate    float64              `json:"verificationRate"`
	RecentVerifications []RecentVerification `json:"recentVerifications"`
	StatusDistribution  map[string]int       `json:"statusDistribution"`

	Submissions SubmissionStats `json:"submissions"`
}

// RecentVerification is a verified ledger entry.
type RecentVerification struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ScoreBin  string    `json:"scoreBin,omitempty"`
}

// SubmissionStats flags patterns typical of spam or fabricated reports.
type SubmissionStats struct {
	Total                        int                    `json:"totalSubmissions"`
	FromVerifiedUsers            int                    `json:"verifiedSubmissions"`
	Pending                      int                    `json:"pendingSubmissions"`
	LowQuality                   int                    `json:"lowQualitySubmissions"`
	Generic                      int                    `json:"genericSubmissions"`
	BotAgents                    int                    `json:"botAgentSubmissions"`
	UsersWithMultipleSubmissions []UserSubmissions      `json:"usersWithMultipleSubmissions"`
	HighFrequencyUsers           []UserSubmissions      `json:"highFrequencyUsers"`
	SuspiciousNonVerifiedUsers   []UserSubmissions      `json:"suspiciousNonVerifiedUsers"`
	DuplicateDescriptions        []DuplicateDescription `json:"duplicateDescriptions"`
	SubmissionsByDay             []DailySubmissions     `json:"submissionsByDay"`
}

// DuplicateDescription is a report text submitted more than once.
type DuplicateDescription struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
	UniqueUsers int    `json:"uniqueUsers"`
}

type UserSubmissions struct {
	UserID          string `json:"userId"`
	SubmissionCount int    `json:"submissionCount"`
}

type DailySubmissions struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Rate returns part/total as a percentage rounded to two decimals, or 0 when total is 0.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(part) / float64(total) * 100
	return math.Round(pct*100) / 100
}
