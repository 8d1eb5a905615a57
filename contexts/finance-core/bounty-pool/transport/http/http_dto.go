package http

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BugRewardsPayload accepts both the structured object form and the legacy
// free-text form ("critical:500,major:200,minor:50"). Parsing stays in the
// transport layer; the core only ever sees the typed structure.
type BugRewardsPayload struct {
	Critical int64
	Major    int64
	Minor    int64
}

func (p *BugRewardsPayload) UnmarshalJSON(data []byte) error {
	var structured struct {
		Critical int64 `json:"critical"`
		Major    int64 `json:"major"`
		Minor    int64 `json:"minor"`
	}
	if err := json.Unmarshal(data, &structured); err == nil && !isJSONString(data) {
		p.Critical = structured.Critical
		p.Major = structured.Major
		p.Minor = structured.Minor
		return nil
	}

	var legacy string
	if err := json.Unmarshal(data, &legacy); err != nil {
		return errors.New("bug_rewards must be an object or a legacy string")
	}
	return p.parseLegacy(legacy)
}

func (p *BugRewardsPayload) parseLegacy(raw string) error {
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		pieces := strings.SplitN(part, ":", 2)
		if len(pieces) != 2 {
			return errors.New("legacy bug_rewards entry must be severity:amount")
		}
		amount, err := strconv.ParseInt(strings.TrimSpace(pieces[1]), 10, 64)
		if err != nil {
			return errors.New("legacy bug_rewards amount must be an integer")
		}
		switch strings.ToLower(strings.TrimSpace(pieces[0])) {
		case "critical":
			p.Critical = amount
		case "major":
			p.Major = amount
		case "minor":
			p.Minor = amount
		default:
			return errors.New("legacy bug_rewards severity must be critical, major, or minor")
		}
	}
	return nil
}

func isJSONString(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, `"`)
}

type FundProjectRequest struct {
	Name        string            `json:"name"`
	TotalBudget int64             `json:"total_budget"`
	BugRewards  BugRewardsPayload `json:"bug_rewards"`
}

type BugRewardsResponse struct {
	Critical int64 `json:"critical"`
	Major    int64 `json:"major"`
	Minor    int64 `json:"minor"`
}

type ProjectResponse struct {
	ProjectID       string             `json:"project_id"`
	Name            string             `json:"name"`
	OwnerID         string             `json:"owner_id"`
	TotalBudget     int64              `json:"total_budget"`
	PlatformFee     int64              `json:"platform_fee"`
	TotalBounty     int64              `json:"total_bounty"`
	RemainingBounty int64              `json:"remaining_bounty"`
	BugRewards      BugRewardsResponse `json:"bug_rewards"`
	Status          string             `json:"status"`
	CreatedAt       string             `json:"created_at"`
}

type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}
