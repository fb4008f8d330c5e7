// Command schedule_verify replays a solve request against a running API
// instance and checks the returned schedule for constraint violations. It is
// a deployment smoke check, not a test: run it against staging after an
// engine or constraint change.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type solveInput struct {
	Projects []struct {
		ProjectID         string `json:"project_id"`
		RequiredPanelists int    `json:"required_panelists"`
	} `json:"projects"`
	Availability map[string]map[string]bool `json:"availability"`
}

type scheduleEntry struct {
	ProjectID string `json:"project_id"`
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Room      string `json:"room"`
	Panelists string `json:"panelists"`
}

type solveEnvelope struct {
	Data struct {
		RunID  string `json:"run_id"`
		Result struct {
			Success  bool            `json:"success"`
			Schedule []scheduleEntry `json:"schedule"`
		} `json:"result"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080/api/v1", "API base URL")
	token := flag.String("token", "", "bearer token for the defense endpoints")
	inputPath := flag.String("input", "", "path to a solve request JSON file")
	timeout := flag.Duration("timeout", 6*time.Minute, "request timeout")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("-input is required")
	}
	payload, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	var input solveInput
	if err := json.Unmarshal(payload, &input); err != nil {
		log.Fatalf("parse input: %v", err)
	}

	client := &http.Client{Timeout: *timeout}
	req, err := http.NewRequest(http.MethodPost, *baseURL+"/defense/solve", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("solve request: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("read response: %v", err)
	}

	var envelope solveEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		log.Fatalf("parse response (%d): %v", resp.StatusCode, err)
	}
	if envelope.Error != nil && !envelope.Data.Result.Success {
		log.Printf("solve failed (%s): %s", envelope.Error.Code, envelope.Error.Message)
		os.Exit(1)
	}

	violations := verify(input, envelope.Data.Result.Schedule)
	for _, v := range violations {
		fmt.Fprintln(os.Stderr, "VIOLATION:", v)
	}
	if len(violations) > 0 {
		os.Exit(1)
	}
	fmt.Printf("run %s: %d defenses verified in %s\n",
		envelope.Data.RunID, len(envelope.Data.Result.Schedule), time.Since(started).Round(time.Millisecond))
}

// verify re-checks the schedule invariants the solver is supposed to hold.
func verify(input solveInput, schedule []scheduleEntry) []string {
	var violations []string

	seen := make(map[string]int)
	for _, entry := range schedule {
		seen[entry.ProjectID]++
	}
	for _, project := range input.Projects {
		if seen[project.ProjectID] != 1 {
			violations = append(violations,
				fmt.Sprintf("project %s scheduled %d times", project.ProjectID, seen[project.ProjectID]))
		}
	}

	busy := make(map[string]string)
	rooms := make(map[string]string)
	for _, entry := range schedule {
		bucket := entry.Date + "|" + entry.Time
		roomKey := bucket + "|" + entry.Room
		if other, ok := rooms[roomKey]; ok {
			violations = append(violations,
				fmt.Sprintf("room %s double-booked at %s by %s and %s", entry.Room, bucket, other, entry.ProjectID))
		}
		rooms[roomKey] = entry.ProjectID

		for _, panelist := range strings.Split(entry.Panelists, ",") {
			panelist = strings.TrimSpace(panelist)
			if panelist == "" {
				continue
			}
			key := bucket + "|" + panelist
			if other, ok := busy[key]; ok {
				violations = append(violations,
					fmt.Sprintf("panelist %s double-booked at %s by %s and %s", panelist, bucket, other, entry.ProjectID))
			}
			busy[key] = entry.ProjectID

			if row, ok := input.Availability[panelist]; ok && !row[entry.SlotID] {
				violations = append(violations,
					fmt.Sprintf("panelist %s not available in slot %s (project %s)", panelist, entry.SlotID, entry.ProjectID))
			}
		}
	}
	return violations
}
