// Seeder plays one scripted game against a running server and submits a
// high score, exercising the full round flow end to end. Useful for manual
// smoke testing and for populating a fresh leaderboard.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

type point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type snapshot struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	Round       int    `json:"round"`
	TotalRounds int    `json:"totalRounds"`
	Target      *point `json:"target"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	player := flag.String("player", "Seeder", "player name to record")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	api := *baseURL + "/api/v1"

	var snap snapshot
	post(client, api+"/games", nil, &snap)
	log.Printf("Started game %s (%d rounds)", snap.ID, snap.TotalRounds)

	for {
		// Pretend the panorama snapped 30m east of the requested point,
		// then guess right on top of it.
		resolved := point{Lat: snap.Target.Lat, Lng: snap.Target.Lng + 0.00044}
		post(client, fmt.Sprintf("%s/games/%s/location", api, snap.ID),
			map[string]interface{}{"round": snap.Round, "lat": resolved.Lat, "lng": resolved.Lng}, nil)
		post(client, fmt.Sprintf("%s/games/%s/guess", api, snap.ID),
			map[string]interface{}{"lat": resolved.Lat, "lng": resolved.Lng}, nil)
		post(client, fmt.Sprintf("%s/games/%s/confirm", api, snap.ID), nil, nil)

		post(client, fmt.Sprintf("%s/games/%s/advance", api, snap.ID), nil, &snap)
		log.Printf("Round advanced: state=%s round=%d", snap.State, snap.Round)
		if snap.State != "awaiting_location" {
			break
		}
	}

	var result map[string]interface{}
	post(client, fmt.Sprintf("%s/games/%s/player", api, snap.ID),
		map[string]string{"playerName": *player}, &result)
	log.Printf("Submitted player %q: %v", *player, result)
}

func post(client *http.Client, url string, payload interface{}, out interface{}) {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("Failed to marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	resp, err := client.Post(url, "application/json", body)
	if err != nil {
		log.Fatalf("POST %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Fatalf("POST %s: unexpected status %s", url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("POST %s: bad response: %v", url, err)
		}
	}
}
