package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	token := os.Getenv("SMOKE_TOKEN")
	if token == "" {
		color.Red("SMOKE_TOKEN env var is required (a JWT with workspace_id, role, permissions)")
		os.Exit(1)
	}

	color.Cyan("🚀 Starting Search API Smoke Test\n")

	// 1. Ingest a material so the catalog isn't empty
	color.Yellow("\n[INGEST] 1. Create a material")
	materialReq := map[string]interface{}{
		"name":          "Terra Taupe 60x60",
		"material_type": "porcelain",
		"description":   "Matte porcelain floor tile in warm taupe",
		"price_amount":  42.5,
		"currency":      "EUR",
		"available":     true,
		"metadata": map[string]interface{}{
			"colors":     []string{"taupe", "sand"},
			"dimensions": "60x60",
		},
	}
	resp, body, err := sendRequest("POST", "/ingest/v1/material", token, materialReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var ingestResp map[string]interface{}
	json.Unmarshal(body, &ingestResp)
	prettyPrint(ingestResp)

	// Give the embed consumer a moment
	time.Sleep(3 * time.Second)

	// 2. Quick search
	color.Yellow("\n[SEARCH] 2. Quick mode")
	searchReq := map[string]interface{}{
		"query": "warm taupe porcelain tile",
		"mode":  "quick",
	}
	resp, body, err = sendRequest("POST", "/search/v1", token, searchReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var searchResp map[string]interface{}
	json.Unmarshal(body, &searchResp)
	prettyPrint(searchResp)

	// 3. Same request again, should be served from cache
	color.Yellow("\n[SEARCH] 3. Quick mode repeat (cache hit expected)")
	resp, body, err = sendRequest("POST", "/search/v1", token, searchReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	json.Unmarshal(body, &searchResp)
	prettyPrint(searchResp)

	// 4. Detailed search with filters
	color.Yellow("\n[SEARCH] 4. Detailed mode with filters")
	detailedReq := map[string]interface{}{
		"query": "compare porcelain tiles under 50 euro",
		"mode":  "detailed",
		"filters": map[string]interface{}{
			"material_types": []string{"porcelain"},
			"price_max":      50.0,
		},
		"max_results": 5,
	}
	resp, body, err = sendRequest("POST", "/search/v1", token, detailedReq)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	json.Unmarshal(body, &searchResp)
	prettyPrint(searchResp)

	color.Cyan("\n✅ Smoke test finished")
}
