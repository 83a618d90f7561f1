// Command shadow_compare replays a set of read-only requests against the
// legacy Express API and this service, then reports status and body
// differences. Used during the cutover to catch contract drift before
// traffic moves over.
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
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type endpoint struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type manifest struct {
	Endpoints []endpoint `json:"endpoints"`
}

type result struct {
	Endpoint       endpoint
	LegacyStatus   int
	NewStatus      int
	StatusMatch    bool
	BodyMatch      bool
	Err            error
	NewDuration    time.Duration
	LegacyDuration time.Duration
}

// volatileFields change between the two backends on every run and are
// stripped before comparing bodies.
var volatileFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"token":      true,
	"expiresAt":  true,
}

func main() {
	var (
		newBase      string
		legacyBase   string
		manifestPath string
		token        string
		timeout      time.Duration
	)

	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "new API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:5000", "legacy API base URL")
	flag.StringVar(&manifestPath, "manifest", filepath.Join("scripts", "shadow_compare", "endpoints.json"), "path to the endpoint manifest")
	flag.StringVar(&token, "token", "", "bearer token sent to both backends")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	endpoints, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("failed to load manifest: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results      []result
		breaking     int
		optionalDiff int
	)

	for _, ep := range endpoints {
		res := compare(client, newBase, legacyBase, token, ep)
		if res.Err != nil || !res.StatusMatch || !res.BodyMatch {
			if ep.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		results = append(results, res)
	}

	printReport(results)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadManifest(path string) ([]endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints defined in %s", path)
	}
	return m.Endpoints, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, ep endpoint) result {
	res := result{Endpoint: ep}

	newBody, newStatus, newDur, err := fetch(client, newBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("new request failed: %w", err)
		return res
	}
	legacyBody, legacyStatus, legacyDur, err := fetch(client, legacyBase, token, ep)
	if err != nil {
		res.Err = fmt.Errorf("legacy request failed: %w", err)
		return res
	}

	res.NewStatus = newStatus
	res.LegacyStatus = legacyStatus
	res.NewDuration = newDur
	res.LegacyDuration = legacyDur
	res.StatusMatch = newStatus == legacyStatus
	res.BodyMatch = bodiesEqual(newBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token string, ep endpoint) ([]byte, int, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(ep.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := ep.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, err
	}
	return body, resp.StatusCode, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range val {
			if volatileFields[k] {
				delete(val, k)
			}
		}
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []result) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Endpoint.Method, res.Endpoint.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  New: %d (%s) | Legacy: %d (%s)\n", res.NewStatus, res.NewDuration, res.LegacyStatus, res.LegacyDuration)
		fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Endpoint.Critical)
	}
}
