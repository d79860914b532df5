// Command shadow_compare replays read-only API calls against the legacy
// NestJS backend and this service in parallel and reports status and body
// diffs, used during the cutover to validate response parity.
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

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type targetsFile struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	NewStatus      int
	StatusMatch    bool
	BodyMatch      bool
	Err            error
	DurationNew    time.Duration
	DurationLegacy time.Duration
}

// defaultTargets covers the read surface exercised during cutover when no
// targets file is supplied.
var defaultTargets = []target{
	{Method: "GET", Path: "/health", Critical: true},
	{Method: "GET", Path: "/careers", Critical: true},
	{Method: "GET", Path: "/subjects", Critical: true},
	{Method: "GET", Path: "/periods", Critical: true},
	{Method: "GET", Path: "/career-subjects", Critical: true},
	{Method: "GET", Path: "/enrollments", Critical: true},
	{Method: "GET", Path: "/submission-logs", Critical: false},
}

func main() {
	var (
		newBase     string
		legacyBase  string
		targetsPath string
		bearerToken string
		timeout     time.Duration
	)

	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "new API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "legacy API base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "path to JSON targets file (optional)")
	flag.StringVar(&bearerToken, "token", "", "bearer token attached to every request")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("failed to load targets: %v", err)
		}
		targets = defaultTargets
	}

	client := &http.Client{Timeout: timeout}
	var (
		results      []comparison
		breaking     int
		optionalDiff int
	)

	for _, tgt := range targets {
		comp := compareTarget(client, newBase, legacyBase, bearerToken, tgt)
		if comp.Err != nil || !comp.StatusMatch || !comp.BodyMatch {
			if tgt.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		results = append(results, comp)
	}

	printReport(results)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg targetsFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, newBase, legacyBase, token string, tgt target) comparison {
	comp := comparison{Target: tgt}

	newResp, newDur, err := performRequest(client, newBase, token, tgt)
	if err != nil {
		comp.Err = fmt.Errorf("new api request failed: %w", err)
		return comp
	}
	defer newResp.Body.Close()

	legacyResp, legacyDur, err := performRequest(client, legacyBase, token, tgt)
	if err != nil {
		comp.Err = fmt.Errorf("legacy request failed: %w", err)
		return comp
	}
	defer legacyResp.Body.Close()

	comp.DurationNew = newDur
	comp.DurationLegacy = legacyDur
	comp.NewStatus = newResp.StatusCode
	comp.LegacyStatus = legacyResp.StatusCode
	comp.StatusMatch = comp.NewStatus == comp.LegacyStatus

	newBody, err := io.ReadAll(newResp.Body)
	if err != nil {
		comp.Err = fmt.Errorf("read new api body: %w", err)
		return comp
	}
	legacyBody, err := io.ReadAll(legacyResp.Body)
	if err != nil {
		comp.Err = fmt.Errorf("read legacy body: %w", err)
		return comp
	}

	comp.BodyMatch = bodiesEqual(newBody, legacyBody)
	return comp
}

func performRequest(client *http.Client, base, token string, tgt target) (*http.Response, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

// bodiesEqual compares bodies byte-wise first, then falls back to a
// normalized JSON comparison so integer-valued floats and key order do not
// count as diffs.
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

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  New: %d (%s) | Legacy: %d (%s)\n", res.NewStatus, res.DurationNew, res.LegacyStatus, res.DurationLegacy)
		fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
