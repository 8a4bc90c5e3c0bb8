// Command smoke walks a running server through a full session: login,
// profile reads, refresh and logout. With -redis it also checks the keys the
// server leaves behind at each step.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"

	"boutique/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

type stepResult struct {
	Step         string        `json:"step"`
	Status       int           `json:"status"`
	ResponseTime time.Duration `json:"response_time"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
}

type suite struct {
	baseURL string
	client  *http.Client
	redis   *redis.Client
	userID  string
	results []stepResult
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api", "API base URL")
	email := flag.String("email", "client@boutique.fr", "account to log in with")
	password := flag.String("password", "motdepasse123", "account password")
	redisAddr := flag.String("redis", "", "Redis address; empty skips key checks")
	flag.Parse()

	jar, err := cookiejar.New(nil)
	if err != nil {
		log.Fatalf("cookie jar: %v", err)
	}
	s := &suite{
		baseURL: *baseURL,
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
	if *redisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: *redisAddr})
		defer s.redis.Close()
		if err := s.redis.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
	}

	var login struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	s.step("login", http.MethodPost, "/auth/login", map[string]string{"email": *email, "password": *password}, http.StatusOK, &login)
	s.userID = login.User.ID

	s.step("me (cold)", http.MethodGet, "/auth/me", nil, http.StatusOK, nil)
	s.expectKey(constants.BuildUserProfileKey(s.userID), true)
	s.step("me (cached)", http.MethodGet, "/auth/me", nil, http.StatusOK, nil)
	s.expectKey(constants.BuildRefreshTokenKey(s.userID), true)

	s.step("refresh", http.MethodPost, "/auth/refresh", nil, http.StatusOK, nil)
	s.step("logout", http.MethodPost, "/auth/logout", nil, http.StatusOK, nil)
	s.expectKey(constants.BuildUserProfileKey(s.userID), false)
	s.expectKey(constants.BuildRefreshTokenKey(s.userID), false)

	s.step("refresh after logout", http.MethodPost, "/auth/refresh", nil, http.StatusUnauthorized, nil)

	if !s.report() {
		os.Exit(1)
	}
}

func (s *suite) step(name, method, path string, body interface{}, want int, out interface{}) {
	var payload io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		payload = bytes.NewReader(raw)
	}

	result := stepResult{Step: name}
	req, err := http.NewRequest(method, s.baseURL+path, payload)
	if err != nil {
		result.Error = err.Error()
		s.record(result)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	result.ResponseTime = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		s.record(result)
		return
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	result.Success = resp.StatusCode == want
	if !result.Success {
		result.Error = fmt.Sprintf("HTTP %d, want %d", resp.StatusCode, want)
	}
	if out != nil && result.Success {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			result.Success = false
			result.Error = err.Error()
		}
	}
	s.record(result)
}

// expectKey is a no-op without -redis. The Redis refresh key only exists
// when the server runs with REFRESH_STORE=redis.
func (s *suite) expectKey(key string, present bool) {
	if s.redis == nil || s.userID == "" {
		return
	}
	n, err := s.redis.Exists(context.Background(), key).Result()
	result := stepResult{Step: "redis " + key, Success: err == nil && (n == 1) == present}
	if err != nil {
		result.Error = err.Error()
	} else if !result.Success {
		result.Error = fmt.Sprintf("exists=%d, want present=%t", n, present)
	}
	s.record(result)
}

func (s *suite) record(r stepResult) {
	mark := "ok  "
	if !r.Success {
		mark = "FAIL"
	}
	fmt.Printf("%s %-60s %v %s\n", mark, r.Step, r.ResponseTime, r.Error)
	s.results = append(s.results, r)
}

func (s *suite) report() bool {
	passed := 0
	for _, r := range s.results {
		if r.Success {
			passed++
		}
	}
	fmt.Printf("\n%d/%d steps passed\n", passed, len(s.results))
	return passed == len(s.results)
}
