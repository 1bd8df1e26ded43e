package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// Session is what login stores on disk.
type Session struct {
	Subject string `json:"subject"`
	Token   string `json:"token"`
	Role    string `json:"role"`
}

func loginCmd() *cobra.Command {
	var role, email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the API and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "tenant" && role != "landlord" {
				return fmt.Errorf("--role must be tenant or landlord")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			data, _ := json.Marshal(map[string]string{"email": email, "password": password})
			resp, err := http.Post(getAPIURL()+"/api/"+role+"/login", "application/json", bytes.NewReader(data))
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			var result struct {
				Session struct {
					UserID      string `json:"userId"`
					AccessToken string `json:"accessToken"`
				} `json:"session"`
				Error string `json:"error"`
			}
			json.NewDecoder(resp.Body).Decode(&result)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("✗ login failed: %s", result.Error)
			}

			if err := saveSession(Session{Subject: result.Session.UserID, Token: result.Session.AccessToken, Role: role}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s (%s)\n", email, role)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "tenant", "account type: tenant or landlord")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func propertiesCmd() *cobra.Command {
	var city string
	var mine bool
	cmd := &cobra.Command{
		Use:   "properties",
		Short: "List public listings, or your own with --mine",
		RunE: func(cmd *cobra.Command, args []string) error {
			var props []map[string]interface{}
			if mine {
				req, _ := http.NewRequest(http.MethodGet, getAPIURL()+"/api/landlord/properties", nil)
				if err := addAuthHeaders(req); err != nil {
					return err
				}
				if err := doJSON(req, &props); err != nil {
					return err
				}
			} else {
				q := url.Values{}
				if city != "" {
					q.Set("city", city)
				}
				req, _ := http.NewRequest(http.MethodGet, getAPIURL()+"/api/properties?"+q.Encode(), nil)
				var page struct {
					Properties []map[string]interface{} `json:"properties"`
				}
				if err := doJSON(req, &page); err != nil {
					return err
				}
				props = page.Properties
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tPRICE\tLEASED")
			for _, p := range props {
				fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", p["id"], p["title"], p["price"], p["isLeased"])
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&city, "city", "", "filter by city")
	cmd.Flags().BoolVar(&mine, "mine", false, "list the logged-in landlord's listings")
	return cmd
}

func doJSON(req *http.Request, dst interface{}) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("request failed (%d): %s", resp.StatusCode, e.Error)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// Helper functions
func getAPIURL() string {
	if u := os.Getenv("RENTMATCH_API"); u != "" {
		return strings.TrimRight(u, "/")
	}
	return "http://localhost:8080"
}

func sessionFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rentmatch", "session.json")
}

func saveSession(s Session) error {
	if err := os.MkdirAll(filepath.Dir(sessionFile()), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(sessionFile(), data, 0600)
}

func loadSession() (Session, error) {
	var s Session
	data, err := os.ReadFile(sessionFile())
	if err != nil {
		return s, fmt.Errorf("not logged in: run rentmatch login")
	}
	return s, json.Unmarshal(data, &s)
}

func addAuthHeaders(req *http.Request) error {
	s, err := loadSession()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("x-supabase-id", s.Subject)
	return nil
}
