// Command coursectl is a developer CLI for the coursechat API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/capitalize-ai/coursechat/internal/auth"
	"github.com/capitalize-ai/coursechat/internal/config"
	"github.com/capitalize-ai/coursechat/internal/model"
)

func main() {
	app := &cli.App{
		Name:  "coursectl",
		Usage: "coursechat developer CLI",
		Commands: []*cli.Command{
			{
				Name:  "token",
				Usage: "mint a session token for a mock user",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "role",
						Value: string(model.RoleStudent),
						Usage: "user role: student or professor",
					},
				},
				Action: runToken,
			},
			{
				Name:  "courses",
				Usage: "list courses from a running server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Value:   "http://localhost:8080",
						Usage:   "coursechat API base URL",
						EnvVars: []string{"COURSECHAT_API_URL"},
					},
					&cli.StringFlag{
						Name:     "token",
						Usage:    "session token",
						EnvVars:  []string{"COURSECHAT_TOKEN"},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "search",
						Usage: "filter by name, code or department",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Value: 10 * time.Second,
						Usage: "request timeout",
					},
				},
				Action: runCourses,
			},
			{
				Name:   "config",
				Usage:  "print the configuration the server would load",
				Action: runConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runToken(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	token, expires, err := mintToken(c.Context, cfg, model.UserRole(c.String("role")))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)
	fmt.Fprintf(c.App.ErrWriter, "expires %s\n", expires.Format(time.RFC3339))
	return nil
}

// mintToken signs a token for the mock user of role with the server's secret.
func mintToken(ctx context.Context, cfg *config.Config, role model.UserRole) (string, time.Time, error) {
	user, err := auth.NewSSO(0).Login(ctx, role)
	if err != nil {
		return "", time.Time{}, err
	}
	return auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiration).Issue(user)
}

func runCourses(c *cli.Context) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	courses, err := fetchCourses(ctx, http.DefaultClient, c.String("api-url"), c.String("token"), c.String("search"))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tNAME\tPROFESSOR")
	for _, course := range courses.Courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", course.ID, course.Code, course.Name, course.Professor)
	}
	return tw.Flush()
}

func fetchCourses(ctx context.Context, client *http.Client, apiURL, token, search string) (*model.ListCoursesResponse, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	u = u.JoinPath("api", "v1", "courses")
	if search != "" {
		u.RawQuery = url.Values{"search": {search}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, body)
	}

	var out model.ListCoursesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func runConfig(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.JWTSecret = "********"
	cfg.NATSToken = ""

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
