package macrocrm

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scholarship-telegram-bot/internal/domain"
)

// Client pushes submitted applications to MacroCRM (SberCRM) as requests.
type Client struct {
	// BaseURL defaults to https://api.macro.sbercrm.com
	BaseURL    string
	Domain     string
	AppSecret  string
	Action     string
	HTTPClient *http.Client
	now        func() time.Time
}

func NewClient(domain, appSecret string, opts ...func(*Client)) *Client {
	c := &Client{
		BaseURL:    "https://api.macro.sbercrm.com",
		Domain:     domain,
		AppSecret:  appSecret,
		Action:     "question",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithBaseURL(baseURL string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(baseURL) != "" {
			c.BaseURL = baseURL
		}
	}
}

func WithAction(action string) func(*Client) {
	return func(c *Client) {
		if strings.TrimSpace(action) != "" {
			c.Action = action
		}
	}
}

func WithHTTPClient(hc *http.Client) func(*Client) {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// SendApplication creates a CRM request carrying the applicant contacts and a readable summary.
func (c *Client) SendApplication(ctx context.Context, app domain.Application) error {
	if c == nil {
		return errors.New("macrocrm client is nil")
	}
	if strings.TrimSpace(c.Domain) == "" || strings.TrimSpace(c.AppSecret) == "" {
		return errors.New("macrocrm domain/app_secret are not set")
	}
	if strings.TrimSpace(app.Phone) == "" && strings.TrimSpace(app.Email) == "" {
		return errors.New("application has neither phone nor email")
	}

	tsStr := strconv.FormatInt(c.now().Unix(), 10)
	form := url.Values{}
	form.Set("domain", c.Domain)
	form.Set("time", tsStr)
	form.Set("token", md5Hex(c.Domain+tsStr+c.AppSecret))
	form.Set("action", c.Action)

	form.Set("name", app.Name)
	form.Set("phone", app.Phone)
	form.Set("email", app.Email)
	form.Set("message", summary(app))

	endpoint := strings.TrimRight(c.BaseURL, "/") + "/estate/request/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("macrocrm non-2xx: %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func summary(app domain.Application) string {
	gpa := app.GPA
	if gpa == "" {
		gpa = "not provided"
	}
	return fmt.Sprintf("Scholarship application %s from Telegram\n"+
		"Country: %s\nEducation: %s, %s (%s), GPA %s\n"+
		"Desired: %s in %s\nRussian: %s\nPackage: %s (%s)",
		app.ID, app.Country,
		app.EducationLevel, app.SchoolName, app.GraduationYear, gpa,
		app.DesiredLevel, app.PreferredField, app.RussianLevel,
		app.ServicePackage, app.Price)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
