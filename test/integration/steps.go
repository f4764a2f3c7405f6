package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"

	"github.com/confportal/conf-portal-api/pkg/model"
	"github.com/confportal/conf-portal-api/pkg/password"
	gormstore "github.com/confportal/conf-portal-api/pkg/server/store/gorm"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	accessToken  string
	refreshToken string
	vars         map[string]string
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{tc: tc, vars: make(map[string]string)}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the portal is running$`, s.thePortalIsRunning)
	sc.Step(`^a superuser "([^"]*)" with password "([^"]*)"$`, s.aSuperuserWithPassword)
	sc.Step(`^an admin "([^"]*)" with password "([^"]*)"$`, s.anAdminWithPassword)
	sc.Step(`^an admin "([^"]*)" with password "([^"]*)" granted "([^"]*)"$`, s.anAdminGranted)
	sc.Step(`^an app user "([^"]*)" with password "([^"]*)"$`, s.anAppUserWithPassword)

	sc.Step(`^I log in to the admin console as "([^"]*)" with password "([^"]*)"$`, s.iLogInToTheAdminConsole)
	sc.Step(`^I am logged in to the admin console as "([^"]*)" with password "([^"]*)"$`, s.iAmLoggedIn)
	sc.Step(`^I refresh my admin token$`, s.iRefreshMyAdminToken)
	sc.Step(`^I forget my access token$`, s.iForgetMyAccessToken)

	sc.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, s.iSendARequestTo)
	sc.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, s.iSendARequestWithBody)

	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response JSON "([^"]*)" should be "([^"]*)"$`, s.theResponseJSONShouldBe)
	sc.Step(`^the response JSON "([^"]*)" should contain "([^"]*)"$`, s.theResponseJSONShouldContain)
	sc.Step(`^the response JSON "([^"]*)" should have (\d+) items?$`, s.theResponseJSONShouldHaveItems)
	sc.Step(`^I remember the response JSON "([^"]*)" as "([^"]*)"$`, s.iRememberTheResponseJSON)
}

func (s *StepsContext) thePortalIsRunning() error {
	return waitForServer(s.tc.ServerURL, 5*time.Second)
}

// User fixtures

func (s *StepsContext) createUser(email, plain string, superuser, admin bool) (*model.User, error) {
	hash, err := password.New(1000).Hash(plain)
	if err != nil {
		return nil, err
	}
	// keep phone numbers unique per scenario
	phone := fmt.Sprintf("+8869%08d", uuid.New().ID()%100000000)
	user := &model.User{
		Email:        &email,
		PhoneNumber:  &phone,
		PasswordHash: &hash,
		IsActive:     true,
		Verified:     true,
		IsSuperuser:  superuser,
		IsAdmin:      admin,
	}
	users := gormstore.NewUsersStore(s.tc.DB)
	exists, err := users.Exists(context.Background(), email, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return users.GetByEmail(context.Background(), email)
	}
	if err := users.CreateWithProfile(context.Background(), user, &model.UserProfile{}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *StepsContext) aSuperuserWithPassword(email, plain string) error {
	_, err := s.createUser(email, plain, true, true)
	return err
}

func (s *StepsContext) anAdminWithPassword(email, plain string) error {
	_, err := s.createUser(email, plain, false, true)
	return err
}

func (s *StepsContext) anAppUserWithPassword(email, plain string) error {
	_, err := s.createUser(email, plain, false, false)
	return err
}

// anAdminGranted gives the admin a dedicated role holding the comma
// separated permission codes.
func (s *StepsContext) anAdminGranted(email, plain, codes string) error {
	user, err := s.createUser(email, plain, false, true)
	if err != nil {
		return err
	}
	role := &model.Role{Code: "it-" + uuid.NewString()[:8], Name: "Integration", IsActive: true}
	if err := s.tc.DB.Create(role).Error; err != nil {
		return err
	}
	if err := s.tc.DB.Create(&model.UserRole{UserID: user.ID, RoleID: role.ID}).Error; err != nil {
		return err
	}
	for _, code := range strings.Split(codes, ",") {
		var perm model.Permission
		if err := s.tc.DB.Where("code = ?", strings.TrimSpace(code)).First(&perm).Error; err != nil {
			return fmt.Errorf("permission %q: %w", code, err)
		}
		if err := s.tc.DB.Create(&model.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Authentication steps

func (s *StepsContext) iLogInToTheAdminConsole(email, plain string) error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, plain)
	if err := s.do("POST", "/api/v1/admin/auth/login", []byte(body), false); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusOK {
		var resp struct {
			Tokens struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			} `json:"tokens"`
		}
		if err := json.Unmarshal(s.responseBody, &resp); err != nil {
			return err
		}
		s.accessToken = resp.Tokens.AccessToken
		s.refreshToken = resp.Tokens.RefreshToken
	}
	return nil
}

func (s *StepsContext) iAmLoggedIn(email, plain string) error {
	if err := s.iLogInToTheAdminConsole(email, plain); err != nil {
		return err
	}
	if s.accessToken == "" {
		return fmt.Errorf("login failed with status %d: %s", s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) iRefreshMyAdminToken() error {
	body := fmt.Sprintf(`{"refresh_token":%q}`, s.refreshToken)
	if err := s.do("POST", "/api/v1/admin/auth/refresh", []byte(body), false); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusOK {
		var pair struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.Unmarshal(s.responseBody, &pair); err != nil {
			return err
		}
		s.accessToken = pair.AccessToken
		s.refreshToken = pair.RefreshToken
	}
	return nil
}

func (s *StepsContext) iForgetMyAccessToken() error {
	s.accessToken = ""
	return nil
}

// Request steps

var varPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// expand replaces {name} with remembered values.
func (s *StepsContext) expand(in string) string {
	return varPattern.ReplaceAllStringFunc(in, func(m string) string {
		if v, ok := s.vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

func (s *StepsContext) do(method, path string, body []byte, auth bool) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+s.expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) iSendARequestTo(method, path string) error {
	return s.do(method, path, nil, true)
}

func (s *StepsContext) iSendARequestWithBody(method, path string, body *godog.DocString) error {
	return s.do(method, path, []byte(s.expand(body.Content)), true)
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(status int) error {
	if s.response.StatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.response.StatusCode, s.responseBody)
	}
	return nil
}

// lookup walks a dotted path such as "admin.roles" or "items.0.name".
func (s *StepsContext) lookup(path string) (any, error) {
	var doc any
	if err := json.Unmarshal(s.responseBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	if path == "" || path == "." {
		return doc, nil
	}
	cur := doc
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("key %q not found in %s", part, s.responseBody)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range", part)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %q", part)
		}
	}
	return cur, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func (s *StepsContext) theResponseJSONShouldBe(path, want string) error {
	v, err := s.lookup(path)
	if err != nil {
		return err
	}
	if got := stringify(v); got != s.expand(want) {
		return fmt.Errorf("expected %s to be %q, got %q", path, want, got)
	}
	return nil
}

func (s *StepsContext) theResponseJSONShouldContain(path, want string) error {
	v, err := s.lookup(path)
	if err != nil {
		return err
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%s is not a list", path)
	}
	want = s.expand(want)
	for _, it := range items {
		if stringify(it) == want {
			return nil
		}
	}
	return fmt.Errorf("%s does not contain %q: %s", path, want, stringify(v))
}

func (s *StepsContext) theResponseJSONShouldHaveItems(path string, n int) error {
	v, err := s.lookup(path)
	if err != nil {
		return err
	}
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("%s is not a list", path)
	}
	if len(items) != n {
		return fmt.Errorf("expected %d items at %s, got %d", n, path, len(items))
	}
	return nil
}

func (s *StepsContext) iRememberTheResponseJSON(path, name string) error {
	v, err := s.lookup(path)
	if err != nil {
		return err
	}
	s.vars[name] = stringify(v)
	return nil
}
